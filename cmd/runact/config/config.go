// Package config defines the YAML run profile consumed by runact.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/criyle/go-spawn/pkg/rlimit"
)

// Size accepts human friendly byte sizes such as "256m" in YAML.
type Size rlimit.Size

func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("size is not a scalar value")
	}
	return (*rlimit.Size)(s).Set(node.Value)
}

// Dup2 is one descriptor copy applied before exec.
type Dup2 struct {
	Old int `yaml:"old"`
	New int `yaml:"new"`
}

// RLimits mirrors rlimit.RLimits with size strings for the byte valued
// resources.
type RLimits struct {
	CPU          uint64 `yaml:"cpu"`
	CPUHard      uint64 `yaml:"cpuHard"`
	Data         Size   `yaml:"data"`
	FileSize     Size   `yaml:"fileSize"`
	Stack        Size   `yaml:"stack"`
	AddressSpace Size   `yaml:"addressSpace"`
	OpenFile     uint64 `yaml:"openFile"`
	DisableCore  bool   `yaml:"disableCore"`
}

// ToRLimits converts the YAML form into runtime limits.
func (r RLimits) ToRLimits() rlimit.RLimits {
	return rlimit.RLimits{
		CPU:          r.CPU,
		CPUHard:      r.CPUHard,
		Data:         uint64(r.Data),
		FileSize:     uint64(r.FileSize),
		Stack:        uint64(r.Stack),
		AddressSpace: uint64(r.AddressSpace),
		OpenFile:     r.OpenFile,
		DisableCore:  r.DisableCore,
	}
}

// Seccomp selects a filter builder and its syscall lists.
type Seccomp struct {
	// Builder picks the assembler: "native" (pure Go, the default) or
	// "libseccomp" (host library through cgo)
	Builder string `yaml:"builder"`
	// Default is the action for unmatched syscalls: "kill" (the
	// default), "allow", "errno" or "trace"
	Default string   `yaml:"default"`
	Allow   []string `yaml:"allow"`
	Block   []string `yaml:"block"`
}

// Profile is a complete run setup. Zero fields keep the spawn defaults;
// a nil Env inherits the parent environment.
type Profile struct {
	WorkDir string   `yaml:"workDir"`
	Stdin   string   `yaml:"stdin"`
	Stdout  string   `yaml:"stdout"`
	Stderr  string   `yaml:"stderr"`
	UsePath bool     `yaml:"usePath"`
	Env     []string `yaml:"env"`
	Close   []int    `yaml:"close"`
	Dup2    []Dup2   `yaml:"dup2"`
	RLimits RLimits  `yaml:"rlimits"`
	Seccomp *Seccomp `yaml:"seccomp"`
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile failed: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile failed: %w", err)
	}
	return &p, nil
}
