//go:build unix

package lookpath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("write %s error: %v", p, err)
	}
	return p
}

func TestResolveOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "tool", 0755)
	writeFile(t, second, "tool", 0755)

	r := Resolver{Path: first + ":" + second}
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if want := filepath.Join(first, "tool"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveSkipsNonExecutable(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "tool", 0644)
	want := writeFile(t, second, "tool", 0755)

	r := Resolver{Path: first + ":" + second}
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveSkipsMissingDir(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "tool", 0755)

	r := Resolver{Path: filepath.Join(dir, "missing") + ":" + dir}
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveSeparatorPassthrough(t *testing.T) {
	r := Resolver{Path: t.TempDir()}
	for _, name := range []string{"/bin/sh", "./tool", "a/b"} {
		got, err := r.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", name, err)
		}
		if got != name {
			t.Errorf("Resolve(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	r := Resolver{Path: t.TempDir()}
	if _, err := r.Resolve("tool"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestResolveDefault(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "tool", 0755)

	r := Resolver{Default: dir}
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// explicit path takes precedence over the default
	r = Resolver{Path: t.TempDir(), Default: dir}
	if _, err := r.Resolve("tool"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestResolveDefaultPath(t *testing.T) {
	got, err := Resolver{}.Resolve("sh")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	found := false
	for _, dir := range strings.Split(DefaultPath, ":") {
		if got == filepath.Join(dir, "sh") {
			found = true
		}
	}
	if !found {
		t.Errorf("got %q, want a DefaultPath entry", got)
	}
}

func TestResolveEmptyEntryIsCwd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tool", 0755)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir error: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	r := Resolver{Path: filepath.Join(dir, "missing") + ":"}
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if want := "tool"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFromEnv(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "tool", 0755)
	want := writeFile(t, second, "tool", 0755)

	r := FromEnv([]string{"HOME=/", "PATH=" + first, "PATH=" + second})
	got, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if r := FromEnv([]string{"HOME=/"}); r.Path != "" {
		t.Errorf("got %q, want empty path", r.Path)
	}
}
