// Command runact spawns a program with a prepared descriptor and limit
// setup: stdio redirections, explicit dup2/close surgery, a working
// directory change by descriptor, resource limits and an optional seccomp
// filter. It waits for the program and reports how it ended.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/criyle/go-spawn/cmd/runact/config"
	"github.com/criyle/go-spawn/pkg/rlimit"
	"github.com/criyle/go-spawn/pkg/seccomp"
	"github.com/criyle/go-spawn/pkg/seccomp/libseccomp"
	"github.com/criyle/go-spawn/pkg/spawn"
)

var (
	inputFileName, outputFileName, errorFileName string
	workDir, profilePath, commandStr, result     string
	closeFds, dup2Specs, envVars                 arrayFlags

	timeLimit, hardTimeLimit, openFileLimit                 uint64
	dataLimit, fileSizeLimit, stackLimit, addressSpaceLimit rlimit.Size
	disableCore                                             bool

	usePath, useTTY, verbose bool

	logger *zap.Logger
)

func main() {
	flag.Usage = printUsage
	flag.StringVar(&inputFileName, "in", "", "Redirect stdin from file")
	flag.StringVar(&outputFileName, "out", "", "Redirect stdout to file")
	flag.StringVar(&errorFileName, "err", "", "Redirect stderr to file")
	flag.StringVar(&workDir, "dir", "", "Set the working directory of the program")
	flag.Var(&closeFds, "close", "Close a descriptor before exec (repeatable)")
	flag.Var(&dup2Specs, "dup2", "Copy descriptor old=new before exec (repeatable)")
	flag.Var(&envVars, "e", "Add an environment variable (repeatable)")
	flag.Uint64Var(&timeLimit, "tl", 0, "Set cpu time limit (in second)")
	flag.Uint64Var(&hardTimeLimit, "tlh", 0, "Set cpu time hard limit (in second)")
	flag.Var(&dataLimit, "data", "Set data segment limit (e.g. 256m)")
	flag.Var(&fileSizeLimit, "fsize", "Set file size limit (e.g. 64m)")
	flag.Var(&stackLimit, "stack", "Set stack limit (e.g. 8m)")
	flag.Var(&addressSpaceLimit, "as", "Set address space limit (e.g. 1g)")
	flag.Uint64Var(&openFileLimit, "nofile", 0, "Set open file count limit")
	flag.BoolVar(&disableCore, "no-core", false, "Disable core dumps")
	flag.BoolVar(&usePath, "path", false, "Resolve the command against PATH before exec")
	flag.BoolVar(&useTTY, "tty", false, "Run the program on a fresh pseudo terminal")
	flag.StringVar(&profilePath, "profile", "", "Load a YAML run profile (flags override it)")
	flag.StringVar(&commandStr, "c", "", "Command line to split and run (shell style quoting)")
	flag.StringVar(&result, "res", "", "Write an 'exit cpu-ms maxrss-kib' report (stdout, stderr or a file name)")
	flag.BoolVar(&verbose, "v", false, "Show spawn details")
	flag.Parse()

	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "runact:", err)
			os.Exit(125)
		}
	} else {
		logger = zap.NewNop()
	}

	code, err := run()
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "runact:", err)
		// 125 reports a failure of runact itself, not of the program
		code = 125
	}
	logger.Sync()
	os.Exit(code)
}

func run() (int, error) {
	args := flag.Args()
	if commandStr != "" {
		split, err := shlex.Split(commandStr)
		if err != nil {
			return 0, fmt.Errorf("split command failed: %w", err)
		}
		args = append(split, args...)
	}
	if len(args) == 0 {
		printUsage()
	}

	var prof config.Profile
	if profilePath != "" {
		p, err := config.Load(profilePath)
		if err != nil {
			return 0, err
		}
		prof = *p
	}
	if err := applyFlags(&prof); err != nil {
		return 0, err
	}

	plan := spawn.NewPlan()
	if prof.UsePath {
		plan.SetFlags(spawn.UsePath)
	}

	// stdio redirections
	files, err := prepareFiles(prof.Stdin, prof.Stdout, prof.Stderr)
	if err != nil {
		return 0, fmt.Errorf("prepare files failed: %w", err)
	}
	defer closeFiles(files)
	for i, f := range files {
		if f != nil {
			plan.AddDup2(int(f.Fd()), i)
		}
	}

	// pty mode puts the slave on all three standard streams
	var ptmx, tts *os.File
	if useTTY {
		ptmx, tts, err = pty.Open()
		if err != nil {
			return 0, fmt.Errorf("open pty failed: %w", err)
		}
		defer ptmx.Close()
		for fd := 0; fd <= 2; fd++ {
			plan.AddDup2(int(tts.Fd()), fd)
		}
	}

	// working directory changes by an already opened descriptor
	if prof.WorkDir != "" {
		dir, err := os.OpenFile(prof.WorkDir, os.O_RDONLY|syscall.O_DIRECTORY, 0)
		if err != nil {
			return 0, fmt.Errorf("open work dir failed: %w", err)
		}
		defer dir.Close()
		plan.AddFchdir(int(dir.Fd()))
	}

	// explicit descriptor surgery after the stdio setup
	for _, d := range prof.Dup2 {
		plan.AddDup2(d.Old, d.New)
	}
	for _, fd := range prof.Close {
		plan.AddClose(fd)
	}

	rlims := prof.RLimits.ToRLimits()
	logger.Info("prepared", zap.Stringer("rlimits", rlims), zap.Strings("args", args))
	for _, rl := range rlims.PrepareRLimit() {
		plan.AddSetRlimit(rl.Res, rl.Rlim)
	}

	// the filter loads last so it cannot constrain the setup itself
	if prof.Seccomp != nil {
		filter, err := buildFilter(prof.Seccomp)
		if err != nil {
			return 0, fmt.Errorf("build seccomp filter failed: %w", err)
		}
		plan.AddSeccomp(filter)
	}

	env := prof.Env
	if len(envVars) > 0 {
		if env == nil {
			env = os.Environ()
		}
		env = append(env, envVars...)
	}

	sTime := time.Now()
	pid, err := spawn.Spawn(args[0], plan, args, env)
	if err != nil {
		return 0, err
	}
	logger.Info("spawned", zap.Int("pid", pid), zap.Duration("setupTime", time.Since(sTime)))

	// the child owns its copy of the slave now
	if tts != nil {
		tts.Close()
	}
	if ptmx != nil {
		go io.Copy(ptmx, os.Stdin)
		// drains until the last slave descriptor closes
		io.Copy(os.Stdout, ptmx)
	}

	var (
		ws syscall.WaitStatus
		ru syscall.Rusage
	)
	_, err = syscall.Wait4(pid, &ws, 0, &ru)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &ws, 0, &ru)
	}
	if err != nil {
		return 0, fmt.Errorf("wait4 failed: %w", err)
	}

	cpuTime := time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
	logger.Info("finished",
		zap.Duration("realTime", time.Since(sTime)),
		zap.Duration("cpuTime", cpuTime),
		zap.Stringer("maxRss", rlimit.Size(ru.Maxrss<<10)),
		zap.Int("exit", exitCode(ws)))

	if result != "" {
		if err := writeResult(ws, cpuTime, ru.Maxrss); err != nil {
			return 0, err
		}
	}
	return exitCode(ws), nil
}

// applyFlags overlays the command line over the loaded profile. Flags left
// at their zero value keep the profile setting.
func applyFlags(p *config.Profile) error {
	if inputFileName != "" {
		p.Stdin = inputFileName
	}
	if outputFileName != "" {
		p.Stdout = outputFileName
	}
	if errorFileName != "" {
		p.Stderr = errorFileName
	}
	if workDir != "" {
		p.WorkDir = workDir
	}
	if usePath {
		p.UsePath = true
	}
	for _, s := range closeFds {
		fd, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("close spec %q: %w", s, err)
		}
		p.Close = append(p.Close, fd)
	}
	for _, s := range dup2Specs {
		oldfd, newfd, err := parseDup2(s)
		if err != nil {
			return err
		}
		p.Dup2 = append(p.Dup2, config.Dup2{Old: oldfd, New: newfd})
	}
	if timeLimit > 0 {
		p.RLimits.CPU = timeLimit
	}
	if hardTimeLimit > 0 {
		p.RLimits.CPUHard = hardTimeLimit
	}
	if dataLimit > 0 {
		p.RLimits.Data = config.Size(dataLimit)
	}
	if fileSizeLimit > 0 {
		p.RLimits.FileSize = config.Size(fileSizeLimit)
	}
	if stackLimit > 0 {
		p.RLimits.Stack = config.Size(stackLimit)
	}
	if addressSpaceLimit > 0 {
		p.RLimits.AddressSpace = config.Size(addressSpaceLimit)
	}
	if openFileLimit > 0 {
		p.RLimits.OpenFile = openFileLimit
	}
	if disableCore {
		p.RLimits.DisableCore = true
	}
	return nil
}

// buildFilter assembles the configured seccomp filter
func buildFilter(c *config.Seccomp) (seccomp.Filter, error) {
	def, err := parseAction(c.Default)
	if err != nil {
		return nil, err
	}
	switch c.Builder {
	case "", "native":
		return seccomp.Policy{
			Allow:   c.Allow,
			Block:   c.Block,
			Default: def,
		}.Build()
	case "libseccomp":
		return libseccomp.Builder{
			Allow:   c.Allow,
			Block:   c.Block,
			Default: def,
		}.Build()
	}
	return nil, fmt.Errorf("unknown seccomp builder: %s", c.Builder)
}

func parseAction(s string) (seccomp.Action, error) {
	switch s {
	case "", "kill":
		return seccomp.ActionKill, nil
	case "allow":
		return seccomp.ActionAllow, nil
	case "errno":
		return seccomp.ActionErrno.WithReturnCode(int16(syscall.EPERM)), nil
	case "trace":
		return seccomp.ActionTrace, nil
	}
	return 0, fmt.Errorf("unknown seccomp action: %s", s)
}

// exitCode maps a wait status onto a shell style exit code
func exitCode(ws syscall.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	}
	return 255
}

func writeResult(ws syscall.WaitStatus, cpuTime time.Duration, maxRss int64) error {
	var (
		f   *os.File
		err error
	)
	switch result {
	case "stdout":
		f = os.Stdout
	case "stderr":
		f = os.Stderr
	default:
		f, err = os.Create(result)
		if err != nil {
			return fmt.Errorf("open result file failed: %w", err)
		}
		defer f.Close()
	}
	_, err = fmt.Fprintf(f, "%d %d %d\n", exitCode(ws), cpuTime.Milliseconds(), maxRss)
	return err
}
