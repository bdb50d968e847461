// Package shell executes terminal commands inside the box root. The shell
// dialect is probed once at construction; pool aliases in command text are
// rewritten to environment-variable references so physical pool paths never
// appear in the command string handed to the shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"codebox/internal/logging"
	"codebox/internal/pool"
	"codebox/internal/sandbox"
)

// outputCap bounds command output returned to the agent.
const outputCap = 50000

// defaultTimeout bounds a single command execution.
const defaultTimeout = 60 * time.Second

// Dialect identifies the probed shell flavor.
type Dialect int

const (
	DialectPOSIX Dialect = iota
	DialectCmd
	DialectPowerShell
)

func (d Dialect) String() string {
	switch d {
	case DialectCmd:
		return "cmd"
	case DialectPowerShell:
		return "powershell"
	default:
		return "posix"
	}
}

// Runner executes commands for one box.
type Runner struct {
	sb      *sandbox.Sandbox
	pools   *pool.Registry
	dialect Dialect
	shell   string // shell binary
	flag    string // argument introducing the command string
	timeout time.Duration
}

// NewRunner probes the host shell and builds a runner bound to the box root.
func NewRunner(sb *sandbox.Sandbox, pools *pool.Registry) *Runner {
	dialect, shell, flag := probeShell()
	logging.Shell("shell probe: dialect=%s shell=%s", dialect, shell)
	return &Runner{
		sb:      sb,
		pools:   pools,
		dialect: dialect,
		shell:   shell,
		flag:    flag,
		timeout: defaultTimeout,
	}
}

// probeShell detects the host dialect. On Windows, COMSPEC selects between
// cmd and PowerShell; elsewhere bash is preferred with /bin/sh fallback.
func probeShell() (Dialect, string, string) {
	if runtime.GOOS == "windows" {
		comspec := strings.ToLower(os.Getenv("COMSPEC"))
		if strings.Contains(comspec, "powershell") {
			return DialectPowerShell, "powershell", "-Command"
		}
		return DialectCmd, "cmd", "/C"
	}
	if err := exec.Command("bash", "--version").Run(); err == nil {
		return DialectPOSIX, "bash", "-c"
	}
	return DialectPOSIX, "/bin/sh", "-c"
}

// Dialect returns the probed dialect.
func (r *Runner) Dialect() Dialect {
	return r.dialect
}

// Run executes a command in the box root. Pool aliases in the command text
// are rewritten to env-var references and the physical roots injected into
// the child environment.
func (r *Runner) Run(ctx context.Context, command string) (string, error) {
	rewritten, env := r.RewriteAliases(command)
	if rewritten != command {
		logging.ShellDebug("alias rewrite: %q -> %q", command, rewritten)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.shell, r.flag, rewritten)
	cmd.Dir = r.sb.Root()
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n--- stderr ---\n"
		}
		output += stderr.String()
	}
	if len(output) > outputCap {
		output = output[:outputCap] + "\n...[truncated]"
	}

	if runErr != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			logging.Shell("command timed out: %s", command)
			return output, fmt.Errorf("command timed out after %s", r.timeout)
		}
		logging.Shell("command failed: %s (%v)", command, runErr)
		return output, fmt.Errorf("command failed: %w\nOutput:\n%s", runErr, output)
	}

	logging.Shell("command completed: %s (%d bytes output)", command, len(output))
	return output, nil
}

// RewriteAliases replaces every @alias occurrence with the dialect's env-var
// reference and returns the KEY=value pairs to inject. Longer aliases are
// rewritten first so @docs-extra is never clobbered by @docs.
func (r *Runner) RewriteAliases(command string) (string, []string) {
	pools := r.pools.Pools()
	sort.Slice(pools, func(i, j int) bool { return len(pools[i].Alias) > len(pools[j].Alias) })

	var env []string
	for _, p := range pools {
		if !strings.Contains(command, p.Alias) {
			continue
		}
		name := pool.EnvName(p.Alias)
		command = strings.ReplaceAll(command, p.Alias, r.envRef(name))
		env = append(env, name+"="+p.Root)
	}
	return command, env
}

func (r *Runner) envRef(name string) string {
	switch r.dialect {
	case DialectCmd:
		return "%" + name + "%"
	case DialectPowerShell:
		return "$env:" + name
	default:
		return "$" + name
	}
}

// Instruction renders the environment snippet embedded into the agent's
// system context: dialect, mounted pools, and an env-var usage example.
func (r *Runner) Instruction() string {
	var sb strings.Builder
	sb.WriteString("#### Shell environment\n")
	fmt.Fprintf(&sb, "- **Dialect**: %s\n", r.dialect)

	pools := r.pools.Pools()
	if len(pools) == 0 {
		sb.WriteString("- **Mounted pools**: none\n")
		return sb.String()
	}

	var aliases []string
	for _, p := range pools {
		aliases = append(aliases, p.Alias)
	}
	fmt.Fprintf(&sb, "- **Mounted pools**: %s\n", strings.Join(aliases, ", "))
	fmt.Fprintf(&sb, "- Pool paths are available as environment variables, e.g. `ls %s` for %s\n",
		r.envRef(pool.EnvName(pools[0].Alias)), pools[0].Alias)
	return sb.String()
}
