package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/proxycheck/internal/output"
	"github.com/maxvaer/proxycheck/internal/probe"
)

// DefaultTimeout bounds each hook invocation.
const DefaultTimeout = 30 * time.Second

// Runner executes a shell command for each reported result.
type Runner struct {
	cmd     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cmd: cmd, timeout: DefaultTimeout, logger: logger}
}

// Run executes the hook command with the result's report entry as JSON on
// stdin. Errors are logged but do not halt the run.
func (r *Runner) Run(ctx context.Context, result *probe.Result) {
	data, err := json.Marshal(output.Entry(result))
	if err != nil {
		r.logger.Warn("hook marshal error", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(result))...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// children of the shell may keep the pipes open after a kill
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		r.logger.Warn("hook failed", "proxy", result.Candidate.String(), "error", err,
			"stderr", strings.TrimSpace(stderr.String()))
		return
	}
	if len(out) > 0 {
		r.logger.Info("hook", "proxy", result.Candidate.String(), "output", strings.TrimSpace(string(out)))
	}
}

// expand replaces {ip}, {port}, {proxy} and {successes} in the command.
func (r *Runner) expand(result *probe.Result) string {
	return strings.NewReplacer(
		"{ip}", result.Candidate.Address,
		"{port}", strconv.Itoa(result.Candidate.Port),
		"{proxy}", result.Candidate.String(),
		"{successes}", strconv.Itoa(result.Successes()),
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
