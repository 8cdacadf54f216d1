// Package compose controls a fixed multi-container test topology through a
// compose CLI, behind a narrow capability interface so orchestration code
// never depends on a specific tool's argument syntax.
package compose

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Runner is the capability surface the test orchestrator needs from the
// topology tooling.
type Runner interface {
	Pull(ctx context.Context, project string) error
	Up(ctx context.Context, project string) error
	Down(ctx context.Context, project string) error
	PS(ctx context.Context, project string) (string, error)
	Logs(ctx context.Context, project, service string) error
}

// CLI drives the topology with a compose binary ("docker-compose" or
// "docker compose").
type CLI struct {
	Bin  string
	File string
	// Env is appended to the process environment for every invocation; this
	// is how image references reach the topology definition.
	Env map[string]string
	// Out receives command output, os.Stdout when nil.
	Out io.Writer
}

var _ Runner = (*CLI)(nil)

func (c *CLI) Pull(ctx context.Context, project string) error {
	return c.run(ctx, project, "pull")
}

func (c *CLI) Up(ctx context.Context, project string) error {
	return c.run(ctx, project, "up", "-d")
}

func (c *CLI) Down(ctx context.Context, project string) error {
	return c.run(ctx, project, "down")
}

func (c *CLI) PS(ctx context.Context, project string) (string, error) {
	var buf bytes.Buffer
	cmd, err := c.command(ctx, project, "ps")
	if err != nil {
		return "", err
	}
	cmd.Stdout = &buf
	cmd.Stderr = c.out()
	log.Info().Str("command", strings.Join(cmd.Args, " ")).Msg("run command")
	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, "compose ps")
	}
	return buf.String(), nil
}

func (c *CLI) Logs(ctx context.Context, project, service string) error {
	return c.run(ctx, project, "logs", service)
}

func (c *CLI) run(ctx context.Context, project string, sub ...string) error {
	cmd, err := c.command(ctx, project, sub...)
	if err != nil {
		return err
	}
	cmd.Stdout = c.out()
	cmd.Stderr = c.out()
	log.Info().Str("command", strings.Join(cmd.Args, " ")).Msg("run command")
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "compose %s", sub[0])
	}
	return nil
}

func (c *CLI) command(ctx context.Context, project string, sub ...string) (*exec.Cmd, error) {
	fields := strings.Fields(c.Bin)
	if len(fields) == 0 {
		return nil, errors.New("compose binary not configured")
	}
	args := append(fields[1:], c.args(project, sub...)...)
	// #nosec G204 -- binary and file come from pipeline configuration.
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	return cmd, nil
}

func (c *CLI) args(project string, sub ...string) []string {
	args := []string{"-p", project, "-f", c.File}
	return append(args, sub...)
}

func (c *CLI) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	out := append([]string{}, base...)
	for k, v := range extra {
		out = append(out, k+"="+v)
	}
	return out
}
