// Package testrun brings up the integration-test topology, executes the test
// suite inside it, classifies the outcome from log content and exit code, and
// guarantees teardown.
package testrun

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/relctl/pkg/compose"
	"github.com/go-go-golems/relctl/pkg/config"
)

// failureMarkers are scanned case-sensitively as substrings on every log
// line; any hit marks the run failed, scanning still runs to completion.
var failureMarkers = []string{"ERROR ", "FAILED ", "Error: "}

// ExecAPI is the slice of the Docker engine client needed to run a command
// inside an already running container.
type ExecAPI interface {
	ContainerExecCreate(ctx context.Context, container string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
}

// Options identifies one pipeline invocation; run number and attempt keep
// concurrent CI runs from colliding on container and network names.
type Options struct {
	ShaTag     string
	RunNumber  int
	RunAttempt int
}

// Result is the classified outcome of a test run.
type Result struct {
	Failed   bool
	ExitCode int
}

// Orchestrator owns the topology lifecycle for one test run.
type Orchestrator struct {
	Compose compose.Runner
	Docker  ExecAPI
	Cfg     *config.Pipeline

	// Out receives streamed test output, os.Stdout when nil.
	Out io.Writer
}

// ProjectName derives the unique compose project name for one invocation.
func ProjectName(shaTag string, runNumber, runAttempt int) string {
	return fmt.Sprintf("neon-evm-%s-%d-%d", shaTag, runNumber, runAttempt)
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Run drives the full state machine: pre-clean, pull, up, locate the tests
// container, exec the suite while scanning its output, capture diagnostics
// and tear the topology down no matter how the run went.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Result, error) {
	project := ProjectName(opts.ShaTag, opts.RunNumber, opts.RunAttempt)

	// idempotent pre-clean of any stale topology under this name
	if err := o.Compose.Down(ctx, project); err != nil {
		log.Warn().Err(err).Str("project", project).Msg("pre-clean down failed")
	}

	if err := o.Compose.Pull(ctx, project); err != nil {
		return Result{}, err
	}
	if err := o.Compose.Up(ctx, project); err != nil {
		_ = o.Compose.Down(ctx, project)
		return Result{}, err
	}

	// teardown runs on every path from here on, success or not
	defer func() {
		if err := o.Compose.Logs(ctx, project, o.Cfg.DiagnosticsService); err != nil {
			log.Warn().Err(err).Str("service", o.Cfg.DiagnosticsService).Msg("failed to capture diagnostics logs")
		}
		if err := o.Compose.Down(ctx, project); err != nil {
			log.Warn().Err(err).Str("project", project).Msg("teardown failed")
		}
	}()

	psOut, err := o.Compose.PS(ctx, project)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintln(o.out(), psOut)

	container, err := ContainerName(psOut, project, "tests")
	if err != nil {
		return Result{}, err
	}
	log.Info().Str("container", container).Msg("start tests")

	execID, err := o.Docker.ContainerExecCreate(ctx, container, types.ExecConfig{
		Cmd:          strings.Fields(o.Cfg.TestCommand),
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "exec create")
	}

	attach, err := o.Docker.ContainerExecAttach(ctx, execID.ID, types.ExecStartCheck{Tty: true})
	if err != nil {
		return Result{}, errors.Wrap(err, "exec attach")
	}
	defer attach.Close()

	failed, err := o.scanOutput(attach.Reader)
	if err != nil {
		return Result{}, err
	}

	inspect, err := o.Docker.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "exec inspect")
	}

	// note: only exit code 1 counts as failure, other nonzero codes pass
	return Result{
		Failed:   failed || inspect.ExitCode == 1,
		ExitCode: inspect.ExitCode,
	}, nil
}

// scanOutput echoes every line and reports whether any failure marker was
// seen. The scan never stops early so the full log reaches the console. A
// broken stream is an error: a partial log must never classify a run.
func (o *Orchestrator) scanOutput(r io.Reader) (bool, error) {
	failed := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(o.out(), line)
		for _, marker := range failureMarkers {
			if strings.Contains(line, marker) {
				if !failed {
					log.Info().Msg("tests are failed")
				}
				failed = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return failed, errors.Wrap(err, "read test output stream")
	}
	return failed, nil
}

// ContainerName locates the concrete instance name of a service in ps
// output. Compose versions vary the separator between dash and underscore,
// the pattern tolerates both.
func ContainerName(psOutput, project, service string) (string, error) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(project) + `[-_]` + regexp.QuoteMeta(service) + `[-_]1`)
	name := pattern.FindString(psOutput)
	if name == "" {
		return "", errors.Errorf("container for service %q not found in project %q", service, project)
	}
	return name, nil
}
