package coderunner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/hupe1980/agentoffice/logging"
)

// DockerOptions configures a DockerRunner.
type DockerOptions struct {
	// Image must provide a python interpreter on PATH.
	Image string
	// Timeout bounds a single execution, container start included.
	Timeout time.Duration
	// PollInterval is how often the container state is inspected.
	PollInterval time.Duration
	// Network is the container network mode. "none" disables networking.
	Network string
	Logger  logging.Logger
}

// DockerRunner executes Python code in a throwaway container.
type DockerRunner struct {
	client *client.Client
	opts   DockerOptions
}

// NewDockerRunner connects to the Docker daemon configured by the
// environment (DOCKER_HOST and friends).
func NewDockerRunner(optFns ...func(o *DockerOptions)) (*DockerRunner, error) {
	opts := DockerOptions{
		Image:        "python:3.12-slim",
		Timeout:      30 * time.Second,
		PollInterval: 250 * time.Millisecond,
		Network:      "none",
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &DockerRunner{client: cli, opts: opts}, nil
}

// Run starts a container executing code and waits for it to exit.
func (r *DockerRunner) Run(ctx context.Context, code string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	start := time.Now()

	resp, err := r.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config: &container.Config{
			Image: r.opts.Image,
			Cmd:   []string{"python", "-c", code},
		},
		HostConfig: &container.HostConfig{
			NetworkMode: container.NetworkMode(r.opts.Network),
		},
	})
	if err != nil {
		return Output{}, fmt.Errorf("failed to create container: %w", err)
	}

	id := resp.ID
	defer func() {
		// The run context may already be done; removal gets its own.
		rmCtx, rmCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer rmCancel()

		if _, err := r.client.ContainerRemove(rmCtx, id, client.ContainerRemoveOptions{Force: true}); err != nil {
			r.opts.Logger.Warn("coderunner.remove_failed", "container", shortID(id), "error", err)
		}
	}()

	r.opts.Logger.Debug("coderunner.start", "container", shortID(id), "image", r.opts.Image)

	if _, err := r.client.ContainerStart(ctx, id, client.ContainerStartOptions{}); err != nil {
		return Output{}, fmt.Errorf("failed to start container: %w", err)
	}

	exitCode, err := r.wait(ctx, id)
	if err != nil {
		return Output{}, err
	}

	logs, err := r.client.ContainerLogs(ctx, id, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return Output{}, fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	stdout, stderr, err := splitLogs(logs)
	if err != nil {
		return Output{}, fmt.Errorf("failed to read logs: %w", err)
	}

	out := Output{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: time.Since(start),
	}

	r.opts.Logger.Debug("coderunner.end", "container", shortID(id), "exit_code", exitCode, "duration_ms", out.Duration.Milliseconds())

	return out, nil
}

func (r *DockerRunner) wait(ctx context.Context, id string) (int, error) {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		inspect, err := r.client.ContainerInspect(ctx, id, client.ContainerInspectOptions{})
		if err != nil {
			return 0, fmt.Errorf("failed to inspect container: %w", err)
		}

		if state := inspect.Container.State; state != nil && !state.Running {
			return state.ExitCode, nil
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("execution timed out: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the Docker client.
func (r *DockerRunner) Close() error {
	return r.client.Close()
}

// splitLogs separates the multiplexed stdout and stderr streams of a
// container started without a TTY.
func splitLogs(r io.Reader) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &errOut, r); err != nil {
		return "", "", err
	}
	return out.String(), errOut.String(), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
