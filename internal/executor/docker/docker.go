package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/codecache/codecache/internal/executor"
)

// timeoutExitCode mirrors the exit code of the unix timeout command.
const timeoutExitCode = 124

// Executor runs snippets in sandboxed containers, one warm pool per
// language runtime.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool
}

// New creates an Executor, pulls every runtime image and starts the
// warm pools.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pools := make(map[string]*Pool)
	for _, rt := range runtimes {
		if _, ok := pools[rt.Name]; ok {
			continue
		}

		logger.Info("ensuring runtime image is available",
			slog.String("runtime", rt.Name),
			slog.String("image", rt.Image),
		)
		reader, err := cli.ImagePull(ctx, rt.Image, image.PullOptions{})
		if err != nil {
			cli.Close()
			return nil, fmt.Errorf("failed to pull image %s: %w", rt.Image, err)
		}
		// Reading to EOF blocks until the pull completes.
		io.Copy(io.Discard, reader)
		reader.Close()

		pools[rt.Name] = NewPool(cli, rt.Image, cfg, logger)
	}

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  pools,
	}
	for _, pool := range pools {
		pool.Start()
	}

	return exec, nil
}

// Close shuts down the pools and the docker client.
func (e *Executor) Close() error {
	for _, pool := range e.pools {
		pool.Stop()
	}
	return e.cli.Close()
}

// Supports reports whether a warm pool exists for the language.
func (e *Executor) Supports(language string) bool {
	rt, ok := lookupRuntime(strings.ToLower(language))
	if !ok {
		return false
	}
	_, ok = e.pools[rt.Name]
	return ok
}

// Execute runs the code in a pre-warmed container for its runtime.
// The container is removed afterwards; a fresh one replaces it in the
// pool.
func (e *Executor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	start := time.Now()

	rt, ok := lookupRuntime(strings.ToLower(req.Language))
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}
	pool, ok := e.pools[rt.Name]
	if !ok {
		return nil, fmt.Errorf("no pool for runtime %q", rt.Name)
	}

	containerID, err := pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	// The pooled container idles on sleep, so the code runs as an exec.
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          rt.Command(req.Code),
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the combined stream.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var exitCode int

	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			exitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		exitCode = timeoutExitCode
		stderr.WriteString("\nExecution timed out.\n")
	}

	return &executor.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}
