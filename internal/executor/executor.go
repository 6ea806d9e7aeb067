package executor

import (
	"context"
	"time"
)

// Request asks for a piece of code to be run under a named language
// runtime.
type Request struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Result carries the output and status of a run.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Executor runs code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
	// Supports reports whether the executor can run the language.
	Supports(language string) bool
}
