// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package command runs external extraction tools either on the host or
// inside a container image.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pdiddy/pdf-extract/internal/container"
	"github.com/pdiddy/pdf-extract/internal/log"
)

// Cmd is a single tool invocation.
type Cmd struct {
	// Name is the program to run.
	Name string
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Mounts lists host directories the tool reads or writes. Host runs
	// ignore it; container runs bind-mount each path.
	Mounts []string
}

// String renders the invocation as a shell-like line for logs. Values of
// flags that look like secrets are masked.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for i, a := range c.Args {
		if i > 0 && strings.HasSuffix(c.Args[i-1], "_api_key") {
			a = "***"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner executes a Cmd.
type Runner interface {
	Run(ctx context.Context, c Cmd) error
}

// ExitError reports a tool that ran but exited unsuccessfully.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s returned (error) returncode %d", e.Name, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Local runs tools on the host with os/exec.
type Local struct{}

// Run executes c and converts a non-zero exit into *ExitError. Stderr is
// captured for the error message and also copied to c.Stderr when set.
func (Local) Run(ctx context.Context, c Cmd) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout

	var stderr strings.Builder
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, c.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	log.Debug("running tool", "cmd", c.String())
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("running %s: %w", c.Name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Name: c.Name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return fmt.Errorf("running %s: %w", c.Name, err)
}

// Container runs tools inside Image using a detected container runtime.
type Container struct {
	Runtime container.Runtime
	Image   string
}

// NewContainer detects a runtime and verifies that image is present.
func NewContainer(image string) (*Container, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("image %s not available in %s: %w", image, rt.Name(), err)
	}
	return &Container{Runtime: rt, Image: image}, nil
}

// Run executes c inside the container image.
func (r *Container) Run(ctx context.Context, c Cmd) error {
	var stderr strings.Builder
	var errW io.Writer = &stderr
	if c.Stderr != nil {
		errW = io.MultiWriter(&stderr, c.Stderr)
	}

	log.Debug("running tool in container", "runtime", r.Runtime.Name(), "image", r.Image, "cmd", c.String())
	err := r.Runtime.Run(ctx, container.RunOptions{
		Image:   r.Image,
		Command: append([]string{c.Name}, c.Args...),
		Mounts:  c.Mounts,
		Stdin:   c.Stdin,
		Stdout:  c.Stdout,
		Stderr:  errW,
	})
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Name: c.Name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return err
}

// ForImage returns a container runner when image is set and the host runner
// otherwise.
func ForImage(image string) (Runner, error) {
	if image == "" {
		return Local{}, nil
	}
	return NewContainer(image)
}
