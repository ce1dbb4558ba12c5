package vendordb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultShellTimeout = 8 * time.Second

// ShellAdapter shells out to an external HTTP client (curl by default) as a
// fallback for environments where the native TLS stack is blocked by an
// intercepting proxy. Same error taxonomy as the HTTP adapter; a subprocess
// that never completes counts as a timeout.
type ShellAdapter struct {
	name    string
	tool    string
	baseURL string
	format  ResponseFormat
	timeout time.Duration
}

// NewShellAdapter builds a shell-tool adapter. An empty tool defaults to
// "curl"; a zero timeout falls back to defaultShellTimeout.
func NewShellAdapter(name, tool, baseURL string, format ResponseFormat, timeout time.Duration) *ShellAdapter {
	if tool == "" {
		tool = "curl"
	}

	if timeout <= 0 {
		timeout = defaultShellTimeout
	}

	return &ShellAdapter{
		name:    name,
		tool:    tool,
		baseURL: baseURL,
		format:  format,
		timeout: timeout,
	}
}

// Name implements Adapter.
func (a *ShellAdapter) Name() string { return a.name }

// Available reports whether the external tool is on PATH. Callers should
// check once at startup instead of probing per lookup.
func (a *ShellAdapter) Available() bool {
	_, err := exec.LookPath(a.tool)

	return err == nil
}

// Lookup implements Adapter.
func (a *ShellAdapter) Lookup(ctx context.Context, oui string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	maxTime := fmt.Sprintf("%d", int(a.timeout.Seconds()))
	cmd := exec.CommandContext(ctx, a.tool, "-sS", "--max-time", maxTime, a.lookupURL(oui)) //nolint:gosec

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s did not complete", ErrTimeout, a.tool)
		}

		return "", fmt.Errorf("%w: %s: %s", ErrTransient, a.tool, strings.TrimSpace(stderr.String()))
	}

	return ParseVendorResponse(a.format, stdout.Bytes())
}

func (a *ShellAdapter) lookupURL(oui string) string {
	if strings.Contains(a.baseURL, "%s") {
		return fmt.Sprintf(a.baseURL, oui)
	}

	return strings.TrimSuffix(a.baseURL, "/") + "/" + oui
}
