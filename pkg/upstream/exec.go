package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const stderrTail = 512

// ExecTransport runs Command once per call. The child receives a verb
// ("resolve" or "fetch") plus flags, and must print a Payload as JSON.
type ExecTransport struct {
	Command []string
	Env     []string // extra KEY=VALUE entries appended to the parent environment
	Logger  *slog.Logger
}

// NewExecTransport validates the command line.
func NewExecTransport(command []string, env []string, logger *slog.Logger) (*ExecTransport, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("upstream command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecTransport{Command: command, Env: env, Logger: logger}, nil
}

func (t *ExecTransport) Resolve(ctx context.Context, libraryName, query string) (string, error) {
	return t.run(ctx, "resolve", "--library", libraryName, "--query", query)
}

func (t *ExecTransport) Fetch(ctx context.Context, req FetchRequest) (string, error) {
	args := []string{"fetch", "--id", req.LibraryID, "--topic", req.Topic, "--page", strconv.Itoa(req.Page)}
	if req.Tokens > 0 {
		args = append(args, "--tokens", strconv.Itoa(req.Tokens))
	}
	return t.run(ctx, args...)
}

// Close is a no-op; every call owns its own process.
func (t *ExecTransport) Close() error { return nil }

func (t *ExecTransport) run(ctx context.Context, args ...string) (string, error) {
	argv := append(append([]string{}, t.Command[1:]...), args...)
	cmd := exec.CommandContext(ctx, t.Command[0], argv...)
	if len(t.Env) > 0 {
		cmd.Env = append(cmd.Environ(), t.Env...)
	}
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	t.Logger.Debug("upstream child finished", "verb", args[0], "elapsed", time.Since(start), "stdout_bytes", stdout.Len())

	var payload Payload
	decodeErr := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &payload)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpstream, args[0], ctxErr)
	}
	if err != nil {
		msg := tail(stderr.String())
		if decodeErr == nil && payload.Error != "" {
			msg = payload.Error
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrUpstream, args[0], err, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedPayload, args[0], decodeErr)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrUpstream, args[0], payload.Error)
	}
	if payload.Text == nil {
		return "", fmt.Errorf("%w: %s: missing text field", ErrMalformedPayload, args[0])
	}
	return *payload.Text, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}
