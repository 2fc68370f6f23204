package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	DefaultResolveTool = "resolve-library-id"
	DefaultDocsTool    = "get-library-docs"
)

// MCPTransport talks to an MCP documentation server started as a stdio child
// process. The session is opened on first use and reused until Close.
type MCPTransport struct {
	Command     []string
	Env         []string
	ResolveTool string
	DocsTool    string
	Version     string
	Logger      *slog.Logger
	// Transport replaces the stdio child when set.
	Transport mcp.Transport

	session *mcp.ClientSession
}

// NewMCPTransport validates the server command line and fills tool defaults.
func NewMCPTransport(command []string, env []string, logger *slog.Logger) (*MCPTransport, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("mcp server command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPTransport{
		Command:     command,
		Env:         env,
		ResolveTool: DefaultResolveTool,
		DocsTool:    DefaultDocsTool,
		Version:     "dev",
		Logger:      logger,
	}, nil
}

func (t *MCPTransport) connect(ctx context.Context) (*mcp.ClientSession, error) {
	if t.session != nil {
		return t.session, nil
	}
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	transport := t.Transport
	if transport == nil {
		if len(t.Command) == 0 {
			return nil, fmt.Errorf("%w: mcp server command is empty", ErrUpstream)
		}
		cmd := exec.Command(t.Command[0], t.Command[1:]...)
		if len(t.Env) > 0 {
			cmd.Env = append(cmd.Environ(), t.Env...)
		}
		transport = &mcp.CommandTransport{Command: cmd}
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "llm-doc-digest", Version: t.Version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start mcp server: %w", ErrUpstream, err)
	}
	t.Logger.Debug("mcp session opened", "tools", []string{t.ResolveTool, t.DocsTool})
	t.session = session
	return session, nil
}

func (t *MCPTransport) Resolve(ctx context.Context, libraryName, query string) (string, error) {
	args := map[string]any{"libraryName": libraryName}
	if query != "" {
		args["query"] = query
	}
	return t.call(ctx, t.ResolveTool, args)
}

func (t *MCPTransport) Fetch(ctx context.Context, req FetchRequest) (string, error) {
	args := map[string]any{"context7CompatibleLibraryID": req.LibraryID}
	if req.Topic != "" {
		args["topic"] = req.Topic
	}
	if req.Page > 0 {
		args["page"] = req.Page
	}
	if req.Tokens > 0 {
		args["tokens"] = req.Tokens
	}
	return t.call(ctx, t.DocsTool, args)
}

func (t *MCPTransport) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	session, err := t.connect(ctx)
	if err != nil {
		return "", err
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpstream, tool, err)
	}
	text := toolText(res)
	if res.IsError {
		return "", fmt.Errorf("%w: %s: %s", ErrUpstream, tool, tail(text))
	}
	return text, nil
}

// toolText concatenates the text parts of a tool result.
func toolText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Close ends the session and the server process.
func (t *MCPTransport) Close() error {
	if t.session == nil {
		return nil
	}
	err := t.session.Close()
	t.session = nil
	return err
}
