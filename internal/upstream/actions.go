package upstream

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-digest/internal/config"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream/context7"
)

// Environment handed from the parent to the child process.
const (
	EnvBaseURL   = "LLM_DOC_DIGEST_BASE_URL"
	EnvAPIKeyEnv = "LLM_DOC_DIGEST_API_KEY_ENV"
	EnvTimeout   = "LLM_DOC_DIGEST_TIMEOUT"
)

// Flags shared by both child verbs.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "base-url", EnvVars: []string{EnvBaseURL}, Value: context7.DefaultBaseURL},
		&cli.StringFlag{Name: "api-key-env", EnvVars: []string{EnvAPIKeyEnv}, Value: "CONTEXT7_API_KEY"},
		&cli.DurationFlag{Name: "timeout", EnvVars: []string{EnvTimeout}, Value: 30 * time.Second},
	}
}

// Command is the hidden "upstream" command the exec transport runs.
func Command() *cli.Command {
	return &cli.Command{
		Name:   "upstream",
		Usage:  "Child process side of the exec transport",
		Hidden: true,
		Subcommands: []*cli.Command{
			{
				Name:   "resolve",
				Action: ResolveAction,
				Flags: append(Flags(),
					&cli.StringFlag{Name: "library", Required: true},
					&cli.StringFlag{Name: "query"},
				),
			},
			{
				Name:   "fetch",
				Action: FetchAction,
				Flags: append(Flags(),
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "topic"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "tokens"},
				),
			},
		},
	}
}

// client reads .env from the working directory before the API key lookup.
func client(c *cli.Context) (*context7.Client, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	return context7.NewClient(c.String("base-url"), os.Getenv(c.String("api-key-env")), c.Duration("timeout")), nil
}

// ResolveAction is the child side of a resolve call.
func ResolveAction(c *cli.Context) error {
	cl, err := client(c)
	if err != nil {
		return fail(c, err)
	}
	libs, err := cl.Search(c.Context, c.String("library"))
	if err != nil {
		return fail(c, err)
	}
	return emit(c, upstream.TextPayload(context7.FormatResults(libs)))
}

// FetchAction is the child side of a fetch call.
func FetchAction(c *cli.Context) error {
	cl, err := client(c)
	if err != nil {
		return fail(c, err)
	}
	text, err := cl.Docs(c.Context, c.String("id"), c.String("topic"), c.Int("page"), c.Int("tokens"))
	if err != nil {
		return fail(c, err)
	}
	return emit(c, upstream.TextPayload(text))
}

func emit(c *cli.Context, p upstream.Payload) error {
	if err := json.NewEncoder(c.App.Writer).Encode(p); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write payload: %v", err), 1)
	}
	return nil
}

// fail prints an error payload and exits non-zero so the parent treats the
// call as failed.
func fail(c *cli.Context, err error) error {
	_ = json.NewEncoder(c.App.Writer).Encode(upstream.Payload{Error: err.Error()})
	return cli.Exit(err.Error(), 1)
}
