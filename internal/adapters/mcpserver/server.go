// Package mcpserver exposes the read side of palmares as MCP tools over
// streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/okian/palmares/internal/domain/champions"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
)

const (
	serverName    = "palmares"
	serverVersion = "1.0.0"
)

// Reader is what the tools read from.
type Reader interface {
	Competitions(ctx context.Context) ([]string, error)
	History(ctx context.Context, competition string) ([]model.Snapshot, error)
	Current(ctx context.Context, competition, seasonLabel string, policy season.Policy) (model.Snapshot, error)
	Champions(ctx context.Context, competition string) ([]champions.Title, error)
}

// CompetitionArgs selects one competition.
type CompetitionArgs struct {
	Competition string `json:"competition" jsonschema:"Competition name, e.g. La Liga or General"`
}

// CurrentArgs selects the current snapshot of a season.
type CurrentArgs struct {
	Competition string `json:"competition" jsonschema:"Competition name"`
	Season      string `json:"season,omitempty" jsonschema:"Season label such as 23/24; empty means the most recent"`
	Policy      string `json:"policy,omitempty" jsonschema:"latest (default) or stable (Final, then Mid-season, then latest)"`
}

// ListArgs takes no input.
type ListArgs struct{}

// NewServer builds an MCP server with the read tools registered.
func NewServer(r Reader, log logger.Logger) *mcp.Server {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("mcp")

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_competitions",
		Description: "List every competition with a stored history",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ ListArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(r.Competitions(ctx))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "competition_history",
		Description: "Full snapshot history of a competition in append order",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args CompetitionArgs) (*mcp.CallToolResult, any, error) {
		if args.Competition == "" {
			return toolError(errors.New("competition is required")), nil, nil
		}
		return toolJSON(r.History(ctx, args.Competition))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "current_snapshot",
		Description: "Current snapshot of a competition season under the latest or stable policy",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args CurrentArgs) (*mcp.CallToolResult, any, error) {
		if args.Competition == "" {
			return toolError(errors.New("competition is required")), nil, nil
		}
		policy, ok := season.ParsePolicy(args.Policy)
		if !ok {
			return toolError(fmt.Errorf("unknown policy %q", args.Policy)), nil, nil
		}
		return toolJSON(r.Current(ctx, args.Competition, args.Season, policy))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "champions",
		Description: "Title winners of a competition, newest season first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args CompetitionArgs) (*mcp.CallToolResult, any, error) {
		if args.Competition == "" {
			return toolError(errors.New("competition is required")), nil, nil
		}
		return toolJSON(r.Champions(ctx, args.Competition))
	})

	log.Debug(context.Background(), "mcp tools registered", logger.Int("tools", 4))
	return server
}

// Handler serves server over streamable HTTP with JSON responses.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON[T any](v T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
