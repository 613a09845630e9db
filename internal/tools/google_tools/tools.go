package google_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/server"
	"github.com/teemow/coverletter/internal/tools/common"
)

const loginHint = "Run `coverletter login` on the host running this server, then retry."

// AuthStatus is the result of google_auth_status.
type AuthStatus struct {
	Authenticated bool      `json:"authenticated"`
	Refreshable   bool      `json:"refreshable,omitempty"`
	Expiry        time.Time `json:"expiry,omitempty"`
	Scopes        []string  `json:"scopes,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Hint          string    `json:"hint,omitempty"`
}

// RegisterGoogleTools registers the Google credential tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authStatusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Check whether a valid Google credential for Drive and Docs is available. Refreshes an expired credential when possible."),
	)

	s.AddTool(authStatusTool, common.InstrumentedToolHandler("google_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	return nil
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	source := sc.Credentials()
	if source == nil {
		return mcp.NewToolResultError("No credential source is configured for this server"), nil
	}

	cred, err := source.Credentials(ctx)
	if err != nil {
		if google.IsAuthError(err) {
			return common.JSONResult(AuthStatus{
				Reason: err.Error(),
				Hint:   loginHint,
			}), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check Google credential: %v", err)), nil
	}

	return common.JSONResult(AuthStatus{
		Authenticated: true,
		Refreshable:   cred.HasClient() && cred.RefreshToken != "",
		Expiry:        cred.Expiry,
		Scopes:        cred.Scopes,
	}), nil
}
