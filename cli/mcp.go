// ABOUTME: MCP server subcommand
// ABOUTME: Serves the campaign tools over stdio for Claude Desktop integration
package cli

import (
	"context"

	"github.com/harperreed/tiddle/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio. Tools that act on the
// signed-in user resolve the session on every call, so a login in another
// terminal takes effect without a restart.
func MCPCommand(ctx context.Context, app *App, version string) error {
	app.Logger.Info("starting MCP server")

	currentUser := func() (string, error) {
		sess, err := app.currentSession()
		if err != nil {
			return "", err
		}
		return sess.UserID, nil
	}

	server := handlers.NewServer(app.Store, currentUser, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
