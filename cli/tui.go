// ABOUTME: TUI subcommand
// ABOUTME: Opens the interactive campaign, contact and brand browser
package cli

import (
	"context"

	"github.com/harperreed/tiddle/tui"
)

// TUICommand runs the full-screen browser for the signed-in user.
func TUICommand(ctx context.Context, app *App, args []string) error {
	sess, err := app.currentSession()
	if err != nil {
		return err
	}
	return tui.Run(ctx, app.Store, sess.UserID)
}
