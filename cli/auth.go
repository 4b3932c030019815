// ABOUTME: Session CLI commands
// ABOUTME: login, logout and whoami against the stored session
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/tiddle/session"
	"golang.org/x/term"
)

// LoginCommand exchanges credentials for a token and stores the session.
func LoginCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *password == "" {
		pw, err := readPassword(app)
		if err != nil {
			return err
		}
		*password = pw
	}

	res, err := app.Client.Login(ctx, *email, *password)
	if err != nil {
		return userError("login failed", err)
	}

	sess := session.Session{Token: res.Token, UserID: res.UserID, Email: strings.TrimSpace(*email)}
	if res.ExpiresIn > 0 {
		sess.ExpiresAt = app.Now().Add(res.ExpiresIn)
	}
	if _, err := app.Sessions.Save(sess); err != nil {
		return err
	}
	app.Store.Reset()

	fmt.Fprintf(app.Out, "✓ Logged in as %s (user %s)\n", sess.Email, sess.UserID)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(app.Out, "  Session expires %s\n", humanize.Time(sess.ExpiresAt))
	}
	return nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(app *App) (string, error) {
	fd := int(app.In.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(app.Out, "Password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(app.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// LogoutCommand ends the server session and clears local state. Local
// state is cleared even when the server call fails.
func LogoutCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := app.Sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(app.Out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	if err := app.Client.Logout(ctx, sess.UserID); err != nil {
		fmt.Fprintf(app.Out, "Warning: server logout failed: %v\n", err)
	}
	app.Store.Reset()
	if err := app.Sessions.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}

// WhoamiCommand shows the signed-in user.
func WhoamiCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := app.currentSession()
	if err != nil {
		return err
	}
	user, err := app.Store.User(ctx, sess.UserID)
	if err != nil {
		return userError("failed to load user", err)
	}

	fmt.Fprintf(app.Out, "User:     %s\n", orDash(user.Username))
	fmt.Fprintf(app.Out, "Email:    %s\n", orDash(user.Email))
	fmt.Fprintf(app.Out, "ID:       %s\n", user.ID)
	fmt.Fprintf(app.Out, "Session:  %s\n", sess.ID)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(app.Out, "Expires:  %s\n", humanize.Time(sess.ExpiresAt))
	}
	return nil
}
