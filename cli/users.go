// ABOUTME: User CLI command
// ABOUTME: Lists app users with search
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/tiddle/listing"
)

// UsersCommand lists users.
func UsersCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	query := fs.String("query", "", "Search by username or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := app.Store.Users(ctx)
	if err != nil {
		return userError("failed to load users", err)
	}
	res := listing.Users.Apply(users, *query, listing.All)
	if len(res.Items) == 0 {
		fmt.Fprintln(app.Out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tEMAIL\tJOINED\tID")
	fmt.Fprintln(w, "--------\t-----\t------\t--")
	for _, u := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", orDash(u.Username), orDash(u.Email), shortTime(u.CreatedAt), u.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\n%s\n", listing.CountLabel(res, "users"))
	return nil
}
