// ABOUTME: Refresh subcommand
// ABOUTME: Refetches cached lists regardless of freshness
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/tiddle/store"
)

// RefreshCommand refetches campaigns, brands, contacts and users, or a
// single campaign and its creators with --deal.
func RefreshCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	dealID := fs.String("deal", "", "Refresh one campaign and its creators")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var targets []store.RefreshTarget
	if *dealID != "" {
		targets = append(targets, store.RefreshBrandDeal(*dealID), store.RefreshInstances(*dealID))
	} else {
		sess, err := app.currentSession()
		if err != nil {
			return err
		}
		targets = append(targets,
			store.RefreshBrandDeals(sess.UserID),
			store.RefreshBrands(),
			store.RefreshBrandContacts(),
			store.RefreshUsers())
	}

	if err := app.Store.Refresh(ctx, targets...); err != nil {
		return userError("refresh failed", err)
	}
	for _, t := range targets {
		fmt.Fprintf(app.Out, "refreshed %s\n", t.Name)
	}
	return nil
}
