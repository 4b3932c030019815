// ABOUTME: Visualization CLI commands
// ABOUTME: Renders an agency network as DOT and a campaign dashboard in the terminal
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/viz"
	"golang.org/x/sync/errgroup"
)

// VizCommand routes viz subcommands.
func VizCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return errors.New("viz requires a subcommand: agency")
	}
	switch args[0] {
	case "agency":
		return VizAgencyCommand(ctx, app, args[1:])
	}
	return fmt.Errorf("unknown viz command: %s", args[0])
}

// VizAgencyCommand renders an agency's managed brands and contacts as DOT.
func VizAgencyCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("viz agency", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("agency ID required")
	}

	dot, g, err := viz.GenerateAgencyGraph(ctx, app.Store, fs.Arg(0))
	if err != nil {
		return userError("failed to build agency graph", err)
	}
	app.Logger.Debug("agency graph rendered")

	if *output != "" {
		if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "Wrote %s (%d nodes, %d edges)\n", *output, len(g.Nodes), len(g.Edges))
		return nil
	}

	fmt.Fprintln(app.Out, dot)
	return nil
}

// DashboardCommand prints campaign counts by status alongside brand and
// contact totals for the signed-in user.
func DashboardCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := app.currentSession()
	if err != nil {
		return err
	}

	var (
		deals    []models.BrandDeal
		brands   []models.Brand
		contacts []models.BrandContact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deals, err = app.Store.BrandDeals(gctx, sess.UserID)
		return err
	})
	g.Go(func() (err error) {
		brands, err = app.Store.Brands(gctx)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = app.Store.BrandContacts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return userError("failed to load dashboard", err)
	}

	stats := viz.GenerateDashboardStats(deals, brands, contacts, app.Now())
	fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}
