// ABOUTME: Brand and agency CLI commands
// ABOUTME: Lists brands with classification filters and shows an agency overview
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
)

// BrandsCommand lists brands.
func BrandsCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("brands", flag.ContinueOnError)
	query := fs.String("query", "", "Search by brand name")
	class := fs.String("class", listing.All, "Filter by classification: direct, agency, music or all")
	hidden := fs.Bool("hidden", false, "Include hidden brands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	brands, err := app.Store.Brands(ctx)
	if err != nil {
		return userError("failed to load brands", err)
	}

	pipeline := listing.Brands
	if *hidden {
		pipeline = listing.BrandsIncludingHidden
	}
	res := pipeline.Apply(brands, *query, *class)
	if len(res.Items) == 0 {
		fmt.Fprintln(app.Out, "No brands found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCLASS\tAGENCY\tCONTACTS\tID")
	fmt.Fprintln(w, "----\t-----\t------\t--------\t--")
	for _, b := range res.Items {
		agency := ""
		if models.IsAgency(b) {
			agency = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", b.BrandName, orDash(b.Classification), orDash(agency), b.ContactCount, b.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\n%s\n", listing.CountLabel(res, "brands"))
	return nil
}

// AgencyCommand shows an agency, its managed brands, contacts and stats.
func AgencyCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("agency", flag.ContinueOnError)
	query := fs.String("query", "", "Search managed brands by brand or legal name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: agency [--query text] <id>")
	}

	view, stats, contacts, err := app.Store.AgencyStats(ctx, fs.Arg(0))
	if err != nil {
		return userError("failed to load agency", err)
	}

	a := view.Agency
	fmt.Fprintf(app.Out, "%s\n", a.BrandName)
	if a.LegalName != "" && a.LegalName != a.BrandName {
		fmt.Fprintf(app.Out, "  Legal name: %s\n", a.LegalName)
	}
	if !stats.IsAgency {
		fmt.Fprintln(app.Out, "  (not classified as an agency)")
	}
	fmt.Fprintf(app.Out, "  Managed brands: %d\n", stats.ManagedBrands)
	fmt.Fprintf(app.Out, "  Contacts:       %d\n", stats.Contacts)
	fmt.Fprintf(app.Out, "  Days active:    %d\n", stats.DaysActive)
	if a.CommissionRate > 0 {
		fmt.Fprintf(app.Out, "  Commission:     %.1f%%\n", a.CommissionRate)
	}

	res := listing.AgencyBrands.Apply(view.Managed, *query, listing.All)
	fmt.Fprintf(app.Out, "\nMANAGED BRANDS (%s)\n", listing.CountLabel(res, "brands"))
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLEGAL NAME\tNICHES\tID")
	fmt.Fprintln(w, "----\t----------\t------\t--")
	for _, b := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.BrandName, orDash(b.LegalName), orDash(strings.Join(b.Niches, ", ")), b.ID)
	}
	_ = w.Flush()

	if len(view.Failed) > 0 {
		fmt.Fprintf(app.Out, "\n%d managed brand(s) could not be loaded:\n", len(view.Failed))
		for _, f := range view.Failed {
			fmt.Fprintf(app.Out, "  %s: %v\n", f.ID, f.Err)
		}
	}

	if len(contacts) > 0 {
		fmt.Fprintln(app.Out, "\nCONTACTS")
		w = tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tID")
		fmt.Fprintln(w, "----\t-----\t----\t--")
		for _, c := range contacts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, orDash(c.Email), orDash(c.Role), c.ID)
		}
		_ = w.Flush()
	}
	return nil
}
