// ABOUTME: Campaign (brand deal) and creator instance CLI commands
// ABOUTME: Lists, shows, creates and updates deals and the creators booked on them
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
)

// DealsCommand lists the signed-in user's campaigns. It opens on the
// in-progress filter like the home screen.
func DealsCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("deals", flag.ContinueOnError)
	status := fs.String("status", listing.DefaultDealFilter, "Filter by status (in-progress, roster, waiting, invoiced, complete, canceled, all)")
	query := fs.String("query", "", "Search by title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := app.currentSession()
	if err != nil {
		return err
	}
	deals, err := app.Store.BrandDeals(ctx, sess.UserID)
	if err != nil {
		return userError("failed to load campaigns", err)
	}

	res := listing.Deals.Apply(deals, *query, *status)
	if len(res.Items) == 0 {
		fmt.Fprintln(app.Out, "No campaigns found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tSTATUS\tCREATORS\tCREATED\tID")
	fmt.Fprintln(w, "-----\t------\t--------\t-------\t--")
	for _, d := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", d.Title, orDash(d.Status), len(d.InstanceIDs), shortTime(d.CreatedAt), d.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\n%s\n", listing.CountLabel(res, "campaigns"))
	return nil
}

// DealCommand shows a campaign with its brand, contacts, creators and totals.
func DealCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("deal", flag.ContinueOnError)
	status := fs.String("status", listing.All, "Filter creators by instance status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: deal [--status s] <id>")
	}

	d, err := app.Store.DealDetail(ctx, fs.Arg(0))
	if err != nil {
		return userError("failed to load campaign", err)
	}

	fmt.Fprintf(app.Out, "%s\n", d.Title)
	fmt.Fprintf(app.Out, "  Status:  %s\n", orDash(d.Status))
	if d.Brand != nil {
		fmt.Fprintf(app.Out, "  Brand:   %s\n", d.Brand.BrandName)
	} else {
		fmt.Fprintf(app.Out, "  Brand:   %s\n", orDash(d.BrandID))
	}
	if d.Agency != nil {
		fmt.Fprintf(app.Out, "  Agency:  %s\n", d.Agency.BrandName)
	}
	for _, c := range d.Contacts {
		fmt.Fprintf(app.Out, "  Contact: %s <%s>\n", c.Name, orDash(c.Email))
	}
	if d.Deliverables != "" {
		fmt.Fprintf(app.Out, "  Deliverables: %s\n", d.Deliverables)
	}

	res := listing.Instances.Apply(d.Instances, "", *status)
	fmt.Fprintf(app.Out, "\nCREATORS (%s)\n", listing.CountLabel(res, "creators"))
	if len(res.Items) > 0 {
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tPLATFORM\tSTATUS\tRATE\tPRICE\tMARGIN\tID")
		fmt.Fprintln(w, "--------\t--------\t------\t----\t-----\t------\t--")
		for _, inst := range res.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				inst.Username, orDash(inst.Platform), orDash(inst.Status),
				models.Money(inst.Rate), models.Money(inst.Price), models.Money(inst.Margin()), inst.ID)
		}
		_ = w.Flush()
	}

	t := d.Totals
	fmt.Fprintf(app.Out, "\nTotals: rate %s, price %s, margin %s across %d creator(s)\n",
		models.Money(t.Rate), models.Money(t.Price), models.Money(t.Margin), t.Count)
	return nil
}

// CreateDealCommand creates a campaign.
func CreateDealCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("create-deal", flag.ContinueOnError)
	title := fs.String("title", "", "Campaign title (required)")
	brandID := fs.String("brand", "", "Brand ID (required)")
	contacts := fs.String("contacts", "", "Comma-separated brand contact IDs (required)")
	agencyID := fs.String("agency", "", "Agency ID when booked through an agency")
	viaAgency := fs.Bool("via-agency", false, "Require an agency for this campaign")
	deliverables := fs.String("deliverables", "", "Deliverables")
	status := fs.String("status", models.DealStatusRoster, "Initial status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := app.Store.CreateBrandDeal(ctx, bubble.CreateBrandDealInput{
		Title:           *title,
		Deliverables:    *deliverables,
		Status:          *status,
		BrandID:         *brandID,
		BrandContactIDs: splitList(*contacts),
		AgencyID:        *agencyID,
		AgencyMode:      *viaAgency,
	})
	if err != nil {
		return userError("failed to create campaign", err)
	}

	fmt.Fprintf(app.Out, "✓ Campaign created: %s", *title)
	if id != "" {
		fmt.Fprintf(app.Out, " (ID: %s)", id)
	}
	fmt.Fprintln(app.Out)
	return nil
}

// UpdateDealCommand updates a campaign. Flags must come before the ID.
func UpdateDealCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("update-deal", flag.ContinueOnError)
	title := fs.String("title", "", "New title")
	status := fs.String("status", "", "New status")
	deliverables := fs.String("deliverables", "", "New deliverables")
	brandID := fs.String("brand", "", "New brand ID")
	contactID := fs.String("contact", "", "New brand contact ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-deal [flags] <id>")
	}

	err := app.Store.UpdateBrandDeal(ctx, bubble.UpdateBrandDealInput{
		BrandDealID:    fs.Arg(0),
		Title:          *title,
		Deliverables:   *deliverables,
		BrandID:        *brandID,
		BrandContactID: *contactID,
		Status:         *status,
	})
	if err != nil {
		return userError("failed to update campaign", err)
	}

	fmt.Fprintf(app.Out, "✓ Campaign updated: %s\n", fs.Arg(0))
	return nil
}

// AddCreatorCommand books a creator on a campaign.
func AddCreatorCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("add-creator", flag.ContinueOnError)
	dealID := fs.String("deal", "", "Campaign ID (required)")
	username := fs.String("username", "", "Creator username (required)")
	platform := fs.String("platform", "", "Platform: TikTok, Instagram, YouTube or Twitter (required)")
	rate := fs.Float64("rate", 0, "Rate paid to the creator")
	price := fs.Float64("price", 0, "Price billed to the brand")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := app.Store.CreateInstance(ctx, bubble.CreateInstanceInput{
		Username:    *username,
		Platform:    *platform,
		Rate:        *rate,
		Price:       *price,
		BrandDealID: *dealID,
	})
	if err != nil {
		return userError("failed to add creator", err)
	}

	fmt.Fprintf(app.Out, "✓ Creator added: %s on %s", *username, models.PlatformName(*platform))
	if id != "" {
		fmt.Fprintf(app.Out, " (ID: %s)", id)
	}
	fmt.Fprintln(app.Out)
	fmt.Fprintf(app.Out, "  Rate %s, price %s, margin %s\n", models.Money(*rate), models.Money(*price), models.Money(*price-*rate))
	return nil
}

// UpdateInstanceCommand updates a creator booking. Only flags that are
// given are sent. Flags must come before the ID.
func UpdateInstanceCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("update-instance", flag.ContinueOnError)
	dealID := fs.String("deal", "", "Campaign ID the instance belongs to (required)")
	status := fs.String("status", "", "New status")
	platform := fs.String("platform", "", "New platform")
	rate := fs.Float64("rate", 0, "New rate")
	price := fs.Float64("price", 0, "New price")
	notes := fs.String("notes", "", "New notes")
	username := fs.String("username", "", "New username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-instance --deal <id> [flags] <instance-id>")
	}
	if *dealID == "" {
		return fmt.Errorf("--deal is required")
	}

	in := bubble.UpdateInstanceInput{InstanceID: fs.Arg(0)}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "status":
			in.Status = status
		case "platform":
			in.Platform = platform
		case "rate":
			in.Rate = rate
		case "price":
			in.Price = price
		case "notes":
			in.Notes = notes
		case "username":
			in.Username = username
		}
	})

	if err := app.Store.UpdateInstance(ctx, *dealID, in); err != nil {
		return userError("failed to update creator", err)
	}
	fmt.Fprintf(app.Out, "✓ Creator updated: %s\n", fs.Arg(0))
	return nil
}
