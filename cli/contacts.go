// ABOUTME: Brand contact CLI commands
// ABOUTME: Lists contacts with resolved brand names and shows one contact's detail
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/resolve"
)

// ContactsCommand lists brand contacts.
func ContactsCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("contacts", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name, email, brand or agency brand")
	status := fs.String("status", listing.All, "Filter by status: active, inactive, archived or all")
	brandID := fs.String("brand", "", "Only contacts of this brand (or agency)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contacts, err := app.Store.EnhancedContacts(ctx)
	if err != nil {
		return userError("failed to load contacts", err)
	}
	if *brandID != "" {
		contacts = forBrand(contacts, *brandID)
	}

	res := listing.Contacts.Apply(contacts, *query, *status)
	if len(res.Items) == 0 {
		fmt.Fprintln(app.Out, "No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tBRAND\tAGENCY FOR\tID")
	fmt.Fprintln(w, "----\t-----\t-----\t----------\t--")
	for _, c := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, orDash(c.Email), brandName(c), orDash(agencyNames(c)), c.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\n%s\n", listing.CountLabel(res, "contacts"))
	return nil
}

func forBrand(contacts []resolve.EnhancedContact, brandID string) []resolve.EnhancedContact {
	var out []resolve.EnhancedContact
	for _, c := range contacts {
		if c.BrandID == brandID {
			out = append(out, c)
			continue
		}
		for _, id := range c.AgencyBrandIDs {
			if id == brandID {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func brandName(c resolve.EnhancedContact) string {
	if c.ResolvedBrand != nil {
		return c.ResolvedBrand.BrandName
	}
	return "-"
}

func agencyNames(c resolve.EnhancedContact) string {
	names := make([]string, 0, len(c.ResolvedAgencyBrands))
	for _, b := range c.ResolvedAgencyBrands {
		names = append(names, b.BrandName)
	}
	return strings.Join(names, ", ")
}

// ContactCommand shows one contact.
func ContactCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("contact", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: contact <id>")
	}

	c, err := app.Store.EnhancedContact(ctx, fs.Arg(0))
	if err != nil {
		return userError("failed to load contact", err)
	}

	fmt.Fprintf(app.Out, "%s\n", c.Name)
	fmt.Fprintf(app.Out, "  Email:   %s\n", orDash(c.Email))
	fmt.Fprintf(app.Out, "  Phone:   %s\n", orDash(c.Phone))
	fmt.Fprintf(app.Out, "  Role:    %s\n", orDash(c.Role))
	fmt.Fprintf(app.Out, "  Status:  %s\n", orDash(c.Status))
	if c.IsPrimary {
		fmt.Fprintln(app.Out, "  Primary contact")
	}
	fmt.Fprintf(app.Out, "  Brand:   %s\n", brandName(c))
	if names := agencyNames(c); names != "" {
		fmt.Fprintf(app.Out, "  Agency for: %s\n", names)
	}
	if c.Notes != "" {
		fmt.Fprintf(app.Out, "  Notes:   %s\n", c.Notes)
	}
	fmt.Fprintf(app.Out, "  Added:   %s\n", shortTime(c.CreatedAt))
	return nil
}
