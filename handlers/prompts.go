// ABOUTME: MCP prompt handlers for reusable campaign workflow templates
// ABOUTME: Builds campaign-summary and agency-overview prompts from cached data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store *store.Store
}

func NewPromptHandlers(st *store.Store) *PromptHandlers {
	return &PromptHandlers{store: st}
}

// Prompts lists the available prompt templates.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "campaign-summary",
			Description: "Summarize a campaign's creators, statuses and margin",
			Arguments:   []*mcp.PromptArgument{{Name: "deal_id", Description: "Campaign ID", Required: true}},
		},
		{
			Name:        "agency-overview",
			Description: "Overview of an agency and the brands it manages",
			Arguments:   []*mcp.PromptArgument{{Name: "agency_id", Description: "Agency brand ID", Required: true}},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "campaign-summary":
		return h.campaignSummary(ctx, args["deal_id"])
	case "agency-overview":
		return h.agencyOverview(ctx, args["agency_id"])
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) campaignSummary(ctx context.Context, dealID string) (*mcp.GetPromptResult, error) {
	if dealID == "" {
		return nil, fmt.Errorf("deal_id is required")
	}
	d, err := h.store.DealDetail(ctx, dealID)
	if err != nil {
		return nil, toolError("failed to load campaign", err)
	}

	var b strings.Builder
	b.WriteString("Please summarize this influencer campaign:\n\n")
	fmt.Fprintf(&b, "Title: %s\n", d.Title)
	fmt.Fprintf(&b, "Status: %s\n", d.Status)
	if d.Brand != nil {
		fmt.Fprintf(&b, "Brand: %s\n", d.Brand.BrandName)
	}
	if d.Agency != nil {
		fmt.Fprintf(&b, "Agency: %s\n", d.Agency.BrandName)
	}
	if d.Deliverables != "" {
		fmt.Fprintf(&b, "Deliverables: %s\n", d.Deliverables)
	}

	creators := listing.Instances.Apply(d.Instances, "", listing.All).Items
	fmt.Fprintf(&b, "\nCreators (%d):\n", len(creators))
	for _, inst := range creators {
		fmt.Fprintf(&b, "- %s on %s: %s (rate %.2f, price %.2f)\n", inst.Username, inst.Platform, inst.Status, inst.Rate, inst.Price)
	}
	fmt.Fprintf(&b, "\nTotals: rate %.2f, price %.2f, margin %.2f\n", d.Totals.Rate, d.Totals.Price, d.Totals.Margin)

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. Where the campaign stands overall")
	b.WriteString("\n2. Creators that look blocked and why")
	b.WriteString("\n3. Next steps to move it toward invoicing")

	return userPrompt(fmt.Sprintf("Summary for campaign: %s", d.Title), b.String()), nil
}

func (h *PromptHandlers) agencyOverview(ctx context.Context, agencyID string) (*mcp.GetPromptResult, error) {
	if agencyID == "" {
		return nil, fmt.Errorf("agency_id is required")
	}
	view, stats, contacts, err := h.store.AgencyStats(ctx, agencyID)
	if err != nil {
		return nil, toolError("failed to load agency", err)
	}

	var b strings.Builder
	b.WriteString("Please give an overview of this agency:\n\n")
	fmt.Fprintf(&b, "Agency: %s\n", view.Agency.BrandName)
	fmt.Fprintf(&b, "Active for %d days, %d managed brands, %d contacts\n", stats.DaysActive, stats.ManagedBrands, stats.Contacts)

	b.WriteString("\nManaged brands:\n")
	for _, m := range listing.AgencyBrands.Apply(view.Managed, "", listing.All).Items {
		fmt.Fprintf(&b, "- %s", m.BrandName)
		if len(m.Niches) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(m.Niches, ", "))
		}
		b.WriteString("\n")
	}
	if len(view.Failed) > 0 {
		fmt.Fprintf(&b, "(%d managed brands could not be loaded)\n", len(view.Failed))
	}
	if len(contacts) > 0 {
		b.WriteString("\nContacts:\n")
		for _, c := range contacts {
			fmt.Fprintf(&b, "- %s %s\n", c.Name, c.Role)
		}
	}

	b.WriteString("\nPlease suggest which managed brands are good fits for upcoming campaigns.")
	return userPrompt(fmt.Sprintf("Overview for agency: %s", view.Agency.BrandName), b.String()), nil
}
