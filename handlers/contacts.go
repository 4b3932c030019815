// ABOUTME: Brand contact MCP tool handlers
// ABOUTME: Implements find_contacts with resolved brand and agency brand names
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/resolve"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	store *store.Store
}

func NewContactHandlers(st *store.Store) *ContactHandlers {
	return &ContactHandlers{store: st}
}

type FindContactsInput struct {
	Query   string `json:"query,omitempty" jsonschema:"Search text matched against name, email, brand and agency brand names"`
	Status  string `json:"status,omitempty" jsonschema:"Filter: active, inactive, archived or all (default all)"`
	BrandID string `json:"brand_id,omitempty" jsonschema:"Only contacts of this brand or acting for it through an agency"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ContactOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Role      string   `json:"role,omitempty"`
	Status    string   `json:"status,omitempty"`
	IsPrimary bool     `json:"is_primary"`
	BrandID   string   `json:"brand_id,omitempty"`
	BrandName string   `json:"brand_name,omitempty"`
	AgencyFor []string `json:"agency_for,omitempty"`
	AgencyIDs []string `json:"agency_brand_ids,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	AddedAt   string   `json:"added_at,omitempty"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Count    string          `json:"count"`
}

func contactToOutput(c resolve.EnhancedContact) ContactOutput {
	out := ContactOutput{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Role:      c.Role,
		Status:    c.Status,
		IsPrimary: c.IsPrimary,
		BrandID:   c.BrandID,
		AgencyIDs: c.AgencyBrandIDs,
		Notes:     c.Notes,
	}
	if c.ResolvedBrand != nil {
		out.BrandName = c.ResolvedBrand.BrandName
	}
	for _, b := range c.ResolvedAgencyBrands {
		out.AgencyFor = append(out.AgencyFor, b.BrandName)
	}
	if !c.CreatedAt.IsZero() {
		out.AddedAt = c.CreatedAt.Format("2006-01-02")
	}
	return out
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	contacts, err := h.store.EnhancedContacts(ctx)
	if err != nil {
		return nil, FindContactsOutput{}, toolError("failed to load contacts", err)
	}
	if input.BrandID != "" {
		contacts = attachedTo(contacts, input.BrandID)
	}

	res := listing.Contacts.Apply(contacts, input.Query, input.Status)
	out := FindContactsOutput{Contacts: []ContactOutput{}, Count: listing.CountLabel(res, "contacts")}
	for i, c := range res.Items {
		if i >= limitOf(input.Limit) {
			break
		}
		out.Contacts = append(out.Contacts, contactToOutput(c))
	}
	return nil, out, nil
}

func attachedTo(contacts []resolve.EnhancedContact, brandID string) []resolve.EnhancedContact {
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

// toolError prefers the gateway's user-facing message.
func toolError(action string, err error) error {
	var be *bubble.Error
	if errors.As(err, &be) {
		return fmt.Errorf("%s: %s", action, be.Message)
	}
	return fmt.Errorf("%s: %w", action, err)
}
