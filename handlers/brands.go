// ABOUTME: Brand and agency MCP tool handlers
// ABOUTME: Implements find_brands and get_agency
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type BrandHandlers struct {
	store *store.Store
}

func NewBrandHandlers(st *store.Store) *BrandHandlers {
	return &BrandHandlers{store: st}
}

type FindBrandsInput struct {
	Query          string `json:"query,omitempty" jsonschema:"Search text matched against brand names"`
	Classification string `json:"classification,omitempty" jsonschema:"Filter: direct, agency, music or all (default all)"`
	IncludeHidden  bool   `json:"include_hidden,omitempty" jsonschema:"Include hidden brands"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type BrandOutput struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	LegalName       string   `json:"legal_name,omitempty"`
	Classification  string   `json:"classification,omitempty"`
	IsAgency        bool     `json:"is_agency"`
	Niches          []string `json:"niches,omitempty"`
	ContactCount    int      `json:"contact_count"`
	ManagedBrandIDs []string `json:"managed_brand_ids,omitempty"`
	Website         string   `json:"website,omitempty"`
	ParentAgencyID  string   `json:"parent_agency_id,omitempty"`
}

type FindBrandsOutput struct {
	Brands []BrandOutput `json:"brands"`
	Count  string        `json:"count"`
}

func brandToOutput(b models.Brand) BrandOutput {
	return BrandOutput{
		ID:              b.ID,
		Name:            b.BrandName,
		LegalName:       b.LegalName,
		Classification:  b.Classification,
		IsAgency:        models.IsAgency(b),
		Niches:          b.Niches,
		ContactCount:    b.ContactCount,
		ManagedBrandIDs: b.ManagedBrandIDs,
		Website:         b.Website,
	}
}

const defaultLimit = 50

func limitOf(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	return n
}

func (h *BrandHandlers) FindBrands(ctx context.Context, _ *mcp.CallToolRequest, input FindBrandsInput) (*mcp.CallToolResult, FindBrandsOutput, error) {
	brands, err := h.store.Brands(ctx)
	if err != nil {
		return nil, FindBrandsOutput{}, toolError("failed to load brands", err)
	}

	pipeline := listing.Brands
	if input.IncludeHidden {
		pipeline = listing.BrandsIncludingHidden
	}
	res := pipeline.Apply(brands, input.Query, input.Classification)

	out := FindBrandsOutput{Brands: []BrandOutput{}, Count: listing.CountLabel(res, "brands")}
	for i, b := range res.Items {
		if i >= limitOf(input.Limit) {
			break
		}
		out.Brands = append(out.Brands, brandToOutput(b))
	}
	return nil, out, nil
}

type GetAgencyInput struct {
	AgencyID string `json:"agency_id" jsonschema:"Agency brand ID (required)"`
	Query    string `json:"query,omitempty" jsonschema:"Search managed brands by brand or legal name"`
}

type ContactSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// agencyToOutput fills the agency and its managed brands, searched by query.
func agencyToOutput(view store.AgencyView, query string) GetAgencyOutput {
	out := GetAgencyOutput{
		Agency:        brandToOutput(view.Agency),
		ManagedBrands: []BrandOutput{},
		ManagedCount:  len(view.Managed),
	}
	for _, b := range listing.AgencyBrands.Apply(view.Managed, query, listing.All).Items {
		bo := brandToOutput(b.Brand)
		bo.ParentAgencyID = b.ParentAgencyID
		out.ManagedBrands = append(out.ManagedBrands, bo)
	}
	for _, f := range view.Failed {
		out.FailedIDs = append(out.FailedIDs, f.ID)
	}
	return out
}

type GetAgencyOutput struct {
	Agency        BrandOutput      `json:"agency"`
	ManagedBrands []BrandOutput    `json:"managed_brands"`
	FailedIDs     []string         `json:"failed_brand_ids,omitempty"`
	Contacts      []ContactSummary `json:"contacts"`
	ManagedCount  int              `json:"managed_count"`
	ContactCount  int              `json:"contact_count"`
	DaysActive    int              `json:"days_active"`
}

func (h *BrandHandlers) GetAgency(ctx context.Context, _ *mcp.CallToolRequest, input GetAgencyInput) (*mcp.CallToolResult, GetAgencyOutput, error) {
	if input.AgencyID == "" {
		return nil, GetAgencyOutput{}, fmt.Errorf("agency_id is required")
	}

	view, stats, contacts, err := h.store.AgencyStats(ctx, input.AgencyID)
	if err != nil {
		return nil, GetAgencyOutput{}, toolError("failed to load agency", err)
	}

	out := agencyToOutput(view, input.Query)
	out.Contacts = []ContactSummary{}
	out.ManagedCount = stats.ManagedBrands
	out.ContactCount = stats.Contacts
	out.DaysActive = stats.DaysActive
	for _, c := range contacts {
		out.Contacts = append(out.Contacts, ContactSummary{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role})
	}
	return nil, out, nil
}
