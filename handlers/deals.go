// ABOUTME: Campaign and creator instance MCP tool handlers
// ABOUTME: Implements find_deals, get_deal, create_deal, update_deal, add_creator and update_instance
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CurrentUser returns the signed-in user's id.
type CurrentUser func() (string, error)

type DealHandlers struct {
	store       *store.Store
	currentUser CurrentUser
}

func NewDealHandlers(st *store.Store, currentUser CurrentUser) *DealHandlers {
	return &DealHandlers{store: st, currentUser: currentUser}
}

type FindDealsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search text matched against campaign titles"`
	Status string `json:"status,omitempty" jsonschema:"Filter: in-progress (default), roster, waiting, invoiced, complete, canceled or all"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type DealOutput struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Status          string   `json:"status,omitempty"`
	BrandID         string   `json:"brand_id,omitempty"`
	AgencyID        string   `json:"agency_id,omitempty"`
	BrandContactIDs []string `json:"brand_contact_ids,omitempty"`
	Deliverables    string   `json:"deliverables,omitempty"`
	CreatorCount    int      `json:"creator_count"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

type FindDealsOutput struct {
	Deals []DealOutput `json:"deals"`
	Count string       `json:"count"`
}

func dealToOutput(d models.BrandDeal) DealOutput {
	out := DealOutput{
		ID:              d.ID,
		Title:           d.Title,
		Status:          d.Status,
		BrandID:         d.BrandID,
		AgencyID:        d.AgencyID,
		BrandContactIDs: d.BrandContactIDs,
		Deliverables:    d.Deliverables,
		CreatorCount:    len(d.InstanceIDs),
	}
	if !d.CreatedAt.IsZero() {
		out.CreatedAt = d.CreatedAt.Format("2006-01-02")
	}
	return out
}

func (h *DealHandlers) FindDeals(ctx context.Context, _ *mcp.CallToolRequest, input FindDealsInput) (*mcp.CallToolResult, FindDealsOutput, error) {
	userID, err := h.currentUser()
	if err != nil {
		return nil, FindDealsOutput{}, err
	}
	deals, err := h.store.BrandDeals(ctx, userID)
	if err != nil {
		return nil, FindDealsOutput{}, toolError("failed to load campaigns", err)
	}

	status := input.Status
	if status == "" {
		status = listing.DefaultDealFilter
	}
	res := listing.Deals.Apply(deals, input.Query, status)
	out := FindDealsOutput{Deals: []DealOutput{}, Count: listing.CountLabel(res, "campaigns")}
	for i, d := range res.Items {
		if i >= limitOf(input.Limit) {
			break
		}
		out.Deals = append(out.Deals, dealToOutput(d))
	}
	return nil, out, nil
}

type GetDealInput struct {
	DealID         string `json:"deal_id" jsonschema:"Campaign ID (required)"`
	InstanceStatus string `json:"instance_status,omitempty" jsonschema:"Filter creators by instance status (default all)"`
}

type InstanceOutput struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Platform string  `json:"platform,omitempty"`
	Status   string  `json:"status,omitempty"`
	Rate     float64 `json:"rate"`
	Price    float64 `json:"price"`
	Margin   float64 `json:"margin"`
	Notes    string  `json:"notes,omitempty"`
}

type GetDealOutput struct {
	Deal       DealOutput        `json:"deal"`
	BrandName  string            `json:"brand_name,omitempty"`
	AgencyName string            `json:"agency_name,omitempty"`
	Contacts   []ContactSummary  `json:"contacts"`
	Creators   []InstanceOutput  `json:"creators"`
	Totals     models.DealTotals `json:"totals"`
}

func (h *DealHandlers) GetDeal(ctx context.Context, _ *mcp.CallToolRequest, input GetDealInput) (*mcp.CallToolResult, GetDealOutput, error) {
	if input.DealID == "" {
		return nil, GetDealOutput{}, fmt.Errorf("deal_id is required")
	}
	d, err := h.store.DealDetail(ctx, input.DealID)
	if err != nil {
		return nil, GetDealOutput{}, toolError("failed to load campaign", err)
	}

	out := GetDealOutput{
		Deal:     dealToOutput(d.BrandDeal),
		Contacts: []ContactSummary{},
		Creators: []InstanceOutput{},
		Totals:   d.Totals,
	}
	if d.Brand != nil {
		out.BrandName = d.Brand.BrandName
	}
	if d.Agency != nil {
		out.AgencyName = d.Agency.BrandName
	}
	for _, c := range d.Contacts {
		out.Contacts = append(out.Contacts, ContactSummary{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role})
	}
	for _, inst := range listing.Instances.Apply(d.Instances, "", input.InstanceStatus).Items {
		out.Creators = append(out.Creators, InstanceOutput{
			ID:       inst.ID,
			Username: inst.Username,
			Platform: inst.Platform,
			Status:   inst.Status,
			Rate:     inst.Rate,
			Price:    inst.Price,
			Margin:   inst.Margin(),
			Notes:    inst.Notes,
		})
	}
	return nil, out, nil
}

type CreateDealInput struct {
	Title           string   `json:"title" jsonschema:"Campaign title (required)"`
	BrandID         string   `json:"brand_id" jsonschema:"Brand ID (required)"`
	BrandContactIDs []string `json:"brand_contact_ids" jsonschema:"Brand contact IDs (at least one)"`
	AgencyID        string   `json:"agency_id,omitempty" jsonschema:"Agency ID when booked through an agency"`
	Deliverables    string   `json:"deliverables,omitempty" jsonschema:"Deliverables"`
	Status          string   `json:"status,omitempty" jsonschema:"Initial status (default roster)"`
}

type MutationOutput struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, MutationOutput, error) {
	id, err := h.store.CreateBrandDeal(ctx, bubble.CreateBrandDealInput{
		Title:           input.Title,
		Deliverables:    input.Deliverables,
		Status:          input.Status,
		BrandID:         input.BrandID,
		BrandContactIDs: input.BrandContactIDs,
		AgencyID:        input.AgencyID,
	})
	if err != nil {
		return nil, MutationOutput{}, toolError("failed to create campaign", err)
	}
	return nil, MutationOutput{ID: id, Message: fmt.Sprintf("Campaign created: %s", input.Title)}, nil
}

type UpdateDealInput struct {
	DealID         string `json:"deal_id" jsonschema:"Campaign ID (required)"`
	Title          string `json:"title,omitempty" jsonschema:"New title"`
	Status         string `json:"status,omitempty" jsonschema:"New status"`
	Deliverables   string `json:"deliverables,omitempty" jsonschema:"New deliverables"`
	BrandID        string `json:"brand_id,omitempty" jsonschema:"New brand ID"`
	BrandContactID string `json:"brand_contact_id,omitempty" jsonschema:"New brand contact ID"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, MutationOutput, error) {
	err := h.store.UpdateBrandDeal(ctx, bubble.UpdateBrandDealInput{
		BrandDealID:    input.DealID,
		Title:          input.Title,
		Deliverables:   input.Deliverables,
		BrandID:        input.BrandID,
		BrandContactID: input.BrandContactID,
		Status:         input.Status,
	})
	if err != nil {
		return nil, MutationOutput{}, toolError("failed to update campaign", err)
	}
	return nil, MutationOutput{ID: input.DealID, Message: "Campaign updated"}, nil
}

type AddCreatorInput struct {
	DealID   string  `json:"deal_id" jsonschema:"Campaign ID (required)"`
	Username string  `json:"username" jsonschema:"Creator username (required)"`
	Platform string  `json:"platform" jsonschema:"TikTok, Instagram, YouTube or Twitter (required)"`
	Rate     float64 `json:"rate,omitempty" jsonschema:"Rate paid to the creator"`
	Price    float64 `json:"price,omitempty" jsonschema:"Price billed to the brand"`
}

func (h *DealHandlers) AddCreator(ctx context.Context, _ *mcp.CallToolRequest, input AddCreatorInput) (*mcp.CallToolResult, MutationOutput, error) {
	id, err := h.store.CreateInstance(ctx, bubble.CreateInstanceInput{
		Username:    input.Username,
		Platform:    input.Platform,
		Rate:        input.Rate,
		Price:       input.Price,
		BrandDealID: input.DealID,
	})
	if err != nil {
		return nil, MutationOutput{}, toolError("failed to add creator", err)
	}
	return nil, MutationOutput{ID: id, Message: fmt.Sprintf("Creator %s added", input.Username)}, nil
}

type UpdateInstanceInput struct {
	DealID     string   `json:"deal_id" jsonschema:"Campaign ID the creator is booked on (required)"`
	InstanceID string   `json:"instance_id" jsonschema:"Instance ID (required)"`
	Status     *string  `json:"status,omitempty" jsonschema:"New instance status"`
	Platform   *string  `json:"platform,omitempty" jsonschema:"New platform"`
	Rate       *float64 `json:"rate,omitempty" jsonschema:"New rate"`
	Price      *float64 `json:"price,omitempty" jsonschema:"New price"`
	Notes      *string  `json:"notes,omitempty" jsonschema:"New notes"`
	Username   *string  `json:"username,omitempty" jsonschema:"New username"`
}

func (h *DealHandlers) UpdateInstance(ctx context.Context, _ *mcp.CallToolRequest, input UpdateInstanceInput) (*mcp.CallToolResult, MutationOutput, error) {
	if input.DealID == "" {
		return nil, MutationOutput{}, fmt.Errorf("deal_id is required")
	}
	err := h.store.UpdateInstance(ctx, input.DealID, bubble.UpdateInstanceInput{
		InstanceID: input.InstanceID,
		Status:     input.Status,
		Platform:   input.Platform,
		Rate:       input.Rate,
		Price:      input.Price,
		Notes:      input.Notes,
		Username:   input.Username,
	})
	if err != nil {
		return nil, MutationOutput{}, toolError("failed to update creator", err)
	}
	return nil, MutationOutput{ID: input.InstanceID, Message: "Creator updated"}, nil
}
