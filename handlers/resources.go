// ABOUTME: MCP resource handlers exposing cached backend data by URI
// ABOUTME: Serves tiddle:// brands, agencies, contacts and campaigns as JSON
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Scheme prefixes every resource URI.
const Scheme = "tiddle://"

type ResourceHandlers struct {
	store *store.Store
}

func NewResourceHandlers(st *store.Store) *ResourceHandlers {
	return &ResourceHandlers{store: st}
}

// Resources lists the fixed resources.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: Scheme + "brands", Name: "brands", Description: "All visible brands", MIMEType: "application/json"},
	}
}

// Templates lists the parameterized resources.
func (h *ResourceHandlers) Templates() []*mcp.ResourceTemplate {
	return []*mcp.ResourceTemplate{
		{URITemplate: Scheme + "brands/{id}", Name: "brand", Description: "One brand", MIMEType: "application/json"},
		{URITemplate: Scheme + "agencies/{id}", Name: "agency", Description: "An agency with its managed brands", MIMEType: "application/json"},
		{URITemplate: Scheme + "contacts/{id}", Name: "contact", Description: "One brand contact with resolved brands", MIMEType: "application/json"},
		{URITemplate: Scheme + "deals/{id}", Name: "deal", Description: "A campaign with creators and totals", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, Scheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", Scheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, Scheme), "/")
	if len(parts) > 2 || (len(parts) == 2 && parts[1] == "") {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	id := ""
	if len(parts) == 2 {
		id = parts[1]
	}

	var (
		v   any
		err error
	)
	switch {
	case parts[0] == "brands" && id == "":
		brands, berr := h.store.Brands(ctx)
		if err = berr; err == nil {
			v = listing.Brands.Apply(brands, "", listing.All).Items
		}
	case parts[0] == "brands":
		v, err = h.store.Brand(ctx, id)
	case parts[0] == "agencies" && id != "":
		view, verr := h.store.AgencyBrands(ctx, id)
		if err = verr; err == nil {
			v = agencyToOutput(view, "")
		}
	case parts[0] == "contacts" && id != "":
		v, err = h.store.EnhancedContact(ctx, id)
	case parts[0] == "deals" && id != "":
		v, err = h.store.DealDetail(ctx, id)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, toolError("failed to read "+uri, err)
	}
	return jsonResource(uri, v)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
