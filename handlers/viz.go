// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_agency_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/tiddle/store"
	"github.com/harperreed/tiddle/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	store *store.Store
}

func NewVizHandlers(st *store.Store) *VizHandlers {
	return &VizHandlers{store: st}
}

type GenerateGraphInput struct {
	AgencyID string `json:"agency_id" jsonschema:"Agency brand ID (required)"`
}

type GenerateGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateAgencyGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.AgencyID == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("agency_id is required")
	}

	dot, graph, err := viz.GenerateAgencyGraph(ctx, h.store, input.AgencyID)
	if err != nil {
		return nil, GenerateGraphOutput{}, toolError("failed to generate graph", err)
	}

	return nil, GenerateGraphOutput{
		DOTSource: dot,
		NodeCount: len(graph.Nodes),
		EdgeCount: len(graph.Edges),
	}, nil
}
