// ABOUTME: Builds the MCP server with every tool, resource and prompt registered
// ABOUTME: Shared by the mcp command and the handler tests
package handlers

import (
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer registers all handlers over st.
func NewServer(st *store.Store, currentUser CurrentUser, version string) *mcp.Server {
	brandHandlers := NewBrandHandlers(st)
	contactHandlers := NewContactHandlers(st)
	dealHandlers := NewDealHandlers(st, currentUser)
	vizHandlers := NewVizHandlers(st)
	resourceHandlers := NewResourceHandlers(st)
	promptHandlers := NewPromptHandlers(st)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tiddle",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_brands",
		Description: "Search brands by name, optionally filtered by classification (direct, agency, music)",
	}, brandHandlers.FindBrands)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_agency",
		Description: "Show an agency with its managed brands, contacts and stats",
	}, brandHandlers.GetAgency)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search brand contacts by name, email, brand or agency brand",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_deals",
		Description: "List the signed-in user's campaigns, filtered by status (default in-progress) and title",
	}, dealHandlers.FindDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_deal",
		Description: "Show a campaign with its brand, contacts, creators and totals",
	}, dealHandlers.GetDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a campaign for a brand with at least one brand contact",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a campaign's title, status, deliverables, brand or contact",
	}, dealHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_creator",
		Description: "Book a creator on a campaign with platform, rate and price",
	}, dealHandlers.AddCreator)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_instance",
		Description: "Update a booked creator's status, platform, rate, price, notes or username",
	}, dealHandlers.UpdateInstance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_agency_graph",
		Description: "Render an agency's managed brands and contacts as a GraphViz DOT graph",
	}, vizHandlers.GenerateAgencyGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	for _, t := range resourceHandlers.Templates() {
		server.AddResourceTemplate(t, resourceHandlers.ReadResource)
	}
	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
