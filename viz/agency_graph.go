// ABOUTME: Agency network graph: agency, managed brands and their contacts
// ABOUTME: Builds the node/edge model and renders it to DOT with go-graphviz
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/store"
)

// Node kinds.
const (
	KindAgency  = "agency"
	KindBrand   = "brand"
	KindContact = "contact"
)

type Node struct {
	ID    string
	Label string
	Kind  string
}

type Edge struct {
	From  string
	To    string
	Label string
}

// Graph is a renderer-independent description of the network.
type Graph struct {
	Title string
	Nodes []Node
	Edges []Edge
}

// BuildAgencyGraph lays out the agency, the brands it manages (edge
// "manages") and every contact attached to either: contacts of a brand
// get "works at", contacts acting for a brand through the agency get
// "agency for".
func BuildAgencyGraph(view store.AgencyView, contacts []models.BrandContact) Graph {
	g := Graph{Title: view.Agency.BrandName}
	seen := map[string]bool{}
	addNode := func(n Node) {
		if !seen[n.ID] {
			seen[n.ID] = true
			g.Nodes = append(g.Nodes, n)
		}
	}

	agency := view.Agency
	addNode(Node{ID: agency.ID, Label: agency.BrandName, Kind: KindAgency})
	for _, b := range view.Managed {
		addNode(Node{ID: b.ID, Label: b.BrandName, Kind: KindBrand})
		g.Edges = append(g.Edges, Edge{From: agency.ID, To: b.ID, Label: "manages"})
	}

	for _, c := range contacts {
		linked := false
		if seen[c.BrandID] {
			addNode(Node{ID: c.ID, Label: c.Name, Kind: KindContact})
			g.Edges = append(g.Edges, Edge{From: c.ID, To: c.BrandID, Label: "works at"})
			linked = true
		}
		for _, id := range c.AgencyBrandIDs {
			if !seen[id] || id == c.BrandID {
				continue
			}
			if !linked {
				addNode(Node{ID: c.ID, Label: c.Name, Kind: KindContact})
				linked = true
			}
			g.Edges = append(g.Edges, Edge{From: c.ID, To: id, Label: "agency for"})
		}
	}
	return g
}

var nodeStyles = map[string]struct{ shape, color string }{
	KindAgency:  {"box", "lightblue"},
	KindBrand:   {"box", "lightyellow"},
	KindContact: {"ellipse", "lightgreen"},
}

// RenderDOT renders g as DOT source.
func RenderDOT(ctx context.Context, g Graph) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)
	if g.Title != "" {
		graph.SetLabel(g.Title)
	}

	nodes := make(map[string]*cgraph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		node, err := graph.CreateNodeByName(n.Kind + "_" + n.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create %s node: %w", n.Kind, err)
		}
		node.SetLabel(n.Label)
		if style, ok := nodeStyles[n.Kind]; ok {
			node.SetShape(cgraph.Shape(style.shape))
			node.SetStyle("filled")
			node.SetFillColor(style.color)
		}
		nodes[n.ID] = node
	}

	for i, e := range g.Edges {
		from, okFrom := nodes[e.From]
		to, okTo := nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("e%d", i), from, to)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(e.Label)
		if e.Label == "agency for" {
			edge.SetStyle("dashed")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GenerateAgencyGraph loads an agency through the store and renders its
// network. Managed brands that failed to load are left out.
func GenerateAgencyGraph(ctx context.Context, st *store.Store, agencyID string) (string, Graph, error) {
	view, err := st.AgencyBrands(ctx, agencyID)
	if err != nil {
		return "", Graph{}, err
	}
	contacts, err := st.BrandContacts(ctx)
	if err != nil {
		return "", Graph{}, err
	}

	g := BuildAgencyGraph(view, contacts)
	dot, err := RenderDOT(ctx, g)
	if err != nil {
		return "", Graph{}, err
	}
	return dot, g, nil
}
