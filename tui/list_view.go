package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TIDDLE"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n")
	}

	s.WriteString(m.table.View())
	s.WriteString("\n\n")

	s.WriteString(m.renderCountLine())
	s.WriteString("\n")
	s.WriteString(m.renderStatus())

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) currentFilter() string {
	opts := filterOptions(m.tab)
	return opts[m.filters[m.tab]%len(opts)]
}

func (m Model) renderCountLine() string {
	line := fmt.Sprintf("%s • filter: %s", m.count, m.currentFilter())
	if m.loading > 0 {
		line += " • loading..."
	}
	return line
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	case m.status != "":
		return statusStyle.Render(m.status) + "\n"
	}
	return ""
}

// rebuild runs the current tab's pipeline and refills the table.
func (m *Model) rebuild() {
	query, filter := m.search.Value(), m.currentFilter()

	var (
		columns []table.Column
		rows    []table.Row
	)
	m.ids = nil

	switch m.tab {
	case TabCampaigns:
		brands := resolve.IndexBrands(m.brands)
		res := listing.Deals.Apply(m.deals, query, filter)
		columns = []table.Column{
			{Title: "Title", Width: 30},
			{Title: "Status", Width: 14},
			{Title: "Brand", Width: 22},
			{Title: "Updated", Width: 16},
		}
		for _, d := range res.Items {
			brand := ""
			if b, ok := brands[d.BrandID]; ok {
				brand = b.BrandName
			}
			rows = append(rows, table.Row{d.Title, d.Status, brand, relative(d)})
			m.ids = append(m.ids, d.ID)
		}
		m.count = listing.CountLabel(res, "campaigns")

	case TabContacts:
		res := listing.Contacts.Apply(m.contacts, query, filter)
		columns = []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 30},
			{Title: "Brand", Width: 22},
			{Title: "Status", Width: 10},
		}
		for _, c := range res.Items {
			brand := ""
			if c.ResolvedBrand != nil {
				brand = c.ResolvedBrand.BrandName
			}
			rows = append(rows, table.Row{c.Name, c.Email, brand, c.Status})
			m.ids = append(m.ids, c.ID)
		}
		m.count = listing.CountLabel(res, "contacts")

	case TabBrands:
		res := listing.Brands.Apply(m.brands, query, filter)
		columns = []table.Column{
			{Title: "Name", Width: 30},
			{Title: "Class", Width: 10},
			{Title: "Agency", Width: 8},
			{Title: "Contacts", Width: 10},
		}
		for _, b := range res.Items {
			agency := ""
			if models.IsAgency(b) {
				agency = "yes"
			}
			rows = append(rows, table.Row{b.BrandName, b.Classification, agency, fmt.Sprintf("%d", b.ContactCount)})
			m.ids = append(m.ids, b.ID)
		}
		m.count = listing.CountLabel(res, "brands")
	}

	// Rows must never outnumber the columns they are rendered against.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func relative(d models.BrandDeal) string {
	if d.ModifiedAt.IsZero() {
		return ""
	}
	return humanize.Time(d.ModifiedAt)
}

func (m Model) selected() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.ids) {
		return ""
	}
	return m.ids[i]
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Enter: Keep search • Esc: Clear search")
	}
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"/: Search",
		"f: Filter",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.table.SetCursor(0)
		m.rebuild()
		return m, nil
	case "shift+tab":
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		m.table.SetCursor(0)
		m.rebuild()
		return m, nil
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "f":
		m.filters[m.tab] = (m.filters[m.tab] + 1) % len(filterOptions(m.tab))
		m.rebuild()
		return m, nil
	case "r":
		m.status = "Refreshing..."
		m.err = nil
		return m, m.refresh()
	case "enter":
		id := m.selected()
		if id == "" {
			return m, nil
		}
		m.selectedID = id
		m.viewMode = ViewDetail
		m.status = ""
		if m.tab == TabCampaigns {
			m.detail = nil
			return m, m.loadDealDetail(id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.rebuild()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.table.SetCursor(0)
	m.rebuild()
	return m, cmd
}
