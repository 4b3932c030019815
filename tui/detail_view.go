package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	switch m.tab {
	case TabCampaigns:
		s.WriteString(m.renderDealDetail())
	case TabContacts:
		s.WriteString(m.renderContactDetail())
	case TabBrands:
		s.WriteString(m.renderBrandDetail())
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDealDetail() string {
	if m.detail == nil {
		if m.err != nil {
			return ""
		}
		return "Loading campaign...\n"
	}
	d := m.detail

	var s strings.Builder
	s.WriteString(m.renderField("Title", d.Title))
	s.WriteString(m.renderField("Status", d.Status))
	if d.Brand != nil {
		s.WriteString(m.renderField("Brand", d.Brand.BrandName))
	}
	if d.Agency != nil {
		s.WriteString(m.renderField("Agency", d.Agency.BrandName))
	}
	s.WriteString(m.renderField("Deliverables", d.Deliverables))
	names := make([]string, 0, len(d.Contacts))
	for _, c := range d.Contacts {
		names = append(names, c.Name)
	}
	s.WriteString(m.renderField("Contacts", strings.Join(names, ", ")))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render(fmt.Sprintf("CREATORS (%d)", len(d.Instances))))
	s.WriteString("\n")
	for _, inst := range listing.Instances.Apply(d.Instances, "", listing.All).Items {
		fmt.Fprintf(&s, "  • %-20s %-10s %-20s %s → %s\n",
			inst.Username, inst.Platform, inst.Status, models.Money(inst.Rate), models.Money(inst.Price))
	}

	s.WriteString("\n")
	s.WriteString(m.renderField("Total rate", models.Money(d.Totals.Rate)))
	s.WriteString(m.renderField("Total price", models.Money(d.Totals.Price)))
	s.WriteString(m.renderField("Margin", models.Money(d.Totals.Margin)))
	return s.String()
}

func (m Model) renderContactDetail() string {
	var contact *resolve.EnhancedContact
	for i := range m.contacts {
		if m.contacts[i].ID == m.selectedID {
			contact = &m.contacts[i]
			break
		}
	}
	if contact == nil {
		return "Contact not found\n"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", contact.Name))
	s.WriteString(m.renderField("Email", contact.Email))
	s.WriteString(m.renderField("Phone", contact.Phone))
	s.WriteString(m.renderField("Role", contact.Role))
	s.WriteString(m.renderField("Status", contact.Status))
	if contact.ResolvedBrand != nil {
		s.WriteString(m.renderField("Brand", contact.ResolvedBrand.BrandName))
	}
	agencies := make([]string, 0, len(contact.ResolvedAgencyBrands))
	for _, b := range contact.ResolvedAgencyBrands {
		agencies = append(agencies, b.BrandName)
	}
	s.WriteString(m.renderField("Agencies", strings.Join(agencies, ", ")))
	s.WriteString(m.renderField("Notes", contact.Notes))
	return s.String()
}

func (m Model) selectedBrand() (models.Brand, bool) {
	for _, b := range m.brands {
		if b.ID == m.selectedID {
			return b, true
		}
	}
	return models.Brand{}, false
}

func (m Model) renderBrandDetail() string {
	b, ok := m.selectedBrand()
	if !ok {
		return "Brand not found\n"
	}

	var s strings.Builder
	s.WriteString(m.renderField("Name", b.BrandName))
	s.WriteString(m.renderField("Legal name", b.LegalName))
	s.WriteString(m.renderField("Classification", b.Classification))
	s.WriteString(m.renderField("Niches", strings.Join(b.Niches, ", ")))
	s.WriteString(m.renderField("Website", b.Website))
	s.WriteString(m.renderField("Contacts", fmt.Sprintf("%d", b.ContactCount)))
	if models.IsAgency(b) {
		s.WriteString(m.renderField("Managed brands", fmt.Sprintf("%d", len(b.ManagedBrandIDs))))
	}
	s.WriteString(m.renderField("Notes", b.Notes))
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{"Esc: Back"}
	switch m.tab {
	case TabCampaigns:
		help = append(help, "e: Edit", "r: Refresh")
	case TabBrands:
		if b, ok := m.selectedBrand(); ok && models.IsAgency(b) {
			help = append(help, "g: Agency graph")
		}
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.detail = nil
		m.status = ""
	case "e":
		if m.tab == TabCampaigns && m.detail != nil {
			m.viewMode = ViewEdit
			m.initDealForm()
			return m, m.updateFormFocus()
		}
	case "r":
		if m.tab == TabCampaigns {
			m.detail = nil
			return m, m.refreshDeal(m.selectedID)
		}
	case "g":
		if b, ok := m.selectedBrand(); ok && m.tab == TabBrands && models.IsAgency(b) {
			m.graphFrom = ViewDetail
			m.graphTitle = b.BrandName
			m.graphDOT = ""
			m.viewMode = ViewGraph
			return m, m.generateGraph(b.ID)
		}
	}

	return m, nil
}
