package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/models"
)

// Campaign form fields, in tab order.
const (
	fieldTitle = iota
	fieldStatus
	fieldDeliverables
	fieldCount
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("EDIT CAMPAIGN"))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		m.err = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "enter":
		m.err = nil
		m.status = "Saving..."
		return m, m.saveDeal(m.formValues())
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initDealForm() {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldTitle] = textinput.New()
	inputs[fieldTitle].Placeholder = "Title"
	inputs[fieldTitle].CharLimit = 100

	inputs[fieldStatus] = textinput.New()
	inputs[fieldStatus].Placeholder = "Status (" + strings.Join(models.DealStatuses, "/") + ")"
	inputs[fieldStatus].CharLimit = 30

	inputs[fieldDeliverables] = textinput.New()
	inputs[fieldDeliverables].Placeholder = "Deliverables"
	inputs[fieldDeliverables].CharLimit = 500

	if m.detail != nil {
		inputs[fieldTitle].SetValue(m.detail.Title)
		inputs[fieldStatus].SetValue(m.detail.Status)
		inputs[fieldDeliverables].SetValue(m.detail.Deliverables)
	}

	m.formInputs = inputs
	m.focusIndex = 0
}

func (m *Model) updateFormFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.focusIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

// formValues sends only the fields that changed.
func (m Model) formValues() bubble.UpdateBrandDealInput {
	in := bubble.UpdateBrandDealInput{BrandDealID: m.selectedID}
	title := strings.TrimSpace(m.formInputs[fieldTitle].Value())
	status := strings.TrimSpace(m.formInputs[fieldStatus].Value())
	deliverables := strings.TrimSpace(m.formInputs[fieldDeliverables].Value())
	if m.detail == nil || title != m.detail.Title {
		in.Title = title
	}
	if m.detail == nil || status != m.detail.Status {
		in.Status = status
	}
	if m.detail == nil || deliverables != m.detail.Deliverables {
		in.Deliverables = deliverables
	}
	return in
}
