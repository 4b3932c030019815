// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses campaigns, contacts and brands from the cached store with search and filters
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
	"github.com/harperreed/tiddle/store"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
)

// Tab is one of the browsable lists.
type Tab int

const (
	TabCampaigns Tab = iota
	TabContacts
	TabBrands
)

var tabNames = []string{"Campaigns", "Contacts", "Brands"}

var contactFilters = []string{listing.All, models.ContactStatusActive, models.ContactStatusInactive, models.ContactStatusArchived}

// filterOptions lists the category filters a tab cycles through with f.
func filterOptions(tab Tab) []string {
	switch tab {
	case TabCampaigns:
		return listing.DealFilters
	case TabContacts:
		return contactFilters
	case TabBrands:
		return listing.BrandFilters
	}
	return []string{listing.All}
}

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	store  *store.Store
	userID string

	viewMode ViewMode
	tab      Tab

	deals    []models.BrandDeal
	contacts []resolve.EnhancedContact
	brands   []models.Brand
	loading  int

	// List view state
	filters   [3]int
	search    textinput.Model
	searching bool
	table     table.Model
	ids       []string
	count     string

	// Detail view state
	selectedID string
	detail     *store.DealDetail

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT   string
	graphFrom  ViewMode
	graphTitle string

	// UI state
	status string
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model over st for the signed-in userID.
func NewModel(ctx context.Context, st *store.Store, userID string) Model {
	search := textinput.New()
	search.Placeholder = "Search"
	search.Prompt = "/ "
	search.CharLimit = 100

	m := Model{
		ctx:      ctx,
		store:    st,
		userID:   userID,
		viewMode: ViewList,
		tab:      TabCampaigns,
		search:   search,
		table:    table.New(table.WithFocused(true)),
		loading:  3,
		width:    80,
		height:   24,
	}
	for i, f := range listing.DealFilters {
		if f == listing.DefaultDealFilter {
			m.filters[TabCampaigns] = i
		}
	}
	m.resizeTable()
	m.rebuild()
	return m
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, st *store.Store, userID string) error {
	p := tea.NewProgram(NewModel(ctx, st, userID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadAll()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil
	case dealsLoadedMsg:
		m.loading--
		m.err = msg.err
		if msg.err == nil {
			m.deals = msg.deals
		}
		m.rebuild()
		return m, nil
	case contactsLoadedMsg:
		m.loading--
		m.err = msg.err
		if msg.err == nil {
			m.contacts = msg.contacts
		}
		m.rebuild()
		return m, nil
	case brandsLoadedMsg:
		m.loading--
		m.err = msg.err
		if msg.err == nil {
			m.brands = msg.brands
		}
		m.rebuild()
		return m, nil
	case dealDetailMsg:
		m.err = msg.err
		if msg.err == nil {
			d := msg.detail
			m.detail = &d
		}
		return m, nil
	case refreshedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = "Refreshed"
		m.loading += 3
		return m, m.loadAll()
	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = "Saved"
		m.viewMode = ViewDetail
		m.loading += 3
		return m, tea.Batch(m.loadAll(), m.loadDealDetail(msg.id))
	case graphMsg:
		m.err = msg.err
		m.graphDOT = msg.dot
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return ""
}

// typing reports whether keystrokes belong to a text input.
func (m Model) typing() bool {
	return m.searching || m.viewMode == ViewEdit
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

func (m *Model) resizeTable() {
	h := m.height - 10
	if h < 5 {
		h = 5
	}
	m.table.SetHeight(h)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
