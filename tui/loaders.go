// ABOUTME: Asynchronous store reads and writes for the TUI
// ABOUTME: Each load runs as a tea.Cmd and reports back with a typed message
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
	"github.com/harperreed/tiddle/store"
	"github.com/harperreed/tiddle/viz"
)

type dealsLoadedMsg struct {
	deals []models.BrandDeal
	err   error
}

type contactsLoadedMsg struct {
	contacts []resolve.EnhancedContact
	err      error
}

type brandsLoadedMsg struct {
	brands []models.Brand
	err    error
}

type dealDetailMsg struct {
	detail store.DealDetail
	err    error
}

type refreshedMsg struct{ err error }

type savedMsg struct {
	id  string
	err error
}

type graphMsg struct {
	dot string
	err error
}

// loadAll reads all three lists through the cache. Callers count the
// three pending loads in Model.loading.
func (m Model) loadAll() tea.Cmd {
	ctx, st, userID := m.ctx, m.store, m.userID
	return tea.Batch(
		func() tea.Msg {
			deals, err := st.BrandDeals(ctx, userID)
			return dealsLoadedMsg{deals: deals, err: err}
		},
		func() tea.Msg {
			contacts, err := st.EnhancedContacts(ctx)
			return contactsLoadedMsg{contacts: contacts, err: err}
		},
		func() tea.Msg {
			brands, err := st.Brands(ctx)
			return brandsLoadedMsg{brands: brands, err: err}
		},
	)
}

func (m Model) loadDealDetail(id string) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		d, err := st.DealDetail(ctx, id)
		return dealDetailMsg{detail: d, err: err}
	}
}

// refresh refetches every list regardless of freshness.
func (m Model) refresh() tea.Cmd {
	ctx, st, userID := m.ctx, m.store, m.userID
	return func() tea.Msg {
		err := st.Refresh(ctx,
			store.RefreshBrandDeals(userID),
			store.RefreshBrands(),
			store.RefreshBrandContacts())
		return refreshedMsg{err: err}
	}
}

func (m Model) saveDeal(in bubble.UpdateBrandDealInput) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		err := st.UpdateBrandDeal(ctx, in)
		return savedMsg{id: in.BrandDealID, err: err}
	}
}

func (m Model) generateGraph(agencyID string) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		dot, _, err := viz.GenerateAgencyGraph(ctx, st, agencyID)
		return graphMsg{dot: dot, err: err}
	}
}

// refreshDeal refetches one campaign and its creators, then reloads the
// detail from the fresh cache.
func (m Model) refreshDeal(id string) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		if err := st.Refresh(ctx, store.RefreshBrandDeal(id), store.RefreshInstances(id)); err != nil {
			return dealDetailMsg{err: err}
		}
		d, err := st.DealDetail(ctx, id)
		return dealDetailMsg{detail: d, err: err}
	}
}
