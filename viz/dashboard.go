// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes campaigns by status plus brand and contact counts as ASCII
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/tiddle/listing"
	"github.com/harperreed/tiddle/models"
)

// StaleAfter is how long a campaign can go unmodified before it needs attention.
const StaleAfter = 14 * 24 * time.Hour

type DashboardStats struct {
	// ByStatus counts campaigns per canonical status.
	ByStatus map[string]int

	TotalCampaigns int
	TotalBrands    int
	TotalAgencies  int
	TotalContacts  int

	// StaleCampaigns are open campaigns not modified within StaleAfter.
	StaleCampaigns []StaleCampaign
}

type StaleCampaign struct {
	Title     string
	Status    string
	DaysSince int
}

// closedStatuses never count as stale.
var closedStatuses = map[string]bool{
	models.DealStatusComplete: true,
	models.DealStatusCanceled: true,
}

func GenerateDashboardStats(deals []models.BrandDeal, brands []models.Brand, contacts []models.BrandContact, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		ByStatus:       make(map[string]int),
		TotalCampaigns: len(deals),
		TotalContacts:  len(contacts),
	}

	for _, d := range deals {
		status := models.CanonicalStatus(d.Status)
		if status == "" {
			status = "unknown"
		}
		stats.ByStatus[status]++

		if closedStatuses[status] || d.ModifiedAt.IsZero() {
			continue
		}
		if age := now.Sub(d.ModifiedAt); age > StaleAfter {
			stats.StaleCampaigns = append(stats.StaleCampaigns, StaleCampaign{
				Title:     d.Title,
				Status:    status,
				DaysSince: int(age.Hours() / 24),
			})
		}
	}

	for _, b := range brands {
		if b.Hidden {
			continue
		}
		stats.TotalBrands++
		if models.IsAgency(b) {
			stats.TotalAgencies++
		}
	}
	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  TIDDLE CAMPAIGN DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("CAMPAIGNS BY STATUS\n")
	renderStatuses(&out, stats.ByStatus)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d campaigns  %d brands (%d agencies)  %d contacts\n\n",
		stats.TotalCampaigns, stats.TotalBrands, stats.TotalAgencies, stats.TotalContacts))

	if len(stats.StaleCampaigns) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d campaigns - no changes in %d+ days\n",
			len(stats.StaleCampaigns), int(StaleAfter.Hours()/24)))
		for _, s := range stats.StaleCampaigns {
			out.WriteString(fmt.Sprintf("     %s (%s, %d days)\n", s.Title, s.Status, s.DaysSince))
		}
	}

	return out.String()
}

// renderStatuses draws one bar per status in kanban order, then any
// statuses the app does not know about.
func renderStatuses(out *strings.Builder, byStatus map[string]int) {
	maxCount := 1
	for _, n := range byStatus {
		if n > maxCount {
			maxCount = n
		}
	}

	order := append([]string{}, models.DealStatuses...)
	var extra []string
	for status := range byStatus {
		if listing.CampaignRanks.Rank(status) == listing.Unranked {
			extra = append(extra, status)
		}
	}
	res := listing.Pipeline[string]{SortKey: func(s string) string { return s }}.Apply(extra, "", listing.All)
	order = append(order, res.Items...)

	for _, status := range order {
		n, ok := byStatus[status]
		if !ok {
			continue
		}
		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", status, bar, n))
	}
}
