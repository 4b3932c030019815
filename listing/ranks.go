// ABOUTME: Status rank tables for campaigns and instances
// ABOUTME: Unknown statuses rank after every known one
package listing

import "github.com/harperreed/tiddle/models"

// Unranked is the rank of any status missing from a table.
const Unranked = 999

// RankTable maps canonical status to its position in the workflow.
type RankTable map[string]int

// Rank returns the rank of status, or Unranked.
func (t RankTable) Rank(status string) int {
	if r, ok := t[models.CanonicalStatus(status)]; ok {
		return r
	}
	return Unranked
}

func ranksOf(statuses []string) RankTable {
	t := make(RankTable, len(statuses))
	for i, s := range statuses {
		t[s] = i + 1
	}
	return t
}

var (
	// CampaignRanks: roster=1 ... canceled=6.
	CampaignRanks = ranksOf(models.DealStatuses)
	// InstanceRanks: none=1 ... paid=9.
	InstanceRanks = ranksOf(models.InstanceStatuses)
)
