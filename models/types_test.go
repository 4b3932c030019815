// ABOUTME: Tests for CRM data models
// ABOUTME: Validates the agency predicate, status canonicalization, and deal totals
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAgency(t *testing.T) {
	tests := []struct {
		name  string
		brand Brand
		want  bool
	}{
		{"classified agency", Brand{Classification: ClassificationAgency}, true},
		{"classified agency mixed case", Brand{Classification: " Agency "}, true},
		{"direct with managed brands", Brand{Classification: ClassificationDirect, ManagedBrandIDs: []string{"b2"}}, true},
		{"direct without managed brands", Brand{Classification: ClassificationDirect}, false},
		{"music without managed brands", Brand{Classification: ClassificationMusic}, false},
		{"unclassified", Brand{}, false},
		{"empty managed slice", Brand{Classification: ClassificationMusic, ManagedBrandIDs: []string{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAgency(tt.brand))
		})
	}
}

func TestIsAgencyRecomputedAfterChange(t *testing.T) {
	b := Brand{Classification: ClassificationDirect}
	assert.False(t, IsAgency(b))

	b.ManagedBrandIDs = append(b.ManagedBrandIDs, "b9")
	assert.True(t, IsAgency(b))

	b.ManagedBrandIDs = nil
	assert.False(t, IsAgency(b))
}

func TestCanonicalStatus(t *testing.T) {
	assert.Equal(t, DealStatusInProgress, CanonicalStatus("in-progress"))
	assert.Equal(t, DealStatusInProgress, CanonicalStatus("In Progress "))
	assert.Equal(t, "roster", CanonicalStatus("ROSTER"))
	assert.Equal(t, "", CanonicalStatus("   "))
}

func TestPlatformName(t *testing.T) {
	assert.Equal(t, PlatformTikTok, PlatformName("tiktok"))
	assert.Equal(t, PlatformYouTube, PlatformName(" youtube"))
	assert.Equal(t, "Snapchat", PlatformName("Snapchat"))
}

func TestSumInstances(t *testing.T) {
	totals := SumInstances([]Instance{
		{Rate: 500, Price: 800},
		{Rate: 250.5, Price: 400},
	})

	assert.Equal(t, 2, totals.Count)
	assert.InDelta(t, 750.5, totals.Rate, 0.001)
	assert.InDelta(t, 1200, totals.Price, 0.001)
	assert.InDelta(t, 449.5, totals.Margin, 0.001)
	assert.InDelta(t, 300, Instance{Rate: 500, Price: 800}.Margin(), 0.001)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,250.5", Money(1250.5))
	assert.Equal(t, "$550", Money(550))
	assert.Equal(t, "$-75.25", Money(-75.25))
}
