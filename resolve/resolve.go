// ABOUTME: Joins contacts and deals to the brands they reference by id
// ABOUTME: Pure map lookups; inputs are never modified and missing brands resolve to nil
package resolve

import (
	"math"
	"slices"
	"time"

	"github.com/harperreed/tiddle/models"
)

// EnhancedContact is a contact with its brand references looked up.
// ResolvedBrand is nil when the contact's brand no longer exists.
type EnhancedContact struct {
	models.BrandContact
	ResolvedBrand        *models.Brand  `json:"resolved_brand,omitempty"`
	ResolvedAgencyBrands []models.Brand `json:"resolved_agency_brands"`
}

// EnhancedDeal is a brand deal with its brand, agency and contacts looked up.
type EnhancedDeal struct {
	models.BrandDeal
	Brand    *models.Brand         `json:"brand,omitempty"`
	Agency   *models.Brand         `json:"agency,omitempty"`
	Contacts []models.BrandContact `json:"contacts"`
}

// IndexBrands maps brand id to brand.
func IndexBrands(brands []models.Brand) map[string]models.Brand {
	idx := make(map[string]models.Brand, len(brands))
	for _, b := range brands {
		idx[b.ID] = b
	}
	return idx
}

func lookup(idx map[string]models.Brand, id string) *models.Brand {
	if id == "" {
		return nil
	}
	b, ok := idx[id]
	if !ok {
		return nil
	}
	return &b
}

// Contact resolves one contact against a brand index.
func Contact(c models.BrandContact, idx map[string]models.Brand) EnhancedContact {
	out := EnhancedContact{
		BrandContact:         c,
		ResolvedBrand:        lookup(idx, c.BrandID),
		ResolvedAgencyBrands: []models.Brand{},
	}
	out.BrandContact.AgencyBrandIDs = slices.Clone(c.AgencyBrandIDs)
	for _, id := range c.AgencyBrandIDs {
		if b := lookup(idx, id); b != nil {
			out.ResolvedAgencyBrands = append(out.ResolvedAgencyBrands, *b)
		}
	}
	return out
}

// Contacts resolves every contact against brands, keeping input order.
func Contacts(contacts []models.BrandContact, brands []models.Brand) []EnhancedContact {
	idx := IndexBrands(brands)
	out := make([]EnhancedContact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, Contact(c, idx))
	}
	return out
}

// Deal resolves a deal's brand, agency and contacts. Contacts missing
// from the list are skipped.
func Deal(d models.BrandDeal, brands []models.Brand, contacts []models.BrandContact) EnhancedDeal {
	idx := IndexBrands(brands)
	byID := make(map[string]models.BrandContact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	out := EnhancedDeal{
		BrandDeal: d,
		Brand:     lookup(idx, d.BrandID),
		Agency:    lookup(idx, d.AgencyID),
		Contacts:  []models.BrandContact{},
	}
	for _, id := range d.BrandContactIDs {
		if c, ok := byID[id]; ok {
			out.Contacts = append(out.Contacts, c)
		}
	}
	return out
}

// AgencyContacts returns the contacts owned by the agency or serving it,
// in input order.
func AgencyContacts(agencyID string, contacts []models.BrandContact) []models.BrandContact {
	out := []models.BrandContact{}
	for _, c := range contacts {
		if c.BrandID == agencyID || slices.Contains(c.AgencyBrandIDs, agencyID) {
			out = append(out, c)
		}
	}
	return out
}

// Stats summarizes an agency. It is computed from current data on each
// call and never stored on the brand.
type Stats struct {
	ManagedBrands int  `json:"managed_brands"`
	Contacts      int  `json:"contacts"`
	DaysActive    int  `json:"days_active"`
	IsAgency      bool `json:"is_agency"`
}

// AgencyStats counts the managed brands that resolved and the agency's
// contacts. DaysActive rounds up and is 0 when the creation date is unknown.
func AgencyStats(agency models.Brand, managed []models.AgencyBrand, contacts []models.BrandContact, now time.Time) Stats {
	s := Stats{
		ManagedBrands: len(managed),
		Contacts:      len(AgencyContacts(agency.ID, contacts)),
		IsAgency:      models.IsAgency(agency),
	}
	if !agency.CreatedAt.IsZero() {
		days := math.Abs(now.Sub(agency.CreatedAt).Hours()) / 24
		s.DaysActive = int(math.Ceil(days))
	}
	return s
}
