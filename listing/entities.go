// ABOUTME: Ready-made pipelines for deals, instances, contacts, brands and agency brands
// ABOUTME: Encodes which fields each list view searches and how it orders results
package listing

import (
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
)

// DefaultDealFilter is the filter the campaign list opens with.
const DefaultDealFilter = "in-progress"

// DealFilters are the status filters offered for campaigns.
var DealFilters = []string{All, "in-progress", models.DealStatusRoster, models.DealStatusWaiting,
	models.DealStatusInvoiced, models.DealStatusComplete, models.DealStatusCanceled}

// BrandFilters are the classification filters offered for brands.
var BrandFilters = []string{All, models.ClassificationDirect, models.ClassificationAgency, models.ClassificationMusic}

// Deals filters by status, searches titles and orders by campaign rank then title.
var Deals = Pipeline[models.BrandDeal]{
	Category:  func(d models.BrandDeal) string { return d.Status },
	Fields:    func(d models.BrandDeal) []string { return []string{d.Title} },
	Rank:      func(d models.BrandDeal) int { return CampaignRanks.Rank(d.Status) },
	SortKey:   func(d models.BrandDeal) string { return d.Title },
	Canonical: models.CanonicalStatus,
}

// Instances filters by status, searches creator and platform and orders
// by instance rank then username.
var Instances = Pipeline[models.Instance]{
	Category:  func(i models.Instance) string { return i.Status },
	Fields:    func(i models.Instance) []string { return []string{i.Username, i.Platform, i.Notes} },
	Rank:      func(i models.Instance) int { return InstanceRanks.Rank(i.Status) },
	SortKey:   func(i models.Instance) string { return i.Username },
	Canonical: models.CanonicalStatus,
}

// Contacts searches name, brand name, agency brand names and email, and
// orders by name.
var Contacts = Pipeline[resolve.EnhancedContact]{
	Category: func(c resolve.EnhancedContact) string { return c.Status },
	Fields: func(c resolve.EnhancedContact) []string {
		fields := []string{c.Name, c.Email}
		if c.ResolvedBrand != nil {
			fields = append(fields, c.ResolvedBrand.BrandName)
		}
		for _, b := range c.ResolvedAgencyBrands {
			fields = append(fields, b.BrandName)
		}
		return fields
	},
	SortKey: func(c resolve.EnhancedContact) string { return c.Name },
}

// Brands filters by classification, searches brand names and orders
// alphabetically. Hidden brands are left out.
var Brands = brandPipeline(false)

// BrandsIncludingHidden is Brands without the hidden-brand exclusion.
var BrandsIncludingHidden = brandPipeline(true)

func brandPipeline(includeHidden bool) Pipeline[models.Brand] {
	p := Pipeline[models.Brand]{
		Category: func(b models.Brand) string { return b.Classification },
		Fields:   func(b models.Brand) []string { return []string{b.BrandName} },
		SortKey:  func(b models.Brand) string { return b.BrandName },
	}
	if !includeHidden {
		p.Exclude = func(b models.Brand) bool { return b.Hidden }
	}
	return p
}

// AgencyBrands searches brand and legal names of an agency's managed brands.
var AgencyBrands = Pipeline[models.AgencyBrand]{
	Fields:  func(b models.AgencyBrand) []string { return []string{b.BrandName, b.LegalName} },
	SortKey: func(b models.AgencyBrand) string { return b.BrandName },
}

// Users searches usernames and emails.
var Users = Pipeline[models.User]{
	Fields:  func(u models.User) []string { return []string{u.Username, u.Email} },
	SortKey: func(u models.User) string { return u.Username },
}
