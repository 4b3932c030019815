// ABOUTME: Data models for brand-deal CRM entities
// ABOUTME: Defines User, Brand, BrandContact, BrandDeal, Instance and status constants
package models

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Thing carries the fields the backend assigns to every record.
type Thing struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type User struct {
	Thing
	Username       string `json:"username,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Email          string `json:"email,omitempty"`
	EmailConfirmed *bool  `json:"email_confirmed,omitempty"`
}

// Brand classification constants.
const (
	ClassificationDirect = "direct"
	ClassificationAgency = "agency"
	ClassificationMusic  = "music"
)

type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Brand struct {
	Thing
	BrandName       string   `json:"brand_name"`
	LegalName       string   `json:"legal_name,omitempty"`
	LogoURL         string   `json:"logo_url,omitempty"`
	Niches          []string `json:"niches,omitempty"`
	Classification  string   `json:"classification,omitempty"`
	ContactCount    int      `json:"contact_count,omitempty"`
	BrandCount      int      `json:"brand_count,omitempty"`
	ManagedBrandIDs []string `json:"managed_brand_ids,omitempty"`
	Hidden          bool     `json:"hidden,omitempty"`
	Notes           string   `json:"notes,omitempty"`

	Website          string     `json:"website,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	FoundedDate      *time.Time `json:"founded_date,omitempty"`
	EmployeeCount    int        `json:"employee_count,omitempty"`
	AnnualRevenue    float64    `json:"annual_revenue,omitempty"`
	CommissionRate   float64    `json:"commission_rate,omitempty"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
	StripeAccountID  string     `json:"stripe_account_id,omitempty"`
	BillingEmail     string     `json:"billing_email,omitempty"`
	BillingAddress   *Address   `json:"billing_address,omitempty"`
	TaxID            string     `json:"tax_id,omitempty"`
	PaymentTerms     string     `json:"payment_terms,omitempty"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	InvoicePrefix    string     `json:"invoice_prefix,omitempty"`
}

// IsAgency reports whether a brand acts as an agency: either it is
// classified as one or it manages at least one other brand.
// It is computed from the record on every call and never stored.
func IsAgency(b Brand) bool {
	return strings.EqualFold(strings.TrimSpace(b.Classification), ClassificationAgency) ||
		len(b.ManagedBrandIDs) > 0
}

// AgencyBrand is a brand returned from an agency-scoped fetch.
// ParentAgencyID only has meaning within that fetch.
type AgencyBrand struct {
	Brand
	ParentAgencyID string `json:"parent_agency_id"`
}

// Contact status constants.
const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
	ContactStatusArchived = "archived"
)

type BrandContact struct {
	Thing
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Role            string   `json:"role,omitempty"`
	BrandID         string   `json:"brand_id,omitempty"`
	AgencyBrandIDs  []string `json:"agency_brand_ids,omitempty"`
	Status          string   `json:"status,omitempty"`
	IsPrimary       bool     `json:"is_primary,omitempty"`
	ProfileImageURL string   `json:"profile_image_url,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Campaign (brand deal) status constants, in workflow order.
const (
	DealStatusRoster     = "roster"
	DealStatusWaiting    = "waiting"
	DealStatusInProgress = "in progress"
	DealStatusInvoiced   = "invoiced"
	DealStatusComplete   = "complete"
	DealStatusCanceled   = "canceled"
)

// DealStatuses lists campaign statuses in kanban order.
var DealStatuses = []string{
	DealStatusRoster,
	DealStatusWaiting,
	DealStatusInProgress,
	DealStatusInvoiced,
	DealStatusComplete,
	DealStatusCanceled,
}

type BrandDeal struct {
	Thing
	Title           string   `json:"title"`
	ImageURL        string   `json:"image_url,omitempty"`
	Status          string   `json:"status,omitempty"`
	CreatedByUserID string   `json:"created_by_user_id,omitempty"`
	BrandID         string   `json:"brand_id,omitempty"`
	BrandContactIDs []string `json:"brand_contact_ids,omitempty"`
	AgencyID        string   `json:"agency_id,omitempty"`
	Deliverables    string   `json:"deliverables,omitempty"`
	InstanceIDs     []string `json:"instance_ids,omitempty"`
}

// Instance status constants, in workflow order.
const (
	InstanceStatusNone              = "none"
	InstanceStatusWaitingForProduct = "waiting for product"
	InstanceStatusNoSubmission      = "no submission"
	InstanceStatusBrandReview       = "brand review"
	InstanceStatusRevising          = "revising"
	InstanceStatusReadyToPost       = "ready to post"
	InstanceStatusPosted            = "posted"
	InstanceStatusInvoicePending    = "invoice pending"
	InstanceStatusPaid              = "paid"
)

// InstanceStatuses lists instance statuses in workflow order.
var InstanceStatuses = []string{
	InstanceStatusNone,
	InstanceStatusWaitingForProduct,
	InstanceStatusNoSubmission,
	InstanceStatusBrandReview,
	InstanceStatusRevising,
	InstanceStatusReadyToPost,
	InstanceStatusPosted,
	InstanceStatusInvoicePending,
	InstanceStatusPaid,
}

// Platform constants.
const (
	PlatformTikTok    = "TikTok"
	PlatformInstagram = "Instagram"
	PlatformYouTube   = "YouTube"
	PlatformTwitter   = "Twitter"
)

var Platforms = []string{PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformTwitter}

type Instance struct {
	Thing
	Username    string  `json:"username,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Platform    string  `json:"platform,omitempty"`
	Rate        float64 `json:"rate"`  // paid to the creator
	Price       float64 `json:"price"` // billed to the brand
	Status      string  `json:"status,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	BrandDealID string  `json:"brand_deal_id,omitempty"`
}

// Margin is what the agency keeps on this line item.
func (i Instance) Margin() float64 {
	return i.Price - i.Rate
}

type DealTotals struct {
	Count  int     `json:"count"`
	Rate   float64 `json:"rate"`
	Price  float64 `json:"price"`
	Margin float64 `json:"margin"`
}

// SumInstances totals rate, price and margin across a deal's instances.
func SumInstances(instances []Instance) DealTotals {
	var t DealTotals
	for _, inst := range instances {
		t.Count++
		t.Rate += inst.Rate
		t.Price += inst.Price
	}
	t.Margin = t.Price - t.Rate
	return t
}

// Money formats an amount as dollars with thousands separators and cents.
func Money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

// CanonicalStatus lowercases and trims a free-text status. The filter
// token "in-progress" is folded into "in progress".
func CanonicalStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "in-progress" {
		return DealStatusInProgress
	}
	return s
}

// PlatformName normalizes user input to one of the known platform names.
// Unknown platforms are returned trimmed but otherwise unchanged.
func PlatformName(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range Platforms {
		if strings.EqualFold(p, s) {
			return p
		}
	}
	return s
}
