// ABOUTME: Wire records for Bubble data types and their translation to models
// ABOUTME: The only place that knows the backend's hyphenated field names
package bubble

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/harperreed/tiddle/models"
)

// Collection names on the Data API.
const (
	CollectionUsers         = "user"
	CollectionBrands        = "brand"
	CollectionBrandContacts = "brandcontact"
	CollectionBrandDeals    = "branddeal"
	CollectionInstances     = "instance"
)

// FieldNames maps model field paths to backend field names. Constraints
// must use the backend name; everything above this package uses models.
var FieldNames = map[string]string{
	"Thing.ID":         "_id",
	"Thing.CreatedAt":  "CreatedDate",
	"Thing.ModifiedAt": "ModifiedDate",

	"User.Username":       "username",
	"User.AvatarURL":      "image",
	"User.Email":          "authentication.email.email",
	"User.EmailConfirmed": "authentication.email.email_confirmed",

	"Brand.BrandName":        "brandname",
	"Brand.LegalName":        "legalname",
	"Brand.LogoURL":          "image",
	"Brand.Niches":           "niche",
	"Brand.Classification":   "classification",
	"Brand.ContactCount":     "contact-count",
	"Brand.BrandCount":       "brand-count",
	"Brand.ManagedBrandIDs":  "brands",
	"Brand.Hidden":           "hidden",
	"Brand.Notes":            "notes",
	"Brand.Website":          "website",
	"Brand.Phone":            "phone",
	"Brand.FoundedDate":      "founded-date",
	"Brand.EmployeeCount":    "employee-count",
	"Brand.AnnualRevenue":    "annual-revenue",
	"Brand.CommissionRate":   "commission-rate",
	"Brand.StripeCustomerID": "stripe-customer-id",
	"Brand.StripeAccountID":  "stripe-account-id",
	"Brand.BillingEmail":     "billing-email",
	"Brand.BillingAddress":   "billing-address",
	"Brand.TaxID":            "tax-id",
	"Brand.PaymentTerms":     "payment-terms",
	"Brand.PaymentMethod":    "payment-method",
	"Brand.InvoicePrefix":    "invoice-prefix",

	"BrandContact.Name":            "name",
	"BrandContact.Email":           "email",
	"BrandContact.Phone":           "phone",
	"BrandContact.Role":            "role",
	"BrandContact.BrandID":         "brand",
	"BrandContact.AgencyBrandIDs":  "agency-brands",
	"BrandContact.Status":          "status",
	"BrandContact.IsPrimary":       "is-primary",
	"BrandContact.ProfileImageURL": "profileimage",
	"BrandContact.Notes":           "notes",

	"BrandDeal.Title":           "title",
	"BrandDeal.ImageURL":        "image",
	"BrandDeal.Status":          "kaban-status",
	"BrandDeal.CreatedByUserID": "Created By",
	"BrandDeal.BrandID":         "brand",
	"BrandDeal.BrandContactIDs": "brand-contacts",
	"BrandDeal.AgencyID":        "agency",
	"BrandDeal.Deliverables":    "deliverables",
	"BrandDeal.InstanceIDs":     "user-list",

	"Instance.Username":    "username",
	"Instance.UserID":      "user",
	"Instance.Platform":    "platform",
	"Instance.Rate":        "rate",
	"Instance.Price":       "price",
	"Instance.Status":      "instance-status",
	"Instance.Notes":       "notes",
	"Instance.BrandDealID": "branddeal",
}

// Field returns the backend name for a model field path like "Brand.Hidden".
// It panics on an unknown path, which is a programming error.
func Field(path string) string {
	name, ok := FieldNames[path]
	if !ok {
		panic(fmt.Sprintf("bubble: no backend field for %q", path))
	}
	return name
}

// timestamp tolerates the shapes Bubble uses for dates: RFC 3339
// strings, epoch milliseconds, empty strings and null.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func (t timestamp) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type thingRecord struct {
	ID           string    `json:"_id"`
	CreatedDate  timestamp `json:"CreatedDate"`
	ModifiedDate timestamp `json:"ModifiedDate"`
}

func (r thingRecord) toModel() models.Thing {
	return models.Thing{ID: r.ID, CreatedAt: r.CreatedDate.Time, ModifiedAt: r.ModifiedDate.Time}
}

type userRecord struct {
	thingRecord
	Username       string `json:"username"`
	Image          string `json:"image"`
	Authentication struct {
		Email struct {
			Email          string `json:"email"`
			EmailConfirmed *bool  `json:"email_confirmed"`
		} `json:"email"`
	} `json:"authentication"`
}

func (r userRecord) toModel() models.User {
	return models.User{
		Thing:          r.thingRecord.toModel(),
		Username:       r.Username,
		AvatarURL:      r.Image,
		Email:          r.Authentication.Email.Email,
		EmailConfirmed: r.Authentication.Email.EmailConfirmed,
	}
}

type addressRecord struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type brandRecord struct {
	thingRecord
	BrandName        string         `json:"brandname"`
	LegalName        string         `json:"legalname"`
	Image            string         `json:"image"`
	Niche            []string       `json:"niche"`
	Classification   string         `json:"classification"`
	ContactCount     int            `json:"contact-count"`
	BrandCount       int            `json:"brand-count"`
	Brands           []string       `json:"brands"`
	Hidden           bool           `json:"hidden"`
	Notes            string         `json:"notes"`
	Website          string         `json:"website"`
	Phone            string         `json:"phone"`
	FoundedDate      timestamp      `json:"founded-date"`
	EmployeeCount    int            `json:"employee-count"`
	AnnualRevenue    float64        `json:"annual-revenue"`
	CommissionRate   float64        `json:"commission-rate"`
	StripeCustomerID string         `json:"stripe-customer-id"`
	StripeAccountID  string         `json:"stripe-account-id"`
	BillingEmail     string         `json:"billing-email"`
	BillingAddress   *addressRecord `json:"billing-address"`
	TaxID            string         `json:"tax-id"`
	PaymentTerms     string         `json:"payment-terms"`
	PaymentMethod    string         `json:"payment-method"`
	InvoicePrefix    string         `json:"invoice-prefix"`
}

func (r brandRecord) toModel() models.Brand {
	b := models.Brand{
		Thing:            r.thingRecord.toModel(),
		BrandName:        r.BrandName,
		LegalName:        r.LegalName,
		LogoURL:          r.Image,
		Niches:           r.Niche,
		Classification:   r.Classification,
		ContactCount:     r.ContactCount,
		BrandCount:       r.BrandCount,
		ManagedBrandIDs:  r.Brands,
		Hidden:           r.Hidden,
		Notes:            r.Notes,
		Website:          r.Website,
		Phone:            r.Phone,
		FoundedDate:      r.FoundedDate.ptr(),
		EmployeeCount:    r.EmployeeCount,
		AnnualRevenue:    r.AnnualRevenue,
		CommissionRate:   r.CommissionRate,
		StripeCustomerID: r.StripeCustomerID,
		StripeAccountID:  r.StripeAccountID,
		BillingEmail:     r.BillingEmail,
		TaxID:            r.TaxID,
		PaymentTerms:     r.PaymentTerms,
		PaymentMethod:    r.PaymentMethod,
		InvoicePrefix:    r.InvoicePrefix,
	}
	if r.BillingAddress != nil {
		addr := models.Address(*r.BillingAddress)
		b.BillingAddress = &addr
	}
	return b
}

type brandContactRecord struct {
	thingRecord
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Role         string   `json:"role"`
	Brand        string   `json:"brand"`
	AgencyBrands []string `json:"agency-brands"`
	Status       string   `json:"status"`
	IsPrimary    bool     `json:"is-primary"`
	ProfileImage string   `json:"profileimage"`
	Notes        string   `json:"notes"`
}

func (r brandContactRecord) toModel() models.BrandContact {
	return models.BrandContact{
		Thing:           r.thingRecord.toModel(),
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Role:            r.Role,
		BrandID:         r.Brand,
		AgencyBrandIDs:  r.AgencyBrands,
		Status:          r.Status,
		IsPrimary:       r.IsPrimary,
		ProfileImageURL: r.ProfileImage,
		Notes:           r.Notes,
	}
}

type brandDealRecord struct {
	thingRecord
	Title         string   `json:"title"`
	Image         string   `json:"image"`
	KabanStatus   string   `json:"kaban-status"`
	CreatedBy     string   `json:"Created By"`
	Brand         string   `json:"brand"`
	BrandContacts []string `json:"brand-contacts"`
	Agency        string   `json:"agency"`
	Deliverables  string   `json:"deliverables"`
	UserList      []string `json:"user-list"`
}

func (r brandDealRecord) toModel() models.BrandDeal {
	return models.BrandDeal{
		Thing:           r.thingRecord.toModel(),
		Title:           r.Title,
		ImageURL:        r.Image,
		Status:          r.KabanStatus,
		CreatedByUserID: r.CreatedBy,
		BrandID:         r.Brand,
		BrandContactIDs: r.BrandContacts,
		AgencyID:        r.Agency,
		Deliverables:    r.Deliverables,
		InstanceIDs:     r.UserList,
	}
}

type instanceRecord struct {
	thingRecord
	Username       string  `json:"username"`
	User           string  `json:"user"`
	Platform       string  `json:"platform"`
	Rate           float64 `json:"rate"`
	Price          float64 `json:"price"`
	InstanceStatus string  `json:"instance-status"`
	Notes          string  `json:"notes"`
	BrandDeal      string  `json:"branddeal"`
}

func (r instanceRecord) toModel() models.Instance {
	return models.Instance{
		Thing:       r.thingRecord.toModel(),
		Username:    r.Username,
		UserID:      r.User,
		Platform:    r.Platform,
		Rate:        r.Rate,
		Price:       r.Price,
		Status:      r.InstanceStatus,
		Notes:       r.Notes,
		BrandDealID: r.BrandDeal,
	}
}

// decodeAll unmarshals raw results into wire records and converts them.
func decodeAll[R any, M any](op string, raw []json.RawMessage, convert func(R) M) ([]M, error) {
	out := make([]M, 0, len(raw))
	for _, item := range raw {
		var rec R
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, decodeError(op, err)
		}
		out = append(out, convert(rec))
	}
	return out, nil
}
