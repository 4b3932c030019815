// ABOUTME: Cached repository over the Bubble gateway
// ABOUTME: Owns query keys, staleness windows and the gateway interface the store depends on
package store

import (
	"context"
	"time"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/models"
	"go.uber.org/zap"
)

// Gateway is the subset of *bubble.Client the store uses.
type Gateway interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListBrands(ctx context.Context, constraints ...bubble.Constraint) ([]models.Brand, error)
	GetBrand(ctx context.Context, id string) (models.Brand, error)
	ListBrandContacts(ctx context.Context, brandID string) ([]models.BrandContact, error)
	GetBrandContact(ctx context.Context, id string) (models.BrandContact, error)
	ListBrandDeals(ctx context.Context, createdByUserID string) ([]models.BrandDeal, error)
	GetBrandDeal(ctx context.Context, id string) (models.BrandDeal, error)
	ListInstances(ctx context.Context, ids []string) ([]models.Instance, error)
	CreateInstance(ctx context.Context, in bubble.CreateInstanceInput) (string, error)
	UpdateInstance(ctx context.Context, in bubble.UpdateInstanceInput) error
	CreateBrandDeal(ctx context.Context, in bubble.CreateBrandDealInput) (string, error)
	UpdateBrandDeal(ctx context.Context, in bubble.UpdateBrandDealInput) error
}

// TTLs are the staleness windows per query class. Zero fields take the
// default for their class.
type TTLs struct {
	Users                time.Duration `yaml:"users"`
	User                 time.Duration `yaml:"user"`
	Brands               time.Duration `yaml:"brands"`
	AgencyBrands         time.Duration `yaml:"agency_brands"`
	BrandContacts        time.Duration `yaml:"brand_contacts"`
	BrandContactsByBrand time.Duration `yaml:"brand_contacts_by_brand"`
	BrandContact         time.Duration `yaml:"brand_contact"`
	BrandDeals           time.Duration `yaml:"branddeals"`
	BrandDeal            time.Duration `yaml:"branddeal"`
	Instances            time.Duration `yaml:"instances"`
}

const defaultTTL = 30 * time.Second

func DefaultTTLs() TTLs {
	return TTLs{
		Users:                defaultTTL,
		User:                 5 * time.Minute,
		Brands:               defaultTTL,
		AgencyBrands:         2 * time.Minute,
		BrandContacts:        defaultTTL,
		BrandContactsByBrand: time.Minute,
		BrandContact:         5 * time.Minute,
		BrandDeals:           defaultTTL,
		BrandDeal:            defaultTTL,
		Instances:            defaultTTL,
	}
}

func (t TTLs) withDefaults() TTLs {
	d := DefaultTTLs()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.Users, d.Users)
	fill(&t.User, d.User)
	fill(&t.Brands, d.Brands)
	fill(&t.AgencyBrands, d.AgencyBrands)
	fill(&t.BrandContacts, d.BrandContacts)
	fill(&t.BrandContactsByBrand, d.BrandContactsByBrand)
	fill(&t.BrandContact, d.BrandContact)
	fill(&t.BrandDeals, d.BrandDeals)
	fill(&t.BrandDeal, d.BrandDeal)
	fill(&t.Instances, d.Instances)
	return t
}

// Query key roots.
const (
	keyUsers         = "users"
	keyUser          = "user"
	keyBrands        = "brands"
	keyAgencyBrands  = "agencyBrands"
	keyBrandContacts = "brandContacts"
	keyBrandContact  = "brandContact"
	keyBrandDeals    = "branddeals"
	keyBrandDeal     = "branddeal"
	keyInstances     = "instances"
)

// Store serves reads from the cache and purges it after mutations.
type Store struct {
	gw     Gateway
	cache  *cache.Cache
	ttl    TTLs
	logger *zap.Logger
	now    func() time.Time
}

func New(gw Gateway, c *cache.Cache, ttl TTLs, logger *zap.Logger) *Store {
	if c == nil {
		c = cache.New(cache.Options{Logger: logger})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{gw: gw, cache: c, ttl: ttl.withDefaults(), logger: logger, now: time.Now}
}

// Reset drops every cached query, e.g. after logout.
func (s *Store) Reset() {
	s.cache.InvalidateAll()
}

// read goes through the cache, bypassing freshness when the context
// carries a refresh marker.
func read[T any](ctx context.Context, s *Store, key cache.Key, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if isRefresh(ctx) {
		return cache.Refetch(ctx, s.cache, key, ttl, fn)
	}
	return cache.Fetch(ctx, s.cache, key, ttl, fn)
}

type refreshKey struct{}

func withRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func withoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, false)
}

func isRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}
