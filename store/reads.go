// ABOUTME: Cached read queries for users, brands, contacts, deals and instances
// ABOUTME: Joins related entities through the resolver after fetching them concurrently
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/resolve"
	"golang.org/x/sync/errgroup"
)

func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	return read(ctx, s, cache.NewKey(keyUsers), s.ttl.Users, s.gw.ListUsers)
}

func (s *Store) User(ctx context.Context, id string) (models.User, error) {
	return read(ctx, s, cache.NewKey(keyUser, id), s.ttl.User, func(ctx context.Context) (models.User, error) {
		return s.gw.GetUser(ctx, id)
	})
}

func (s *Store) Brands(ctx context.Context) ([]models.Brand, error) {
	return read(ctx, s, cache.NewKey(keyBrands), s.ttl.Brands, func(ctx context.Context) ([]models.Brand, error) {
		return s.gw.ListBrands(ctx)
	})
}

// Brand is cached under the brands root so brand invalidation covers it.
func (s *Store) Brand(ctx context.Context, id string) (models.Brand, error) {
	return read(ctx, s, cache.NewKey(keyBrands, "id", id), s.ttl.Brands, func(ctx context.Context) (models.Brand, error) {
		return s.gw.GetBrand(ctx, id)
	})
}

// AgencyView is an agency with the brands it manages.
type AgencyView struct {
	Agency  models.Brand
	Managed []models.AgencyBrand
	// Failed lists managed brand ids that could not be fetched.
	Failed []resolve.FailedID
}

// AgencyBrands fetches the agency and each brand it manages. Brands that
// fail to load are reported in Failed instead of failing the call; such
// a partial result is not cached.
func (s *Store) AgencyBrands(ctx context.Context, agencyID string) (AgencyView, error) {
	key := cache.NewKey(keyAgencyBrands, agencyID)
	view, err := read(ctx, s, key, s.ttl.AgencyBrands, func(ctx context.Context) (AgencyView, error) {
		agency, err := s.Brand(ctx, agencyID)
		if err != nil {
			return AgencyView{}, fmt.Errorf("failed to load agency: %w", err)
		}
		managed, failed := resolve.AgencyBrands(ctx, agency, s.Brand, s.logger)
		return AgencyView{Agency: agency, Managed: managed, Failed: failed}, nil
	})
	if err != nil {
		return AgencyView{}, err
	}
	if len(view.Failed) > 0 {
		s.cache.Invalidate(key)
	}
	return view, nil
}

func (s *Store) BrandContacts(ctx context.Context) ([]models.BrandContact, error) {
	return read(ctx, s, cache.NewKey(keyBrandContacts), s.ttl.BrandContacts, func(ctx context.Context) ([]models.BrandContact, error) {
		return s.gw.ListBrandContacts(ctx, "")
	})
}

func (s *Store) BrandContactsForBrand(ctx context.Context, brandID string) ([]models.BrandContact, error) {
	if brandID == "" {
		return s.BrandContacts(ctx)
	}
	return read(ctx, s, cache.NewKey(keyBrandContacts, "brand", brandID), s.ttl.BrandContactsByBrand, func(ctx context.Context) ([]models.BrandContact, error) {
		return s.gw.ListBrandContacts(ctx, brandID)
	})
}

func (s *Store) BrandContact(ctx context.Context, id string) (models.BrandContact, error) {
	return read(ctx, s, cache.NewKey(keyBrandContact, id), s.ttl.BrandContact, func(ctx context.Context) (models.BrandContact, error) {
		return s.gw.GetBrandContact(ctx, id)
	})
}

// EnhancedContacts loads contacts and brands side by side and resolves
// each contact's brand references.
func (s *Store) EnhancedContacts(ctx context.Context) ([]resolve.EnhancedContact, error) {
	var (
		contacts []models.BrandContact
		brands   []models.Brand
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		contacts, err = s.BrandContacts(gctx)
		return err
	})
	g.Go(func() (err error) {
		brands, err = s.Brands(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolve.Contacts(contacts, brands), nil
}

func (s *Store) EnhancedContact(ctx context.Context, id string) (resolve.EnhancedContact, error) {
	var (
		contact models.BrandContact
		brands  []models.Brand
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		contact, err = s.BrandContact(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		brands, err = s.Brands(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return resolve.EnhancedContact{}, err
	}
	return resolve.Contact(contact, resolve.IndexBrands(brands)), nil
}

func (s *Store) BrandDeals(ctx context.Context, userID string) ([]models.BrandDeal, error) {
	return read(ctx, s, cache.NewKey(keyBrandDeals, userID), s.ttl.BrandDeals, func(ctx context.Context) ([]models.BrandDeal, error) {
		return s.gw.ListBrandDeals(ctx, userID)
	})
}

func (s *Store) BrandDeal(ctx context.Context, id string) (models.BrandDeal, error) {
	return read(ctx, s, cache.NewKey(keyBrandDeal, id), s.ttl.BrandDeal, func(ctx context.Context) (models.BrandDeal, error) {
		return s.gw.GetBrandDeal(ctx, id)
	})
}

// Instances loads the instances of a deal. Keyed by deal id so instance
// mutations on that deal purge it; without a deal id the ids form the key.
func (s *Store) Instances(ctx context.Context, dealID string, ids []string) ([]models.Instance, error) {
	key := cache.NewKey(keyInstances, dealID)
	if dealID == "" {
		key = cache.NewKey(keyInstances, "ids", strings.Join(ids, ","))
	}
	return read(ctx, s, key, s.ttl.Instances, func(ctx context.Context) ([]models.Instance, error) {
		return s.gw.ListInstances(ctx, ids)
	})
}

// DealDetail is a deal with everything its detail view shows.
type DealDetail struct {
	resolve.EnhancedDeal
	Instances []models.Instance `json:"instances"`
	Totals    models.DealTotals `json:"totals"`
}

// DealDetail loads the deal, then its instances, brands and contacts
// concurrently.
func (s *Store) DealDetail(ctx context.Context, id string) (DealDetail, error) {
	deal, err := s.BrandDeal(ctx, id)
	if err != nil {
		return DealDetail{}, err
	}

	var (
		instances []models.Instance
		brands    []models.Brand
		contacts  []models.BrandContact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		instances, err = s.Instances(gctx, deal.ID, deal.InstanceIDs)
		return err
	})
	g.Go(func() (err error) {
		brands, err = s.Brands(gctx)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.BrandContactsForBrand(gctx, deal.BrandID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DealDetail{}, err
	}

	return DealDetail{
		EnhancedDeal: resolve.Deal(deal, brands, contacts),
		Instances:    instances,
		Totals:       models.SumInstances(instances),
	}, nil
}

// AgencyStats summarizes an agency from its managed brands and contacts.
func (s *Store) AgencyStats(ctx context.Context, agencyID string) (AgencyView, resolve.Stats, []models.BrandContact, error) {
	var (
		view     AgencyView
		contacts []models.BrandContact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view, err = s.AgencyBrands(gctx, agencyID)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.BrandContacts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return AgencyView{}, resolve.Stats{}, nil, err
	}
	agencyContacts := resolve.AgencyContacts(agencyID, contacts)
	return view, resolve.AgencyStats(view.Agency, view.Managed, agencyContacts, s.now()), agencyContacts, nil
}
