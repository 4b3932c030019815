// ABOUTME: Pull-to-refresh: refetches a fixed set of queries concurrently
// ABOUTME: Fails only when every target fails; partial failures are logged
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RefreshTarget is one query to refetch.
type RefreshTarget struct {
	Name string
	run  func(ctx context.Context, s *Store) error
}

func target(name string, run func(ctx context.Context, s *Store) error) RefreshTarget {
	return RefreshTarget{Name: name, run: run}
}

func RefreshBrandDeal(id string) RefreshTarget {
	return target("branddeal "+id, func(ctx context.Context, s *Store) error {
		_, err := s.BrandDeal(ctx, id)
		return err
	})
}

func RefreshBrandDeals(userID string) RefreshTarget {
	return target("branddeals", func(ctx context.Context, s *Store) error {
		_, err := s.BrandDeals(ctx, userID)
		return err
	})
}

// RefreshInstances refetches a deal's instances. It reads the deal
// through the cache to learn the instance ids.
func RefreshInstances(dealID string) RefreshTarget {
	return target("instances "+dealID, func(ctx context.Context, s *Store) error {
		deal, err := s.BrandDeal(withoutRefresh(ctx), dealID)
		if err != nil {
			return err
		}
		_, err = s.Instances(ctx, dealID, deal.InstanceIDs)
		return err
	})
}

func RefreshBrands() RefreshTarget {
	return target("brands", func(ctx context.Context, s *Store) error {
		_, err := s.Brands(ctx)
		return err
	})
}

func RefreshBrandContacts() RefreshTarget {
	return target("brandContacts", func(ctx context.Context, s *Store) error {
		_, err := s.BrandContacts(ctx)
		return err
	})
}

func RefreshAgency(agencyID string) RefreshTarget {
	return target("agencyBrands "+agencyID, func(ctx context.Context, s *Store) error {
		_, err := s.AgencyBrands(ctx, agencyID)
		return err
	})
}

func RefreshUsers() RefreshTarget {
	return target("users", func(ctx context.Context, s *Store) error {
		_, err := s.Users(ctx)
		return err
	})
}

// Refresh refetches every target at once, ignoring staleness windows.
// It returns an error only if all targets fail.
func (s *Store) Refresh(ctx context.Context, targets ...RefreshTarget) error {
	if len(targets) == 0 {
		return nil
	}
	ctx = withRefresh(ctx)

	errs := make([]error, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			if err := t.run(ctx, s); err != nil {
				errs[i] = fmt.Errorf("%s: %w", t.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch {
	case len(failed) == len(targets):
		return fmt.Errorf("refresh failed: %w", errors.Join(failed...))
	case len(failed) > 0:
		s.logger.Warn("partial refresh",
			zap.Int("failed", len(failed)),
			zap.Int("targets", len(targets)),
			zap.Error(errors.Join(failed...)))
	}
	return nil
}
