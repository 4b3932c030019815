// ABOUTME: Instance and brand deal mutations with their cache invalidation rules
// ABOUTME: Validates input locally and purges affected query keys only after success
package store

import (
	"context"
	"slices"
	"strings"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/models"
	"go.uber.org/zap"
)

func (s *Store) invalidate(op string, keys ...cache.Key) {
	removed := s.cache.Invalidate(keys...)
	s.logger.Debug("invalidated queries", zap.String("op", op), zap.Int("removed", removed))
}

func canonicalIn(op, field, value string, allowed []string) (string, error) {
	v := models.CanonicalStatus(value)
	if !slices.Contains(allowed, v) {
		return "", bubble.ValidationError(op, "Unknown "+field+": "+value)
	}
	return v, nil
}

// CreateInstance adds a creator to a deal. Afterwards the deal's
// instances, the deal itself and every deal list are refetched on read.
func (s *Store) CreateInstance(ctx context.Context, in bubble.CreateInstanceInput) (string, error) {
	op := bubble.WorkflowCreateInstance
	in.Platform = models.PlatformName(in.Platform)
	if in.Platform != "" && !slices.Contains(models.Platforms, in.Platform) {
		return "", bubble.ValidationError(op, "Unknown platform: "+in.Platform)
	}

	id, err := s.gw.CreateInstance(ctx, in)
	if err != nil {
		return "", err
	}
	s.invalidate(op,
		cache.NewKey(keyInstances, in.BrandDealID),
		cache.NewKey(keyBrandDeal, in.BrandDealID),
		cache.NewKey(keyBrandDeals))
	s.logger.Info("instance created", zap.String("branddeal", in.BrandDealID), zap.String("id", id))
	return id, nil
}

// UpdateInstance edits one instance of dealID. dealID may be empty when
// unknown, in which case every cached deal is purged.
func (s *Store) UpdateInstance(ctx context.Context, dealID string, in bubble.UpdateInstanceInput) error {
	op := bubble.WorkflowUpdateInstance
	if in.Status != nil {
		status, err := canonicalIn(op, "instance status", *in.Status, models.InstanceStatuses)
		if err != nil {
			return err
		}
		in.Status = &status
	}
	if in.Platform != nil {
		p := models.PlatformName(*in.Platform)
		if !slices.Contains(models.Platforms, p) {
			return bubble.ValidationError(op, "Unknown platform: "+*in.Platform)
		}
		in.Platform = &p
	}

	if err := s.gw.UpdateInstance(ctx, in); err != nil {
		return err
	}
	s.invalidate(op,
		cache.NewKey(keyInstances),
		cache.NewKey(keyUsers),
		cache.NewKey(keyBrandDeal, dealID),
		cache.NewKey(keyBrandDeals))
	return nil
}

// CreateBrandDeal creates a campaign. An empty status defaults to roster.
func (s *Store) CreateBrandDeal(ctx context.Context, in bubble.CreateBrandDealInput) (string, error) {
	op := bubble.WorkflowCreateBrandDeal
	if strings.TrimSpace(in.Status) == "" {
		in.Status = models.DealStatusRoster
	}
	status, err := canonicalIn(op, "campaign status", in.Status, models.DealStatuses)
	if err != nil {
		return "", err
	}
	in.Status = status

	id, err := s.gw.CreateBrandDeal(ctx, in)
	if err != nil {
		return "", err
	}
	s.invalidate(op,
		cache.NewKey(keyBrandDeals),
		cache.NewKey(keyBrands),
		cache.NewKey(keyAgencyBrands),
		cache.NewKey(keyBrandContacts))
	s.logger.Info("brand deal created", zap.String("id", id), zap.String("brand", in.BrandID))
	return id, nil
}

func (s *Store) UpdateBrandDeal(ctx context.Context, in bubble.UpdateBrandDealInput) error {
	op := bubble.WorkflowUpdateBrandDeal
	if in.Status != "" {
		status, err := canonicalIn(op, "campaign status", in.Status, models.DealStatuses)
		if err != nil {
			return err
		}
		in.Status = status
	}
	if err := s.gw.UpdateBrandDeal(ctx, in); err != nil {
		return err
	}
	s.invalidate(op,
		cache.NewKey(keyBrandDeals),
		cache.NewKey(keyBrandDeal, in.BrandDealID),
		cache.NewKey(keyBrands),
		cache.NewKey(keyAgencyBrands),
		cache.NewKey(keyBrandContacts))
	return nil
}
