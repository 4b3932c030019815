// ABOUTME: Bulk fetch-by-id with a partial-failure contract
// ABOUTME: Used for agency-managed brands and any other fan-out by id
package resolve

import (
	"context"

	"github.com/harperreed/tiddle/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many ids Bulk fetches at once.
const DefaultConcurrency = 8

// FailedID records an id that could not be fetched.
type FailedID struct {
	ID  string
	Err error
}

// BulkResult holds what Bulk managed to fetch. Items keep the order of
// the requested ids with failed ids left out.
type BulkResult[T any] struct {
	Items  []T
	Failed []FailedID
}

// Bulk fetches every id concurrently. A failed id is dropped from Items,
// recorded in Failed and logged; it never fails the whole call. Empty and
// repeated ids are fetched once.
func Bulk[T any](ctx context.Context, ids []string, fetch func(context.Context, string) (T, error), logger *zap.Logger) BulkResult[T] {
	if logger == nil {
		logger = zap.NewNop()
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	items := make([]T, len(unique))
	errs := make([]error, len(unique))

	var g errgroup.Group
	g.SetLimit(DefaultConcurrency)
	for i, id := range unique {
		g.Go(func() error {
			items[i], errs[i] = fetch(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult[T]{Items: make([]T, 0, len(unique))}
	for i, id := range unique {
		if errs[i] != nil {
			logger.Warn("bulk fetch: dropping id", zap.String("id", id), zap.Error(errs[i]))
			res.Failed = append(res.Failed, FailedID{ID: id, Err: errs[i]})
			continue
		}
		res.Items = append(res.Items, items[i])
	}
	return res
}

// AgencyBrands fetches each brand the agency manages and tags it with
// the agency's id.
func AgencyBrands(ctx context.Context, agency models.Brand, fetch func(context.Context, string) (models.Brand, error), logger *zap.Logger) ([]models.AgencyBrand, []FailedID) {
	res := Bulk(ctx, agency.ManagedBrandIDs, fetch, logger)
	out := make([]models.AgencyBrand, 0, len(res.Items))
	for _, b := range res.Items {
		out = append(out, models.AgencyBrand{Brand: b, ParentAgencyID: agency.ID})
	}
	return out, res.Failed
}
