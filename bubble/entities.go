// ABOUTME: Typed Data API calls for users, brands, brand contacts, brand deals, and instances
// ABOUTME: Wraps the generic list/get helpers with per-entity constraints and decoding
package bubble

import (
	"context"

	"github.com/harperreed/tiddle/models"
)

// Users

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return listAll(ctx, c, CollectionUsers, nil, userRecord.toModel)
}

func (c *Client) ListUsersPage(ctx context.Context, limit, cursor int) (TypedPage[models.User], error) {
	return listPage(ctx, c, CollectionUsers, limit, cursor, nil, userRecord.toModel)
}

// SearchUsers matches usernames containing term. The Data API only
// ANDs constraints, so OR searches must be merged by the caller.
func (c *Client) SearchUsers(ctx context.Context, term string, limit, cursor int) (TypedPage[models.User], error) {
	cs := []Constraint{Where(Field("User.Username"), TextContains, term)}
	return listPage(ctx, c, CollectionUsers, limit, cursor, cs, userRecord.toModel)
}

func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	return getOne(ctx, c, CollectionUsers, id, userRecord.toModel)
}

// Brands

func (c *Client) ListBrands(ctx context.Context, constraints ...Constraint) ([]models.Brand, error) {
	return listAll(ctx, c, CollectionBrands, constraints, brandRecord.toModel)
}

func (c *Client) ListBrandsPage(ctx context.Context, limit, cursor int, constraints ...Constraint) (TypedPage[models.Brand], error) {
	return listPage(ctx, c, CollectionBrands, limit, cursor, constraints, brandRecord.toModel)
}

func (c *Client) GetBrand(ctx context.Context, id string) (models.Brand, error) {
	return getOne(ctx, c, CollectionBrands, id, brandRecord.toModel)
}

// Brand contacts

// ListBrandContacts lists every contact, or only those owned by brandID
// when it is non-empty.
func (c *Client) ListBrandContacts(ctx context.Context, brandID string) ([]models.BrandContact, error) {
	return listAll(ctx, c, CollectionBrandContacts, brandConstraint(brandID), brandContactRecord.toModel)
}

func (c *Client) ListBrandContactsPage(ctx context.Context, limit, cursor int, brandID string) (TypedPage[models.BrandContact], error) {
	return listPage(ctx, c, CollectionBrandContacts, limit, cursor, brandConstraint(brandID), brandContactRecord.toModel)
}

func (c *Client) GetBrandContact(ctx context.Context, id string) (models.BrandContact, error) {
	return getOne(ctx, c, CollectionBrandContacts, id, brandContactRecord.toModel)
}

func brandConstraint(brandID string) []Constraint {
	if brandID == "" {
		return nil
	}
	return []Constraint{Where(Field("BrandContact.BrandID"), Equals, brandID)}
}

// Brand deals

// ListBrandDeals lists the deals created by a user.
func (c *Client) ListBrandDeals(ctx context.Context, createdByUserID string) ([]models.BrandDeal, error) {
	if createdByUserID == "" {
		return nil, validationError("list "+CollectionBrandDeals, "User ID is required to fetch brand deals")
	}
	cs := []Constraint{Where(Field("BrandDeal.CreatedByUserID"), Equals, createdByUserID)}
	return listAll(ctx, c, CollectionBrandDeals, cs, brandDealRecord.toModel)
}

func (c *Client) GetBrandDeal(ctx context.Context, id string) (models.BrandDeal, error) {
	return getOne(ctx, c, CollectionBrandDeals, id, brandDealRecord.toModel)
}

// Instances

// ListInstances fetches the instances with the given ids in one
// constrained list call. An empty id list returns no instances without
// touching the network.
func (c *Client) ListInstances(ctx context.Context, ids []string) ([]models.Instance, error) {
	if len(ids) == 0 {
		return []models.Instance{}, nil
	}
	cs := []Constraint{Where(Field("Thing.ID"), In, ids)}
	return listAll(ctx, c, CollectionInstances, cs, instanceRecord.toModel)
}

func (c *Client) GetInstance(ctx context.Context, id string) (models.Instance, error) {
	return getOne(ctx, c, CollectionInstances, id, instanceRecord.toModel)
}
