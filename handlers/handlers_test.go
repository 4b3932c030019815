// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Runs handlers over a real store backed by an in-memory fake gateway
package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/models"
	"github.com/harperreed/tiddle/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	brands    map[string]models.Brand
	contacts  []models.BrandContact
	deals     map[string]models.BrandDeal
	instances []models.Instance

	createdDeal     *bubble.CreateBrandDealInput
	createdInstance *bubble.CreateInstanceInput
	updatedInstance *bubble.UpdateInstanceInput
}

func newFakeGateway() *fakeGateway {
	created := time.Now().Add(-36 * time.Hour)
	return &fakeGateway{
		brands: map[string]models.Brand{
			"ag": {Thing: models.Thing{ID: "ag", CreatedAt: created}, BrandName: "Big Agency", Classification: "agency", ManagedBrandIDs: []string{"b1", "b2"}},
			"b1": {Thing: models.Thing{ID: "b1"}, BrandName: "Acme", Classification: "direct"},
			"b2": {Thing: models.Thing{ID: "b2"}, BrandName: "Zest", Classification: "music"},
			"h1": {Thing: models.Thing{ID: "h1"}, BrandName: "Hidden Co", Hidden: true},
		},
		contacts: []models.BrandContact{
			{Thing: models.Thing{ID: "c1"}, Name: "Ann", Email: "ann@acme.test", BrandID: "b1", Status: "active"},
			{Thing: models.Thing{ID: "c2"}, Name: "Bo", BrandID: "ag", AgencyBrandIDs: []string{"b1"}, Status: "active"},
			{Thing: models.Thing{ID: "c3"}, Name: "Cy", BrandID: "b2", Status: "archived"},
		},
		deals: map[string]models.BrandDeal{
			"d1": {Thing: models.Thing{ID: "d1"}, Title: "Spring Launch", Status: "in progress", BrandID: "b1", AgencyID: "ag",
				BrandContactIDs: []string{"c1"}, InstanceIDs: []string{"i1", "i2"}},
			"d2": {Thing: models.Thing{ID: "d2"}, Title: "Summer Promo", Status: "roster", BrandID: "b2"},
		},
		instances: []models.Instance{
			{Thing: models.Thing{ID: "i1"}, Username: "zed", Platform: "TikTok", Status: "posted", Rate: 100, Price: 150},
			{Thing: models.Thing{ID: "i2"}, Username: "amy", Platform: "Instagram", Status: "brand review", Rate: 200, Price: 300},
		},
	}
}

func (f *fakeGateway) ListUsers(context.Context) ([]models.User, error) { return nil, nil }
func (f *fakeGateway) GetUser(_ context.Context, id string) (models.User, error) {
	return models.User{Thing: models.Thing{ID: id}}, nil
}

func (f *fakeGateway) ListBrands(context.Context, ...bubble.Constraint) ([]models.Brand, error) {
	var out []models.Brand
	for _, id := range []string{"ag", "b1", "b2", "h1"} {
		out = append(out, f.brands[id])
	}
	return out, nil
}

func (f *fakeGateway) GetBrand(_ context.Context, id string) (models.Brand, error) {
	b, ok := f.brands[id]
	if !ok {
		return models.Brand{}, &bubble.Error{Kind: bubble.KindNotFound, Message: "brand not found", Err: bubble.ErrNotFound}
	}
	return b, nil
}

func (f *fakeGateway) ListBrandContacts(_ context.Context, brandID string) ([]models.BrandContact, error) {
	var out []models.BrandContact
	for _, c := range f.contacts {
		if brandID == "" || c.BrandID == brandID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetBrandContact(_ context.Context, id string) (models.BrandContact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return models.BrandContact{}, bubble.ErrNotFound
}

func (f *fakeGateway) ListBrandDeals(context.Context, string) ([]models.BrandDeal, error) {
	return []models.BrandDeal{f.deals["d1"], f.deals["d2"]}, nil
}

func (f *fakeGateway) GetBrandDeal(_ context.Context, id string) (models.BrandDeal, error) {
	d, ok := f.deals[id]
	if !ok {
		return models.BrandDeal{}, bubble.ErrNotFound
	}
	return d, nil
}

func (f *fakeGateway) ListInstances(_ context.Context, ids []string) ([]models.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return f.instances, nil
}

func (f *fakeGateway) CreateInstance(_ context.Context, in bubble.CreateInstanceInput) (string, error) {
	f.createdInstance = &in
	return "i3", nil
}

func (f *fakeGateway) UpdateInstance(_ context.Context, in bubble.UpdateInstanceInput) error {
	f.updatedInstance = &in
	return nil
}

func (f *fakeGateway) CreateBrandDeal(_ context.Context, in bubble.CreateBrandDealInput) (string, error) {
	f.createdDeal = &in
	return "d3", nil
}

func (f *fakeGateway) UpdateBrandDeal(context.Context, bubble.UpdateBrandDealInput) error {
	return nil
}

func setupStore(t *testing.T) (*store.Store, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	return store.New(gw, nil, store.DefaultTTLs(), nil), gw
}

func signedIn() (string, error) { return "u1", nil }

func TestFindBrands(t *testing.T) {
	st, _ := setupStore(t)
	h := NewBrandHandlers(st)
	ctx := context.Background()

	_, out, err := h.FindBrands(ctx, nil, FindBrandsInput{})
	require.NoError(t, err)
	assert.Equal(t, "3 brands", out.Count)
	assert.Equal(t, "Acme", out.Brands[0].Name)

	_, out, err = h.FindBrands(ctx, nil, FindBrandsInput{Classification: "agency"})
	require.NoError(t, err)
	require.Len(t, out.Brands, 1)
	assert.True(t, out.Brands[0].IsAgency)

	_, out, err = h.FindBrands(ctx, nil, FindBrandsInput{Query: "co", IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, "1 of 4 brands", out.Count)

	_, out, err = h.FindBrands(ctx, nil, FindBrandsInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Brands, 1)
}

func TestGetAgency(t *testing.T) {
	st, _ := setupStore(t)
	h := NewBrandHandlers(st)

	_, out, err := h.GetAgency(context.Background(), nil, GetAgencyInput{AgencyID: "ag"})
	require.NoError(t, err)
	assert.Equal(t, "Big Agency", out.Agency.Name)
	require.Len(t, out.ManagedBrands, 2)
	assert.Equal(t, "ag", out.ManagedBrands[0].ParentAgencyID)
	assert.Equal(t, 2, out.ManagedCount)
	assert.Equal(t, 1, out.ContactCount)
	assert.Equal(t, 2, out.DaysActive)
	assert.Empty(t, out.FailedIDs)

	_, _, err = h.GetAgency(context.Background(), nil, GetAgencyInput{})
	assert.Error(t, err)
}

func TestGetAgencyReportsMissingBrands(t *testing.T) {
	st, gw := setupStore(t)
	ag := gw.brands["ag"]
	ag.ManagedBrandIDs = append(ag.ManagedBrandIDs, "gone")
	gw.brands["ag"] = ag

	_, out, err := NewBrandHandlers(st).GetAgency(context.Background(), nil, GetAgencyInput{AgencyID: "ag"})
	require.NoError(t, err)
	assert.Len(t, out.ManagedBrands, 2)
	assert.Equal(t, []string{"gone"}, out.FailedIDs)
}

func TestFindContacts(t *testing.T) {
	st, _ := setupStore(t)
	h := NewContactHandlers(st)
	ctx := context.Background()

	_, out, err := h.FindContacts(ctx, nil, FindContactsInput{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 2, "matches brand name and agency brand name")
	assert.Equal(t, "Ann", out.Contacts[0].Name)
	assert.Equal(t, "Acme", out.Contacts[0].BrandName)
	assert.Equal(t, []string{"Acme"}, out.Contacts[1].AgencyFor)
	assert.Equal(t, "2 of 3 contacts", out.Count)

	_, out, err = h.FindContacts(ctx, nil, FindContactsInput{Status: "archived"})
	require.NoError(t, err)
	require.Len(t, out.Contacts, 1)
	assert.Equal(t, "Cy", out.Contacts[0].Name)

	_, out, err = h.FindContacts(ctx, nil, FindContactsInput{BrandID: "b1"})
	require.NoError(t, err)
	assert.Len(t, out.Contacts, 2)
}

func TestFindDeals(t *testing.T) {
	st, _ := setupStore(t)
	h := NewDealHandlers(st, signedIn)
	ctx := context.Background()

	_, out, err := h.FindDeals(ctx, nil, FindDealsInput{})
	require.NoError(t, err)
	require.Len(t, out.Deals, 1, "defaults to in-progress")
	assert.Equal(t, "Spring Launch", out.Deals[0].Title)
	assert.Equal(t, 2, out.Deals[0].CreatorCount)

	_, out, err = h.FindDeals(ctx, nil, FindDealsInput{Status: "all"})
	require.NoError(t, err)
	require.Len(t, out.Deals, 2)
	assert.Equal(t, "Summer Promo", out.Deals[0].Title, "roster ranks before in progress")

	failing := NewDealHandlers(st, func() (string, error) { return "", errors.New("not signed in") })
	_, _, err = failing.FindDeals(ctx, nil, FindDealsInput{})
	assert.Error(t, err)
}

func TestGetDeal(t *testing.T) {
	st, _ := setupStore(t)
	h := NewDealHandlers(st, signedIn)

	_, out, err := h.GetDeal(context.Background(), nil, GetDealInput{DealID: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", out.BrandName)
	assert.Equal(t, "Big Agency", out.AgencyName)
	require.Len(t, out.Creators, 2)
	assert.Equal(t, "amy", out.Creators[0].Username, "brand review ranks before posted")
	assert.InDelta(t, 150, out.Totals.Margin, 0.001)

	_, out, err = h.GetDeal(context.Background(), nil, GetDealInput{DealID: "d1", InstanceStatus: "posted"})
	require.NoError(t, err)
	require.Len(t, out.Creators, 1)
	assert.Equal(t, "zed", out.Creators[0].Username)
}

func TestDealMutations(t *testing.T) {
	st, gw := setupStore(t)
	h := NewDealHandlers(st, signedIn)
	ctx := context.Background()

	_, res, err := h.CreateDeal(ctx, nil, CreateDealInput{Title: "Fall", BrandID: "b1", BrandContactIDs: []string{"c1"}})
	require.NoError(t, err)
	assert.Equal(t, "d3", res.ID)
	require.NotNil(t, gw.createdDeal)
	assert.Equal(t, models.DealStatusRoster, gw.createdDeal.Status)

	_, res, err = h.AddCreator(ctx, nil, AddCreatorInput{DealID: "d1", Username: "kai", Platform: "tiktok", Rate: 10, Price: 20})
	require.NoError(t, err)
	assert.Equal(t, "i3", res.ID)
	assert.Equal(t, "TikTok", gw.createdInstance.Platform)

	status := "paid"
	_, _, err = h.UpdateInstance(ctx, nil, UpdateInstanceInput{DealID: "d1", InstanceID: "i1", Status: &status})
	require.NoError(t, err)
	require.NotNil(t, gw.updatedInstance.Status)
	assert.Equal(t, "paid", *gw.updatedInstance.Status)
	assert.Nil(t, gw.updatedInstance.Rate)

	bad := "done-ish"
	_, _, err = h.UpdateInstance(ctx, nil, UpdateInstanceInput{DealID: "d1", InstanceID: "i1", Status: &bad})
	assert.Error(t, err)

	_, _, err = h.UpdateInstance(ctx, nil, UpdateInstanceInput{InstanceID: "i1"})
	assert.Error(t, err)
}

func TestResources(t *testing.T) {
	st, _ := setupStore(t)
	h := NewResourceHandlers(st)
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("tiddle://brands")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Acme")
	assert.NotContains(t, res.Contents[0].Text, "Hidden Co")

	res, err = read("tiddle://deals/d1")
	require.NoError(t, err)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, "Spring Launch")

	res, err = read("tiddle://agencies/ag")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Zest")

	_, err = read("crm://contacts")
	assert.Error(t, err)
	_, err = read("tiddle://widgets/1")
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	st, _ := setupStore(t)
	h := NewPromptHandlers(st)
	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}

	res, err := get("campaign-summary", map[string]string{"deal_id": "d1"})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Spring Launch")
	assert.Contains(t, text, "margin 150.00")

	res, err = get("agency-overview", map[string]string{"agency_id": "ag"})
	require.NoError(t, err)
	text = res.Messages[0].Content.(*mcp.TextContent).Text
	assert.True(t, strings.Index(text, "Acme") < strings.Index(text, "Zest"))

	_, err = get("campaign-summary", nil)
	assert.Error(t, err)
	_, err = get("nope", nil)
	assert.Error(t, err)
}

func TestGenerateAgencyGraph(t *testing.T) {
	st, _ := setupStore(t)
	_, out, err := NewVizHandlers(st).GenerateAgencyGraph(context.Background(), nil, GenerateGraphInput{AgencyID: "ag"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Big Agency")
	assert.Equal(t, 6, out.NodeCount)
}
