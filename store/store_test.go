// ABOUTME: Tests for the cached store: staleness, invalidation after mutations and refresh
// ABOUTME: Counts gateway calls to prove which queries hit the network
package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    map[string]int
	brands   map[string]models.Brand
	contacts []models.BrandContact
	deals    map[string]models.BrandDeal
	fail     map[string]error

	createdInstance bubble.CreateInstanceInput
	updatedInstance bubble.UpdateInstanceInput
	createdDeal     bubble.CreateBrandDealInput
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		calls: map[string]int{},
		brands: map[string]models.Brand{
			"b1": {Thing: models.Thing{ID: "b1"}, BrandName: "Acme", Classification: "direct"},
			"b2": {Thing: models.Thing{ID: "b2"}, BrandName: "Globex"},
			"a1": {Thing: models.Thing{ID: "a1"}, BrandName: "Agency", ManagedBrandIDs: []string{"b1", "b2", "b3"}},
		},
		contacts: []models.BrandContact{
			{Thing: models.Thing{ID: "c1"}, Name: "Ann", BrandID: "b1", AgencyBrandIDs: []string{"a1"}},
			{Thing: models.Thing{ID: "c2"}, Name: "Bob", BrandID: "a1"},
		},
		deals: map[string]models.BrandDeal{
			"d1": {Thing: models.Thing{ID: "d1"}, Title: "Launch", BrandID: "b1", AgencyID: "a1",
				BrandContactIDs: []string{"c1"}, InstanceIDs: []string{"i1", "i2"}, CreatedByUserID: "u1"},
		},
		fail: map[string]error{},
	}
}

func (f *fakeGateway) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := f.hit("ListUsers"); err != nil {
		return nil, err
	}
	return []models.User{{Thing: models.Thing{ID: "u1"}, Username: "ann"}}, nil
}

func (f *fakeGateway) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := f.hit("GetUser"); err != nil {
		return models.User{}, err
	}
	return models.User{Thing: models.Thing{ID: id}}, nil
}

func (f *fakeGateway) ListBrands(ctx context.Context, _ ...bubble.Constraint) ([]models.Brand, error) {
	if err := f.hit("ListBrands"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Brand, 0, len(f.brands))
	for _, id := range []string{"a1", "b1", "b2"} {
		out = append(out, f.brands[id])
	}
	return out, nil
}

func (f *fakeGateway) GetBrand(ctx context.Context, id string) (models.Brand, error) {
	if err := f.hit("GetBrand " + id); err != nil {
		return models.Brand{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.brands[id]
	if !ok {
		return models.Brand{}, bubble.ErrNotFound
	}
	return b, nil
}

func (f *fakeGateway) ListBrandContacts(ctx context.Context, brandID string) ([]models.BrandContact, error) {
	if err := f.hit("ListBrandContacts " + brandID); err != nil {
		return nil, err
	}
	var out []models.BrandContact
	for _, c := range f.contacts {
		if brandID == "" || c.BrandID == brandID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetBrandContact(ctx context.Context, id string) (models.BrandContact, error) {
	if err := f.hit("GetBrandContact"); err != nil {
		return models.BrandContact{}, err
	}
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return models.BrandContact{}, bubble.ErrNotFound
}

func (f *fakeGateway) ListBrandDeals(ctx context.Context, userID string) ([]models.BrandDeal, error) {
	if err := f.hit("ListBrandDeals"); err != nil {
		return nil, err
	}
	return []models.BrandDeal{f.deals["d1"]}, nil
}

func (f *fakeGateway) GetBrandDeal(ctx context.Context, id string) (models.BrandDeal, error) {
	if err := f.hit("GetBrandDeal"); err != nil {
		return models.BrandDeal{}, err
	}
	d, ok := f.deals[id]
	if !ok {
		return models.BrandDeal{}, bubble.ErrNotFound
	}
	return d, nil
}

func (f *fakeGateway) ListInstances(ctx context.Context, ids []string) ([]models.Instance, error) {
	if err := f.hit("ListInstances"); err != nil {
		return nil, err
	}
	var out []models.Instance
	for i, id := range ids {
		out = append(out, models.Instance{Thing: models.Thing{ID: id}, Rate: float64(100 * (i + 1)), Price: float64(150 * (i + 1))})
	}
	return out, nil
}

func (f *fakeGateway) CreateInstance(ctx context.Context, in bubble.CreateInstanceInput) (string, error) {
	if err := f.hit("CreateInstance"); err != nil {
		return "", err
	}
	f.createdInstance = in
	return "i9", nil
}

func (f *fakeGateway) UpdateInstance(ctx context.Context, in bubble.UpdateInstanceInput) error {
	if err := f.hit("UpdateInstance"); err != nil {
		return err
	}
	f.updatedInstance = in
	return nil
}

func (f *fakeGateway) CreateBrandDeal(ctx context.Context, in bubble.CreateBrandDealInput) (string, error) {
	if err := f.hit("CreateBrandDeal"); err != nil {
		return "", err
	}
	f.createdDeal = in
	return "d2", nil
}

func (f *fakeGateway) UpdateBrandDeal(ctx context.Context, in bubble.UpdateBrandDealInput) error {
	return f.hit("UpdateBrandDeal")
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupStore(t *testing.T) (*Store, *fakeGateway, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	gw := newFakeGateway()
	c := cache.New(cache.Options{Now: clock.Now, Retries: -1})
	s := New(gw, c, TTLs{}, nil)
	s.now = clock.Now
	return s, gw, clock
}

func TestReadsAreCachedWithinTTL(t *testing.T) {
	s, gw, clock := setupStore(t)
	ctx := context.Background()

	_, err := s.Brands(ctx)
	require.NoError(t, err)
	_, err = s.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.count("ListBrands"))

	clock.Advance(31 * time.Second)
	_, err = s.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.count("ListBrands"))
}

func TestPerClassTTLs(t *testing.T) {
	s, gw, clock := setupStore(t)
	ctx := context.Background()

	_, err := s.User(ctx, "u1")
	require.NoError(t, err)
	_, err = s.BrandContactsForBrand(ctx, "b1")
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	_, _ = s.User(ctx, "u1")
	_, _ = s.BrandContactsForBrand(ctx, "b1")
	assert.Equal(t, 1, gw.count("GetUser"))
	assert.Equal(t, 1, gw.count("ListBrandContacts b1"))

	clock.Advance(20 * time.Second)
	_, _ = s.User(ctx, "u1")
	_, _ = s.BrandContactsForBrand(ctx, "b1")
	assert.Equal(t, 1, gw.count("GetUser"))
	assert.Equal(t, 2, gw.count("ListBrandContacts b1"))
}

func TestCreateInstanceInvalidatesDealAndInstances(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	detail, err := s.DealDetail(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, detail.Instances, 2)
	_, err = s.BrandDeals(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Brands(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, gw.count("GetBrandDeal"))
	require.Equal(t, 1, gw.count("ListInstances"))

	id, err := s.CreateInstance(ctx, bubble.CreateInstanceInput{
		Username: "cat", Platform: "tiktok", Rate: 10, Price: 20, BrandDealID: "d1",
	})
	require.NoError(t, err)
	assert.Equal(t, "i9", id)
	assert.Equal(t, "TikTok", gw.createdInstance.Platform)

	_, err = s.DealDetail(ctx, "d1")
	require.NoError(t, err)
	_, err = s.BrandDeals(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Brands(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, gw.count("GetBrandDeal"))
	assert.Equal(t, 2, gw.count("ListInstances"))
	assert.Equal(t, 2, gw.count("ListBrandDeals"))
	assert.Equal(t, 1, gw.count("ListBrands"), "brands are unaffected by instance creation")
}

func TestFailedMutationKeepsCache(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.BrandDeal(ctx, "d1")
	require.NoError(t, err)

	gw.fail["CreateInstance"] = errors.New("boom")
	_, err = s.CreateInstance(ctx, bubble.CreateInstanceInput{Username: "x", Platform: "TikTok", BrandDealID: "d1"})
	require.Error(t, err)

	_, err = s.BrandDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.count("GetBrandDeal"))
}

func TestUpdateInstanceInvalidatesUsersAndDeals(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	_, _ = s.Users(ctx)
	_, _ = s.BrandDeal(ctx, "d1")
	_, _ = s.Instances(ctx, "d1", []string{"i1"})

	status := "Brand Review"
	require.NoError(t, s.UpdateInstance(ctx, "d1", bubble.UpdateInstanceInput{InstanceID: "i1", Status: &status}))
	assert.Equal(t, "brand review", *gw.updatedInstance.Status)

	_, _ = s.Users(ctx)
	_, _ = s.BrandDeal(ctx, "d1")
	_, _ = s.Instances(ctx, "d1", []string{"i1"})
	assert.Equal(t, 2, gw.count("ListUsers"))
	assert.Equal(t, 2, gw.count("GetBrandDeal"))
	assert.Equal(t, 2, gw.count("ListInstances"))
}

func TestMutationValidation(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	bad := "shipped"
	err := s.UpdateInstance(ctx, "d1", bubble.UpdateInstanceInput{InstanceID: "i1", Status: &bad})
	var be *bubble.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bubble.KindValidation, be.Kind)

	_, err = s.CreateInstance(ctx, bubble.CreateInstanceInput{Username: "x", Platform: "MySpace", BrandDealID: "d1"})
	require.ErrorAs(t, err, &be)

	_, err = s.CreateBrandDeal(ctx, bubble.CreateBrandDealInput{Title: "T", BrandID: "b1", BrandContactIDs: []string{"c1"}, Status: "someday"})
	require.ErrorAs(t, err, &be)

	err = s.UpdateBrandDeal(ctx, bubble.UpdateBrandDealInput{BrandDealID: "d1", Status: "nope"})
	require.ErrorAs(t, err, &be)

	assert.Equal(t, 0, gw.count("UpdateInstance"))
	assert.Equal(t, 0, gw.count("CreateInstance"))
	assert.Equal(t, 0, gw.count("CreateBrandDeal"))
	assert.Equal(t, 0, gw.count("UpdateBrandDeal"))
}

func TestCreateBrandDealDefaultsAndInvalidates(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	_, _ = s.Brands(ctx)
	_, _ = s.BrandContacts(ctx)
	_, _ = s.BrandContactsForBrand(ctx, "b1")
	_, _ = s.BrandDeals(ctx, "u1")
	_, _ = s.User(ctx, "u1")

	id, err := s.CreateBrandDeal(ctx, bubble.CreateBrandDealInput{Title: "New", BrandID: "b1", BrandContactIDs: []string{"c1"}})
	require.NoError(t, err)
	assert.Equal(t, "d2", id)
	assert.Equal(t, models.DealStatusRoster, gw.createdDeal.Status)

	_, _ = s.Brands(ctx)
	_, _ = s.BrandContacts(ctx)
	_, _ = s.BrandContactsForBrand(ctx, "b1")
	_, _ = s.BrandDeals(ctx, "u1")
	_, _ = s.User(ctx, "u1")
	assert.Equal(t, 2, gw.count("ListBrands"))
	assert.Equal(t, 2, gw.count("ListBrandContacts "))
	assert.Equal(t, 2, gw.count("ListBrandContacts b1"))
	assert.Equal(t, 2, gw.count("ListBrandDeals"))
	assert.Equal(t, 1, gw.count("GetUser"))
}

func TestUpdateBrandDealInvalidatesDeal(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	_, _ = s.BrandDeal(ctx, "d1")
	require.NoError(t, s.UpdateBrandDeal(ctx, bubble.UpdateBrandDealInput{BrandDealID: "d1", Status: "In Progress"}))
	_, _ = s.BrandDeal(ctx, "d1")
	assert.Equal(t, 2, gw.count("GetBrandDeal"))
}

func TestAgencyBrandsPartialFailure(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	view, err := s.AgencyBrands(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, view.Managed, 2)
	for _, b := range view.Managed {
		assert.Equal(t, "a1", b.ParentAgencyID)
	}
	require.Len(t, view.Failed, 1)
	assert.Equal(t, "b3", view.Failed[0].ID)

	// Partial results are not cached, so the missing brand is retried.
	_, err = s.AgencyBrands(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.count("GetBrand b3"))
	assert.Equal(t, 1, gw.count("GetBrand b1"))
}

func TestAgencyStats(t *testing.T) {
	s, _, _ := setupStore(t)
	view, stats, contacts, err := s.AgencyStats(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Agency", view.Agency.BrandName)
	assert.Equal(t, 2, stats.ManagedBrands)
	assert.Equal(t, 2, stats.Contacts)
	assert.True(t, stats.IsAgency)
	assert.Len(t, contacts, 2)
}

func TestEnhancedContacts(t *testing.T) {
	s, _, _ := setupStore(t)
	got, err := s.EnhancedContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].ResolvedBrand)
	assert.Equal(t, "Acme", got[0].ResolvedBrand.BrandName)
	require.Len(t, got[0].ResolvedAgencyBrands, 1)
	assert.Equal(t, "Agency", got[0].ResolvedAgencyBrands[0].BrandName)

	one, err := s.EnhancedContact(context.Background(), "c2")
	require.NoError(t, err)
	require.NotNil(t, one.ResolvedBrand)
	assert.Equal(t, "a1", one.ResolvedBrand.ID)
}

func TestDealDetailTotals(t *testing.T) {
	s, _, _ := setupStore(t)
	detail, err := s.DealDetail(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, detail.Brand)
	require.NotNil(t, detail.Agency)
	assert.Equal(t, models.DealTotals{Count: 2, Rate: 300, Price: 450, Margin: 150}, detail.Totals)
	require.Len(t, detail.Contacts, 1)
	assert.Equal(t, "Ann", detail.Contacts[0].Name)
}

func TestRefreshBypassesFreshness(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	_, _ = s.BrandDeal(ctx, "d1")
	_, _ = s.Instances(ctx, "d1", []string{"i1", "i2"})

	require.NoError(t, s.Refresh(ctx, RefreshBrandDeal("d1"), RefreshInstances("d1")))
	assert.GreaterOrEqual(t, gw.count("GetBrandDeal"), 2)
	assert.Equal(t, 2, gw.count("ListInstances"))
}

func TestRefreshFailsOnlyWhenAllFail(t *testing.T) {
	s, gw, _ := setupStore(t)
	ctx := context.Background()

	gw.fail["ListBrands"] = errors.New("down")
	assert.NoError(t, s.Refresh(ctx, RefreshBrands(), RefreshUsers()))

	gw.fail["ListUsers"] = errors.New("down")
	err := s.Refresh(ctx, RefreshBrands(), RefreshUsers())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brands")
	assert.Contains(t, err.Error(), "users")

	assert.NoError(t, s.Refresh(ctx))
}

// End to end through the real gateway: after create-instance succeeds the
// deal and its instances must be fetched from the network again.
func TestCreateInstancePurgesThroughGateway(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.Method+" "+r.URL.Path]++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/obj/branddeal/X":
			_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
				"_id": "X", "title": "Deal X", "user-list": []string{"i1"},
			}})
		case r.URL.Path == "/obj/instance":
			_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
				"results": []any{map[string]any{"_id": "i1", "username": "ann"}}, "remaining": 0,
			}})
		case strings.HasPrefix(r.URL.Path, "/wf/create-instance"):
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t", Expiry: time.Now().Add(time.Hour)})
	client, err := bubble.NewClient(bubble.Config{ObjBaseURL: srv.URL + "/obj", WfBaseURL: srv.URL + "/wf"}, tokens)
	require.NoError(t, err)
	s := New(client, nil, TTLs{}, nil)
	ctx := context.Background()

	read := func() {
		deal, err := s.BrandDeal(ctx, "X")
		require.NoError(t, err)
		_, err = s.Instances(ctx, "X", deal.InstanceIDs)
		require.NoError(t, err)
	}

	read()
	read()
	mu.Lock()
	assert.Equal(t, 1, hits["GET /obj/branddeal/X"])
	assert.Equal(t, 1, hits["GET /obj/instance"])
	mu.Unlock()

	_, err = s.CreateInstance(ctx, bubble.CreateInstanceInput{Username: "bob", Platform: "YouTube", BrandDealID: "X"})
	require.NoError(t, err)

	read()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, hits["GET /obj/branddeal/X"])
	assert.Equal(t, 2, hits["GET /obj/instance"])
}
