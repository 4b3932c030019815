// ABOUTME: Tests for the Bubble gateway against an httptest fake backend
// ABOUTME: Covers pagination, constraint encoding, error mapping, auth modes and login
package bubble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens oauth2.TokenSource, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		ObjBaseURL: srv.URL + "/obj",
		WfBaseURL:  srv.URL + "/wf",
		Timeout:    2 * time.Second,
		PageSize:   2,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg, tokens)
	require.NoError(t, err)
	return c
}

func validToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-123", Expiry: time.Now().Add(time.Hour)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresBaseURLs(t *testing.T) {
	_, err := NewClient(Config{WfBaseURL: "http://x/wf"}, nil)
	assert.Error(t, err)
	_, err = NewClient(Config{ObjBaseURL: "http://x/obj"}, nil)
	assert.Error(t, err)
}

func TestListPaginatesUntilNothingRemains(t *testing.T) {
	all := []string{"a", "b", "c", "d", "e"}
	var calls int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/obj/brand", r.URL.Path)
		cursor, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := min(cursor+limit, len(all))

		var results []map[string]any
		for _, id := range all[cursor:end] {
			results = append(results, map[string]any{"_id": id, "brandname": "Brand " + id})
		}
		writeJSON(w, 200, map[string]any{"response": map[string]any{
			"results":   results,
			"cursor":    cursor,
			"remaining": len(all) - end,
			"count":     len(results),
		}})
	}, validToken())

	brands, err := c.ListBrands(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 5)
	for i, b := range brands {
		assert.Equal(t, all[i], b.ID)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListStopsWhenPaginationStalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"response": map[string]any{
			"results": []any{}, "cursor": 0, "remaining": 10,
		}})
	}, validToken())

	_, err := c.List(context.Background(), CollectionBrands, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaginationStalled)
}

func TestListPageEncodesConstraints(t *testing.T) {
	var got []Constraint
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("constraints")
		require.NoError(t, json.Unmarshal([]byte(raw), &got))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("cursor"))
		writeJSON(w, 200, map[string]any{"response": map[string]any{"results": []any{}, "remaining": 0}})
	}, validToken())

	_, err := c.ListBrandContactsPage(context.Background(), 10, 20, "b1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "brand", got[0].Key)
	assert.Equal(t, Equals, got[0].Type)
	assert.Equal(t, "b1", got[0].Value)
}

func TestInvalidConstraintFailsBeforeNetwork(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, validToken())

	_, err := c.ListBrands(context.Background(), Constraint{Key: "brandname", Type: "fuzzy", Value: "x"})
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindValidation, be.Kind)

	_, err = c.ListBrands(context.Background(), Where("", Equals, "x"))
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindValidation, be.Kind)

	_, err = c.ListBrands(context.Background(), Where("brandname", Equals, nil))
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindValidation, be.Kind)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestEmptyConstraintValueAllowedForEmptinessChecks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"response": map[string]any{"results": []any{}, "remaining": 0}})
	}, validToken())

	_, err := c.ListBrands(context.Background(), Where(Field("Brand.ManagedBrandIDs"), IsNotEmpty, nil))
	assert.NoError(t, err)
}

func TestValidationBeforeNetwork(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, validToken())
	ctx := context.Background()

	_, err := c.GetBrand(ctx, "")
	assert.Error(t, err)
	_, err = c.ListBrandDeals(ctx, "")
	assert.Error(t, err)
	_, err = c.CreateInstance(ctx, CreateInstanceInput{Username: "ann", Platform: "TikTok"})
	assert.Error(t, err)
	_, err = c.CreateBrandDeal(ctx, CreateBrandDealInput{BrandID: "b1", BrandContactIDs: []string{"c1"}})
	assert.Equal(t, "Please enter a campaign title", UserMessage(err))
	_, err = c.CreateBrandDeal(ctx, CreateBrandDealInput{Title: "Launch", BrandContactIDs: []string{"c1"}})
	assert.Equal(t, "Please select a brand", UserMessage(err))
	_, err = c.CreateBrandDeal(ctx, CreateBrandDealInput{Title: "Launch", BrandID: "b1"})
	assert.Equal(t, "Please select a contact", UserMessage(err))
	err = c.UpdateInstance(ctx, UpdateInstanceInput{})
	assert.Error(t, err)
	err = c.UpdateBrandDeal(ctx, UpdateBrandDealInput{})
	assert.Error(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestListInstancesWithNoIDsSkipsNetwork(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, validToken())

	got, err := c.ListInstances(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGetDecodesHyphenatedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/obj/branddeal/d1", r.URL.Path)
		writeJSON(w, 200, map[string]any{"response": map[string]any{
			"_id":            "d1",
			"title":          "Spring Launch",
			"kaban-status":   "Waiting",
			"Created By":     "u1",
			"brand":          "b1",
			"brand-contacts": []string{"c1"},
			"user-list":      []string{"i1", "i2"},
			"CreatedDate":    1700000000000,
			"ModifiedDate":   "2024-01-02T03:04:05Z",
		}})
	}, validToken())

	deal, err := c.GetBrandDeal(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Launch", deal.Title)
	assert.Equal(t, "Waiting", deal.Status)
	assert.Equal(t, "u1", deal.CreatedByUserID)
	assert.Equal(t, []string{"c1"}, deal.BrandContactIDs)
	assert.Equal(t, []string{"i1", "i2"}, deal.InstanceIDs)
	assert.Equal(t, int64(1700000000000), deal.CreatedAt.UnixMilli())
	assert.Equal(t, 2024, deal.ModifiedAt.Year())
}

func TestGetNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"message": "Missing"})
	}, validToken())

	_, err := c.GetBrand(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "brand gone not found", UserMessage(err))
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		kind      Kind
		message   string
		retryable bool
	}{
		{"server error", 503, `{"message":"boom"}`, KindServer, MsgServer, true},
		{"backend message", 400, `{"message":"Title too long"}`, KindClient, "Title too long", false},
		{"nested body message", 400, `{"body":{"message":"Bad field"}}`, KindClient, "Bad field", false},
		{"status only", 403, `{"status":"NOT_ALLOWED"}`, KindClient, "NOT_ALLOWED", false},
		{"no message", 409, ``, KindClient, "Request failed (409)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, validToken())

			_, err := c.ListUsers(context.Background())
			var be *Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.message, be.Message)
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestNetworkErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{ObjBaseURL: url + "/obj", WfBaseURL: url + "/wf"}, validToken())
	require.NoError(t, err)

	_, err = c.ListUsers(context.Background())
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindNetwork, be.Kind)
	assert.Equal(t, MsgNetwork, be.Message)
	assert.True(t, be.Retryable())
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, validToken())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListUsers(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthModes(t *testing.T) {
	var lastAuth atomic.Value
	handler := func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"response": map[string]any{"results": []any{}, "remaining": 0}})
	}

	t.Run("required with token", func(t *testing.T) {
		c := newTestClient(t, handler, validToken())
		_, err := c.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-123", lastAuth.Load())
	})

	t.Run("required without token fails locally", func(t *testing.T) {
		lastAuth.Store("untouched")
		c := newTestClient(t, handler, nil)
		_, err := c.ListUsers(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Equal(t, "untouched", lastAuth.Load())
	})

	t.Run("expired token counts as missing", func(t *testing.T) {
		expired := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)})
		c := newTestClient(t, handler, expired)
		_, err := c.ListUsers(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("optional without token", func(t *testing.T) {
		c := newTestClient(t, handler, nil, func(cfg *Config) {
			cfg.Auth = map[string]AuthMode{"obj/user": AuthOptional}
		})
		_, err := c.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", lastAuth.Load())
	})

	t.Run("none never sends token", func(t *testing.T) {
		c := newTestClient(t, handler, validToken(), func(cfg *Config) {
			cfg.DefaultAuth = AuthNone
		})
		_, err := c.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", lastAuth.Load())
	})
}

// rotatingTokens hands out whatever token is current, with no expiry.
type rotatingTokens struct {
	current atomic.Value
}

func (r *rotatingTokens) Token() (*oauth2.Token, error) {
	tok, _ := r.current.Load().(string)
	if tok == "" {
		return nil, errors.New("signed out")
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

func TestTokenChangesApplyToNextRequest(t *testing.T) {
	var lastAuth atomic.Value
	tokens := &rotatingTokens{}
	tokens.current.Store("first")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"response": map[string]any{"results": []any{}, "remaining": 0}})
	}, tokens)

	_, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", lastAuth.Load())

	tokens.current.Store("second")
	_, err = c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", lastAuth.Load())

	tokens.current.Store("")
	_, err = c.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRequestIDHeader(t *testing.T) {
	ids := make(chan string, 2)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-Id")
		writeJSON(w, 200, map[string]any{"response": map[string]any{"results": []any{}, "remaining": 0}})
	}, validToken())

	_, _ = c.ListUsers(context.Background())
	_, _ = c.ListUsers(context.Background())
	first, second := <-ids, <-ids
	assert.Len(t, first, 26)
	assert.NotEqual(t, first, second)
}

func TestWorkflowPostsBodyAndReturnsID(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wf/create-instance", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, 200, map[string]any{"status": "success", "response": map[string]any{"instance": "i9"}})
	}, validToken())

	id, err := c.CreateInstance(context.Background(), CreateInstanceInput{
		Username: " ann ", Platform: "TikTok", Rate: 100, Price: 150, BrandDealID: "d1",
	})
	require.NoError(t, err)
	assert.Equal(t, "i9", id)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "d1", body["branddeal"])
	assert.Equal(t, float64(150), body["price"])
}

func TestWorkflowNonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"status": "error", "message": "Deal is locked"})
	}, validToken())

	err := c.UpdateBrandDeal(context.Background(), UpdateBrandDealInput{BrandDealID: "d1", Title: "New"})
	assert.Equal(t, "Deal is locked", UserMessage(err))
}

func TestUpdateInstanceOmitsNilFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, 200, map[string]any{"status": "success"})
	}, validToken())

	status := "posted"
	require.NoError(t, c.UpdateInstance(context.Background(), UpdateInstanceInput{InstanceID: "i1", Status: &status}))
	assert.Equal(t, map[string]any{"instance": "i1", "status": "posted"}, body)
}

func TestLogin(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/wf/login", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ann@example.com", in["email"])
		writeJSON(w, 200, map[string]any{"status": "success", "response": map[string]any{
			"user_id": "u1", "token": "t1", "expires_in": 3600,
		}})
	}, validToken())

	res, err := c.Login(context.Background(), " ann@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Token)
	assert.Equal(t, "u1", res.UserID)
	assert.Equal(t, time.Hour, res.ExpiresIn)
	assert.Empty(t, auth)
}

func TestLoginErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		message string
		sentinel error
	}{
		{"wrong password", 401, map[string]any{"message": "Wrong password"}, MsgInvalidCredentials, ErrInvalidCredentials},
		{"bad request", 400, map[string]any{"message": "NOT_VALID"}, MsgInvalidCredentials, ErrInvalidCredentials},
		{"locked account", 401, map[string]any{"message": "Account locked for 15 minutes"}, "Account locked for 15 minutes", nil},
		{"rate limited", 400, map[string]any{"body": map[string]any{"message": "Too many attempts"}}, "Too many attempts", nil},
		{"server", 502, nil, MsgServer, nil},
		{"other client", 403, map[string]any{"message": "Forbidden"}, "Forbidden", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, nil)

			_, err := c.Login(context.Background(), "a@b.c", "pw")
			require.Error(t, err)
			assert.Equal(t, tt.message, UserMessage(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.False(t, errors.Is(err, ErrInvalidCredentials))
			}
		})
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"status": "success", "response": map[string]any{"user_id": "u1"}})
	}, nil)

	_, err := c.Login(context.Background(), "a@b.c", "pw")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	for _, status := range []int{200, 401, 500} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/wf/logout", r.URL.Path)
				writeJSON(w, status, map[string]any{"status": "success"})
			}, validToken())

			err := c.Logout(context.Background(), "u1")
			if status == 500 {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
