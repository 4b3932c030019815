// ABOUTME: Generic Data API calls: paged list, auto-paginated list, and get by id
// ABOUTME: Auto-pagination concatenates pages in backend order until nothing remains
package bubble

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

// Page is one page of a list call.
type Page struct {
	Results   []json.RawMessage
	Cursor    int
	Remaining int
	Count     int
}

type listEnvelope struct {
	Response struct {
		Results   []json.RawMessage `json:"results"`
		Cursor    *int              `json:"cursor"`
		Remaining *int              `json:"remaining"`
		Count     *int              `json:"count"`
	} `json:"response"`
}

type getEnvelope struct {
	Response json.RawMessage `json:"response"`
}

// ListPage fetches one page of a collection.
func (c *Client) ListPage(ctx context.Context, collection string, limit, cursor int, constraints []Constraint) (Page, error) {
	op := "list " + collection
	if collection == "" {
		return Page{}, validationError(op, "collection is required")
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = c.cfg.PageSize
	}
	if cursor < 0 {
		cursor = 0
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("cursor", strconv.Itoa(cursor))
	encoded, err := encodeConstraints(constraints)
	if err != nil {
		return Page{}, validationError(op, err.Error())
	}
	if encoded != "" {
		q.Set("constraints", encoded)
	}

	data, err := c.do(ctx, op, "obj/"+collection, http.MethodGet, c.objURL(collection, "", q), nil, nil)
	if err != nil {
		return Page{}, err
	}

	var env listEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Page{}, decodeError(op, err)
	}

	r := env.Response
	page := Page{Results: r.Results}
	if page.Results == nil {
		page.Results = []json.RawMessage{}
	}
	if r.Cursor != nil {
		page.Cursor = *r.Cursor
	}
	if r.Remaining != nil {
		page.Remaining = *r.Remaining
	}
	if r.Count != nil {
		page.Count = *r.Count
	} else {
		page.Count = len(page.Results)
	}
	return page, nil
}

// List fetches every record matching constraints, one page at a time,
// until the backend reports nothing remaining.
func (c *Client) List(ctx context.Context, collection string, constraints []Constraint) ([]json.RawMessage, error) {
	var all []json.RawMessage
	cursor := 0
	for {
		page, err := c.ListPage(ctx, collection, c.cfg.PageSize, cursor, constraints)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		if page.Remaining <= 0 {
			break
		}
		if len(page.Results) == 0 {
			return nil, &Error{
				Op:      "list " + collection,
				Kind:    KindDecode,
				Message: fmt.Sprintf("Server reported %d more records but returned none", page.Remaining),
				Err:     ErrPaginationStalled,
			}
		}
		cursor += len(page.Results)

		c.logger.Debug("bubble list page",
			zap.String("collection", collection),
			zap.Int("fetched", len(all)),
			zap.Int("remaining", page.Remaining))
	}
	if all == nil {
		all = []json.RawMessage{}
	}
	return all, nil
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	op := "get " + collection
	if id == "" {
		return nil, validationError(op, fmt.Sprintf("%s ID is required", collection))
	}

	notFound := func(status int, body []byte) *Error {
		e := statusError(op, status, body)
		if status == http.StatusNotFound {
			e.Message = fmt.Sprintf("%s %s not found", collection, id)
			e.Err = ErrNotFound
		}
		return e
	}

	data, err := c.do(ctx, op, "obj/"+collection, http.MethodGet, c.objURL(collection, id, nil), nil, notFound)
	if err != nil {
		return nil, err
	}

	var env getEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, decodeError(op, err)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return nil, &Error{Op: op, Kind: KindClient, Status: http.StatusNotFound, Message: fmt.Sprintf("%s %s not found", collection, id), Err: ErrNotFound}
	}
	return env.Response, nil
}

func getOne[R any, M any](ctx context.Context, c *Client, collection, id string, convert func(R) M) (M, error) {
	var zero M
	raw, err := c.Get(ctx, collection, id)
	if err != nil {
		return zero, err
	}
	var rec R
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, decodeError("get "+collection, err)
	}
	return convert(rec), nil
}

func listAll[R any, M any](ctx context.Context, c *Client, collection string, constraints []Constraint, convert func(R) M) ([]M, error) {
	raw, err := c.List(ctx, collection, constraints)
	if err != nil {
		return nil, err
	}
	return decodeAll("list "+collection, raw, convert)
}

// TypedPage is a decoded page of one entity type.
type TypedPage[M any] struct {
	Results   []M `json:"results"`
	Cursor    int `json:"cursor"`
	Remaining int `json:"remaining"`
	Count     int `json:"count"`
}

func listPage[R any, M any](ctx context.Context, c *Client, collection string, limit, cursor int, constraints []Constraint, convert func(R) M) (TypedPage[M], error) {
	page, err := c.ListPage(ctx, collection, limit, cursor, constraints)
	if err != nil {
		return TypedPage[M]{}, err
	}
	items, err := decodeAll("list "+collection, page.Results, convert)
	if err != nil {
		return TypedPage[M]{}, err
	}
	return TypedPage[M]{Results: items, Cursor: page.Cursor, Remaining: page.Remaining, Count: page.Count}, nil
}
