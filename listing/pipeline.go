// ABOUTME: Generic filter/sort pipeline for list views
// ABOUTME: Category filter first, then case-insensitive text search, then rank + collated stable sort
package listing

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// All disables the category filter.
const All = "all"

// Pipeline describes how one entity type is filtered and ordered.
// Any nil func is skipped.
type Pipeline[T any] struct {
	// Category is compared against the filter after canonicalization.
	Category func(T) string
	// Fields returns every searchable text of an item; empty strings never match.
	Fields func(T) []string
	// Rank orders items first; lower ranks come first.
	Rank func(T) int
	// SortKey breaks rank ties alphabetically.
	SortKey func(T) string
	// Exclude drops items before anything else, e.g. hidden brands.
	Exclude func(T) bool
	// Canonical normalizes category values; defaults to lower-case trim.
	Canonical func(string) string
	// Language drives collation of SortKey; defaults to English.
	Language language.Tag
}

// Result is the output of Apply. CategoryTotal is the M in "N of M".
type Result[T any] struct {
	Items         []T
	Total         int
	CategoryTotal int
	Query         string
	Category      string
}

// Searching reports whether a text query narrowed the result.
func (r Result[T]) Searching() bool {
	return r.Query != ""
}

// Apply filters and sorts items. The input slice is never modified.
func (p Pipeline[T]) Apply(items []T, query, category string) Result[T] {
	canon := p.Canonical
	if canon == nil {
		canon = func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	}
	category = canon(category)
	if category == "" {
		category = All
	}
	query = strings.ToLower(strings.TrimSpace(query))

	res := Result[T]{Query: query, Category: category}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if p.Exclude != nil && p.Exclude(it) {
			continue
		}
		res.Total++
		if category != All && p.Category != nil && canon(p.Category(it)) != category {
			continue
		}
		out = append(out, it)
	}
	res.CategoryTotal = len(out)

	if query != "" && p.Fields != nil {
		matched := out[:0:0]
		for _, it := range out {
			if matches(p.Fields(it), query) {
				matched = append(matched, it)
			}
		}
		out = matched
	}

	p.sort(out)
	res.Items = out
	return res
}

func matches(fields []string, query string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func (p Pipeline[T]) sort(items []T) {
	if p.Rank == nil && p.SortKey == nil {
		return
	}
	lang := p.Language
	if lang == language.Und {
		lang = language.English
	}
	// Collators keep internal buffers, so each sort gets its own.
	col := collate.New(lang, collate.IgnoreCase)

	slices.SortStableFunc(items, func(a, b T) int {
		if p.Rank != nil {
			if c := cmp.Compare(p.Rank(a), p.Rank(b)); c != 0 {
				return c
			}
		}
		if p.SortKey != nil {
			return col.CompareString(strings.ToLower(p.SortKey(a)), strings.ToLower(p.SortKey(b)))
		}
		return 0
	})
}

// CountLabel renders "N of M noun" while searching and "N noun" otherwise.
func CountLabel[T any](r Result[T], noun string) string {
	if r.Searching() {
		return fmt.Sprintf("%d of %d %s", len(r.Items), r.CategoryTotal, noun)
	}
	return fmt.Sprintf("%d %s", len(r.Items), noun)
}
