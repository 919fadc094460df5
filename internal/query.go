package internal

import (
	"cmp"
	"slices"
	"strings"

	dynform "github.com/MaansiBisht/dynamic-form-app"
)

// matchesSearch reports whether any string value, or string element of a list
// value, contains term case-insensitively. An empty term matches everything.
func matchesSearch(s *dynform.Submission, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, v := range s.Data {
		if str, ok := v.AsString(); ok {
			if strings.Contains(strings.ToLower(str), needle) {
				return true
			}
			continue
		}
		list, ok := v.AsList()
		if !ok {
			continue
		}
		for _, item := range list {
			if str, ok := item.AsString(); ok && strings.Contains(strings.ToLower(str), needle) {
				return true
			}
		}
	}
	return false
}

// sortSubmissions orders subs in place by sortBy. Ties are broken by id in the
// same direction, so equal keys never reorder between calls.
func sortSubmissions(subs []*dynform.Submission, sortBy string, order dynform.SortOrder) {
	compare := func(a, b *dynform.Submission) int {
		c := compareBy(a, b, sortBy)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if order == dynform.SortOrderAsc {
			return c
		}
		return -c
	}
	slices.SortStableFunc(subs, compare)
}

func compareBy(a, b *dynform.Submission, sortBy string) int {
	switch sortBy {
	case "", dynform.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case dynform.SortByUpdatedAt:
		switch {
		case a.UpdatedAt == nil && b.UpdatedAt == nil:
			return 0
		case a.UpdatedAt == nil:
			return -1
		case b.UpdatedAt == nil:
			return 1
		}
		return a.UpdatedAt.Compare(*b.UpdatedAt)
	case dynform.SortByID:
		return 0
	default:
		return compareValues(a.Data.Get(sortBy), b.Data.Get(sortBy))
	}
}

// kindRank orders values of different kinds the way jsonb does, so both
// repositories sort a data field alike: missing values first, then null,
// strings, numbers, booleans, lists and objects.
func kindRank(k dynform.ValueKind) int {
	switch k {
	case dynform.KindAbsent:
		return 0
	case dynform.KindNull:
		return 1
	case dynform.KindString:
		return 2
	case dynform.KindNumber:
		return 3
	case dynform.KindBool:
		return 4
	case dynform.KindList:
		return 5
	default:
		return 6
	}
}

func compareValues(a, b dynform.Value) int {
	if c := cmp.Compare(kindRank(a.Kind()), kindRank(b.Kind())); c != 0 {
		return c
	}
	switch a.Kind() {
	case dynform.KindBool:
		x, _ := a.AsBool()
		y, _ := b.AsBool()
		return cmp.Compare(boolRank(x), boolRank(y))
	case dynform.KindNumber:
		x, _ := a.AsNumber()
		y, _ := b.AsNumber()
		return cmp.Compare(x, y)
	case dynform.KindList:
		x, _ := a.AsList()
		y, _ := b.AsList()
		// shorter lists sort first, then element by element
		if c := cmp.Compare(len(x), len(y)); c != 0 {
			return c
		}
		for i := range x {
			if c := compareValues(x[i], y[i]); c != 0 {
				return c
			}
		}
		return 0
	case dynform.KindAbsent, dynform.KindNull:
		return 0
	default:
		return strings.Compare(a.String(), b.String())
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// applyListOptions filters, sorts and pages subs.
func applyListOptions(subs []*dynform.Submission, opts *dynform.ListOptions) ([]*dynform.Submission, int) {
	if opts == nil {
		opts = &dynform.ListOptions{}
	}
	matched := make([]*dynform.Submission, 0, len(subs))
	for _, s := range subs {
		if matchesSearch(s, opts.Search) {
			matched = append(matched, s)
		}
	}
	sortSubmissions(matched, opts.SortBy, opts.SortOrder)

	total := len(matched)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	return matched[start:end], total
}
