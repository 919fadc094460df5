package internal

import (
	"testing"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newSub(id string, created time.Duration, data dynform.ValueSet) *dynform.Submission {
	return &dynform.Submission{
		ID:        uuid.MustParse(id),
		Data:      data,
		CreatedAt: baseTime.Add(created),
	}
}

func ids(subs []*dynform.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID.String()[:8]
	}
	return out
}

func querySubs() []*dynform.Submission {
	updated := baseTime.Add(time.Hour)
	subs := []*dynform.Submission{
		newSub("aaaaaaaa-0000-7000-8000-000000000000", 0, dynform.ValueSet{
			"name":   dynform.StringValue("Carol"),
			"age":    dynform.NumberValue(41),
			"skills": dynform.StringsValue("python", "sql"),
		}),
		newSub("bbbbbbbb-0000-7000-8000-000000000000", time.Minute, dynform.ValueSet{
			"name": dynform.StringValue("alice"),
			"age":  dynform.StringValue("29"),
		}),
		newSub("cccccccc-0000-7000-8000-000000000000", 2*time.Minute, dynform.ValueSet{
			"name": dynform.StringValue("Bob"),
			"age":  dynform.NumberValue(35),
		}),
	}
	subs[1].UpdatedAt = &updated
	return subs
}

func TestMatchesSearch(t *testing.T) {
	subs := querySubs()

	assert.True(t, matchesSearch(subs[0], ""))
	assert.True(t, matchesSearch(subs[0], "CAR"))
	assert.True(t, matchesSearch(subs[0], "sq"), "list elements are searched")
	assert.False(t, matchesSearch(subs[0], "41"), "numbers are not searched")
	assert.True(t, matchesSearch(subs[1], "29"), "numeric strings are searched")
	assert.False(t, matchesSearch(subs[2], "zed"))
}

func TestSortSubmissions(t *testing.T) {
	tests := []struct {
		name   string
		sortBy string
		order  dynform.SortOrder
		want   []string
	}{
		{"created desc", dynform.SortByCreatedAt, dynform.SortOrderDesc, []string{"cccccccc", "bbbbbbbb", "aaaaaaaa"}},
		{"created asc", "", dynform.SortOrderAsc, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}},
		{"updated asc puts missing first", dynform.SortByUpdatedAt, dynform.SortOrderAsc, []string{"aaaaaaaa", "cccccccc", "bbbbbbbb"}},
		{"updated desc", dynform.SortByUpdatedAt, dynform.SortOrderDesc, []string{"bbbbbbbb", "cccccccc", "aaaaaaaa"}},
		{"id desc", dynform.SortByID, dynform.SortOrderDesc, []string{"cccccccc", "bbbbbbbb", "aaaaaaaa"}},
		{"string field asc", "name", dynform.SortOrderAsc, []string{"cccccccc", "aaaaaaaa", "bbbbbbbb"}},
		{"mixed kinds asc", "age", dynform.SortOrderAsc, []string{"bbbbbbbb", "cccccccc", "aaaaaaaa"}},
		{"mixed kinds desc", "age", dynform.SortOrderDesc, []string{"aaaaaaaa", "cccccccc", "bbbbbbbb"}},
		{"missing field keeps id order", "bio", dynform.SortOrderAsc, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := querySubs()
			sortSubmissions(subs, tt.sortBy, tt.order)
			assert.Equal(t, tt.want, ids(subs))
		})
	}
}

func TestCompareValuesFollowsJSONBOrder(t *testing.T) {
	ascending := []dynform.Value{
		dynform.Absent(),
		dynform.Null(),
		dynform.StringValue("a"),
		dynform.StringValue("b"),
		dynform.NumberValue(-1),
		dynform.NumberValue(2),
		dynform.BoolValue(false),
		dynform.BoolValue(true),
		dynform.StringsValue("z"),
		dynform.StringsValue("a", "b"),
		dynform.StringsValue("a", "c"),
	}
	for i := 1; i < len(ascending); i++ {
		prev, cur := ascending[i-1], ascending[i]
		assert.Negative(t, compareValues(prev, cur), "%v before %v", prev, cur)
		assert.Positive(t, compareValues(cur, prev), "%v after %v", cur, prev)
	}
	assert.Zero(t, compareValues(dynform.StringsValue("a", "b"), dynform.StringsValue("a", "b")))
}

func TestSortSubmissionsIsDeterministic(t *testing.T) {
	subs := []*dynform.Submission{
		newSub("cccccccc-0000-7000-8000-000000000000", 0, dynform.ValueSet{"team": dynform.StringValue("eng")}),
		newSub("aaaaaaaa-0000-7000-8000-000000000000", 0, dynform.ValueSet{"team": dynform.StringValue("eng")}),
		newSub("bbbbbbbb-0000-7000-8000-000000000000", 0, dynform.ValueSet{"team": dynform.StringValue("eng")}),
	}
	for i := 0; i < 3; i++ {
		sortSubmissions(subs, "team", dynform.SortOrderAsc)
		assert.Equal(t, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}, ids(subs))
	}
}

func TestApplyListOptions(t *testing.T) {
	page, total := applyListOptions(querySubs(), &dynform.ListOptions{
		SortBy:    dynform.SortByCreatedAt,
		SortOrder: dynform.SortOrderAsc,
		Offset:    1,
		Limit:     1,
	})
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"bbbbbbbb"}, ids(page))

	page, total = applyListOptions(querySubs(), &dynform.ListOptions{Search: "o", Offset: 10, Limit: 5})
	assert.Equal(t, 2, total)
	assert.Empty(t, page)

	page, total = applyListOptions(querySubs(), nil)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)
}
