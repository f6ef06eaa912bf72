package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(res *domain.SearchResult) []string {
	out := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		out = append(out, row["id"].(string))
	}
	return out
}

func TestSearchPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		created = append(created, f.create(t, domain.CreateRequest{Name: name, Slug: name}))
	}

	res, err := f.svc.Search(ctx, domain.SearchRequest{Limit: ptr(2), Page: ptr(2)})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, created[2:4], ids(res))

	res, err = f.svc.Search(ctx, domain.SearchRequest{Limit: ptr(pagination.Unbounded), Page: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, created, ids(res))
	assert.Equal(t, -1, res.Limit)
	assert.Equal(t, 1, res.Page)

	res, err = f.svc.Search(ctx, domain.SearchRequest{Limit: ptr(2), Page: ptr(9)})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	assert.Empty(t, res.Data)

	_, err = f.svc.Search(ctx, domain.SearchRequest{Limit: ptr(-2)})
	assert.ErrorIs(t, err, pagination.ErrInvalidLimit)
	_, err = f.svc.Search(ctx, domain.SearchRequest{Page: ptr(0)})
	assert.ErrorIs(t, err, pagination.ErrInvalidPage)
}

func TestSearchCountsDistinctProducts(t *testing.T) {
	f := newFixture(t)
	c1, c2, c3 := f.category(t, "c1"), f.category(t, "c2"), f.category(t, "c3")
	raw := base64.StdEncoding.EncodeToString(pngBytes)

	f.create(t, domain.CreateRequest{
		Name:        "Joined",
		Slug:        "joined",
		CategoryIDs: []domain.ID{c1, c2, c3},
		Images:      []domain.ImageInput{{Content: raw}, {Content: raw}},
	})

	res, err := f.svc.Search(context.Background(), domain.SearchRequest{
		CategoryIDs: []int64{c1.Int64(), c2.Int64(), c3.Int64()},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Data, 1)
	assert.Len(t, res.Data[0]["category_ids"], 3)
	assert.Len(t, res.Data[0]["images"], 2)
}

func TestSearchCombinesFilters(t *testing.T) {
	f := newFixture(t)
	c1, c2, c3 := f.category(t, "c1"), f.category(t, "c2"), f.category(t, "c3")

	want := f.create(t, domain.CreateRequest{
		Name: "Brown Rice", Slug: "brown-rice", Price: decimal.NewFromInt(20), CategoryIDs: []domain.ID{c1},
	})
	wantDesc := f.create(t, domain.CreateRequest{
		Name: "Grain", Slug: "grain", Description: ptr("Long RICE grain"), Price: decimal.NewFromInt(50), CategoryIDs: []domain.ID{c2},
	})
	f.create(t, domain.CreateRequest{
		Name: "Cheap rice", Slug: "cheap-rice", Price: decimal.NewFromInt(5), CategoryIDs: []domain.ID{c1},
	})
	f.create(t, domain.CreateRequest{
		Name: "Rice elsewhere", Slug: "rice-elsewhere", Price: decimal.NewFromInt(30), CategoryIDs: []domain.ID{c3},
	})
	f.create(t, domain.CreateRequest{
		Name: "Beans", Slug: "beans", Price: decimal.NewFromInt(30), CategoryIDs: []domain.ID{c1},
	})

	res, err := f.svc.Search(context.Background(), domain.SearchRequest{
		Match:       "rice",
		PriceRange:  "10-50",
		CategoryIDs: []int64{c1.Int64(), c2.Int64()},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, []string{want, wantDesc}, ids(res))

	res, err = f.svc.Search(context.Background(), domain.SearchRequest{Match: "rice", PriceRange: "ten-50"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Total)
}

func TestSearchMatchEscapesWildcards(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreateRequest{Name: "100% cotton", Slug: "cotton"})
	f.create(t, domain.CreateRequest{Name: "1000 threads", Slug: "threads"})

	res, err := f.svc.Search(context.Background(), domain.SearchRequest{Match: "100%"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
}

func TestSearchOptionFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shirt := f.create(t, domain.CreateRequest{Name: "Shirt", Slug: "shirt", Options: []domain.OptionInput{
		{Title: "Size", Values: []string{"P", "M"}},
		{Title: "Color", Values: []string{"Azul"}},
	}})
	pants := f.create(t, domain.CreateRequest{Name: "Pants", Slug: "pants", Options: []domain.OptionInput{
		{Title: "Size", Values: []string{"G"}},
		{Title: "Color", Values: []string{"Azul"}},
	}})
	f.create(t, domain.CreateRequest{Name: "Hat", Slug: "hat", Options: []domain.OptionInput{
		{Title: "Size", Values: []string{"M"}},
		{Title: "Color", Values: []string{"Preto"}},
	}})

	got, err := f.svc.Get(ctx, shirt)
	require.NoError(t, err)
	sizeRef := sid(got.Options[0].ID).Int64()
	colorRef := sid(got.Options[1].ID).Int64()

	res, err := f.svc.Search(ctx, domain.SearchRequest{Options: []domain.OptionFilter{
		{OptionID: sizeRef, Values: []string{"M", "G"}},
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)

	res, err = f.svc.Search(ctx, domain.SearchRequest{Options: []domain.OptionFilter{
		{OptionID: sizeRef, Values: []string{"M", "G"}},
		{OptionID: colorRef, Values: []string{"Azul"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{shirt, pants}, ids(res))
}

func TestSearchProjectsFields(t *testing.T) {
	f := newFixture(t)
	f.create(t, domain.CreateRequest{Name: "A", Slug: "a", Options: []domain.OptionInput{{Title: "Size", Values: []string{"P"}}}})

	res, err := f.svc.Search(context.Background(), domain.SearchRequest{Fields: []string{"name", "options", "unknown"}})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	row := res.Data[0]
	assert.Len(t, row, 2)
	assert.Equal(t, "A", row["name"])
	opts := row["options"].([]domain.OptionResponse)
	require.Len(t, opts, 1)
	assert.Equal(t, []string{"P"}, opts[0].Values)

	res, err = f.svc.Search(context.Background(), domain.SearchRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Data[0], len(defaultSearchFields))
	assert.Equal(t, 12, res.Limit)
}

func TestParsePriceRange(t *testing.T) {
	lo, hi, ok := parsePriceRange("10-50.5")
	require.True(t, ok)
	assert.True(t, lo.Equal(decimal.NewFromInt(10)))
	assert.True(t, hi.Equal(decimal.RequireFromString("50.5")))

	for _, raw := range []string{"", "10", "a-5", "5-b", "-"} {
		_, _, ok := parsePriceRange(raw)
		assert.False(t, ok, raw)
	}
}
