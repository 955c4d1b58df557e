package query

import (
	"net/url"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Table: "tours",
	Fields: []Field{
		{Name: "id", Column: "id", Kind: KindText},
		{Name: "name", Column: "name", Kind: KindText},
		{Name: "price", Column: "price", Kind: KindNumeric},
		{Name: "duration", Column: "duration", Kind: KindInteger},
		{Name: "difficulty", Column: "difficulty", Kind: KindText},
		{Name: "summary", Column: "summary", Kind: KindText},
		{Name: "guides", Column: "guides", Kind: KindTextArray},
		{Name: "startLocation", Column: "start_location", Kind: KindJSON},
		{Name: "secretTour", Column: "secret_tour", Kind: KindBool},
		{Name: "createdAt", Column: "created_at", Kind: KindTime, Hidden: true},
		{Name: "version", Column: "version", Kind: KindInteger},
	},
	VersionField: "version",
	DefaultSort:  []SortField{{Field: "createdAt", Desc: true}},
	Scope:        []Predicate{{Field: "secretTour", Op: OpNe, Values: []string{"true"}}},
}

func build(t *testing.T, raw string, opts Options) *Features {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return New(testSchema, params, opts)
}

func TestPaginateDefaults(t *testing.T) {
	spec := build(t, "", Options{}).Paginate().Spec()
	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 0, spec.Skip)
	assert.Equal(t, 100, spec.Limit)
}

func TestPaginatePageAndLimit(t *testing.T) {
	spec := build(t, "page=3&limit=10", Options{}).Paginate().Spec()
	assert.Equal(t, 20, spec.Skip)
	assert.Equal(t, 10, spec.Limit)
}

func TestPaginateFallsBackOnGarbage(t *testing.T) {
	cases := map[string][2]int{
		"page=abc&limit=xyz": {0, 100},
		"page=0&limit=-5":    {0, 100},
		"page=2.7&limit=5":   {5, 5},
		"page=NaN&limit=Inf": {0, 100},
		"page= 2 &limit=":    {100, 100},

		"page=100000000000000000&limit=100": {0, 100},
		"page=1e300&limit=1e300":            {0, 100},
		"page=2&limit=99999999999":          {100, 100},
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			spec := build(t, raw, Options{}).Paginate().Spec()
			assert.GreaterOrEqual(t, spec.Skip, 0)
			assert.Equal(t, want[0], spec.Skip)
			assert.Equal(t, want[1], spec.Limit)
		})
	}
}

func TestPaginateLargestPageStaysRenderable(t *testing.T) {
	spec := build(t, "page=2147483647&limit=2147483647", Options{}).Paginate().Spec()
	assert.Equal(t, 2147483647, spec.Page)
	assert.Equal(t, 2147483646*2147483647, spec.Skip)

	stmt := Render(spec, testSchema)
	for _, arg := range stmt.SelectArgs {
		if n, ok := arg.(int); ok {
			assert.GreaterOrEqual(t, n, 0)
		}
	}
}

func TestPaginateMaxLimit(t *testing.T) {
	spec := build(t, "limit=500", Options{MaxLimit: 50}).Paginate().Spec()
	assert.Equal(t, 50, spec.Limit)

	spec = build(t, "limit=500", Options{}).Paginate().Spec()
	assert.Equal(t, 500, spec.Limit)
}

func TestFilterOperators(t *testing.T) {
	spec := build(t, "price[gte]=100&duration[lt]=10&difficulty=easy", Options{}).Filter().Spec()
	assert.Equal(t, []Predicate{
		{Field: "difficulty", Op: OpEq, Values: []string{"easy"}},
		{Field: "duration", Op: OpLt, Values: []string{"10"}},
		{Field: "price", Op: OpGte, Values: []string{"100"}},
	}, spec.Filters)
}

func TestFilterDropsReservedUnknownAndInvalid(t *testing.T) {
	spec := build(t, "page=2&sort=price&limit=5&fields=name&bogus=1&price[gte]=cheap&price[regex]=1", Options{}).Filter().Spec()
	assert.Empty(t, spec.Filters)
}

func TestFilterIn(t *testing.T) {
	spec := build(t, "difficulty[in]=easy,medium", Options{}).Filter().Spec()
	require.Len(t, spec.Filters, 1)
	assert.Equal(t, OpIn, spec.Filters[0].Op)
	assert.Equal(t, []string{"easy", "medium"}, spec.Filters[0].Values)

	spec = build(t, "difficulty=easy&difficulty=medium", Options{}).Filter().Spec()
	require.Len(t, spec.Filters, 1)
	assert.Equal(t, OpIn, spec.Filters[0].Op)
	assert.Equal(t, []string{"easy", "medium"}, spec.Filters[0].Values)
}

func TestFilterHiddenFieldNeedsOptIn(t *testing.T) {
	spec := build(t, "createdAt[gte]=2024-01-01", Options{}).Filter().Spec()
	assert.Empty(t, spec.Filters)

	spec = build(t, "createdAt[gte]=2024-01-01", Options{}).WithHidden("createdAt").Filter().Spec()
	assert.Len(t, spec.Filters, 1)
}

func TestFilterValuesAreNotRewritten(t *testing.T) {
	spec := build(t, "name=gte-5", Options{}).Filter().Spec()
	require.Len(t, spec.Filters, 1)
	assert.Equal(t, []string{"gte-5"}, spec.Filters[0].Values)
}

func TestFilterLegacyRewrite(t *testing.T) {
	spec := build(t, "price[gte]=100&name=gte-5", Options{LegacyOperatorRewrite: true}).Filter().Spec()
	assert.Equal(t, []Predicate{
		{Field: "name", Op: OpEq, Values: []string{"$gte-5"}},
		{Field: "price", Op: OpGte, Values: []string{"100"}},
	}, spec.Filters)
}

func TestSortExplicit(t *testing.T) {
	spec := build(t, "sort=-price,name", Options{}).Sort().Spec()
	assert.Equal(t, []SortField{{Field: "price", Desc: true}, {Field: "name"}}, spec.Sort)
}

func TestSortDefault(t *testing.T) {
	spec := build(t, "", Options{}).Sort().Spec()
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, spec.Sort)

	spec = build(t, "sort=nope,-startLocation", Options{}).Sort().Spec()
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, spec.Sort)
}

func TestSortIsAppliedOnce(t *testing.T) {
	f := build(t, "sort=price", Options{})
	f.Sort()
	f.params.Del("sort")
	spec := f.Sort().Spec()
	assert.Equal(t, []SortField{{Field: "price"}}, spec.Sort)
}

func TestLimitFields(t *testing.T) {
	spec := build(t, "fields=name,price,createdAt", Options{}).LimitFields().Spec()
	assert.Equal(t, Projection{Include: []string{"name", "price"}}, spec.Projection)

	spec = build(t, "", Options{}).LimitFields().Spec()
	assert.Equal(t, Projection{Exclude: []string{"version", "createdAt"}}, spec.Projection)

	spec = build(t, "fields=-summary", Options{}).LimitFields().Spec()
	assert.Equal(t, Projection{Exclude: []string{"version", "createdAt", "summary"}}, spec.Projection)

	spec = build(t, "", Options{}).WithHidden("createdAt").LimitFields().Spec()
	assert.Equal(t, Projection{Exclude: []string{"version"}}, spec.Projection)
}

func TestScopeAndIncludeAll(t *testing.T) {
	spec := build(t, "", Options{}).Spec()
	assert.Len(t, spec.Scope, 1)

	spec = build(t, "", Options{}).IncludeAll().Spec()
	assert.Empty(t, spec.Scope)
}

func TestCacheKey(t *testing.T) {
	a := build(t, "price[gte]=100&sort=-price", Options{}).Apply().Spec()
	b := build(t, "sort=-price&price[gte]=100", Options{}).Apply().Spec()
	c := build(t, "price[gte]=200&sort=-price", Options{}).Apply().Spec()
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestRender(t *testing.T) {
	spec := build(t, "price[gte]=100&difficulty[in]=easy,medium&sort=-price,name&page=2&limit=10", Options{}).Apply().Spec()
	stmt := Render(spec, testSchema)

	assert.Equal(t,
		"SELECT id, name, price, duration, difficulty, summary, guides, start_location, secret_tour, version FROM tours"+
			" WHERE 1=1 AND secret_tour IS DISTINCT FROM $1::boolean AND difficulty::text = ANY($2::text[]) AND price >= $3::numeric"+
			" ORDER BY price DESC, name ASC, id ASC LIMIT $4 OFFSET $5",
		stmt.SelectSQL)
	assert.Equal(t, []interface{}{"true", pq.Array([]string{"easy", "medium"}), "100", 10, 10}, stmt.SelectArgs)

	assert.Equal(t,
		"SELECT COUNT(*) FROM tours WHERE 1=1 AND secret_tour IS DISTINCT FROM $1::boolean AND difficulty::text = ANY($2::text[]) AND price >= $3::numeric",
		stmt.CountSQL)
	assert.Len(t, stmt.CountArgs, 3)
}

func TestRenderArrayAndHiddenColumns(t *testing.T) {
	spec := build(t, "guides=u1", Options{}).WithHidden("createdAt").IncludeAll().Apply().Spec()
	stmt := Render(spec, testSchema)

	assert.Contains(t, stmt.SelectSQL, "created_at")
	assert.Contains(t, stmt.SelectSQL, "WHERE 1=1 AND $1::text = ANY(guides)")
	assert.Contains(t, stmt.SelectSQL, "ORDER BY created_at DESC, id ASC")
}

func TestProject(t *testing.T) {
	type row struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	rows := []row{{ID: "1", Name: "Forest Hiker", Price: 397}}

	docs, err := Project(rows, Projection{Include: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "1", "name": "Forest Hiker"}, docs[0])

	docs, err = Project(rows, Projection{Exclude: []string{"price", "id"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "1", "name": "Forest Hiker"}, docs[0])
}
