// Package query turns raw request query strings into executable query descriptions.
//
// A Features value applies four transforms in a fixed order (Filter, Sort,
// LimitFields, Paginate) and produces a Spec; Render converts a Spec into SQL.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Operator is a comparison understood by the renderer.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

var requestOperators = map[string]Operator{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

var operatorToken = regexp.MustCompile(`\b(gt|gte|lt|lte|in)\b`)

// Predicate is a single comparison against a field.
type Predicate struct {
	Field  string   `json:"field"`
	Op     Operator `json:"op"`
	Values []string `json:"values"`
}

// SortField orders by one field.
type SortField struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Projection selects which fields are returned. A non-empty Include wins over Exclude.
type Projection struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Spec is a fully refined, not yet executed query description.
type Spec struct {
	Scope      []Predicate `json:"scope,omitempty"`
	Filters    []Predicate `json:"filters,omitempty"`
	Sort       []SortField `json:"sort,omitempty"`
	Projection Projection  `json:"projection"`
	Hidden     []string    `json:"hidden,omitempty"`
	Page       int         `json:"page"`
	Skip       int         `json:"skip"`
	Limit      int         `json:"limit"`
}

// Predicates returns the scope predicates followed by the request filters.
func (s Spec) Predicates() []Predicate {
	out := make([]Predicate, 0, len(s.Scope)+len(s.Filters))
	out = append(out, s.Scope...)
	return append(out, s.Filters...)
}

// CacheKey returns a stable digest of the spec, suitable as a cache key suffix.
func (s Spec) CacheKey() string {
	raw, _ := json.Marshal(s)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Options tunes a Features builder.
type Options struct {
	// MaxLimit caps the page size when positive.
	MaxLimit int
	// LegacyOperatorRewrite rewrites operator words anywhere in the serialised
	// filter instead of only in bracketed keys.
	LegacyOperatorRewrite bool
}

// Features is a fluent builder over one request's query parameters.
type Features struct {
	schema Schema
	params url.Values
	opts   Options

	spec       Spec
	sorted     bool
	projected  bool
	showHidden map[string]bool
}

// New starts a builder for schema over the raw query parameters.
func New(schema Schema, params url.Values, opts Options) *Features {
	if params == nil {
		params = url.Values{}
	}
	f := &Features{
		schema:     schema,
		params:     params,
		opts:       opts,
		showHidden: make(map[string]bool),
	}
	f.spec.Scope = append([]Predicate(nil), schema.Scope...)
	return f
}

// WithHidden lets the caller see hidden fields such as a password hash.
func (f *Features) WithHidden(fields ...string) *Features {
	for _, name := range fields {
		f.showHidden[name] = true
	}
	return f
}

// IncludeAll drops the schema scope, e.g. to list inactive users or secret tours.
func (f *Features) IncludeAll() *Features {
	f.spec.Scope = nil
	return f
}

// Filter turns the non-reserved parameters into predicates.
func (f *Features) Filter() *Features {
	object := parseParams(f.params)
	for key := range reservedKeys {
		delete(object, key)
	}

	if f.opts.LegacyOperatorRewrite {
		object = rewriteOperators(object)
	}

	fields := make([]string, 0, len(object))
	for k := range object {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var filters []Predicate
	for _, name := range fields {
		filters = append(filters, f.predicatesFor(name, object[name])...)
	}
	f.spec.Filters = filters
	return f
}

func (f *Features) predicatesFor(name string, value interface{}) []Predicate {
	field, ok := f.schema.Field(name)
	if !ok || (field.Hidden && !f.showHidden[name]) {
		return nil
	}

	switch v := value.(type) {
	case string:
		return keepValid(field, Predicate{Field: name, Op: OpEq, Values: []string{v}})
	case []interface{}:
		return keepValid(field, Predicate{Field: name, Op: OpIn, Values: stringList(v)})
	case map[string]interface{}:
		ops := make([]string, 0, len(v))
		for k := range v {
			ops = append(ops, k)
		}
		sort.Strings(ops)

		var out []Predicate
		for _, rawOp := range ops {
			op, ok := f.operator(rawOp)
			if !ok {
				continue
			}
			var values []string
			if op == OpIn {
				for _, item := range stringList(v[rawOp]) {
					values = append(values, splitList(item)...)
				}
			} else {
				values = []string{firstString(v[rawOp])}
			}
			out = append(out, keepValid(field, Predicate{Field: name, Op: op, Values: values})...)
		}
		return out
	}
	return nil
}

func (f *Features) operator(raw string) (Operator, bool) {
	if f.opts.LegacyOperatorRewrite {
		if !strings.HasPrefix(raw, "$") {
			return "", false
		}
		raw = strings.TrimPrefix(raw, "$")
	}
	op, ok := requestOperators[raw]
	return op, ok
}

// keepValid drops predicates whose values cannot be cast to the field kind.
func keepValid(field Field, p Predicate) []Predicate {
	if len(p.Values) == 0 {
		return nil
	}
	if field.Kind == KindTextArray && p.Op != OpEq && p.Op != OpIn {
		return nil
	}
	kind := field.Kind
	if kind == KindTextArray {
		kind = KindText
	}
	for _, v := range p.Values {
		if !kind.accepts(v) {
			return nil
		}
	}
	return []Predicate{p}
}

// rewriteOperators is the whole-object text substitution: every standalone
// operator word in the serialised filter gains a "$" prefix, wherever it occurs.
func rewriteOperators(object map[string]interface{}) map[string]interface{} {
	raw, err := json.Marshal(object)
	if err != nil {
		return object
	}
	rewritten := operatorToken.ReplaceAll(raw, []byte("$$$1"))

	var out map[string]interface{}
	if err := json.Unmarshal(rewritten, &out); err != nil {
		return object
	}
	return out
}

// Sort applies the requested ordering, or newest-first when none was given.
// Once applied, further calls leave the ordering untouched.
func (f *Features) Sort() *Features {
	if f.sorted {
		return f
	}
	f.sorted = true

	fields := parseSort(joinedParam(f.params, "sort"))
	var out []SortField
	for _, sf := range fields {
		field, ok := f.schema.Field(sf.Field)
		if !ok || field.Kind == KindJSON || (field.Hidden && !f.showHidden[sf.Field]) {
			continue
		}
		out = append(out, sf)
	}
	if len(out) == 0 {
		out = append(out, f.schema.DefaultSort...)
	}
	f.spec.Sort = out
	return f
}

func parseSort(raw string) []SortField {
	var out []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		if part == "" {
			continue
		}
		out = append(out, SortField{Field: part, Desc: desc})
	}
	return out
}

// LimitFields applies the requested field selection. Without one, only the
// version field and hidden fields are left out.
func (f *Features) LimitFields() *Features {
	f.projected = true

	var include, exclude []string
	for _, part := range strings.Split(joinedParam(f.params, "fields"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := strings.TrimPrefix(part, "-")
		field, ok := f.schema.Field(name)
		if !ok || (field.Hidden && !f.showHidden[name]) {
			continue
		}
		if strings.HasPrefix(part, "-") {
			exclude = append(exclude, name)
		} else {
			include = append(include, name)
		}
	}

	if len(include) > 0 {
		opted := make([]string, 0, len(f.showHidden))
		for name := range f.showHidden {
			if !contains(include, name) {
				opted = append(opted, name)
			}
		}
		sort.Strings(opted)
		f.spec.Projection = Projection{Include: append(include, opted...)}
		return f
	}

	f.spec.Projection = Projection{Exclude: f.defaultExclusions(exclude)}
	return f
}

func (f *Features) defaultExclusions(extra []string) []string {
	var exclude []string
	if f.schema.VersionField != "" {
		exclude = append(exclude, f.schema.VersionField)
	}
	for _, name := range f.schema.HiddenFields() {
		if !f.showHidden[name] {
			exclude = append(exclude, name)
		}
	}
	for _, name := range extra {
		if !contains(exclude, name) {
			exclude = append(exclude, name)
		}
	}
	return exclude
}

// Paginate applies page and limit, defaulting to page 1 of 100.
func (f *Features) Paginate() *Features {
	page := positiveInt(firstOf(f.params, "page"), DefaultPage)
	limit := positiveInt(firstOf(f.params, "limit"), DefaultLimit)
	if f.opts.MaxLimit > 0 && limit > f.opts.MaxLimit {
		limit = f.opts.MaxLimit
	}

	if page-1 > math.MaxInt/limit {
		page = DefaultPage
	}

	f.spec.Page = page
	f.spec.Limit = limit
	f.spec.Skip = (page - 1) * limit
	return f
}

// Apply runs all four transforms in order.
func (f *Features) Apply() *Features {
	return f.Filter().Sort().LimitFields().Paginate()
}

// Spec returns the refined query description.
func (f *Features) Spec() Spec {
	spec := f.spec
	if !f.projected {
		spec.Projection = Projection{Exclude: f.defaultExclusions(nil)}
	}
	for name := range f.showHidden {
		spec.Hidden = append(spec.Hidden, name)
	}
	sort.Strings(spec.Hidden)
	return spec
}

// DefaultProjection is the projection used for reads that bypass the builder.
func DefaultProjection(schema Schema) Projection {
	return New(schema, nil, Options{}).LimitFields().Spec().Projection
}

func firstOf(values url.Values, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// positiveInt parses a number; anything unparseable, below one or above
// math.MaxInt32 yields fallback.
func positiveInt(raw string, fallback int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || f < 1 || f > math.MaxInt32 {
		return fallback
	}
	return int(math.Trunc(f))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
