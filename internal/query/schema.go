package query

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage type of a queryable field; it drives casts and value checks.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindInteger
	KindBool
	KindTime
	KindTextArray
	// KindJSON fields can be projected but never filtered or sorted.
	KindJSON
)

func (k Kind) cast() string {
	switch k {
	case KindNumeric, KindInteger:
		return "numeric"
	case KindBool:
		return "boolean"
	case KindTime:
		return "timestamptz"
	default:
		return "text"
	}
}

func (k Kind) accepts(raw string) bool {
	raw = strings.TrimSpace(raw)
	switch k {
	case KindNumeric, KindInteger:
		f, err := strconv.ParseFloat(raw, 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case KindBool:
		_, err := strconv.ParseBool(raw)
		return err == nil
	case KindTime:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if _, err := time.Parse(layout, raw); err == nil {
				return true
			}
		}
		return false
	case KindJSON:
		return false
	default:
		return true
	}
}

// Field maps a public (JSON) field name onto a column.
type Field struct {
	Name   string
	Column string
	Kind   Kind
	// Hidden fields are left out of reads, filters and sorts unless the caller
	// opts in with Features.WithHidden.
	Hidden bool
}

// Schema describes a resource for the builder and the SQL renderer.
type Schema struct {
	Table        string
	Fields       []Field
	VersionField string
	DefaultSort  []SortField
	// Scope predicates are composed into every read unless Features.IncludeAll is used.
	Scope []Predicate
}

// Field looks up a field by public name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HiddenFields lists the names of fields hidden by default.
func (s Schema) HiddenFields() []string {
	var hidden []string
	for _, f := range s.Fields {
		if f.Hidden {
			hidden = append(hidden, f.Name)
		}
	}
	return hidden
}
