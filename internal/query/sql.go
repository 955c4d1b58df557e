package query

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Statement is a rendered spec: a paged select and the matching count.
type Statement struct {
	SelectSQL  string
	SelectArgs []interface{}
	CountSQL   string
	CountArgs  []interface{}
}

// Render converts spec into SQL for schema.Table. Predicates, sort keys and
// columns that the schema does not know are left out.
func Render(spec Spec, schema Schema) Statement {
	conditions := []string{"1=1"}
	args := []interface{}{}

	for _, p := range spec.Predicates() {
		field, ok := schema.Field(p.Field)
		if !ok || field.Kind == KindJSON {
			continue
		}
		cond, arg, ok := renderPredicate(field, p, len(args)+1)
		if !ok {
			continue
		}
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	countArgs := append([]interface{}(nil), args...)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectColumns(spec, schema), ", "))
	b.WriteString(" FROM ")
	b.WriteString(schema.Table)
	b.WriteString(where)
	b.WriteString(renderOrder(spec.Sort, schema))
	if spec.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, spec.Limit, spec.Skip)
	}

	return Statement{
		SelectSQL:  b.String(),
		SelectArgs: args,
		CountSQL:   "SELECT COUNT(*) FROM " + schema.Table + where,
		CountArgs:  countArgs,
	}
}

func renderPredicate(field Field, p Predicate, pos int) (string, interface{}, bool) {
	if len(p.Values) == 0 {
		return "", nil, false
	}

	if field.Kind == KindTextArray {
		switch p.Op {
		case OpEq:
			return fmt.Sprintf("$%d::text = ANY(%s)", pos, field.Column), p.Values[0], true
		case OpIn:
			return fmt.Sprintf("%s && $%d::text[]", field.Column, pos), pq.Array(p.Values), true
		default:
			return "", nil, false
		}
	}

	column := field.Column
	if field.Kind == KindText {
		column += "::text"
	}
	cast := field.Kind.cast()

	switch p.Op {
	case OpEq:
		return fmt.Sprintf("%s = $%d::%s", column, pos, cast), p.Values[0], true
	case OpNe:
		return fmt.Sprintf("%s IS DISTINCT FROM $%d::%s", column, pos, cast), p.Values[0], true
	case OpGt:
		return fmt.Sprintf("%s > $%d::%s", column, pos, cast), p.Values[0], true
	case OpGte:
		return fmt.Sprintf("%s >= $%d::%s", column, pos, cast), p.Values[0], true
	case OpLt:
		return fmt.Sprintf("%s < $%d::%s", column, pos, cast), p.Values[0], true
	case OpLte:
		return fmt.Sprintf("%s <= $%d::%s", column, pos, cast), p.Values[0], true
	case OpIn:
		return fmt.Sprintf("%s = ANY($%d::%s[])", column, pos, cast), pq.Array(p.Values), true
	}
	return "", nil, false
}

func renderOrder(sortFields []SortField, schema Schema) string {
	var parts []string
	hasID := false
	for _, sf := range sortFields {
		field, ok := schema.Field(sf.Field)
		if !ok || field.Kind == KindJSON {
			continue
		}
		if field.Column == "id" {
			hasID = true
		}
		dir := "ASC"
		if sf.Desc {
			dir = "DESC"
		}
		parts = append(parts, field.Column+" "+dir)
	}
	// id keeps pagination stable across equal sort keys
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// selectColumns fetches every visible column; hidden columns are read only
// when the spec opted in. Narrowing to the projection happens in Project.
func selectColumns(spec Spec, schema Schema) []string {
	optedIn := make(map[string]bool, len(spec.Hidden))
	for _, name := range spec.Hidden {
		optedIn[name] = true
	}

	columns := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Hidden && !optedIn[f.Name] {
			continue
		}
		columns = append(columns, f.Column)
	}
	return columns
}
