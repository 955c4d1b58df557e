package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// FromDocuments flattens projected documents into a dataset with the given
// columns. Lists are joined with "; " and nested objects rendered as JSON.
func FromDocuments(headers []string, docs []map[string]interface{}) Dataset {
	rows := make([]map[string]string, 0, len(docs))
	for _, doc := range docs {
		row := make(map[string]string, len(headers))
		for _, h := range headers {
			row[h] = formatCell(doc[h])
		}
		rows = append(rows, row)
	}
	return Dataset{Headers: headers, Rows: rows}
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, formatCell(item))
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	default:
		return fmt.Sprint(t)
	}
}
