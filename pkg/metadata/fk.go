package metadata

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// Confidence labels for foreign key suggestions.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// FKSuggestion proposes that a column references another table, inferred
// from naming alone. Advisory: nothing verifies that the values actually
// join.
type FKSuggestion struct {
	Column     string `json:"column"`
	Table      string `json:"table"`
	Confidence string `json:"confidence"`
}

// SuggestForeignKeys scans columns named like <entity>_id and proposes
// the schema tables they appear to reference. A match on the pluralized
// entity name (user_id against users) is high confidence; a match on the
// bare or singular form is medium. Views and the bare id column are
// ignored. Matching is case-insensitive and the suggestion carries the
// catalog's table spelling.
func SuggestForeignKeys(columns []connector.ColumnDescriptor, objects []connector.SchemaObject) []FKSuggestion {
	tables := make(map[string]string, len(objects))
	for _, obj := range objects {
		if obj.Kind != connector.ObjectTable {
			continue
		}
		tables[strings.ToLower(obj.Name)] = obj.Name
	}

	var suggestions []FKSuggestion
	for _, col := range columns {
		lower := strings.ToLower(col.Name)
		if lower == "id" || !strings.HasSuffix(lower, "_id") {
			continue
		}
		base := strings.TrimSuffix(lower, "_id")
		if base == "" {
			continue
		}

		if name, ok := tables[inflection.Plural(base)]; ok {
			suggestions = append(suggestions, FKSuggestion{
				Column: col.Name, Table: name, Confidence: ConfidenceHigh,
			})
			continue
		}
		if name, ok := tables[base]; ok {
			suggestions = append(suggestions, FKSuggestion{
				Column: col.Name, Table: name, Confidence: ConfidenceMedium,
			})
			continue
		}
		if singular := inflection.Singular(base); singular != base {
			if name, ok := tables[singular]; ok {
				suggestions = append(suggestions, FKSuggestion{
					Column: col.Name, Table: name, Confidence: ConfidenceMedium,
				})
			}
		}
	}
	return suggestions
}
