package engine

import "strings"

// Mapping score constants. The 0.5 acceptance cutoff and the 0.7 suggestion
// threshold are independent knobs: a mapping can be accepted without being
// confident enough to pre-select in the UI.
const (
	exactConfidence  = 0.95
	containCap       = 0.8
	fuzzyMinScore    = 0.6
	fuzzyWeight      = 0.7
	acceptThreshold  = 0.5
	suggestThreshold = 0.7
)

// ColumnMapping links one source column to a canonical field. One instance
// exists per header, in header order. Two headers may map to the same field;
// that is surfaced, not deduplicated.
type ColumnMapping struct {
	SourceColumn string  `json:"sourceColumn"`
	MappedField  string  `json:"mappedField"`
	Confidence   float64 `json:"confidence"`
	Suggested    bool    `json:"suggested"`
}

// MapColumns matches every source header to a canonical field of the schema
// for the given entity type. Unknown resolves to the Orders schema so the
// user always gets a starting point to correct.
//
// MapColumns is a pure function of its inputs: identical (headers,
// entityType) pairs always produce identical output.
func MapColumns(headers []string, entityType EntityType) []ColumnMapping {
	fields := SchemaFields(entityType)

	mappings := make([]ColumnMapping, len(headers))
	for i, header := range headers {
		field, confidence := bestField(header, fields)

		m := ColumnMapping{
			SourceColumn: header,
			MappedField:  UnmappedField,
			Confidence:   confidence,
		}
		if confidence > acceptThreshold {
			m.MappedField = field
			m.Suggested = confidence > suggestThreshold
		}
		mappings[i] = m
	}

	return mappings
}

// bestField evaluates every alias of every field and keeps the single
// best-scoring pair. The comparison is strictly-greater, so the first
// encountered pair wins ties; field and alias iteration order is fixed by
// the registry, keeping the result deterministic.
func bestField(header string, fields []SchemaField) (string, float64) {
	normalized := strings.ToLower(strings.TrimSpace(header))

	bestName := ""
	bestScore := 0.0

	for _, field := range fields {
		for _, alias := range field.Aliases {
			score := aliasScore(normalized, alias)
			if score > bestScore {
				bestScore = score
				bestName = field.Name
			}
		}
	}

	return bestName, bestScore
}

// aliasScore scores one (header, alias) pair. Exact match beats containment
// beats fuzzy; the fuzzy path only contributes when normalized similarity
// exceeds 0.6.
func aliasScore(header, alias string) float64 {
	if header == alias {
		return exactConfidence
	}

	if header != "" && (strings.Contains(header, alias) || strings.Contains(alias, header)) {
		score := float64(len(alias)) / float64(len(header))
		if score > containCap {
			score = containCap
		}
		return score
	}

	if sim := similarity(header, alias); sim > fuzzyMinScore {
		return sim * fuzzyWeight
	}

	return 0
}
