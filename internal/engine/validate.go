package engine

import (
	"fmt"
	"strings"
)

// MaxDataRows is the largest dataset a single commit may contain.
const MaxDataRows = 10000

// Validate checks that the mapping and dataset satisfy per-entity-type and
// global minimum requirements. The entity type is the effective one: either
// the detected type or the user's override.
//
// Rules are evaluated in order and every failure is reported, with one
// exception: an Unknown entity type emits a single explanatory error and
// stops, since nothing else is meaningful without a concrete schema.
//
// An empty result means the dataset is commit-eligible.
func Validate(table *RawTable, entityType EntityType, mappings []ColumnMapping) []string {
	if entityType == Unknown {
		return []string{"could not determine the data type; select an entity type before committing"}
	}

	var errs []string

	mapped := make(map[string]bool)
	for _, m := range mappings {
		if m.MappedField != UnmappedField {
			mapped[m.MappedField] = true
		}
	}

	anchors := AnchorFields(entityType)
	anchorOK := false
	for _, a := range anchors {
		if mapped[a] {
			anchorOK = true
			break
		}
	}
	if !anchorOK {
		errs = append(errs, fmt.Sprintf(
			"%s data requires at least one of these columns to be mapped: %s",
			entityType, strings.Join(anchors, ", "),
		))
	}

	if len(mapped) == 0 {
		errs = append(errs, "no columns are mapped to schema fields")
	}

	if len(table.Rows) == 0 {
		errs = append(errs, "file contains no data rows")
	}

	if len(table.Rows) > MaxDataRows {
		errs = append(errs, fmt.Sprintf(
			"dataset has %d rows; the maximum is %d", len(table.Rows), MaxDataRows,
		))
	}

	return errs
}
