package engine

import (
	"strings"
	"testing"
)

func makeTable(headers []string, rowCount int) *RawTable {
	rows := make([][]string, rowCount)
	for i := range rows {
		row := make([]string, len(headers))
		for j := range row {
			row[j] = "x"
		}
		rows[i] = row
	}
	return &RawTable{FileName: "test.csv", Headers: headers, Rows: rows}
}

func mapTo(headers []string, fields ...string) []ColumnMapping {
	mappings := make([]ColumnMapping, len(headers))
	for i, h := range headers {
		field := UnmappedField
		if i < len(fields) {
			field = fields[i]
		}
		mappings[i] = ColumnMapping{SourceColumn: h, MappedField: field, Confidence: 0.95}
	}
	return mappings
}

func TestValidate_Valid(t *testing.T) {
	headers := []string{"Order ID", "Total"}
	table := makeTable(headers, 5)
	mappings := mapTo(headers, "id", "total_price")

	if errs := Validate(table, Orders, mappings); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_UnknownShortCircuits(t *testing.T) {
	// Unknown with no mappings and no rows would trip three other rules,
	// but the unknown-type error stands alone.
	headers := []string{"foo"}
	table := makeTable(headers, 0)
	mappings := mapTo(headers)

	errs := Validate(table, Unknown, mappings)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want exactly one error", errs)
	}
	if !strings.Contains(errs[0], "entity type") {
		t.Errorf("error = %q, want mention of the entity type", errs[0])
	}
}

func TestValidate_AnchorRule(t *testing.T) {
	// Only status mapped: Orders anchors (id, name, total_price, email) all
	// missing.
	headers := []string{"Order Status"}
	table := makeTable(headers, 3)
	mappings := mapTo(headers, "status")

	errs := Validate(table, Orders, mappings)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want exactly one error", errs)
	}
	for _, anchor := range []string{"id", "name", "total_price", "email"} {
		if !strings.Contains(errs[0], anchor) {
			t.Errorf("anchor error %q does not name %q", errs[0], anchor)
		}
	}
}

func TestValidate_NoMappedColumns(t *testing.T) {
	headers := []string{"foo", "bar"}
	table := makeTable(headers, 3)
	mappings := mapTo(headers)

	errs := Validate(table, Orders, mappings)
	// Both the anchor rule and the no-mapped-columns rule fire.
	if len(errs) != 2 {
		t.Fatalf("Validate() = %v, want two errors", errs)
	}
	if !strings.Contains(errs[1], "no columns are mapped") {
		t.Errorf("errs[1] = %q, want no-mapped-columns error", errs[1])
	}
}

func TestValidate_NoDataRows(t *testing.T) {
	headers := []string{"Order ID"}
	table := makeTable(headers, 0)
	mappings := mapTo(headers, "id")

	errs := Validate(table, Orders, mappings)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want one error", errs)
	}
	if !strings.Contains(errs[0], "no data rows") {
		t.Errorf("error = %q, want it to contain %q", errs[0], "no data rows")
	}
}

func TestValidate_RowCountBoundary(t *testing.T) {
	headers := []string{"Order ID"}
	mappings := mapTo(headers, "id")

	// Exactly at the cap: fine.
	if errs := Validate(makeTable(headers, MaxDataRows), Orders, mappings); len(errs) != 0 {
		t.Errorf("at %d rows: Validate() = %v, want no errors", MaxDataRows, errs)
	}

	// One over: oversized-dataset error.
	errs := Validate(makeTable(headers, MaxDataRows+1), Orders, mappings)
	if len(errs) != 1 {
		t.Fatalf("at %d rows: Validate() = %v, want one error", MaxDataRows+1, errs)
	}
	if !strings.Contains(errs[0], "maximum") {
		t.Errorf("error = %q, want oversized-dataset error", errs[0])
	}
}

func TestValidate_ReportsAllFailures(t *testing.T) {
	// Nothing mapped and no data rows: anchor, no-mapped-columns, and
	// zero-rows all reported.
	headers := []string{"foo"}
	table := makeTable(headers, 0)
	mappings := mapTo(headers)

	errs := Validate(table, Customers, mappings)
	if len(errs) != 3 {
		t.Fatalf("Validate() = %v, want three errors", errs)
	}
}
