package engine

import (
	"context"
	"testing"
)

// A generated template must survive its own pipeline: parse, classify back to
// the type it was generated for, and map every header at exact confidence.
func TestTemplate_RoundTrip(t *testing.T) {
	for _, entityType := range ConcreteTypes() {
		t.Run(entityType.String(), func(t *testing.T) {
			data, err := Template(entityType)
			if err != nil {
				t.Fatalf("Template() error = %v", err)
			}

			table, err := Parse(context.Background(), "template.csv", data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(table.Rows) != 2 {
				t.Errorf("parsed %d sample rows, want 2", len(table.Rows))
			}
			if len(table.Diagnostics) != 0 {
				t.Errorf("Diagnostics = %v, want none", table.Diagnostics)
			}

			detection := Classify(table.Headers)
			if detection.EntityType != entityType {
				t.Fatalf("Classify() = %v, want %v", detection.EntityType, entityType)
			}
			if detection.Confidence <= 0 || detection.Confidence > 1 {
				t.Errorf("Confidence = %v, want (0, 1]", detection.Confidence)
			}

			fields := SchemaFields(entityType)
			mappings := MapColumns(table.Headers, entityType)
			for i, m := range mappings {
				if m.MappedField != fields[i].Name {
					t.Errorf("header %q mapped to %q, want %q", m.SourceColumn, m.MappedField, fields[i].Name)
				}
				if m.Confidence != exactConfidence {
					t.Errorf("header %q confidence = %v, want %v", m.SourceColumn, m.Confidence, exactConfidence)
				}
				if !m.Suggested {
					t.Errorf("header %q not suggested despite exact match", m.SourceColumn)
				}
			}

			if errs := Validate(table, entityType, mappings); len(errs) != 0 {
				t.Errorf("Validate() = %v, want no errors", errs)
			}
		})
	}
}

func TestTemplate_UnknownRejected(t *testing.T) {
	if _, err := Template(Unknown); err == nil {
		t.Fatal("Template(Unknown) succeeded, want error")
	}
}

func TestTemplate_HeadersUsePreferredAliases(t *testing.T) {
	data, err := Template(Inventory)
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	table, err := Parse(context.Background(), "inventory.csv", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"sku", "product name", "qty available", "warehouse", "reorder level", "last updated"}
	if len(table.Headers) != len(want) {
		t.Fatalf("Headers = %v, want %v", table.Headers, want)
	}
	for i, h := range table.Headers {
		if h != want[i] {
			t.Errorf("Headers[%d] = %q, want %q", i, h, want[i])
		}
	}
}
