package engine

import (
	"fmt"
	"strings"
)

// templateSamples holds two sample rows per entity type, keyed by canonical
// field name. Values are comma-free so the generated file parses back
// cleanly with any CSV reader.
var templateSamples = map[EntityType][]map[string]string{
	Orders: {
		{
			"id": "1001", "name": "Ada Lovelace", "email": "ada@example.com",
			"phone": "555-0101", "total_price": "129.90", "status": "shipped",
			"created_at": "2024-03-01", "shipping_address": "12 Analytical Way",
		},
		{
			"id": "1002", "name": "Grace Hopper", "email": "grace@example.com",
			"phone": "555-0102", "total_price": "49.00", "status": "pending",
			"created_at": "2024-03-02", "shipping_address": "7 Compiler Court",
		},
	},
	Products: {
		{
			"id": "2001", "name": "Steel Water Bottle", "sku": "BTL-750-ST",
			"price": "24.50", "description": "Insulated 750ml bottle",
			"category": "drinkware", "brand": "Hydra",
		},
		{
			"id": "2002", "name": "Canvas Tote Bag", "sku": "TOTE-CV-01",
			"price": "18.00", "description": "Heavy canvas shopping tote",
			"category": "bags", "brand": "Carryall",
		},
	},
	Inventory: {
		{
			"sku": "BTL-750-ST", "product_name": "Steel Water Bottle",
			"quantity": "140", "warehouse": "east-1", "reorder_level": "25",
			"updated_at": "2024-03-01",
		},
		{
			"sku": "TOTE-CV-01", "product_name": "Canvas Tote Bag",
			"quantity": "60", "warehouse": "west-2", "reorder_level": "10",
			"updated_at": "2024-03-02",
		},
	},
	Customers: {
		{
			"id": "3001", "name": "Ada Lovelace", "email": "ada@example.com",
			"phone": "555-0101", "address": "12 Analytical Way", "city": "London",
			"country": "UK", "created_at": "2023-11-20",
		},
		{
			"id": "3002", "name": "Grace Hopper", "email": "grace@example.com",
			"phone": "555-0102", "address": "7 Compiler Court", "city": "Arlington",
			"country": "US", "created_at": "2023-12-05",
		},
	},
}

// Template renders a downloadable sample CSV for one entity type, using the
// preferred alias spelling of each canonical field as the header row.
// Parsing and classifying a generated template yields the same entity type.
func Template(t EntityType) ([]byte, error) {
	if t == Unknown {
		return nil, fmt.Errorf("no template for the unknown entity type")
	}

	fields := SchemaFields(t)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Aliases[0]
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	b.WriteByte('\n')

	for _, sample := range templateSamples[t] {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = sample[f.Name]
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}

	return []byte(b.String()), nil
}
