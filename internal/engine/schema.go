package engine

import "strings"

// EntityType is one of the closed set of business-record kinds the engine
// recognizes. Declaration order matters: the classifier breaks score ties in
// favor of the first-declared type, and that policy is tested.
type EntityType int

const (
	Orders EntityType = iota
	Products
	Inventory
	Customers
	Unknown
)

// entityTypeCount is the number of concrete (non-Unknown) entity types.
const entityTypeCount = int(Unknown)

// UnmappedField is the sentinel MappedField value for a source column that
// matched no canonical field.
const UnmappedField = "unmapped"

func (t EntityType) String() string {
	switch t {
	case Orders:
		return "orders"
	case Products:
		return "products"
	case Inventory:
		return "inventory"
	case Customers:
		return "customers"
	default:
		return "unknown"
	}
}

// ParseEntityType converts a string (as sent by the UI collaborator) back to
// an EntityType. "unknown" is accepted; anything else returns false.
func ParseEntityType(s string) (EntityType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orders":
		return Orders, true
	case "products":
		return Products, true
	case "inventory":
		return Inventory, true
	case "customers":
		return Customers, true
	case "unknown":
		return Unknown, true
	default:
		return Unknown, false
	}
}

// ConcreteTypes returns the entity types a dataset can resolve to, in
// declaration order.
func ConcreteTypes() []EntityType {
	return []EntityType{Orders, Products, Inventory, Customers}
}

// SchemaField is a canonical field of one entity schema together with its
// known raw-header spellings. Aliases are lowercase; Aliases[0] is the
// preferred spelling and is used when generating sample templates.
type SchemaField struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// typePattern drives the classifier: required terms score 2, optional terms
// score 1, and a type is eligible only when its score reaches Threshold.
type typePattern struct {
	Required  []string
	Optional  []string
	Threshold int
}

// maxScore is the highest score the pattern can produce, used as the
// confidence denominator.
func (p typePattern) maxScore() int {
	return 2*len(p.Required) + len(p.Optional)
}

// entitySchema bundles everything the pipeline knows about one entity type.
type entitySchema struct {
	Fields  []SchemaField
	Pattern typePattern
	// Anchors are canonical fields of which at least one must be mapped for
	// the dataset to be considered validly typed.
	Anchors []string
}

// schemas is the static, process-wide registry. It is read-only after
// process start; no locking is required.
var schemas = [entityTypeCount]entitySchema{
	Orders: {
		Fields: []SchemaField{
			{Name: "id", Aliases: []string{"order id", "order_id", "id", "order number", "order no", "order #"}},
			{Name: "name", Aliases: []string{"customer name", "name", "customer", "buyer", "client"}},
			{Name: "email", Aliases: []string{"customer email", "email", "customer_email", "e-mail", "buyer email"}},
			{Name: "phone", Aliases: []string{"phone", "phone number", "telephone", "mobile"}},
			{Name: "total_price", Aliases: []string{"total", "total price", "total_price", "order total", "grand total", "amount"}},
			{Name: "status", Aliases: []string{"order status", "status", "state", "fulfillment status"}},
			{Name: "created_at", Aliases: []string{"created at", "created_at", "order date", "created", "date", "timestamp"}},
			{Name: "shipping_address", Aliases: []string{"shipping address", "address", "ship to", "delivery address"}},
		},
		Pattern: typePattern{
			Required:  []string{"order"},
			Optional:  []string{"total", "price", "customer", "status", "date", "ship"},
			Threshold: 2,
		},
		Anchors: []string{"id", "name", "total_price", "email"},
	},
	Products: {
		Fields: []SchemaField{
			{Name: "id", Aliases: []string{"product id", "product_id", "id", "item id"}},
			{Name: "name", Aliases: []string{"product name", "name", "title", "item name"}},
			{Name: "sku", Aliases: []string{"sku", "product code", "item code", "code"}},
			{Name: "price", Aliases: []string{"price", "unit price", "unit_price", "msrp", "list price"}},
			{Name: "description", Aliases: []string{"description", "product description", "details"}},
			{Name: "category", Aliases: []string{"category", "product type", "type", "department"}},
			{Name: "brand", Aliases: []string{"brand", "manufacturer", "vendor", "make"}},
		},
		Pattern: typePattern{
			Required:  []string{"product", "price"},
			Optional:  []string{"sku", "name", "category", "brand", "description"},
			Threshold: 2,
		},
		Anchors: []string{"id", "name", "sku", "price"},
	},
	Inventory: {
		Fields: []SchemaField{
			{Name: "sku", Aliases: []string{"sku", "product code", "item code", "stock keeping unit"}},
			{Name: "product_name", Aliases: []string{"product name", "item", "product", "name"}},
			{Name: "quantity", Aliases: []string{"qty available", "quantity", "qty", "stock", "on hand", "units"}},
			{Name: "warehouse", Aliases: []string{"warehouse", "location", "site", "store", "facility"}},
			{Name: "reorder_level", Aliases: []string{"reorder level", "reorder point", "min stock", "minimum stock"}},
			{Name: "updated_at", Aliases: []string{"last updated", "updated at", "updated_at", "date"}},
		},
		Pattern: typePattern{
			Required:  []string{"sku", "warehouse"},
			Optional:  []string{"qty", "quantity", "stock", "on hand", "reorder"},
			Threshold: 3,
		},
		Anchors: []string{"sku", "quantity", "warehouse"},
	},
	Customers: {
		Fields: []SchemaField{
			{Name: "id", Aliases: []string{"customer id", "customer_id", "id", "client id"}},
			{Name: "name", Aliases: []string{"full name", "name", "customer name", "client name"}},
			{Name: "email", Aliases: []string{"email", "email address", "e-mail", "contact email"}},
			{Name: "phone", Aliases: []string{"phone", "phone number", "mobile", "telephone"}},
			{Name: "address", Aliases: []string{"address", "street address", "billing address", "street"}},
			{Name: "city", Aliases: []string{"city", "town"}},
			{Name: "country", Aliases: []string{"country", "nation", "region"}},
			{Name: "created_at", Aliases: []string{"signup date", "created at", "joined", "registration date", "created_at"}},
		},
		Pattern: typePattern{
			Required:  []string{"customer"},
			Optional:  []string{"name", "email", "phone", "address", "city", "country"},
			Threshold: 3,
		},
		Anchors: []string{"id", "name", "email"},
	},
}

// resolveSchema maps Unknown to the schema the mapper falls back to.
// Orders is the fallback: it is the first-declared type, consistent with the
// classifier's tie-break policy.
func resolveSchema(t EntityType) EntityType {
	if t == Unknown {
		return Orders
	}
	return t
}

// SchemaFields returns the canonical fields of the schema used for the given
// entity type. Unknown resolves to the Orders schema.
func SchemaFields(t EntityType) []SchemaField {
	return schemas[resolveSchema(t)].Fields
}

// AnchorFields returns the anchor field set for a concrete entity type.
func AnchorFields(t EntityType) []string {
	if t == Unknown {
		return nil
	}
	return schemas[t].Anchors
}

// hasField reports whether name is a canonical field of the schema used for
// the given entity type.
func hasField(t EntityType, name string) bool {
	for _, f := range SchemaFields(t) {
		if f.Name == name {
			return true
		}
	}
	return false
}
