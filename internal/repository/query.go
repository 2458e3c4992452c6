package repository

const (
	IDField       QueryField = "product_id"
	NameField     QueryField = "name"
	PriceField    QueryField = "price"
	StockField    QueryField = "stock_quantity"
	CategoryField QueryField = "category_id"
	SupplierField QueryField = "supplier_id"

	Equal          Operator = "="
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
)

// Query describes a filtered and ordered product view.
type Query struct {
	Conditions []Condition

	// SearchTerm, when set, matches products whose name, description or SKU contains it.
	SearchTerm *string

	// LowStockOnly restricts the view to active products at or below their reorder level.
	LowStockOnly bool

	Ordering []Ordering
}

// QueryField names a product column that can be filtered or sorted on.
type QueryField string

// Operator is a comparison applied by a Condition.
type Operator string

// Condition compares a product field against a value.
type Condition struct {
	Field QueryField
	Op    Operator
	Value any
}

// Ordering sorts the view by a field in ascending order.
type Ordering struct {
	Field QueryField
}

func NewQuery() *Query {
	return &Query{}
}

// With adds an equality condition.
func (q *Query) With(field QueryField, val any) *Query {
	return q.Where(field, Equal, val)
}

func (q *Query) Where(field QueryField, op Operator, val any) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: val})
	return q
}

func (q *Query) Matching(term string) *Query {
	q.SearchTerm = &term
	return q
}

func (q *Query) LowStock() *Query {
	q.LowStockOnly = true
	return q
}

func (q *Query) OrderBy(field QueryField) *Query {
	q.Ordering = append(q.Ordering, Ordering{Field: field})
	return q
}
