package examples

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/nisimpson/dynaread"
	"github.com/nisimpson/dynaread/dynamock"
)

// Customer is stored in the "Customers" table, keyed by "id".
type Customer struct {
	ID    string `dynamodbav:"id"`
	Email string `dynamodbav:"email"`
	Tier  string `dynamodbav:"tier"`
}

func (c Customer) MarshalKey() (dynaread.Key, error) {
	if c.ID == "" {
		return dynaread.Key{}, errors.New("customer id is required")
	}
	return dynaread.Key{PartitionValue: c.ID}, nil
}

// Order is stored in the "Orders" table, keyed by "id".
type Order struct {
	ID         string `dynamodbav:"id"`
	CustomerID string `dynamodbav:"customer_id"`
	Status     string `dynamodbav:"status"`
}

func (o Order) MarshalKey() (dynaread.Key, error) {
	if o.ID == "" {
		return dynaread.Key{}, errors.New("order id is required")
	}
	return dynaread.Key{PartitionValue: o.ID}, nil
}

// LineItem is stored in the "LineItems" table, keyed by "order_id" and "line".
type LineItem struct {
	OrderID  string `dynamodbav:"order_id"`
	Line     int    `dynamodbav:"line"`
	SKU      string `dynamodbav:"sku"`
	Quantity int    `dynamodbav:"quantity"`
}

func (l LineItem) MarshalKey() (dynaread.Key, error) {
	if l.OrderID == "" {
		return dynaread.Key{}, errors.New("order id is required")
	}
	return dynaread.Key{PartitionValue: l.OrderID, SortValue: l.Line}, nil
}

// Tables

func CustomersTable() *dynaread.Table {
	return dynaread.NewTable("Customers", dynaread.NewKeySchema("id"))
}

func OrdersTable() *dynaread.Table {
	return dynaread.NewTable("Orders", dynaread.NewKeySchema("id"))
}

func LineItemsTable() *dynaread.Table {
	return dynaread.NewTable("LineItems", dynaread.NewKeySchema("order_id", "line"))
}

// OrderBuilder provides a fluent API for building test orders and their
// line items.
type OrderBuilder struct {
	order Order
	lines []LineItem
}

// NewOrder creates a new order builder.
func NewOrder() *OrderBuilder {
	return &OrderBuilder{
		order: Order{Status: "pending"},
	}
}

// WithID sets the order ID.
func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.order.ID = id
	return b
}

// WithCustomerID sets the customer ID.
func (b *OrderBuilder) WithCustomerID(customerID string) *OrderBuilder {
	b.order.CustomerID = customerID
	return b
}

// Shipped marks the order as shipped.
func (b *OrderBuilder) Shipped() *OrderBuilder {
	b.order.Status = "shipped"
	return b
}

// WithLine adds a line item. Lines are numbered from 1 in the order added.
func (b *OrderBuilder) WithLine(sku string, quantity int) *OrderBuilder {
	b.lines = append(b.lines, LineItem{
		Line:     len(b.lines) + 1,
		SKU:      sku,
		Quantity: quantity,
	})
	return b
}

// Build returns the order and its line items.
func (b *OrderBuilder) Build() (Order, []LineItem) {
	lines := make([]LineItem, len(b.lines))
	for i, line := range b.lines {
		line.OrderID = b.order.ID
		lines[i] = line
	}
	return b.order, lines
}

// CustomerBuilder provides a fluent API for building test customers.
type CustomerBuilder struct {
	customer Customer
}

// NewCustomer creates a new customer builder.
func NewCustomer() *CustomerBuilder {
	return &CustomerBuilder{
		customer: Customer{Tier: "standard"},
	}
}

// WithID sets the customer ID.
func (b *CustomerBuilder) WithID(id string) *CustomerBuilder {
	b.customer.ID = id
	return b
}

// WithEmail sets the customer email.
func (b *CustomerBuilder) WithEmail(email string) *CustomerBuilder {
	b.customer.Email = email
	return b
}

// Premium sets the customer as premium tier.
func (b *CustomerBuilder) Premium() *CustomerBuilder {
	b.customer.Tier = "premium"
	return b
}

// Build returns the customer.
func (b *CustomerBuilder) Build() Customer {
	return b.customer
}

// Store

// NewStore returns an in-memory client holding the three tables of the
// store, seeded with:
//
//	Customers: C1 (premium), C2
//	Orders:    O1 (C1, two lines), O2 (C1, shipped, one line), O3 (C2, no lines)
func NewStore(t *testing.T) *dynamock.MemoryClient {
	t.Helper()

	mem := dynamock.NewMemoryClient().
		CreateTable("Customers", dynaread.NewKeySchema("id")).
		CreateTable("Orders", dynaread.NewKeySchema("id")).
		CreateTable("LineItems", dynaread.NewKeySchema("order_id", "line"))

	customers := []Customer{
		NewCustomer().WithID("C1").WithEmail("c1@example.com").Premium().Build(),
		NewCustomer().WithID("C2").WithEmail("c2@example.com").Build(),
	}

	o1, o1Lines := NewOrder().WithID("O1").WithCustomerID("C1").
		WithLine("SKU-1", 2).
		WithLine("SKU-2", 1).
		Build()
	o2, o2Lines := NewOrder().WithID("O2").WithCustomerID("C1").Shipped().
		WithLine("SKU-3", 5).
		Build()
	o3, _ := NewOrder().WithID("O3").WithCustomerID("C2").Build()

	seed := map[string][]any{
		"Customers": {customers[0], customers[1]},
		"Orders":    {o1, o2, o3},
		"LineItems": {o1Lines[0], o1Lines[1], o2Lines[0]},
	}

	for tableName, values := range seed {
		for _, value := range values {
			item, err := attributevalue.MarshalMap(value)
			if err != nil {
				t.Fatalf("failed to marshal %T: %v", value, err)
			}
			if err := mem.Put(tableName, item); err != nil {
				t.Fatalf("failed to seed %s: %v", tableName, err)
			}
		}
	}

	return mem
}
