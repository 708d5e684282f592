package dynaread

// Table describes a DynamoDB table that reads are addressed to.
type Table struct {
	Name      string    `validate:"required"` // Table name
	Schema    Schema    `validate:"required"` // Converts keys into key attributes
	Extension Extension // Optional hook applied to every item read
}

// NewTable creates a new Table with the given name and schema.
func NewTable(name string, schema Schema) *Table {
	return &Table{
		Name:   name,
		Schema: schema,
	}
}

// Validate checks that the table is named and has a schema. If the schema
// can validate itself, it is validated as well.
func (t *Table) Validate() error {
	if t == nil {
		return NewValidationError("Table", "a table is required")
	}

	if err := validate.Struct(t); err != nil {
		return validationFailure(err)
	}

	if v, ok := t.Schema.(interface{ Validate() error }); ok {
		return v.Validate()
	}

	return nil
}

// ReadBatch groups reads addressed to this table for a [BatchGetRequest].
func (t *Table) ReadBatch(reads ...BatchableRead) ReadBatch {
	return ReadBatch{Table: t, Reads: reads}
}

// ReadTransaction binds read to this table for a [TransactGetRequest].
func (t *Table) ReadTransaction(read TransactReader) ReadTransaction {
	return ReadTransaction{Table: t, Read: read}
}

// operationContext returns the context of an operation on the primary index.
func (t *Table) operationContext() OperationContext {
	return OperationContext{
		TableName: t.Name,
		IndexName: PrimaryIndexName,
	}
}

// afterRead applies the table extension, if any, to an item read from the table.
func (t *Table) afterRead(item Item) (Item, error) {
	if t.Extension == nil || item == nil {
		return item, nil
	}
	return t.Extension.AfterRead(t.operationContext(), item)
}
