package core

// Schema represents the structure of a database table.
type Schema struct {
	// TableName is the name of the table.
	TableName string

	// PrimaryKey is the name of the primary key column, if the table has one.
	PrimaryKey string

	// Columns contains all column definitions for the table.
	Columns []Column

	// Indexes contains all index definitions for the table.
	Indexes []Index
}

// Column describes one column of a tabular result.
type Column struct {
	// Name is the column name as reported by the source.
	Name string

	// Label is the display label. Falls back to Name when empty.
	Label string

	// TableName is the table the column was read from, if known.
	TableName string

	// Type is the database type name (e.g., "INT", "VARCHAR", "TIMESTAMP").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool

	// Precision and Scale are reported for numeric columns; zero when unknown.
	Precision int
	Scale     int

	// Default is the default value for the column, if any.
	Default interface{}
}

// DisplayLabel returns Label, or Name when no label is set.
func (c Column) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// Index represents a database index.
type Index struct {
	// Name is the index name.
	Name string

	// Columns are the column names that make up this index.
	Columns []string

	// Unique indicates whether this is a unique index.
	Unique bool

	// Primary indicates whether this is the primary key index.
	Primary bool
}
