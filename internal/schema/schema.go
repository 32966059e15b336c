package schema

// Version is the schema version written into every store and every exported
// manifest. Bump on any change to the table declarations below.
const Version = 1

// Type is the semantic type of a column. The codec uses it to validate and
// canonicalise field values.
type Type string

const (
	TypeText    Type = "text"
	TypeInt     Type = "int"
	TypeDecimal Type = "decimal"
	TypeTime    Type = "time"
)

// Column declares one column of a table.
type Column struct {
	Name string `yaml:"name"`
	Type Type   `yaml:"type"`
}

// Table declares one table: its name and ordered column list. The first
// column is the canonical sort key for export.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// Key returns the name of the table's canonical sort key column.
func (t Table) Key() string {
	return t.Columns[0].Name
}

// ColumnNames returns the ordered column names.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Table names, in dependency order. Instruments and accounts must be
// populated before transactions so referential checks hold on import.
const (
	TableInstrument  = "instrument"
	TableAccount     = "account"
	TableTransaction = "tx"
)

var tables = []Table{
	{
		Name: TableInstrument,
		Columns: []Column{
			{Name: "id", Type: TypeText},
			{Name: "name", Type: TypeText},
			{Name: "currency", Type: TypeText},
		},
	},
	{
		Name: TableAccount,
		Columns: []Column{
			{Name: "id", Type: TypeText},
			{Name: "broker", Type: TypeText},
			{Name: "currency", Type: TypeText},
		},
	},
	{
		Name: TableTransaction,
		Columns: []Column{
			{Name: "id", Type: TypeText},
			{Name: "seq", Type: TypeInt},
			{Name: "account_id", Type: TypeText},
			{Name: "instrument_id", Type: TypeText},
			{Name: "side", Type: TypeText},
			{Name: "quantity", Type: TypeDecimal},
			{Name: "unit_price", Type: TypeDecimal},
			{Name: "currency", Type: TypeText},
			{Name: "fee", Type: TypeDecimal},
			{Name: "ts", Type: TypeTime},
		},
	},
}

// Tables returns the registry's tables in dependency order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// Lookup returns the declaration of the named table.
func Lookup(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
