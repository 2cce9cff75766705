// Package schema holds the stored schema model for tabular loads: the
// document structure persisted between runs, hint normalization between
// stored and working form, and the engine-version migration chain that
// brings legacy documents up to the current shape.
package schema

// EngineVersion is the current schema document version. Documents at an
// older version are migrated by Upgrade before use.
const EngineVersion = 3

// DataType is the logical type assigned to a column. Values loaded into a
// column are coerced to its logical type before they reach a destination.
type DataType string

const (
	TypeText      DataType = "text"
	TypeBigInt    DataType = "bigint"
	TypeDouble    DataType = "double"
	TypeBool      DataType = "bool"
	TypeBinary    DataType = "binary"
	TypeComplex   DataType = "complex"
	TypeDecimal   DataType = "decimal"
	TypeTimestamp DataType = "timestamp"
	TypeWei       DataType = "wei"
)

// DataTypes lists every logical type in a stable order.
var DataTypes = []DataType{
	TypeText, TypeBigInt, TypeDouble, TypeBool, TypeBinary,
	TypeComplex, TypeDecimal, TypeTimestamp, TypeWei,
}

// Valid reports whether t is one of the known logical types.
func (t DataType) Valid() bool {
	for _, known := range DataTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Write dispositions. Only root tables carry a disposition of their own;
// child tables inherit from their root at load time.
const (
	DispositionAppend  = "append"
	DispositionReplace = "replace"
	DispositionSkip    = "skip"
)

// Column describes a single column. The six hint flags are pointers so the
// stored form can distinguish "absent" from an explicit value: a nil hint is
// elided on disk, an expanded (working form) column carries all six non-nil.
// Nullable has no defaulted form and is always serialized.
type Column struct {
	Name       string   `yaml:"name,omitempty" json:"name,omitempty"`
	DataType   DataType `yaml:"data_type" json:"data_type"`
	Nullable   bool     `yaml:"nullable" json:"nullable"`
	Partition  *bool    `yaml:"partition,omitempty" json:"partition,omitempty"`
	Cluster    *bool    `yaml:"cluster,omitempty" json:"cluster,omitempty"`
	Unique     *bool    `yaml:"unique,omitempty" json:"unique,omitempty"`
	Sort       *bool    `yaml:"sort,omitempty" json:"sort,omitempty"`
	PrimaryKey *bool    `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	ForeignKey *bool    `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"`
}

// Clone returns a deep copy of the column, including fresh hint pointers.
func (c Column) Clone() Column {
	out := c
	out.Partition = cloneHint(c.Partition)
	out.Cluster = cloneHint(c.Cluster)
	out.Unique = cloneHint(c.Unique)
	out.Sort = cloneHint(c.Sort)
	out.PrimaryKey = cloneHint(c.PrimaryKey)
	out.ForeignKey = cloneHint(c.ForeignKey)
	return out
}

func cloneHint(h *bool) *bool {
	if h == nil {
		return nil
	}
	v := *h
	return &v
}

// Table describes one table of the schema. Name is redundant with the key
// under StoredSchema.Tables and is always overwritten from that key; the
// stored field is never trusted on its own.
type Table struct {
	Name             string              `yaml:"name,omitempty" json:"name,omitempty"`
	Description      string              `yaml:"description,omitempty" json:"description,omitempty"`
	Parent           string              `yaml:"parent,omitempty" json:"parent,omitempty"`
	WriteDisposition string              `yaml:"write_disposition,omitempty" json:"write_disposition,omitempty"`
	Filters          map[string][]string `yaml:"filters,omitempty" json:"filters,omitempty"`
	Columns          map[string]Column   `yaml:"columns" json:"columns"`
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := t
	out.Columns = make(map[string]Column, len(t.Columns))
	for name, col := range t.Columns {
		out.Columns[name] = col.Clone()
	}
	if t.Filters != nil {
		out.Filters = make(map[string][]string, len(t.Filters))
		for group, patterns := range t.Filters {
			out.Filters[group] = append([]string(nil), patterns...)
		}
	}
	return out
}

// IsRoot reports whether the table has no parent and therefore owns its own
// write disposition.
func (t Table) IsRoot() bool {
	return t.Parent == ""
}

// Normalizers names the identifier and document normalization strategies a
// schema was produced with. They travel with the document so rows normalized
// under one strategy are never mixed with another.
type Normalizers struct {
	Names string         `yaml:"names" json:"names"`
	JSON  JSONNormalizer `yaml:"json" json:"json"`
}

// JSONNormalizer selects the document flattening strategy plus its config,
// such as root field propagation rules.
type JSONNormalizer struct {
	Module string         `yaml:"module" json:"module"`
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// Settings carries schema-wide defaults: hints applied to matching column
// names and preferred types for matching columns.
type Settings struct {
	DefaultHints   map[string][]string `yaml:"default_hints" json:"default_hints"`
	PreferredTypes map[string]DataType `yaml:"preferred_types" json:"preferred_types"`
}

// StoredSchema is the persisted schema document. EngineVersion determines
// which top-level keys are present; see Upgrade for the migration chain.
type StoredSchema struct {
	Name          string           `yaml:"name" json:"name"`
	EngineVersion int              `yaml:"engine_version" json:"engine_version"`
	Tables        map[string]Table `yaml:"tables" json:"tables"`
	Normalizers   Normalizers      `yaml:"normalizers" json:"normalizers"`
	Settings      Settings         `yaml:"settings" json:"settings"`
}

// NewStoredSchema creates an empty schema at the current engine version with
// the default normalizers and the two system tables.
func NewStoredSchema(name string) *StoredSchema {
	name = NormalizeName(name)
	s := &StoredSchema{
		Name:          name,
		EngineVersion: EngineVersion,
		Tables: map[string]Table{
			VersionTableName: VersionTable(),
			LoadsTableName:   LoadTable(),
		},
		Normalizers: DefaultNormalizers(),
		Settings: Settings{
			DefaultHints:   map[string][]string{},
			PreferredTypes: map[string]DataType{},
		},
	}
	ApplyDefaults(s)
	return s
}

// DefaultNormalizers returns the normalizer configuration assigned to new
// schemas and to legacy documents during migration. The propagation rule
// copies the root record hash into child rows.
func DefaultNormalizers() Normalizers {
	return Normalizers{
		Names: "snake_case",
		JSON: JSONNormalizer{
			Module: "relational",
			Config: map[string]any{
				"propagation": map[string]any{
					"root": map[string]any{
						"_record_hash": "_root_hash",
					},
				},
			},
		},
	}
}
