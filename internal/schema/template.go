package schema

// Names of the two system tables every schema carries.
const (
	VersionTableName = "_tabload_version"
	LoadsTableName   = "_tabload_loads"
)

// NewTable constructs a table with the given columns keyed by their own
// name. Root tables (empty parent) get the default append disposition; child
// tables carry no disposition of their own.
func NewTable(name, parent string, columns []Column) Table {
	t := Table{
		Name:    name,
		Columns: make(map[string]Column, len(columns)),
	}
	for _, c := range columns {
		t.Columns[c.Name] = c
	}
	if parent != "" {
		t.Parent = parent
	} else {
		t.WriteDisposition = DispositionAppend
	}
	return t
}

// VersionTable returns the system table tracking schema updates. Every
// column is in working form.
func VersionTable() Table {
	return Table{
		Name:             VersionTableName,
		Description:      "Created by tabload. Tracks schema updates",
		WriteDisposition: DispositionSkip,
		Columns: map[string]Column{
			"version": ExpandColumnHints(Column{
				Name:     "version",
				DataType: TypeBigInt,
				Nullable: false,
			}),
			"engine_version": ExpandColumnHints(Column{
				Name:     "engine_version",
				DataType: TypeBigInt,
				Nullable: false,
			}),
			"inserted_at": ExpandColumnHints(Column{
				Name:     "inserted_at",
				DataType: TypeTimestamp,
				Nullable: false,
			}),
		},
	}
}

// LoadTable returns the system table tracking completed load batches. Every
// column is in working form.
func LoadTable() Table {
	return Table{
		Name:             LoadsTableName,
		Description:      "Created by tabload. Tracks completed loads",
		WriteDisposition: DispositionSkip,
		Columns: map[string]Column{
			"load_id": ExpandColumnHints(Column{
				Name:     "load_id",
				DataType: TypeText,
				Nullable: false,
			}),
			"status": ExpandColumnHints(Column{
				Name:     "status",
				DataType: TypeBigInt,
				Nullable: false,
			}),
			"inserted_at": ExpandColumnHints(Column{
				Name:     "inserted_at",
				DataType: TypeTimestamp,
				Nullable: false,
			}),
		},
	}
}
