package schema

// ExpandColumnHints returns the column in working form: every hint flag that
// is absent is set to its default (false), values already present win.
// Expanding an already expanded column changes nothing.
func ExpandColumnHints(c Column) Column {
	c.Partition = orDefault(c.Partition)
	c.Cluster = orDefault(c.Cluster)
	c.Unique = orDefault(c.Unique)
	c.Sort = orDefault(c.Sort)
	c.PrimaryKey = orDefault(c.PrimaryKey)
	c.ForeignKey = orDefault(c.ForeignKey)
	return c
}

func orDefault(h *bool) *bool {
	if h != nil {
		return h
	}
	v := false
	return &v
}

// ApplyDefaults brings a schema into working form in place: table and column
// names are overwritten from their map keys, root tables without an explicit
// write disposition get "append", and every column is expanded. The caller
// owns the schema for the duration of the call.
func ApplyDefaults(s *StoredSchema) {
	for tableName, table := range s.Tables {
		table.Name = tableName
		if table.IsRoot() && table.WriteDisposition == "" {
			table.WriteDisposition = DispositionAppend
		}
		for columnName, column := range table.Columns {
			column = ExpandColumnHints(column)
			column.Name = columnName
			table.Columns[columnName] = column
		}
		s.Tables[tableName] = table
	}
}

// RemoveDefaults collapses tables into stored form on a deep copy: table and
// column names are dropped (the map key is authoritative), and every hint
// flag holding its default value is elided. Nullable is kept regardless of
// value. The input is never modified; callers replace their Tables map with
// the returned one before serializing.
func RemoveDefaults(tables map[string]Table) map[string]Table {
	clean := make(map[string]Table, len(tables))
	for tableName, table := range tables {
		t := table.Clone()
		t.Name = ""
		for columnName, column := range t.Columns {
			column.Name = ""
			column.Partition = dropDefault(column.Partition)
			column.Cluster = dropDefault(column.Cluster)
			column.Unique = dropDefault(column.Unique)
			column.Sort = dropDefault(column.Sort)
			column.PrimaryKey = dropDefault(column.PrimaryKey)
			column.ForeignKey = dropDefault(column.ForeignKey)
			t.Columns[columnName] = column
		}
		clean[tableName] = t
	}
	return clean
}

func dropDefault(h *bool) *bool {
	if h != nil && !*h {
		return nil
	}
	return h
}
