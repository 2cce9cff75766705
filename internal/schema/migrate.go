package schema

import (
	"fmt"
	"strings"
)

// Upgrade walks a raw schema document from one engine version to another
// through the ordered migration chain. It operates on the untyped document
// form because legacy versions have shapes the typed structs cannot carry.
// The document is mutated in place and returned; ownership stays with the
// caller. When fromVersion equals toVersion the document is returned
// untouched. If the chain runs out before reaching toVersion an
// UnsupportedUpgradePathError is returned.
func Upgrade(doc map[string]any, fromVersion, toVersion int) (map[string]any, error) {
	if fromVersion == toVersion {
		return doc, nil
	}

	if fromVersion == 1 && toVersion > 1 {
		// v2 introduced top-level legacy filter storage
		doc["engine_version"] = 2
		doc["includes"] = []any{}
		doc["excludes"] = []any{}
		fromVersion = 2
	}
	if fromVersion == 2 && toVersion > 2 {
		upgradeToV3(doc)
		fromVersion = 3
	}

	if fromVersion != toVersion {
		name, _ := doc["name"].(string)
		return nil, &UnsupportedUpgradePathError{
			SchemaName: name,
			Reached:    fromVersion,
			Target:     toVersion,
		}
	}
	return doc, nil
}

// upgradeToV3 performs the 2 -> 3 step: default normalizers, legacy hints
// and preferred types moved under settings, flat double-underscore table
// names rebuilt into parent/child tables, and legacy root filters moved onto
// their owning tables.
func upgradeToV3(doc map[string]any) {
	doc["normalizers"] = map[string]any{
		"names": "snake_case",
		"json": map[string]any{
			"module": "relational",
			"config": map[string]any{
				"propagation": map[string]any{
					"root": map[string]any{
						"_record_hash": "_root_hash",
					},
				},
			},
		},
	}

	doc["settings"] = map[string]any{
		"default_hints":   popKey(doc, "hints", map[string]any{}),
		"preferred_types": popKey(doc, "preferred_types", map[string]any{}),
	}

	// Legacy tables are a flat mapping from name to a raw column mapping,
	// with ancestry encoded in "__" separated names.
	oldTables, _ := popKey(doc, "tables", map[string]any{}).(map[string]any)
	tables := make(map[string]any, len(oldTables))
	for name, columns := range oldTables {
		table := newTableDoc(name, findLegacyParent(name, oldTables))
		table["columns"] = columns
		tables[name] = table
	}
	doc["tables"] = tables

	excludes, _ := popKey(doc, "excludes", []any{}).([]any)
	migrateFilters("excludes", excludes, tables)
	includes, _ := popKey(doc, "includes", []any{}).([]any)
	migrateFilters("includes", includes, tables)

	doc["engine_version"] = 3
}

// findLegacyParent derives the structural parent of a "__" separated legacy
// table name: truncate at the last separator and keep shortening from the
// same point until an existing table is found. The first existing ancestor
// wins; when the search hits a leading or missing separator the table is
// root. Legacy compatibility logic, not meant to be extended.
func findLegacyParent(name string, tables map[string]any) string {
	parent := name
	for {
		idx := strings.LastIndex(parent, "__")
		if idx > 0 {
			parent = parent[:idx]
			if _, exists := tables[parent]; !exists {
				continue
			}
		} else {
			parent = ""
		}
		return parent
	}
}

// migrateFilters moves legacy top-level filter patterns ("^root__path") onto
// the root table each pattern names, rewriting the pattern relative to that
// table ("^path"). Roots referenced only by filters are synthesized empty.
func migrateFilters(group string, patterns []any, tables map[string]any) {
	for _, raw := range patterns {
		pattern, ok := raw.(string)
		if !ok {
			continue
		}
		root, path, _ := strings.Cut(strings.TrimPrefix(pattern, "^"), "__")

		table, ok := tables[root].(map[string]any)
		if !ok {
			table = newTableDoc(root, "")
			tables[root] = table
		}
		filters, ok := table["filters"].(map[string]any)
		if !ok {
			filters = map[string]any{}
			table["filters"] = filters
		}
		seq, _ := filters[group].([]any)
		filters[group] = append(seq, "^"+path)
	}
}

// newTableDoc is the untyped counterpart of NewTable for use inside
// migrations.
func newTableDoc(name, parent string) map[string]any {
	table := map[string]any{
		"name":    name,
		"columns": map[string]any{},
	}
	if parent != "" {
		table["parent"] = parent
	} else {
		table["write_disposition"] = DispositionAppend
	}
	return table
}

func popKey(doc map[string]any, key string, fallback any) any {
	value, ok := doc[key]
	delete(doc, key)
	if !ok || value == nil {
		return fallback
	}
	return value
}

// StoredEngineVersion reads the engine_version field of a raw document,
// tolerating the numeric types the YAML and JSON decoders produce.
func StoredEngineVersion(doc map[string]any) (int, error) {
	switch v := doc["engine_version"].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("schema document has no engine_version")
	default:
		return 0, fmt.Errorf("schema document has non-numeric engine_version %v", v)
	}
}
