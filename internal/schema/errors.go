package schema

import "fmt"

// UnsupportedUpgradePathError is returned when the migration chain cannot
// carry a document from its version to the requested one. Reached is the
// version the chain actually arrived at before running out of steps.
type UnsupportedUpgradePathError struct {
	SchemaName string
	Reached    int
	Target     int
}

func (e *UnsupportedUpgradePathError) Error() string {
	return fmt.Sprintf(
		"schema %q: no upgrade path to engine version %d, migration stopped at version %d",
		e.SchemaName, e.Target, e.Reached,
	)
}

// InvalidSchemaError reports a structural violation in a stored schema
// document.
type InvalidSchemaError struct {
	SchemaName string
	Reason     string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.SchemaName, e.Reason)
}
