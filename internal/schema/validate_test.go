package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabload/tabload/internal/schema"
)

func validV3Doc() map[string]any {
	return map[string]any{
		"name":           "event",
		"engine_version": 3,
		"tables":         map[string]any{},
		"normalizers":    map[string]any{"names": "snake_case"},
		"settings":       map[string]any{},
	}
}

func TestValidateStored(t *testing.T) {
	require.NoError(t, schema.ValidateStored(validV3Doc()))
}

func TestValidateStoredExtensionKeysAllowed(t *testing.T) {
	doc := validV3Doc()
	doc["x-destination-hint"] = "anything"
	require.NoError(t, schema.ValidateStored(doc))
}

func TestValidateStoredRejectsUnknownKeys(t *testing.T) {
	doc := validV3Doc()
	doc["includes"] = []any{}

	err := schema.ValidateStored(doc)
	require.Error(t, err)

	var invalid *schema.InvalidSchemaError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "event", invalid.SchemaName)
	require.Contains(t, invalid.Reason, "includes")
}

func TestValidateStoredRejectsMissingKeys(t *testing.T) {
	doc := validV3Doc()
	delete(doc, "settings")
	require.Error(t, schema.ValidateStored(doc))
}

func TestValidateStoredRejectsUnknownVersion(t *testing.T) {
	doc := validV3Doc()
	doc["engine_version"] = 99
	require.Error(t, schema.ValidateStored(doc))
}

func TestValidateStoredLegacyShapes(t *testing.T) {
	v1 := map[string]any{
		"name":           "event",
		"engine_version": 1,
		"tables":         map[string]any{},
		"hints":          map[string]any{},
	}
	require.NoError(t, schema.ValidateStored(v1))

	v2 := map[string]any{
		"name":           "event",
		"engine_version": 2,
		"tables":         map[string]any{},
		"includes":       []any{},
		"excludes":       []any{},
	}
	require.NoError(t, schema.ValidateStored(v2))

	// v1 documents never carry v2-only keys
	v1["includes"] = []any{}
	require.Error(t, schema.ValidateStored(v1))
}
