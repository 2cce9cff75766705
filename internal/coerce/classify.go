package coerce

import (
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabload/tabload/internal/schema"
)

// Classify maps a native runtime value onto its logical column type. This is
// the single source of truth for the mapping; schema inference during
// loading goes through it.
func Classify(value any) schema.DataType {
	if value == nil {
		return schema.TypeText
	}
	switch value.(type) {
	case float32, float64:
		return schema.TypeDouble
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return schema.TypeBigInt
	case bool:
		return schema.TypeBool
	case []byte:
		return schema.TypeBinary
	case decimal.Decimal, *decimal.Decimal:
		return schema.TypeDecimal
	case *big.Int:
		return schema.TypeWei
	case time.Time:
		return schema.TypeTimestamp
	case map[string]any, []any:
		return schema.TypeComplex
	case string:
		return schema.TypeText
	}
	// uncommon map and slice shapes still count as complex
	switch reflect.TypeOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return schema.TypeComplex
	}
	return schema.TypeText
}
