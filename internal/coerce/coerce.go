package coerce

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabload/tabload/internal/schema"
)

// Coerce converts a value from one logical type to another. Complex values
// are always rendered as their JSON text, never stored as native
// structures. Conversions outside the defined matrix return an
// UnsupportedCoercionError; textual values that fail to parse under the
// active rule return a MalformedLiteralError.
func Coerce(to, from schema.DataType, value any) (any, error) {
	if to == from {
		if to == schema.TypeComplex {
			return jsonText(value)
		}
		return value, nil
	}

	switch to {
	case schema.TypeText:
		if from == schema.TypeComplex {
			return jsonText(value)
		}
		return naturalText(value), nil

	case schema.TypeBinary:
		switch from {
		case schema.TypeText:
			if s, ok := asString(value); ok {
				return textToBinary(s)
			}
		case schema.TypeBigInt:
			if n, ok := asInt64(value); ok {
				return intToBinary(n, value)
			}
		}

	case schema.TypeBigInt, schema.TypeWei:
		switch from {
		case schema.TypeBigInt:
			return value, nil
		case schema.TypeDecimal:
			if d, ok := asDecimal(value); ok {
				if !d.IsInteger() {
					return nil, unsupported(to, from, value)
				}
				if to == schema.TypeWei {
					return d.BigInt(), nil
				}
				return d.IntPart(), nil
			}
		case schema.TypeDouble:
			if f, ok := asFloat64(value); ok {
				if math.Trunc(f) != f {
					return nil, unsupported(to, from, value)
				}
				if to == schema.TypeWei {
					n, _ := big.NewFloat(f).Int(nil)
					return n, nil
				}
				return int64(f), nil
			}
		case schema.TypeText:
			if s, ok := asString(value); ok {
				return textToInteger(to, s)
			}
		}

	case schema.TypeDouble:
		switch from {
		case schema.TypeBigInt, schema.TypeWei, schema.TypeDecimal:
			if f, ok := numericFloat(value); ok {
				return f, nil
			}
		case schema.TypeText:
			if s, ok := asString(value); ok {
				return textToDouble(s)
			}
		}

	case schema.TypeDecimal:
		switch from {
		case schema.TypeBigInt, schema.TypeWei:
			return value, nil
		case schema.TypeDouble:
			if f, ok := asFloat64(value); ok {
				return decimal.NewFromFloat(f), nil
			}
		case schema.TypeText:
			if s, ok := asString(value); ok {
				return textToDecimal(s)
			}
		}

	case schema.TypeTimestamp:
		switch from {
		case schema.TypeBigInt:
			if n, ok := asInt64(value); ok {
				return FromEpochInt(n), nil
			}
		case schema.TypeDouble:
			if f, ok := asFloat64(value); ok {
				return FromEpochFloat(f), nil
			}
		case schema.TypeText:
			if s, ok := asString(value); ok {
				return textToTimestamp(s)
			}
		}
	}

	return nil, unsupported(to, from, value)
}

func unsupported(to, from schema.DataType, value any) error {
	return &UnsupportedCoercionError{From: from, To: to, Value: value}
}

func textToBinary(s string) (any, error) {
	if strings.HasPrefix(s, "0x") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, malformed("hex", s, err)
		}
		return b, nil
	}
	b, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, malformed("base64", s, err)
	}
	return b, nil
}

// intToBinary renders a non-negative integer as its little-endian minimal
// byte representation. Zero has no bytes.
func intToBinary(n int64, value any) (any, error) {
	if n < 0 {
		return nil, unsupported(schema.TypeBinary, schema.TypeBigInt, value)
	}
	b := []byte{}
	for v := uint64(n); v > 0; v >>= 8 {
		b = append(b, byte(v))
	}
	return b, nil
}

func textToInteger(to schema.DataType, s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	if to == schema.TypeWei {
		n := new(big.Int)
		var ok bool
		if strings.HasPrefix(trimmed, "0x") {
			_, ok = n.SetString(trimmed[2:], 16)
		} else {
			_, ok = n.SetString(trimmed, 10)
		}
		if !ok {
			return nil, malformed("integer", s, nil)
		}
		return n, nil
	}
	if strings.HasPrefix(trimmed, "0x") {
		n, err := strconv.ParseInt(trimmed[2:], 16, 64)
		if err != nil {
			return nil, malformed("hex integer", s, err)
		}
		return n, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, malformed("integer", s, err)
	}
	return n, nil
}

func textToDouble(s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "0x") {
		n, err := strconv.ParseInt(trimmed[2:], 16, 64)
		if err != nil {
			return nil, malformed("hex integer", s, err)
		}
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, malformed("float", s, err)
	}
	return f, nil
}

func textToDecimal(s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "0x") {
		n, err := strconv.ParseInt(trimmed[2:], 16, 64)
		if err != nil {
			return nil, malformed("hex integer", s, err)
		}
		return n, nil
	}
	if !strings.ContainsAny(trimmed, ".e") {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, malformed("integer", s, err)
		}
		return n, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, malformed("decimal", s, err)
	}
	return d, nil
}

func textToTimestamp(s string) (any, error) {
	// an already valid ISO-8601 string passes through unchanged
	if IsISO8601(s) {
		return s, nil
	}
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return FromEpochInt(n), nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, malformed("timestamp", s, err)
	}
	return FromEpochFloat(f), nil
}

func jsonText(value any) (any, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize complex value: %w", err)
	}
	return string(b), nil
}

// naturalText renders a value in its natural textual representation.
func naturalText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case decimal.Decimal:
		return v.String()
	case *decimal.Decimal:
		return v.String()
	case *big.Int:
		return v.String()
	case time.Time:
		return epochText(v.UTC())
	}
	if n, ok := asInt64(value); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(value)
}

func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func asDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		return *v, true
	}
	return decimal.Decimal{}, false
}

// numericFloat widens any integer, wei or decimal runtime value to float64.
func numericFloat(value any) (float64, bool) {
	if n, ok := asInt64(value); ok {
		return float64(n), true
	}
	if b, ok := value.(*big.Int); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, true
	}
	if d, ok := asDecimal(value); ok {
		return d.InexactFloat64(), true
	}
	return 0, false
}
