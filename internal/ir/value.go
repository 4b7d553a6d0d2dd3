package ir

import (
	"fmt"
	"math"
	"strconv"
)

// IRValue is a sealed interface representing constant values that may appear
// in a predicate. Only IRNull, IRString, IRInt, IRFloat and IRBool implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents the SQL NULL literal.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string constant.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer constant.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a floating point constant.
// NaN and infinities cannot be rendered as SQL literals and are rejected by FromGo.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean constant.
type IRBool bool

func (IRBool) irValue() {}

// Type names reported by TypeName. They match the scalar type names used in
// schema column declarations.
const (
	TypeNull   = "null"
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
)

// TypeName returns the scalar type name of v.
func TypeName(v IRValue) string {
	switch v.(type) {
	case IRNull, nil:
		return TypeNull
	case IRString:
		return TypeString
	case IRInt:
		return TypeInt
	case IRFloat:
		return TypeFloat
	case IRBool:
		return TypeBool
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IsNull reports whether v is the null constant. A nil interface counts as null.
func IsNull(v IRValue) bool {
	switch v.(type) {
	case IRNull, nil:
		return true
	default:
		return false
	}
}

// FromGo converts a native Go value into an IRValue.
// Supports nil, string, bool, the signed and unsigned integer kinds and finite floats.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int8:
		return IRInt(val), nil
	case int16:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint8:
		return IRInt(val), nil
	case uint16:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return IRInt(val), nil
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}

func fromFloat(f float64) (IRValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v cannot be a constant", f)
	}
	return IRFloat(f), nil
}

// ToGo converts an IRValue back into its native Go representation.
// IRNull becomes nil.
func ToGo(v IRValue) any {
	switch val := v.(type) {
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRBool:
		return bool(val)
	default:
		return nil
	}
}

// String renders v for diagnostics. It is not a SQL literal; dialects own that.
func String(v IRValue) string {
	switch val := v.(type) {
	case IRString:
		return strconv.Quote(string(val))
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRFloat:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case IRBool:
		return strconv.FormatBool(bool(val))
	default:
		return "null"
	}
}
