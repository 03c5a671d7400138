package catalog

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ParamType is the declared data type of a step parameter.
type ParamType string

const (
	ParamNumber  ParamType = "NUMBER"
	ParamText    ParamType = "TEXT"
	ParamBoolean ParamType = "BOOLEAN"
	ParamSelect  ParamType = "SELECT"
)

// ErrInvalidParamValue is returned when a raw value does not fit its parameter type.
var ErrInvalidParamValue = errors.New("invalid parameter value")

// ParseParamType accepts the canonical names plus the loose aliases older
// seed files use (integer, float, string, bool).
func ParseParamType(raw string) (ParamType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NUMBER", "INTEGER", "INT", "FLOAT", "DECIMAL":
		return ParamNumber, nil
	case "TEXT", "STRING":
		return ParamText, nil
	case "BOOLEAN", "BOOL":
		return ParamBoolean, nil
	case "SELECT", "ENUM":
		return ParamSelect, nil
	default:
		return "", fmt.Errorf("unknown parameter type %q", raw)
	}
}

// ParamValue is a tagged parameter value. The zero value is null.
type ParamValue struct {
	typ  ParamType
	num  float64
	text string
	flag bool
}

func Number(v float64) ParamValue { return ParamValue{typ: ParamNumber, num: v} }
func Text(v string) ParamValue    { return ParamValue{typ: ParamText, text: v} }
func Bool(v bool) ParamValue      { return ParamValue{typ: ParamBoolean, flag: v} }
func Select(v string) ParamValue  { return ParamValue{typ: ParamSelect, text: v} }

func (v ParamValue) IsNull() bool    { return v.typ == "" }
func (v ParamValue) Type() ParamType { return v.typ }

func (v ParamValue) Float() (float64, bool) {
	return v.num, v.typ == ParamNumber
}

func (v ParamValue) Equal(o ParamValue) bool {
	return v == o
}

// Raw returns the bare Go value: float64, string, bool, or nil.
func (v ParamValue) Raw() any {
	switch v.typ {
	case ParamNumber:
		return v.num
	case ParamText, ParamSelect:
		return v.text
	case ParamBoolean:
		return v.flag
	default:
		return nil
	}
}

func (v ParamValue) String() string {
	switch v.typ {
	case ParamNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ParamText, ParamSelect:
		return v.text
	case ParamBoolean:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// FromAny coerces a decoded JSON or YAML value into typ. nil yields null.
// Numeric strings are accepted for NUMBER, "true"/"false" for BOOLEAN.
func FromAny(typ ParamType, raw any) (ParamValue, error) {
	if raw == nil {
		return ParamValue{}, nil
	}
	switch typ {
	case ParamNumber:
		switch x := raw.(type) {
		case float64:
			return Number(x), nil
		case float32:
			return Number(float64(x)), nil
		case int:
			return Number(float64(x)), nil
		case int64:
			return Number(float64(x)), nil
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return ParamValue{}, fmt.Errorf("%w: %q is not a number", ErrInvalidParamValue, x.String())
			}
			return Number(f), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return ParamValue{}, fmt.Errorf("%w: %q is not a number", ErrInvalidParamValue, x)
			}
			return Number(f), nil
		}
	case ParamText:
		switch x := raw.(type) {
		case string:
			return Text(x), nil
		case float64, int, int64, json.Number:
			return Text(fmt.Sprint(x)), nil
		}
	case ParamBoolean:
		switch x := raw.(type) {
		case bool:
			return Bool(x), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return ParamValue{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidParamValue, x)
			}
			return Bool(b), nil
		}
	case ParamSelect:
		if x, ok := raw.(string); ok && strings.TrimSpace(x) != "" {
			return Select(strings.TrimSpace(x)), nil
		}
	default:
		return ParamValue{}, fmt.Errorf("%w: unknown type %q", ErrInvalidParamValue, typ)
	}
	return ParamValue{}, fmt.Errorf("%w: %v does not fit %s", ErrInvalidParamValue, raw, typ)
}

// Parse decodes a JSON payload for a parameter of type typ. Both bare values
// and the {"type","value"} envelope are accepted.
func Parse(typ ParamType, raw json.RawMessage) (ParamValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ParamValue{}, nil
	}
	if raw[0] == '{' {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return ParamValue{}, fmt.Errorf("%w: %v", ErrInvalidParamValue, err)
		}
		if env.Type != "" && env.Type != typ {
			return ParamValue{}, fmt.Errorf("%w: got %s, parameter is %s", ErrInvalidParamValue, env.Type, typ)
		}
		raw = env.Value
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ParamValue{}, fmt.Errorf("%w: %v", ErrInvalidParamValue, err)
	}
	return FromAny(typ, decoded)
}

// ParseWithOptions is Parse plus the SELECT membership check.
func ParseWithOptions(typ ParamType, options []string, raw json.RawMessage) (ParamValue, error) {
	v, err := Parse(typ, raw)
	if err != nil {
		return ParamValue{}, err
	}
	if err := v.CheckOptions(options); err != nil {
		return ParamValue{}, err
	}
	return v, nil
}

// CheckOptions rejects a SELECT value that is not one of options. Null,
// non-SELECT values and an empty option list pass.
func (v ParamValue) CheckOptions(options []string) error {
	if v.typ != ParamSelect || len(options) == 0 {
		return nil
	}
	for _, o := range options {
		if strings.TrimSpace(o) == v.text {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not one of %s", ErrInvalidParamValue, v.text, strings.Join(options, ", "))
}

// DecodeOptions reads a JSON array of option names. Empty or malformed input yields nil.
func DecodeOptions(raw []byte) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

type envelope struct {
	Type  ParamType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v ParamValue) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	val, err := json.Marshal(v.Raw())
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: v.typ, Value: val})
}

func (v *ParamValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ParamValue{}
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	parsed, err := Parse(env.Type, env.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v ParamValue) Value() (driver.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *ParamValue) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		*v = ParamValue{}
		return nil
	case []byte:
		return v.UnmarshalJSON(x)
	case string:
		return v.UnmarshalJSON([]byte(x))
	default:
		return fmt.Errorf("cannot scan %T into ParamValue", src)
	}
}

func (ParamValue) GormDataType() string { return "json" }

func (ParamValue) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "sqlite":
		return "JSON"
	default:
		return "TEXT"
	}
}
