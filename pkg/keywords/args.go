package keywords

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ava-labs/mqlibrary/pkg/timestr"
)

// ArgType is the type an argument is converted to before a keyword runs.
type ArgType int

const (
	TypeString ArgType = iota
	TypeOptionalString
	TypeInt
	TypeBool
	TypeTime
)

// String returns the type name reported to the test framework.
func (t ArgType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "timestr"
	case TypeOptionalString:
		return "str | None"
	default:
		return "str"
	}
}

// Arg describes one keyword argument.
type Arg struct {
	Name       string
	Type       ArgType
	Default    any
	HasDefault bool
}

func required(name string, typ ArgType) Arg {
	return Arg{Name: name, Type: typ}
}

func optional(name string, typ ArgType, def any) Arg {
	return Arg{Name: name, Type: typ, Default: def, HasDefault: true}
}

// Spec renders the argument the way Robot Framework argument specs do:
// "queue" or "ccsid=1208".
func (a Arg) Spec() string {
	if !a.HasDefault {
		return a.Name
	}
	return a.Name + "=" + formatDefault(a.Default)
}

func formatDefault(v any) string {
	switch d := v.(type) {
	case nil:
		return "None"
	case bool:
		if d {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(d)
	}
}

// Args are bound and converted keyword arguments, keyed by argument name.
type Args map[string]any

// String returns a string argument; optional strings that were not given are "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer argument.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Bool returns a boolean argument.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Duration returns a time argument.
func (a Args) Duration(name string) time.Duration {
	d, _ := a[name].(time.Duration)
	return d
}

// ConversionError is returned when an argument value cannot be converted.
type ConversionError struct {
	Arg   string
	Value any
	Type  ArgType
	Err   error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("Argument '%s' got value '%v' that cannot be converted to %s", e.Arg, e.Value, typeDescription(e.Type))
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + "."
}

func (e *ConversionError) Unwrap() error { return e.Err }

func typeDescription(t ArgType) string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeTime:
		return "time"
	default:
		return "string"
	}
}

// convert turns a raw value from the test framework into the Go type of t.
func convert(arg Arg, raw any) (any, error) {
	fail := func(err error) error {
		return &ConversionError{Arg: arg.Name, Value: raw, Type: arg.Type, Err: err}
	}

	switch arg.Type {
	case TypeString:
		if raw == nil {
			return "", nil
		}
		return toString(raw), nil

	case TypeOptionalString:
		if raw == nil {
			return "", nil
		}
		s := toString(raw)
		if s == "None" {
			return "", nil
		}
		return s, nil

	case TypeInt:
		n, err := toInt(raw)
		if err != nil {
			return nil, fail(err)
		}
		return n, nil

	case TypeBool:
		b, err := toBool(raw)
		if err != nil {
			return nil, fail(err)
		}
		return b, nil

	case TypeTime:
		d, err := toDuration(raw)
		if err != nil {
			return nil, fail(err)
		}
		return d, nil
	}
	return nil, fail(fmt.Errorf("unsupported argument type %d", arg.Type))
}

func toString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return formatDefault(v)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("not an integral value")
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v), "_", ""))
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case nil:
		return false, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "TRUE", "YES", "ON", "1":
			return true, nil
		case "FALSE", "NO", "OFF", "0", "NONE", "":
			return false, nil
		}
		return false, fmt.Errorf("unrecognized boolean")
	default:
		return false, fmt.Errorf("unsupported type %T", raw)
	}
}

func toDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case int:
		return timestr.Seconds(float64(v))
	case int64:
		return timestr.Seconds(float64(v))
	case float64:
		return timestr.Seconds(v)
	case string:
		return timestr.Parse(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
