package keywords

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArg_Spec(t *testing.T) {
	require.Equal(t, "queue", required("queue", TypeString).Spec())
	require.Equal(t, "ccsid=1208", optional("ccsid", TypeInt, 1208).Spec())
	require.Equal(t, "username=None", optional("username", TypeOptionalString, nil).Spec())
	require.Equal(t, "convert=True", optional("convert", TypeBool, true).Spec())
	require.Equal(t, "flag=False", optional("flag", TypeBool, false).Spec())
	require.Equal(t, "timeout=5s", optional("timeout", TypeTime, "5s").Spec())
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		typ      ArgType
		raw      any
		expected any
	}{
		{"string", TypeString, "abc", "abc"},
		{"string from int", TypeString, 12, "12"},
		{"string from bytes", TypeString, []byte("raw"), "raw"},
		{"string from bool", TypeString, true, "True"},
		{"string nil", TypeString, nil, ""},
		{"optional None", TypeOptionalString, "None", ""},
		{"optional nil", TypeOptionalString, nil, ""},
		{"optional value", TypeOptionalString, "app", "app"},
		{"int", TypeInt, 5, 5},
		{"int64", TypeInt, int64(7), 7},
		{"int from string", TypeInt, " 1414 ", 1414},
		{"int with underscores", TypeInt, "1_000", 1000},
		{"int from integral float", TypeInt, 3.0, 3},
		{"bool", TypeBool, false, false},
		{"bool from TRUE", TypeBool, "TRUE", true},
		{"bool from yes", TypeBool, "yes", true},
		{"bool from off", TypeBool, "off", false},
		{"bool from None", TypeBool, "None", false},
		{"bool from empty", TypeBool, "", false},
		{"bool from int", TypeBool, 1, true},
		{"time from number", TypeTime, 2, 2 * time.Second},
		{"time from float", TypeTime, 0.25, 250 * time.Millisecond},
		{"time from string", TypeTime, "1 minute 30 seconds", 90 * time.Second},
		{"time from timer", TypeTime, "00:00:01.500", 1500 * time.Millisecond},
		{"time passthrough", TypeTime, 3 * time.Second, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(Arg{Name: "x", Type: tt.typ}, tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name     string
		typ      ArgType
		raw      any
		expected string
	}{
		{"int from word", TypeInt, "ten", "Argument 'x' got value 'ten' that cannot be converted to integer"},
		{"int from fraction", TypeInt, 1.5, "Argument 'x' got value '1.5' that cannot be converted to integer: not an integral value"},
		{"int from list", TypeInt, []any{1}, "cannot be converted to integer: unsupported type []interface {}"},
		{"bool from word", TypeBool, "maybe", "Argument 'x' got value 'maybe' that cannot be converted to boolean: unrecognized boolean"},
		{"time from word", TypeTime, "soon", "Argument 'x' got value 'soon' that cannot be converted to time"},
		{"time from bool", TypeTime, true, "cannot be converted to time: unsupported type bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convert(Arg{Name: "x", Type: tt.typ}, tt.raw)
			var convErr *ConversionError
			require.ErrorAs(t, err, &convErr)
			require.ErrorContains(t, err, tt.expected)
		})
	}
}

func TestArgs_Getters(t *testing.T) {
	args := Args{"s": "v", "n": 4, "b": true, "d": time.Second}

	require.Equal(t, "v", args.String("s"))
	require.Equal(t, 4, args.Int("n"))
	require.True(t, args.Bool("b"))
	require.Equal(t, time.Second, args.Duration("d"))

	require.Empty(t, args.String("missing"))
	require.Zero(t, args.Int("s"))
	require.False(t, args.Bool("missing"))
	require.Zero(t, args.Duration("missing"))
}
