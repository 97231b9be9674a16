package robotremote

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Fault codes returned to the client.
const (
	FaultParse          = -32700
	FaultMethodNotFound = -32601
	FaultInvalidParams  = -32602
	FaultInternal       = -32603
)

// Fault is an XML-RPC fault response.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xml-rpc fault %d: %s", f.Code, f.Message)
}

type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     []param  `xml:"params>param"`
}

type param struct {
	Value value `xml:"value"`
}

// value mirrors <value>. Exactly one of the typed fields is set, or none for
// an untyped string held in Text.
type value struct {
	Text     string     `xml:",chardata"`
	String   *string    `xml:"string"`
	Int      *string    `xml:"int"`
	I4       *string    `xml:"i4"`
	I8       *string    `xml:"i8"`
	Boolean  *string    `xml:"boolean"`
	Double   *string    `xml:"double"`
	Base64   *string    `xml:"base64"`
	DateTime *string    `xml:"dateTime.iso8601"`
	Nil      *struct{}  `xml:"nil"`
	Array    *arrayVal  `xml:"array"`
	Struct   *structVal `xml:"struct"`
}

type arrayVal struct {
	Data []value `xml:"data>value"`
}

type structVal struct {
	Members []member `xml:"member"`
}

type member struct {
	Name  string `xml:"name"`
	Value value  `xml:"value"`
}

// decodeCall reads a methodCall document.
func decodeCall(r io.Reader) (string, []any, error) {
	var call methodCall
	if err := xml.NewDecoder(r).Decode(&call); err != nil {
		return "", nil, fmt.Errorf("invalid xml-rpc request: %w", err)
	}
	if call.MethodName == "" {
		return "", nil, errors.New("invalid xml-rpc request: missing methodName")
	}

	params := make([]any, len(call.Params))
	for i, p := range call.Params {
		v, err := p.Value.decode()
		if err != nil {
			return "", nil, fmt.Errorf("param %d: %w", i+1, err)
		}
		params[i] = v
	}
	return call.MethodName, params, nil
}

func (v *value) decode() (any, error) {
	switch {
	case v.String != nil:
		return *v.String, nil
	case v.Int != nil:
		return parseInt(*v.Int)
	case v.I4 != nil:
		return parseInt(*v.I4)
	case v.I8 != nil:
		return parseInt(*v.I8)
	case v.Boolean != nil:
		switch strings.TrimSpace(*v.Boolean) {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", *v.Boolean)
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q", *v.Double)
		}
		return f, nil
	case v.Base64 != nil:
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(*v.Base64), ""))
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return b, nil
	case v.DateTime != nil:
		return strings.TrimSpace(*v.DateTime), nil
	case v.Nil != nil:
		return nil, nil
	case v.Array != nil:
		out := make([]any, len(v.Array.Data))
		for i := range v.Array.Data {
			item, err := v.Array.Data[i].decode()
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	case v.Struct != nil:
		out := make(map[string]any, len(v.Struct.Members))
		for i := range v.Struct.Members {
			m := &v.Struct.Members[i]
			item, err := m.Value.decode()
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", m.Name, err)
			}
			out[m.Name] = item
		}
		return out, nil
	default:
		return v.Text, nil
	}
}

func parseInt(s string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(n), nil
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// encodeResponse renders a methodResponse carrying v.
func encodeResponse(v any) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<methodResponse><params><param>")
	writeValue(&buf, v)
	buf.WriteString("</param></params></methodResponse>\n")
	return buf.Bytes()
}

// encodeFault renders a fault methodResponse.
func encodeFault(f *Fault) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<methodResponse><fault>")
	writeValue(&buf, map[string]any{"faultCode": f.Code, "faultString": f.Message})
	buf.WriteString("</fault></methodResponse>\n")
	return buf.Bytes()
}

// writeValue renders v as a <value>. nil becomes an empty string, since the
// Robot client does not accept the nil extension. Integers outside the 32-bit
// range and unknown types are sent as strings.
func writeValue(buf *bytes.Buffer, v any) {
	buf.WriteString("<value>")
	switch t := v.(type) {
	case nil:
		buf.WriteString("<string></string>")
	case string:
		writeString(buf, t)
	case []byte:
		writeBase64(buf, t)
	case bool:
		if t {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case int:
		writeInt(buf, int64(t))
	case int32:
		writeInt(buf, int64(t))
	case int64:
		writeInt(buf, t)
	case float64:
		buf.WriteString("<double>")
		buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
		buf.WriteString("</double>")
	case []string:
		buf.WriteString("<array><data>")
		for _, s := range t {
			writeValue(buf, s)
		}
		buf.WriteString("</data></array>")
	case []any:
		buf.WriteString("<array><data>")
		for _, item := range t {
			writeValue(buf, item)
		}
		buf.WriteString("</data></array>")
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		writeStruct(buf, m)
	case map[string]any:
		writeStruct(buf, t)
	case fmt.Stringer:
		writeString(buf, t.String())
	default:
		writeReflected(buf, v)
	}
	buf.WriteString("</value>")
}

func writeReflected(buf *bytes.Buffer, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		buf.WriteString("<array><data>")
		for i := range rv.Len() {
			writeValue(buf, rv.Index(i).Interface())
		}
		buf.WriteString("</data></array>")
		return
	}
	writeString(buf, fmt.Sprint(v))
}

func writeInt(buf *bytes.Buffer, n int64) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		writeString(buf, strconv.FormatInt(n, 10))
		return
	}
	buf.WriteString("<int>")
	buf.WriteString(strconv.FormatInt(n, 10))
	buf.WriteString("</int>")
}

// writeString sends text that XML 1.0 cannot carry as base64.
func writeString(buf *bytes.Buffer, s string) {
	if !xmlSafe(s) {
		writeBase64(buf, []byte(s))
		return
	}
	buf.WriteString("<string>")
	xml.EscapeText(buf, []byte(s)) //nolint:errcheck // bytes.Buffer writes do not fail
	buf.WriteString("</string>")
}

func writeBase64(buf *bytes.Buffer, b []byte) {
	buf.WriteString("<base64>")
	buf.WriteString(base64.StdEncoding.EncodeToString(b))
	buf.WriteString("</base64>")
}

func writeStruct(buf *bytes.Buffer, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	buf.WriteString("<struct>")
	for _, k := range keys {
		buf.WriteString("<member><name>")
		xml.EscapeText(buf, []byte(k)) //nolint:errcheck // bytes.Buffer writes do not fail
		buf.WriteString("</name>")
		writeValue(buf, m[k])
		buf.WriteString("</member>")
	}
	buf.WriteString("</struct>")
}

func xmlSafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r < 0x20:
			return false
		case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
			return false
		}
	}
	return true
}
