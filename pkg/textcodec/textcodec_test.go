package textcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected string
		fellBack bool
	}{
		{name: "ascii", body: []byte("Hello"), expected: "Hello"},
		{name: "utf-8", body: []byte("caf\xc3\xa9 \xe2\x82\xac"), expected: "café €"},
		{name: "empty", body: nil, expected: ""},
		{name: "latin-1", body: []byte{'c', 'a', 'f', 0xe9}, expected: "café", fellBack: true},
		{name: "latin-1 upper range", body: []byte{0xc4, 0xd6, 0xdc}, expected: "ÄÖÜ", fellBack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, fellBack := Decode(tt.body)
			require.Equal(t, tt.expected, text)
			require.Equal(t, tt.fellBack, fellBack)
		})
	}
}

func TestEncode(t *testing.T) {
	require.Equal(t, []byte("caf\xc3\xa9"), Encode("café"))
}
