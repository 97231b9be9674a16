package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzSplitList checks that SplitList never returns blank or padded items.
// Run with: go test -fuzz=FuzzSplitList -fuzztime=30s ./pkg/utils/
func FuzzSplitList(f *testing.F) {
	f.Add("")
	f.Add(",")
	f.Add("a,b")
	f.Add(" host1:9092 ,host2:9092 ")
	f.Add("\t,\n,x")

	f.Fuzz(func(t *testing.T, input string) {
		for _, item := range SplitList(input) {
			require.NotEmpty(t, item)
			require.Equal(t, strings.TrimSpace(item), item)
			require.NotContains(t, item, ",")
		}
	})
}
