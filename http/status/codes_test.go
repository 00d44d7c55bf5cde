package status

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, OK, Normalize(200))
	require.Equal(t, Code(100), Normalize(100))
	require.Equal(t, Code(999), Normalize(999))

	for _, code := range []int{-1, 0, 99, 1000, 65536} {
		require.Equal(t, InternalServerError, Normalize(code), code)
	}
}

func TestTable(t *testing.T) {
	table := DefaultTable()

	t.Run("registered", func(t *testing.T) {
		require.Equal(t, Status("OK"), table.Text(OK))
		require.Equal(t, Status("Internal Server Error"), table.Text(InternalServerError))
		require.Equal(t, Status("Method Not Allowed"), table.Text(MethodNotAllowed))
		require.Equal(t, Status("Early Hints"), table.Text(EarlyHints))
	})

	t.Run("vendor", func(t *testing.T) {
		require.Equal(t, Status("Bandwidth Limit Exceeded"), table.Text(BandwidthLimitExceeded))
		require.Equal(t, Status("Unavailable For Legal Reasons"), table.Text(UnavailableForLegalReasons))
	})

	t.Run("unknown", func(t *testing.T) {
		require.Empty(t, table.Text(299))
	})

	t.Run("string code", func(t *testing.T) {
		for code := range table {
			require.Equal(t, strconv.Itoa(int(code)), StringCode(code))
		}
	})
}

func Benchmark(b *testing.B) {
	table := DefaultTable()
	codes := make([]Code, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}

	code := codes[rand.IntN(len(codes))]
	b.ResetTimer()

	for range b.N {
		_ = StringCode(code)
	}
}
