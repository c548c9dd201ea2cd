package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		n, page, want int
	}{
		{0, 4096, 0},
		{1, 4096, 4096},
		{10, 4096, 4096},
		{4095, 4096, 4096},
		{4096, 4096, 4096},
		{4097, 4096, 8192},
		{12288, 4096, 12288},
		{100, 16384, 16384},
		{7, 0, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUp(tt.n, tt.page), "RoundUp(%d, %d)", tt.n, tt.page)
	}
}

func TestRoundUpIdentityOnMultiples(t *testing.T) {
	ps := Size()
	for k := 0; k < 8; k++ {
		assert.Equal(t, k*ps, RoundUp(k*ps, ps))
	}
}

func TestAccessString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "read-write", ReadWrite.String())
	assert.Equal(t, "unknown", Access(42).String())
}

func TestSizeIsPowerOfTwo(t *testing.T) {
	ps := Size()
	assert.Positive(t, ps)
	assert.Zero(t, ps&(ps-1), "page size %d should be a power of two", ps)
}
