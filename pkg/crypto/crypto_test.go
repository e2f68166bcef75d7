package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandUint256(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		v, err := RandUint256()
		require.NoError(t, err)
		require.True(t, v.Sign() >= 0)
		require.True(t, v.Cmp(MaxUint256()) <= 0)
		seen[v.String()] = true
	}

	require.Greater(t, len(seen), 1)
}

func TestMaxUint256_IsCopy(t *testing.T) {
	v := MaxUint256()
	v.SetInt64(0)
	require.Equal(t, 256, MaxUint256().BitLen())
}
