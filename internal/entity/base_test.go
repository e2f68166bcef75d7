package entity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestBigInt_ScanValue(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	v, err := NewBigInt(huge).Value()
	require.NoError(t, err)

	var b BigInt
	require.NoError(t, b.Scan(v))
	require.Equal(t, 0, huge.Cmp(b.Big()))

	require.NoError(t, b.Scan([]byte("42")))
	require.Equal(t, "42", b.String())

	require.NoError(t, b.Scan(int64(7)))
	require.Equal(t, "7", b.String())

	require.Error(t, b.Scan("not-a-number"))
}

func TestBigInt_BigReturnsCopy(t *testing.T) {
	b := NewBigInt(big.NewInt(10))
	b.Big().Add(b.Big(), big.NewInt(5))
	require.Equal(t, "10", b.String())

	var zero BigInt
	require.Equal(t, "0", zero.String())
}

func TestAddress_ScanValue(t *testing.T) {
	a := NewAddress(common.HexToAddress("0x00000000000000000000000000000000000000ab"))
	v, err := a.Value()
	require.NoError(t, err)

	var b Address
	require.NoError(t, b.Scan(v))
	require.Equal(t, a, b)
	require.False(t, b.IsZero())

	require.NoError(t, b.Scan(nil))
	require.True(t, b.IsZero())
}
