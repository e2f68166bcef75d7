package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Array[T any] []T

func (a *Array[T]) Scan(obj any) error {
	switch t := obj.(type) {
	case string:
		return json.Unmarshal([]byte(t), a)
	case []byte:
		return json.Unmarshal(t, a)
	}

	return fmt.Errorf("cannot scan invalid data type %T", obj)
}

func (a Array[T]) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// BigInt is a non-negative wei amount or token id persisted as a decimal
// string, so that uint256 values survive every SQL dialect.
type BigInt struct {
	v *big.Int
}

func NewBigInt(v *big.Int) BigInt {
	if v == nil {
		return BigInt{v: new(big.Int)}
	}

	return BigInt{v: new(big.Int).Set(v)}
}

// Big returns a copy, so callers are free to mutate the result.
func (b BigInt) Big() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(b.v)
}

func (b BigInt) String() string {
	return b.Big().String()
}

func (b *BigInt) Scan(obj any) error {
	var s string
	switch t := obj.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		b.v = big.NewInt(t)
		return nil
	case nil:
		b.v = new(big.Int)
		return nil
	default:
		return fmt.Errorf("cannot scan invalid data type %T", obj)
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid big integer %q", s)
	}

	b.v = v
	return nil
}

func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

func (BigInt) GormDataType() string {
	return "string"
}

// Address is a 20-byte account address persisted as its checksummed hex form.
// The zero address means unset.
type Address struct {
	common.Address
}

func NewAddress(a common.Address) Address {
	return Address{Address: a}
}

func (a Address) IsZero() bool {
	return a.Address == (common.Address{})
}

func (a *Address) Scan(obj any) error {
	switch t := obj.(type) {
	case string:
		a.Address = common.HexToAddress(t)
	case []byte:
		a.Address = common.HexToAddress(string(t))
	case nil:
		a.Address = common.Address{}
	default:
		return fmt.Errorf("cannot scan invalid data type %T", obj)
	}

	return nil
}

func (a Address) Value() (driver.Value, error) {
	return a.Hex(), nil
}

func (Address) GormDataType() string {
	return "string"
}
