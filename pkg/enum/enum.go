package enum

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	enumManager = map[string]any{}
	mu          sync.RWMutex
)

type enum[T comparable] struct {
	toEnum   map[string]T
	toString map[T]string
}

// New registers value under name and returns value, so it can be used in
// var blocks: var StatusCreated = enum.New(RaffleStatus(0), "CREATED").
func New[T comparable](value T, name string) T {
	mu.Lock()
	defer mu.Unlock()

	typeName := typeKey[T]()
	if _, ok := enumManager[typeName]; !ok {
		enumManager[typeName] = enum[T]{toEnum: make(map[string]T), toString: make(map[T]string)}
	}

	e := enumManager[typeName].(enum[T])
	e.toEnum[name] = value
	e.toString[value] = name
	return value
}

func ToEnum[T comparable](s string) (T, error) {
	mu.RLock()
	defer mu.RUnlock()

	var defaultT T
	e, ok := enumManager[typeKey[T]()]
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	t, ok := e.(enum[T]).toEnum[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return t, nil
}

// ToString returns the registered name of value, or an empty string.
func ToString[T comparable](value T) string {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := enumManager[typeKey[T]()]
	if !ok {
		return ""
	}

	return e.(enum[T]).toString[value]
}

func typeKey[T any]() string {
	var t T
	rt := reflect.TypeOf(t)
	return rt.PkgPath() + "." + rt.String()
}
