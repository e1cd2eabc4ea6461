package types

import "errors"

var (
	errNegativeUnits = errors.New("types: negative amount")
	errUnitsOverflow = errors.New("types: amount overflows uint64")
)
