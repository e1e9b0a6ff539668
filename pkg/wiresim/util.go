package wiresim

import (
	"errors"
	"strconv"
)

var (
	errPositive    = errors.New("must be positive")
	errNonNegative = errors.New("must not be negative")
)

func itoa(i int) string { return strconv.Itoa(i) }
