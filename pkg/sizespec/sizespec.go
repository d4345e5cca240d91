// Package sizespec resolves the size tokens used by test programs. A token
// is a non-negative decimal count of bytes with an optional suffix:
// `k` multiplies by 1024, `m` by 1024*1024, and `%` takes the given
// fraction of a total size, rounding down. Resolution is exact integer
// arithmetic; no floats are involved.
package sizespec

import (
	"math"
	"strconv"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

const (
	kibi = int64(1024)
	mebi = kibi * kibi
)

// Resolve maps a single size token to a byte count against the given total
// size. total only matters for `%` tokens. Unrecognized forms, including
// the empty string, values too large for int64, and anything non-decimal,
// fail with a MalformedToken error.
func Resolve(token string, total int64) (int64, error) {
	if token == "" {
		return 0, malformed(token, "empty token")
	}

	digits := token
	var mult int64 = 1
	percent := false
	switch token[len(token)-1] {
	case 'k':
		digits, mult = token[:len(token)-1], kibi
	case 'm':
		digits, mult = token[:len(token)-1], mebi
	case '%':
		digits, percent = token[:len(token)-1], true
	}

	if digits == "" {
		return 0, malformed(token, "no digits before suffix")
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, malformed(token, "not a non-negative decimal number")
		}
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, malformed(token, "value out of range")
	}

	if percent {
		if total > 0 && value > math.MaxInt64/total {
			return 0, malformed(token, "value out of range")
		}
		return value * total / 100, nil
	}

	if value > math.MaxInt64/mult {
		return 0, malformed(token, "value out of range")
	}
	return value * mult, nil
}

func malformed(token, reason string) error {
	return models.NewBaseError("malformed size token %q: %s", token, reason).
		WithCode(models.MalformedToken).
		WithComponent("SizeResolver").
		WithHint("size tokens are a decimal number optionally suffixed with k, m or %")
}
