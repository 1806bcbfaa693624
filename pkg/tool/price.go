package tool

import (
	"fmt"
	"strconv"
	"strings"
)

// PriceToCents parses a decimal money string in major units ("49.00", "49.9",
// "49") into minor units. At most two fraction digits are accepted.
func PriceToCents(value string) (int64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, fmt.Errorf("empty price")
	}
	whole, frac, _ := strings.Cut(v, ".")
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	cents := major * 100
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("too many fraction digits in %q", value)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		minor, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || minor < 0 {
			return 0, fmt.Errorf("invalid price %q", value)
		}
		cents += minor
	}
	return cents, nil
}
