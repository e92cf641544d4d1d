package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseQuantity parses a yield amount. Empty means zero, a single comma is
// read as the decimal separator and negative values are rejected.
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("parse quantity %q: negative", s)
	}
	return v, nil
}
