package genai

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMarkParse marks a generative-service mark string that is not in the
// "X/Y" form. The convention is a fragile external contract; anything that
// deviates from it fails loudly instead of being guessed at.
var ErrMarkParse = errors.New("malformed mark string")

// ParseMark parses a "X/Y" mark string into awarded and maximum marks.
// Surrounding whitespace is tolerated, nothing else is.
func ParseMark(s string) (awarded, max float64, err error) {
	trimmed := strings.TrimSpace(s)

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMarkParse, s)
	}

	awarded, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMarkParse, s)
	}

	max, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMarkParse, s)
	}

	if max <= 0 || awarded < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMarkParse, s)
	}

	return awarded, max, nil
}
