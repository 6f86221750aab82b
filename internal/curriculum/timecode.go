package curriculum

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TimeCode is an offset into a lesson video in whole seconds. Never negative.
type TimeCode int

// ParseTimeCode converts "90", "1:30" or "1:02:03" into seconds.
// The parser is lenient: empty or unparseable parts count as zero and input
// with more than three parts yields zero, as does a value too large to
// represent. Use IsZeroLiteral to tell an
// intentional "0:00" apart from garbage.
func ParseTimeCode(text string) TimeCode {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, ok := parsePart(p)
		if !ok || total > (math.MaxInt-n)/60 {
			return 0
		}
		total = total*60 + n
	}
	return TimeCode(total)
}

// parsePart reads one field. ok is false only when the digits are out of range.
func parsePart(p string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(p))
	if errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if err != nil || n < 0 {
		return 0, true
	}
	return n, true
}

// IsZeroLiteral reports whether text spells out a zero offset ("0", "0:00", "00:00:00").
func IsZeroLiteral(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.Trim(p, "0") != "" {
			return false
		}
	}
	return true
}

// FormatTimeCode renders seconds as h:mm:ss from one hour up, m:ss below.
func FormatTimeCode(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// String implements fmt.Stringer
func (t TimeCode) String() string {
	return FormatTimeCode(int(t))
}

// Seconds returns the offset as a plain int
func (t TimeCode) Seconds() int {
	return int(t)
}
