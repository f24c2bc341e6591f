package input

import (
	"fmt"
	"strconv"
)

// ParseHex drops every character that is not a hex digit and pairs the rest
// into bytes, high nibble first. An unpaired trailing digit is dropped.
// A "0x" or "0X" marker is a separator as a whole, so "0x9090" and "90 90"
// give the same bytes.
func ParseHex(text string) []byte {
	out := make([]byte, 0, len(text)/2)
	var hi byte
	half := false
	for i := 0; i < len(text); i++ {
		if text[i] == '0' && i+1 < len(text) && (text[i+1] == 'x' || text[i+1] == 'X') {
			i++
			continue
		}
		n, ok := nibble(text[i])
		if !ok {
			continue
		}
		if !half {
			hi = n
			half = true
			continue
		}
		out = append(out, hi<<4|n)
		half = false
	}
	return out
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isHexChar(c byte) bool {
	_, ok := nibble(c)
	return ok
}

// ParseAddress parses a base address literal. A literal made only of decimal
// digits is decimal; anything else is read as hex after dropping every
// non-hex character, so "0x1000", "1000h" and "10_00ab" all parse as hex.
// "100" is therefore always 100, never 0x100.
func ParseAddress(literal string) (uint64, error) {
	if literal == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	decimal := true
	for i := 0; i < len(literal); i++ {
		if literal[i] < '0' || literal[i] > '9' {
			decimal = false
			break
		}
	}
	if decimal {
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAddress, literal)
		}
		return v, nil
	}

	digits := make([]byte, 0, len(literal))
	for i := 0; i < len(literal); i++ {
		if isHexChar(literal[i]) {
			digits = append(digits, literal[i])
		}
	}
	// "0x" alone strips to "0"; a literal with no hex digit at all is rejected.
	if len(digits) == 0 {
		return 0, fmt.Errorf("%w: %q has no hex digits", ErrInvalidAddress, literal)
	}
	v, err := strconv.ParseUint(string(digits), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAddress, literal)
	}
	return v, nil
}
