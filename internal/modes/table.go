package modes

import (
	"errors"
	"fmt"
)

var (
	// ErrNoArchitectures is returned when the engine supports none of the
	// known tokens. It is a configuration error, not a per-run error.
	ErrNoArchitectures = errors.New("no architecture supported by the decode engine")

	// ErrInvalidModeToken is wrapped by every failed Resolve.
	ErrInvalidModeToken = errors.New("invalid mode token")
)

// InvalidTokenError reports an unresolvable token together with the valid set.
type InvalidTokenError struct {
	Token string
	Valid []string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("unsupported mode %q (valid: %v)", e.Token, e.Valid)
}

func (e *InvalidTokenError) Unwrap() error {
	return ErrInvalidModeToken
}

// Capabilities is the runtime capability query of a decode engine.
type Capabilities interface {
	Supports(Spec) bool
}

// Table is the immutable registry of tokens usable with one engine.
type Table struct {
	entries []Entry
	byToken map[string]Spec
}

// NewTable intersects the full token space with what caps supports.
func NewTable(caps Capabilities) (*Table, error) {
	t := &Table{byToken: make(map[string]Spec)}
	for _, e := range All() {
		if !caps.Supports(e.Spec) {
			continue
		}
		t.entries = append(t.entries, e)
		t.byToken[e.Token] = e.Spec
	}
	if len(t.entries) == 0 {
		return nil, ErrNoArchitectures
	}
	return t, nil
}

// Resolve looks up token by exact, case-sensitive match.
func (t *Table) Resolve(token string) (Spec, error) {
	if spec, ok := t.byToken[token]; ok {
		return spec, nil
	}
	return Spec{}, &InvalidTokenError{Token: token, Valid: t.Tokens()}
}

// Tokens returns the valid tokens in display order.
func (t *Table) Tokens() []string {
	tokens := make([]string, len(t.entries))
	for i, e := range t.entries {
		tokens[i] = e.Token
	}
	return tokens
}

// Entries returns a copy of the supported entries.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Arches returns the distinct supported architectures in display order.
func (t *Table) Arches() []Arch {
	var arches []Arch
	seen := make(map[Arch]bool)
	for _, e := range t.entries {
		if !seen[e.Spec.Arch] {
			seen[e.Spec.Arch] = true
			arches = append(arches, e.Spec.Arch)
		}
	}
	return arches
}

// Default returns DefaultToken when it is supported, else the first token.
func (t *Table) Default() string {
	if _, ok := t.byToken[DefaultToken]; ok {
		return DefaultToken
	}
	return t.entries[0].Token
}
