// Package colorize styles decoded instruction text for terminal output.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"

	"hexdis/internal/modes"
)

// NoColorEnv disables color in auto mode when set to any value.
const NoColorEnv = "HEXDIS_NO_COLOR"

// Accent is the solid mnemonic color.
const Accent = "#429EF4"

// When controls whether output is colored.
type When int

const (
	Auto When = iota
	Always
	Never
)

func (w When) String() string {
	switch w {
	case Always:
		return "always"
	case Never:
		return "never"
	default:
		return "auto"
	}
}

// ParseWhen parses a --color value.
func ParseWhen(s string) (When, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto, nil
	case "always":
		return Always, nil
	case "never":
		return Never, nil
	}
	return Auto, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Kind selects how instruction text is styled.
type Kind int

const (
	Solid Kind = iota
	Syntax
)

func (k Kind) String() string {
	if k == Syntax {
		return "syntax"
	}
	return "solid"
}

// ParseKind parses a --style value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "solid":
		return Solid, nil
	case "syntax":
		return Syntax, nil
	}
	return Solid, fmt.Errorf("invalid style %q (want solid or syntax)", s)
}

// Enabled reports whether output written to f gets color. Always and Never
// are absolute; Auto requires a terminal and an unset HEXDIS_NO_COLOR.
func Enabled(w When, f *os.File) bool {
	switch w {
	case Always:
		return true
	case Never:
		return false
	}
	if os.Getenv(NoColorEnv) != "" {
		return false
	}
	return f != nil && term.IsTerminal(f.Fd())
}

// Styler returns the function applied to each instruction's text.
func Styler(k Kind, spec modes.Spec) func(string) string {
	if k == Syntax {
		return SyntaxStyler(spec)
	}
	return SolidStyler()
}

// SolidStyler renders text in the accent color.
func SolidStyler() func(string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(Accent))
	return func(s string) string {
		return style.Render(s)
	}
}

// SyntaxStyler highlights text with the assembly lexer that best matches
// spec. Text the lexer cannot handle is returned unstyled.
func SyntaxStyler(spec modes.Spec) func(string) string {
	lexer := assemblyLexer(spec)
	if lexer == nil {
		return func(s string) string { return s }
	}
	style := disasmStyle()
	formatter := terminalFormatter()
	return func(s string) string {
		out, err := highlight(lexer, style, formatter, s)
		if err != nil {
			return s
		}
		return out
	}
}

func highlight(lexer chroma.Lexer, style *chroma.Style, formatter chroma.Formatter, s string) (string, error) {
	iterator, err := lexer.Tokenise(nil, s)
	if err != nil {
		return s, err
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return s, err
	}
	// Lexers that ensure a trailing newline would break the row.
	return strings.ReplaceAll(buf.String(), "\n", ""), nil
}

func lexerCandidates(spec modes.Spec) []string {
	switch spec.Arch {
	case modes.X86:
		if spec.Syntax == modes.ATT {
			return []string{"gas", "GAS"}
		}
		return []string{"nasm", "gas"}
	case modes.ARM, modes.ARM64:
		return []string{"armasm", "gas"}
	default:
		return []string{"gas", "GAS", "nasm"}
	}
}

func assemblyLexer(spec modes.Spec) chroma.Lexer {
	for _, name := range lexerCandidates(spec) {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func disasmStyle() *chroma.Style {
	for _, name := range []string{StyleName, "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func terminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Strip removes escape sequences, leaving the visible text.
func Strip(s string) string {
	return ansi.Strip(s)
}
