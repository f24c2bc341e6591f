// Package modes maps the compact mode tokens accepted on the command line
// (x64, armbe, ppc64be, ...) to a structured architecture configuration.
//
// The token space is closed. A Table exposes only the tokens whose
// configuration the linked decode engine reports as supported.
package modes

import (
	"encoding/binary"
	"strings"
)

// Arch is an instruction-set architecture family.
type Arch int

const (
	X86 Arch = iota
	ARM
	ARM64
	MIPS
	PPC
	SPARC
	SystemZ
	XCore
)

var archNames = [...]string{
	X86:     "x86",
	ARM:     "arm",
	ARM64:   "arm64",
	MIPS:    "mips",
	PPC:     "ppc",
	SPARC:   "sparc",
	SystemZ: "systemz",
	XCore:   "xcore",
}

func (a Arch) String() string {
	if a < 0 || int(a) >= len(archNames) {
		return "unknown"
	}
	return archNames[a]
}

// Mode is the bit width or architecture specific instruction mode.
type Mode int

const (
	// ModeDefault is used by architectures with a single instruction mode.
	ModeDefault Mode = iota
	Mode16
	Mode32
	Mode64
	ModeARM
	ModeThumb
)

func (m Mode) String() string {
	switch m {
	case Mode16:
		return "16"
	case Mode32:
		return "32"
	case Mode64:
		return "64"
	case ModeARM:
		return "arm"
	case ModeThumb:
		return "thumb"
	}
	return "default"
}

// Bits returns the address width for modes that have one, 0 otherwise.
func (m Mode) Bits() int {
	switch m {
	case Mode16:
		return 16
	case Mode32:
		return 32
	case Mode64:
		return 64
	}
	return 0
}

// Extra is an optional sub-mode flag.
type Extra int

const (
	ExtraNone Extra = iota
	ExtraMClass
)

func (e Extra) String() string {
	if e == ExtraMClass {
		return "mclass"
	}
	return ""
}

// Endian is an explicit byte order. EndianUnset means the architecture has
// no big-endian variant and is decoded little-endian.
type Endian int

const (
	EndianUnset Endian = iota
	Little
	Big
)

func (e Endian) String() string {
	switch e {
	case Little:
		return "little"
	case Big:
		return "big"
	}
	return ""
}

// Syntax is the assembly syntax. Only x86 specs carry one.
type Syntax int

const (
	SyntaxUnset Syntax = iota
	Intel
	ATT
)

func (s Syntax) String() string {
	switch s {
	case Intel:
		return "intel"
	case ATT:
		return "att"
	}
	return ""
}

// Spec is the resolved configuration for a mode token.
// Fields that do not apply to Arch are left at their unset value.
type Spec struct {
	Arch   Arch
	Mode   Mode
	Extra  Extra
	Endian Endian
	Syntax Syntax
}

// ByteOrder returns the order instruction words are read in.
func (s Spec) ByteOrder() binary.ByteOrder {
	if s.Endian == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// String renders the spec as "arch/mode[/extra][/endian][/syntax]".
func (s Spec) String() string {
	parts := []string{s.Arch.String(), s.Mode.String()}
	for _, p := range []string{s.Extra.String(), s.Endian.String(), s.Syntax.String()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// Entry pairs a token with its spec.
type Entry struct {
	Token string
	Spec  Spec
}

// DefaultToken selects 64-bit x86 with Intel syntax.
const DefaultToken = "x64"

// All returns the complete architecturally-defined token space in display
// order, regardless of engine support.
func All() []Entry {
	return []Entry{
		{"x16", Spec{Arch: X86, Mode: Mode16, Syntax: Intel}},
		{"x16att", Spec{Arch: X86, Mode: Mode16, Syntax: ATT}},
		{"x32", Spec{Arch: X86, Mode: Mode32, Syntax: Intel}},
		{"x32att", Spec{Arch: X86, Mode: Mode32, Syntax: ATT}},
		{"x64", Spec{Arch: X86, Mode: Mode64, Syntax: Intel}},
		{"x64att", Spec{Arch: X86, Mode: Mode64, Syntax: ATT}},

		{"arm", Spec{Arch: ARM, Mode: ModeARM}},
		{"armbe", Spec{Arch: ARM, Mode: ModeARM, Endian: Big}},
		{"thumb", Spec{Arch: ARM, Mode: ModeThumb}},
		{"thumbbe", Spec{Arch: ARM, Mode: ModeThumb, Endian: Big}},
		{"cortexm", Spec{Arch: ARM, Mode: ModeARM, Extra: ExtraMClass}},

		{"arm64", Spec{Arch: ARM64, Mode: ModeARM, Endian: Little}},
		{"arm64be", Spec{Arch: ARM64, Mode: ModeARM, Endian: Big}},

		{"mips", Spec{Arch: MIPS, Mode: Mode32}},
		{"mipsbe", Spec{Arch: MIPS, Mode: Mode32, Endian: Big}},
		{"mips64", Spec{Arch: MIPS, Mode: Mode64}},
		{"mips64be", Spec{Arch: MIPS, Mode: Mode64, Endian: Big}},

		{"ppc64", Spec{Arch: PPC, Mode: Mode64, Endian: Little}},
		{"ppc64be", Spec{Arch: PPC, Mode: Mode64, Endian: Big}},

		{"sparc", Spec{Arch: SPARC, Endian: Big}},
		{"systemz", Spec{Arch: SystemZ, Endian: Big}},
		{"xcore", Spec{Arch: XCore}},
	}
}
