package disasm

import (
	"encoding/binary"
	"errors"
	"runtime/debug"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/ppc64/ppc64asm"
	"golang.org/x/arch/s390x/s390xasm"
	"golang.org/x/arch/x86/x86asm"

	"hexdis/internal/modes"
)

const xarchModule = "golang.org/x/arch"

var (
	errShort        = errors.New("truncated instruction")
	errUnrecognized = errors.New("unrecognized instruction")
)

// XArch is the engine backed by the golang.org/x/arch decoders.
//
// x/arch ships x86, ARM (A32 only), ARM64, PPC64 and s390x decoders. Thumb,
// Cortex-M, MIPS, SPARC and XCore configurations are reported unsupported.
type XArch struct{}

func (XArch) Name() string { return "x/arch" }

// Version is the x/arch module version linked into the binary.
func (XArch) Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == xarchModule {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return "unknown"
}

func (XArch) Supports(spec modes.Spec) bool {
	if spec.Extra != modes.ExtraNone {
		return false
	}
	switch spec.Arch {
	case modes.X86:
		return spec.Mode.Bits() != 0 && spec.Syntax != modes.SyntaxUnset && spec.Endian == modes.EndianUnset
	case modes.ARM:
		return spec.Mode == modes.ModeARM
	case modes.ARM64:
		return spec.Mode == modes.ModeARM
	case modes.PPC:
		return spec.Mode == modes.Mode64
	case modes.SystemZ:
		return spec.Endian != modes.Little
	}
	return false
}

func (x XArch) New(spec modes.Spec, opts Options) (*Decoder, error) {
	if !x.Supports(spec) {
		return nil, &EngineError{Engine: x.Name(), Spec: spec, Reason: "configuration not compiled into x/arch"}
	}

	d := &Decoder{spec: spec, opts: opts}
	switch spec.Arch {
	case modes.X86:
		d.decode = decodeX86(spec.Mode.Bits(), spec.Syntax)
	case modes.ARM:
		d.decode = decodeARM(spec.ByteOrder())
	case modes.ARM64:
		d.decode = decodeARM64(spec.ByteOrder())
	case modes.PPC:
		d.decode = decodePPC64(spec.ByteOrder())
	case modes.SystemZ:
		d.decode = decodeS390X
	}
	return d, nil
}

func noSymbols(uint64) (string, uint64) { return "", 0 }

func decodeX86(bits int, syntax modes.Syntax) decodeFunc {
	return func(code []byte, pc uint64) (int, string, error) {
		inst, err := x86asm.Decode(code, bits)
		if err != nil {
			return 0, "", err
		}
		// A lone prefix or escape byte comes back as a zero Op.
		if inst.Op == 0 {
			return 0, "", errUnrecognized
		}
		if syntax == modes.ATT {
			return inst.Len, x86asm.GNUSyntax(inst, pc, noSymbols), nil
		}
		return inst.Len, x86asm.IntelSyntax(inst, pc, noSymbols), nil
	}
}

// word returns the first 4 bytes of code as a little-endian word, swapping
// them first when the stream is big-endian.
func word(code []byte, order binary.ByteOrder) ([]byte, error) {
	if len(code) < 4 {
		return nil, errShort
	}
	if order == binary.LittleEndian {
		return code[:4], nil
	}
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], binary.BigEndian.Uint32(code))
	return w[:], nil
}

func decodeARM(order binary.ByteOrder) decodeFunc {
	return func(code []byte, pc uint64) (int, string, error) {
		w, err := word(code, order)
		if err != nil {
			return 0, "", err
		}
		inst, err := armasm.Decode(w, armasm.ModeARM)
		if err != nil {
			return 0, "", err
		}
		return inst.Len, armasm.GNUSyntax(inst), nil
	}
}

func decodeARM64(order binary.ByteOrder) decodeFunc {
	return func(code []byte, pc uint64) (int, string, error) {
		w, err := word(code, order)
		if err != nil {
			return 0, "", err
		}
		inst, err := arm64asm.Decode(w)
		if err != nil {
			return 0, "", err
		}
		return 4, arm64asm.GNUSyntax(inst), nil
	}
}

func decodePPC64(order binary.ByteOrder) decodeFunc {
	return func(code []byte, pc uint64) (int, string, error) {
		inst, err := ppc64asm.Decode(code, order)
		if err != nil {
			return 0, "", err
		}
		if inst.Op == 0 {
			return 0, "", errUnrecognized
		}
		return inst.Len, ppc64asm.GNUSyntax(inst, pc), nil
	}
}

func decodeS390X(code []byte, pc uint64) (int, string, error) {
	inst, err := s390xasm.Decode(code)
	if err != nil {
		return 0, "", err
	}
	// Unknown halfwords decode to a zero Op rendered as a .long directive.
	if inst.Op == 0 {
		return 0, "", errUnrecognized
	}
	return inst.Len, s390xasm.GNUSyntax(inst, pc), nil
}
