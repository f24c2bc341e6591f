package disasm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexdis/internal/modes"
)

func mustDecoder(t *testing.T, spec modes.Spec, opts Options) *Decoder {
	t.Helper()
	d, err := XArch{}.New(spec, opts)
	require.NoError(t, err)
	return d
}

var x64 = modes.Spec{Arch: modes.X86, Mode: modes.Mode64, Syntax: modes.Intel}

func collect(s *Stream) []Inst {
	var out []Inst
	for inst := range s.All() {
		out = append(out, inst)
	}
	return out
}

func TestXArchSupports(t *testing.T) {
	table, err := modes.NewTable(XArch{})
	require.NoError(t, err)

	want := []string{
		"x16", "x16att", "x32", "x32att", "x64", "x64att",
		"arm", "armbe",
		"arm64", "arm64be",
		"ppc64", "ppc64be",
		"systemz",
	}
	if diff := cmp.Diff(want, table.Tokens()); diff != "" {
		t.Errorf("supported tokens mismatch (-want +got):\n%s", diff)
	}

	for _, tok := range []string{"thumb", "thumbbe", "cortexm", "mips", "mips64be", "sparc", "xcore"} {
		_, err := table.Resolve(tok)
		assert.ErrorIs(t, err, modes.ErrInvalidModeToken, tok)
	}
}

func TestXArchNewUnsupported(t *testing.T) {
	_, err := XArch{}.New(modes.Spec{Arch: modes.MIPS, Mode: modes.Mode32}, Options{})
	assert.ErrorIs(t, err, ErrEngine)

	var engErr *EngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "x/arch", engErr.Engine)
	assert.Equal(t, modes.MIPS, engErr.Spec.Arch)
}

func TestDecodeX86(t *testing.T) {
	d := mustDecoder(t, x64, Options{})
	insts := collect(d.Decode([]byte{0x90, 0x90, 0xc3}, 0x1000))
	require.Len(t, insts, 3)

	wantAddr := []uint64{0x1000, 0x1001, 0x1002}
	wantText := []string{"nop", "nop", "ret"}
	for i, inst := range insts {
		assert.Equal(t, wantAddr[i], inst.Addr)
		assert.Equal(t, 1, inst.Len())
		assert.Equal(t, wantText[i], inst.Text())
		assert.Nil(t, inst.Operands)
	}
	assert.Equal(t, []byte{0xc3}, insts[2].Bytes)
}

func TestDecodeX86Syntax(t *testing.T) {
	code := []byte{0x48, 0x89, 0xe5} // mov rbp, rsp

	intel := collect(mustDecoder(t, x64, Options{}).Decode(code, 0))
	require.Len(t, intel, 1)
	assert.Equal(t, "mov", intel[0].Mnemonic)
	assert.Equal(t, "rbp, rsp", intel[0].OpStr)

	att := collect(mustDecoder(t, modes.Spec{Arch: modes.X86, Mode: modes.Mode64, Syntax: modes.ATT}, Options{}).Decode(code, 0))
	require.Len(t, att, 1)
	assert.Contains(t, att[0].OpStr, "%rsp")
	assert.Contains(t, att[0].OpStr, "%rbp")
	assert.Equal(t, 3, att[0].Len())
}

func TestDecodeDetail(t *testing.T) {
	d := mustDecoder(t, x64, Options{Detail: true})
	assert.True(t, d.Detail())

	insts := collect(d.Decode([]byte{0x48, 0x89, 0xe5, 0xc3}, 0))
	require.Len(t, insts, 2)
	assert.Equal(t, []string{"rbp", "rsp"}, insts[0].Operands)
	assert.Empty(t, insts[1].Operands)
}

func TestDecodeDetailFollowsSyntax(t *testing.T) {
	tests := []struct {
		name string
		spec modes.Spec
		code []byte
	}{
		{"x64att", modes.Spec{Arch: modes.X86, Mode: modes.Mode64, Syntax: modes.ATT}, []byte{0x48, 0x89, 0xe5}},
		{"arm", modes.Spec{Arch: modes.ARM, Mode: modes.ModeARM}, []byte{0x1e, 0xff, 0x2f, 0xe1}},
		{"arm64", modes.Spec{Arch: modes.ARM64, Mode: modes.ModeARM, Endian: modes.Little}, []byte{0xfd, 0x7b, 0xbf, 0xa9}},
		{"ppc64", modes.Spec{Arch: modes.PPC, Mode: modes.Mode64, Endian: modes.Little}, []byte{0x20, 0x00, 0x80, 0x4e}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := collect(mustDecoder(t, tt.spec, Options{Detail: true}).Decode(tt.code, 0))
			require.Len(t, insts, 1)
			assert.Equal(t, splitOperands(insts[0].OpStr), insts[0].Operands)
			for _, op := range insts[0].Operands {
				assert.Contains(t, insts[0].OpStr, op)
			}
		})
	}
}

func TestDecodePartial(t *testing.T) {
	tests := []struct {
		name     string
		spec     modes.Spec
		code     []byte
		wantN    int
		wantTail []byte
	}{
		{
			name:     "x86 truncated escape",
			spec:     x64,
			code:     []byte{0x90, 0x90, 0x0f},
			wantN:    2,
			wantTail: []byte{0x0f},
		},
		{
			name:     "arm64 short word",
			spec:     modes.Spec{Arch: modes.ARM64, Mode: modes.ModeARM, Endian: modes.Little},
			code:     []byte{0xc0, 0x03, 0x5f, 0xd6, 0x1f, 0x20},
			wantN:    1,
			wantTail: []byte{0x1f, 0x20},
		},
		{
			name:     "stops at first bad byte",
			spec:     x64,
			code:     []byte{0xc3, 0x0f, 0x90, 0x90},
			wantN:    1,
			wantTail: []byte{0x0f, 0x90, 0x90},
		},
		{
			name:     "att escape",
			spec:     modes.Spec{Arch: modes.X86, Mode: modes.Mode64, Syntax: modes.ATT},
			code:     []byte{0xc3, 0x0f, 0x90, 0x90},
			wantN:    1,
			wantTail: []byte{0x0f, 0x90, 0x90},
		},
		{
			name:     "x86 lone operand size prefix",
			spec:     x64,
			code:     []byte{0x90, 0x66},
			wantN:    1,
			wantTail: []byte{0x66},
		},
		{
			name:     "x86 32-bit lone lock prefix",
			spec:     modes.Spec{Arch: modes.X86, Mode: modes.Mode32, Syntax: modes.Intel},
			code:     []byte{0x90, 0xf0},
			wantN:    1,
			wantTail: []byte{0xf0},
		},
		{
			name:     "systemz zero halfword",
			spec:     modes.Spec{Arch: modes.SystemZ, Endian: modes.Big},
			code:     []byte{0x07, 0xfe, 0x00, 0x00},
			wantN:    1,
			wantTail: []byte{0x00, 0x00},
		},
		{
			name:     "ppc64 zero word",
			spec:     modes.Spec{Arch: modes.PPC, Mode: modes.Mode64, Endian: modes.Little},
			code:     []byte{0x20, 0x00, 0x80, 0x4e, 0x00, 0x00, 0x00, 0x00},
			wantN:    1,
			wantTail: []byte{0x00, 0x00, 0x00, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustDecoder(t, tt.spec, Options{}).Decode(tt.code, 0)
			insts := collect(s)
			assert.Len(t, insts, tt.wantN)
			assert.Equal(t, tt.wantTail, s.Tail())
			assert.Equal(t, len(tt.code)-len(tt.wantTail), s.Offset())
			assert.Error(t, s.Err())
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	s := mustDecoder(t, x64, Options{}).Decode(nil, 0x400000)
	assert.Empty(t, collect(s))
	assert.NoError(t, s.Err())
	assert.Empty(t, s.Tail())
}

func TestStreamNotRestartable(t *testing.T) {
	s := mustDecoder(t, x64, Options{}).Decode([]byte{0x90, 0x90, 0xc3}, 0)

	first, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(0), first.Addr)

	rest := collect(s)
	require.Len(t, rest, 2)
	assert.Equal(t, uint64(1), rest[0].Addr)

	assert.Empty(t, collect(s))
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestDecodeARM64Endianness(t *testing.T) {
	le := mustDecoder(t, modes.Spec{Arch: modes.ARM64, Mode: modes.ModeARM, Endian: modes.Little}, Options{})
	be := mustDecoder(t, modes.Spec{Arch: modes.ARM64, Mode: modes.ModeARM, Endian: modes.Big}, Options{})

	leInsts := collect(le.Decode([]byte{0xc0, 0x03, 0x5f, 0xd6}, 0))
	beInsts := collect(be.Decode([]byte{0xd6, 0x5f, 0x03, 0xc0}, 0))
	require.Len(t, leInsts, 1)
	require.Len(t, beInsts, 1)
	assert.Equal(t, "ret", leInsts[0].Mnemonic)
	assert.Equal(t, leInsts[0].Text(), beInsts[0].Text())
	// Raw bytes are reported as they appear in the input.
	assert.Equal(t, []byte{0xd6, 0x5f, 0x03, 0xc0}, beInsts[0].Bytes)
}

func TestDecodeARM(t *testing.T) {
	le := mustDecoder(t, modes.Spec{Arch: modes.ARM, Mode: modes.ModeARM}, Options{})
	be := mustDecoder(t, modes.Spec{Arch: modes.ARM, Mode: modes.ModeARM, Endian: modes.Big}, Options{})

	leInsts := collect(le.Decode([]byte{0x1e, 0xff, 0x2f, 0xe1}, 0x8000)) // bx lr
	beInsts := collect(be.Decode([]byte{0xe1, 0x2f, 0xff, 0x1e}, 0x8000))
	require.Len(t, leInsts, 1)
	require.Len(t, beInsts, 1)
	assert.Equal(t, "bx", leInsts[0].Mnemonic)
	assert.Equal(t, leInsts[0].Text(), beInsts[0].Text())
	assert.Equal(t, uint64(0x8000), beInsts[0].Addr)
}

func TestDecodePPC64(t *testing.T) {
	le := mustDecoder(t, modes.Spec{Arch: modes.PPC, Mode: modes.Mode64, Endian: modes.Little}, Options{})
	be := mustDecoder(t, modes.Spec{Arch: modes.PPC, Mode: modes.Mode64, Endian: modes.Big}, Options{})

	leInsts := collect(le.Decode([]byte{0x20, 0x00, 0x80, 0x4e}, 0)) // blr
	beInsts := collect(be.Decode([]byte{0x4e, 0x80, 0x00, 0x20}, 0))
	require.Len(t, leInsts, 1)
	require.Len(t, beInsts, 1)
	assert.Equal(t, "blr", leInsts[0].Mnemonic)
	assert.Equal(t, "blr", beInsts[0].Mnemonic)
}

func TestDecodeSystemZ(t *testing.T) {
	d := mustDecoder(t, modes.Spec{Arch: modes.SystemZ, Endian: modes.Big}, Options{Detail: true})
	insts := collect(d.Decode([]byte{0x07, 0xfe}, 0)) // br %r14
	require.Len(t, insts, 1)
	assert.Equal(t, 2, insts[0].Len())
	assert.NotEmpty(t, insts[0].Mnemonic)
}

func TestNewDecoder(t *testing.T) {
	// Two-byte fixed-width fake that rejects 0xff.
	d := NewDecoder(x64, Options{Detail: true}, func(code []byte, pc uint64) (int, string, error) {
		if len(code) < 2 || code[0] == 0xff {
			return 0, "", errShort
		}
		return 2, "op a, [b, c]", nil
	})
	s := d.Decode([]byte{1, 2, 3, 4, 0xff, 0}, 0x10)
	insts := collect(s)
	require.Len(t, insts, 2)
	assert.Equal(t, uint64(0x12), insts[1].Addr)
	assert.Equal(t, []string{"a", "[b, c]"}, insts[0].Operands)
	assert.Equal(t, []byte{0xff, 0}, s.Tail())
}

func TestDecodeRejectsZeroLength(t *testing.T) {
	d := NewDecoder(x64, Options{}, func([]byte, uint64) (int, string, error) {
		return 0, "bogus", nil
	})
	s := d.Decode([]byte{1, 2}, 0)
	assert.Empty(t, collect(s))
	assert.Error(t, s.Err())
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		text, mnemonic, ops string
	}{
		{"nop", "nop", ""},
		{"mov rbp, rsp", "mov", "rbp, rsp"},
		{"  RET  ", "ret", ""},
		{"ldr\tx0, [sp, #8]", "ldr", "x0, [sp, #8]"},
	}
	for _, tt := range tests {
		m, ops := splitText(tt.text)
		assert.Equal(t, tt.mnemonic, m, tt.text)
		assert.Equal(t, tt.ops, ops, tt.text)
	}
}

func TestSplitOperands(t *testing.T) {
	assert.Nil(t, splitOperands(""))
	assert.Equal(t, []string{"x0", "[sp, #8]"}, splitOperands("x0, [sp, #8]"))
	assert.Equal(t, []string{"%r1", "8(%r15,%r2)"}, splitOperands("%r1,8(%r15,%r2)"))
	assert.Equal(t, []string{"{r4, lr}"}, splitOperands("{r4, lr}"))
}

func TestXArchVersion(t *testing.T) {
	assert.NotEmpty(t, XArch{}.Version())
}
