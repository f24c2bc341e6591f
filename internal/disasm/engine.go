package disasm

import (
	"errors"
	"fmt"

	"hexdis/internal/modes"
)

// ErrEngine is wrapped by every decoder construction failure.
var ErrEngine = errors.New("decode engine error")

// EngineError reports a configuration the engine refused.
type EngineError struct {
	Engine string
	Spec   modes.Spec
	Reason string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: cannot decode %s: %s", e.Engine, e.Spec, e.Reason)
}

func (e *EngineError) Unwrap() error { return ErrEngine }

// Options tune decoder construction.
type Options struct {
	// Detail fills Inst.Operands by splitting the operand text, so every
	// entry is in the configured syntax.
	Detail bool
}

// Engine builds decoders for the configurations it supports.
type Engine interface {
	Name() string
	Version() string
	Supports(modes.Spec) bool
	New(modes.Spec, Options) (*Decoder, error)
}

// decodeFunc decodes the instruction at the start of code. It returns the
// number of bytes consumed and the text rendered for address pc.
type decodeFunc func(code []byte, pc uint64) (n int, text string, err error)

// Decoder decodes buffers for one resolved configuration.
type Decoder struct {
	spec   modes.Spec
	opts   Options
	decode decodeFunc
}

// NewDecoder wraps a raw decode function. Engines other than XArch and
// tests use it to plug in their own decoding.
func NewDecoder(spec modes.Spec, opts Options, fn func(code []byte, pc uint64) (int, string, error)) *Decoder {
	return &Decoder{spec: spec, opts: opts, decode: fn}
}

// Spec returns the configuration the decoder was built for.
func (d *Decoder) Spec() modes.Spec { return d.spec }

// Detail reports whether detail mode is on.
func (d *Decoder) Detail() bool { return d.opts.Detail }

// Decode starts a stream over code whose first byte sits at base.
func (d *Decoder) Decode(code []byte, base uint64) *Stream {
	return &Stream{dec: d, code: code, base: base}
}

func (d *Decoder) decodeOne(code []byte, pc uint64) (Inst, error) {
	n, text, err := d.decode(code, pc)
	if err != nil {
		return Inst{}, err
	}
	if n <= 0 || n > len(code) {
		return Inst{}, fmt.Errorf("decoder consumed %d of %d bytes", n, len(code))
	}

	mnemonic, ops := splitText(text)
	inst := Inst{
		Addr:     pc,
		Bytes:    code[:n:n],
		Mnemonic: mnemonic,
		OpStr:    ops,
	}
	if d.opts.Detail {
		inst.Operands = splitOperands(ops)
	}
	return inst, nil
}
