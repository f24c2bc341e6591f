// Package disasm wraps the instruction decoders of golang.org/x/arch behind a
// single engine and exposes decoded instructions as a lazy stream.
package disasm

import (
	"iter"
	"strings"
)

// Inst is a single decoded instruction.
type Inst struct {
	Addr     uint64   // linear address of the first byte
	Bytes    []byte   // raw encoding consumed by the decoder
	Mnemonic string   // lowercase mnemonic, including prefixes the syntax prints first
	OpStr    string   // operand text in the configured syntax
	Operands []string // per-operand text, only filled in detail mode
}

// Len is the number of bytes the instruction occupies.
func (i Inst) Len() int { return len(i.Bytes) }

// Text is mnemonic and operands separated by a space.
func (i Inst) Text() string {
	if i.OpStr == "" {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.OpStr
}

// Stream is a decode cursor over one buffer. It only moves forward: once it
// stops, at the end of the buffer or at the first undecodable byte, it stays
// stopped.
type Stream struct {
	dec  *Decoder
	code []byte
	base uint64
	off  int
	done bool
	err  error
}

// Next decodes the instruction at the cursor.
func (s *Stream) Next() (Inst, bool) {
	if s.done {
		return Inst{}, false
	}
	if s.off >= len(s.code) {
		s.done = true
		return Inst{}, false
	}

	pc := s.base + uint64(s.off)
	inst, err := s.dec.decodeOne(s.code[s.off:], pc)
	if err != nil {
		s.done = true
		s.err = err
		return Inst{}, false
	}
	s.off += inst.Len()
	return inst, true
}

// All yields the remaining instructions.
func (s *Stream) All() iter.Seq[Inst] {
	return func(yield func(Inst) bool) {
		for {
			inst, ok := s.Next()
			if !ok || !yield(inst) {
				return
			}
		}
	}
}

// Offset is the number of bytes consumed so far.
func (s *Stream) Offset() int { return s.off }

// Tail returns the bytes left undecoded after the stream stopped.
func (s *Stream) Tail() []byte { return s.code[s.off:] }

// Err reports why decoding stopped before the end of the buffer.
// A stream that consumed the whole buffer returns nil.
func (s *Stream) Err() error { return s.err }

// splitText splits rendered assembly at the first run of whitespace.
func splitText(text string) (mnemonic, operands string) {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return strings.ToLower(text), ""
	}
	return strings.ToLower(text[:idx]), strings.TrimSpace(text[idx+1:])
}

// splitOperands breaks operand text at top-level commas.
func splitOperands(ops string) []string {
	if ops == "" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(ops); i++ {
		switch ops[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(ops[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(ops[start:]))
}
