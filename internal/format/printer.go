// Package format renders decoded instructions as column-aligned text or as
// a JSON document.
//
// Output is two-phase: Queue only buffers, Flush computes column widths over
// everything queued and writes once.
package format

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"hexdis/internal/disasm"
)

// Format selects the output encoding.
type Format int

const (
	Text Format = iota
	JSON
)

// Verbosity tiers. Anything above TierBytes renders like TierBytes.
const (
	TierText    = 0
	TierAddress = 1
	TierBytes   = 2
)

// Options configure a Printer.
type Options struct {
	Verbosity int
	Padding   int                 // column gap, DefaultPadding when zero
	Style     func(string) string // applied to mnemonic+operand text, nil for plain
	Format    Format

	// AddressStyle and BytesStyle color the leading columns when set.
	AddressStyle func(string) string
	BytesStyle   func(string) string

	// Mode and Base are echoed in the JSON header.
	Mode string
	Base uint64
}

// Printer queues rendered instructions and writes them on Flush.
type Printer struct {
	w       *bufio.Writer
	opts    Options
	rows    [][]string
	records []Record
}

// NewPrinter wraps w in a buffered writer.
func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	return &Printer{w: bufio.NewWriter(w), opts: opts}
}

// Len is the number of queued instructions.
func (p *Printer) Len() int {
	if p.opts.Format == JSON {
		return len(p.records)
	}
	return len(p.rows)
}

// Queue renders inst and keeps it until Flush.
func (p *Printer) Queue(inst disasm.Inst) error {
	if inst.Mnemonic == "" {
		return fmt.Errorf("instruction at %#x has no mnemonic", inst.Addr)
	}
	if p.opts.Format == JSON {
		p.records = append(p.records, NewRecord(inst))
		return nil
	}
	p.rows = append(p.rows, p.cells(inst))
	return nil
}

func (p *Printer) cells(inst disasm.Inst) []string {
	text := apply(p.opts.Style, inst.Text())
	if p.opts.Verbosity <= TierText {
		return []string{text}
	}
	addr := apply(p.opts.AddressStyle, Address(inst.Addr))
	if p.opts.Verbosity == TierAddress {
		return []string{addr, text}
	}
	return []string{addr, apply(p.opts.BytesStyle, Bytes(inst.Bytes)), text}
}

func apply(style func(string) string, s string) string {
	if style == nil {
		return s
	}
	return style(s)
}

// Lines returns the queued text rows aligned into columns.
func (p *Printer) Lines() []string {
	return Align(p.rows, p.opts.Padding)
}

// Flush writes everything queued and flushes the underlying writer.
// With nothing queued, text output writes nothing at all.
func (p *Printer) Flush() error {
	if p.opts.Format == JSON {
		if err := p.writeJSON(); err != nil {
			return err
		}
	} else if len(p.rows) > 0 {
		if _, err := io.WriteString(p.w, strings.Join(p.Lines(), "\n")+"\n"); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (p *Printer) writeJSON() error {
	records := p.records
	if records == nil {
		records = []Record{}
	}
	doc := Document{
		Mode:         p.opts.Mode,
		Base:         Address(p.opts.Base),
		Instructions: records,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := p.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Address renders an address the way every tier prints it.
func Address(addr uint64) string {
	return fmt.Sprintf("0x%016x", addr)
}

// Bytes renders raw bytes as space separated lowercase hex pairs.
func Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	s := hex.EncodeToString(b)
	var out strings.Builder
	out.Grow(len(s) + len(b) - 1)
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(s[i : i+2])
	}
	return out.String()
}
