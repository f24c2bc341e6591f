// Package pipeline drives one decode run: resolve the mode token, build the
// decoder, acquire input, decode and flush the formatted output.
//
// Stages run strictly in that order. The token and the decoder are settled
// before any input is read, so a bad mode never consumes stdin, and nothing
// is written to the output unless every earlier stage succeeded.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"hexdis/internal/disasm"
	"hexdis/internal/format"
	"hexdis/internal/input"
	"hexdis/internal/modes"
)

// State is a pipeline stage.
type State int

const (
	Start State = iota
	ModeResolved
	EngineReady
	InputAcquired
	Decoding
	Flushed
	Done
	Failed
)

var stateNames = [...]string{
	Start:         "start",
	ModeResolved:  "mode-resolved",
	EngineReady:   "engine-ready",
	InputAcquired: "input-acquired",
	Decoding:      "decoding",
	Flushed:       "flushed",
	Done:          "done",
	Failed:        "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config is one run's request.
type Config struct {
	Token     string
	Address   *uint64 // nil: section address when known, else 0
	Detail    bool
	Verbosity int
	Source    input.Source
	Format    format.Format

	// Style builds the text styler once the spec is known. Nil means plain.
	Style func(modes.Spec) func(string) string
}

// Result reports how far a run got.
type Result struct {
	State State
	Spec  modes.Spec
	Base  uint64
	Count int // instructions emitted
	Tail  int // undecodable bytes dropped
}

// Listing is the decoded buffer before formatting.
type Listing struct {
	Token string
	Spec  modes.Spec
	Base  uint64
	Insts []disasm.Inst
	Tail  []byte
}

// Driver holds the process-wide pieces shared by runs.
type Driver struct {
	Table  *modes.Table
	Engine disasm.Engine
	Out    io.Writer

	// Observe, when set, sees every state the run enters.
	Observe func(State)
}

func (d *Driver) enter(res *Result, s State) {
	res.State = s
	slog.Debug("Pipeline state", "state", s)
	if d.Observe != nil {
		d.Observe(s)
	}
}

func (d *Driver) fail(res *Result, err error) (Result, error) {
	d.enter(res, Failed)
	return *res, err
}

// Run decodes the configured input and writes it to Out.
func (d *Driver) Run(ctx context.Context, cfg Config) (Result, error) {
	res := Result{State: Start}
	listing, err := d.decode(ctx, cfg, &res)
	if err != nil {
		return d.fail(&res, err)
	}

	var style func(string) string
	if cfg.Style != nil && cfg.Format == format.Text {
		style = cfg.Style(listing.Spec)
	}
	p := format.NewPrinter(d.Out, format.Options{
		Verbosity: cfg.Verbosity,
		Style:     style,
		Format:    cfg.Format,
		Mode:      cfg.Token,
		Base:      listing.Base,
	})
	for _, inst := range listing.Insts {
		if err := p.Queue(inst); err != nil {
			return d.fail(&res, err)
		}
	}
	if err := p.Flush(); err != nil {
		return d.fail(&res, err)
	}
	d.enter(&res, Flushed)
	d.enter(&res, Done)
	return res, nil
}

// Decode runs every stage up to and including decoding and returns the
// instructions instead of writing them. The interactive pager uses it.
func (d *Driver) Decode(ctx context.Context, cfg Config) (Listing, error) {
	res := Result{State: Start}
	listing, err := d.decode(ctx, cfg, &res)
	if err != nil {
		d.enter(&res, Failed)
		return Listing{}, err
	}
	return listing, nil
}

func (d *Driver) decode(ctx context.Context, cfg Config, res *Result) (Listing, error) {
	spec, err := d.Table.Resolve(cfg.Token)
	if err != nil {
		return Listing{}, err
	}
	res.Spec = spec
	d.enter(res, ModeResolved)

	dec, err := d.Engine.New(spec, disasm.Options{Detail: cfg.Detail})
	if err != nil {
		return Listing{}, err
	}
	d.enter(res, EngineReady)

	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	buf, err := input.Acquire(cfg.Source)
	if err != nil {
		return Listing{}, err
	}
	d.enter(res, InputAcquired)
	if hint, err := d.Table.Resolve(buf.ModeHint); buf.ModeHint != "" && err == nil && !sameMachine(hint, spec) {
		slog.Warn("ELF machine does not match mode", "mode", cfg.Token, "elf", buf.ModeHint)
	}

	base := uint64(0)
	switch {
	case cfg.Address != nil:
		base = *cfg.Address
	case buf.HasAddr:
		base = buf.Addr
	}
	res.Base = base

	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	d.enter(res, Decoding)
	stream := dec.Decode(buf.Bytes, base)
	var insts []disasm.Inst
	for inst := range stream.All() {
		insts = append(insts, inst)
	}
	if err := stream.Err(); err != nil {
		slog.Debug("Decode stopped early",
			"offset", stream.Offset(),
			"dropped", len(stream.Tail()),
			"error", err)
	}
	res.Count = len(insts)
	res.Tail = len(stream.Tail())

	return Listing{
		Token: cfg.Token,
		Spec:  spec,
		Base:  base,
		Insts: insts,
		Tail:  stream.Tail(),
	}, nil
}

// sameMachine ignores syntax, which does not change what the bytes mean.
func sameMachine(a, b modes.Spec) bool {
	return a.Arch == b.Arch && a.Mode == b.Mode && a.ByteOrder() == b.ByteOrder()
}
