package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexdis/internal/disasm"
	"hexdis/internal/format"
	"hexdis/internal/input"
	"hexdis/internal/modes"
)

// countingReader records whether the pipeline touched stdin.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

type everyMode struct{}

func (everyMode) Supports(modes.Spec) bool { return true }

func newDriver(t *testing.T, out io.Writer) *Driver {
	t.Helper()
	table, err := modes.NewTable(disasm.XArch{})
	require.NoError(t, err)
	return &Driver{Table: table, Engine: disasm.XArch{}, Out: out}
}

func hexSource(s string) input.Source {
	return input.Source{Hex: &s}
}

func addr(a uint64) *uint64 { return &a }

func TestRunExample(t *testing.T) {
	var out bytes.Buffer
	d := newDriver(t, &out)

	res, err := d.Run(context.Background(), Config{
		Token:     "x64",
		Address:   addr(0x1000),
		Verbosity: 2,
		Source:    hexSource("90 90 c3"),
	})
	require.NoError(t, err)

	want := "0x0000000000001000    90    nop\n" +
		"0x0000000000001001    90    nop\n" +
		"0x0000000000001002    c3    ret\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Done, res.State)
	assert.Equal(t, 3, res.Count)
	assert.Zero(t, res.Tail)
	assert.Equal(t, uint64(0x1000), res.Base)
}

func TestRunStates(t *testing.T) {
	var seen []State
	d := newDriver(t, io.Discard)
	d.Observe = func(s State) { seen = append(seen, s) }

	_, err := d.Run(context.Background(), Config{Token: "x64", Source: hexSource("c3")})
	require.NoError(t, err)
	assert.Equal(t, []State{ModeResolved, EngineReady, InputAcquired, Decoding, Flushed, Done}, seen)
}

func TestRunBogusModeLeavesStdinUntouched(t *testing.T) {
	var out bytes.Buffer
	stdin := &countingReader{r: strings.NewReader("\x90\x90\xc3")}
	d := newDriver(t, &out)

	res, err := d.Run(context.Background(), Config{
		Token:  "bogus",
		Source: input.Source{Reader: stdin},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, modes.ErrInvalidModeToken)

	var tokErr *modes.InvalidTokenError
	require.True(t, errors.As(err, &tokErr))
	assert.Equal(t, "bogus", tokErr.Token)

	assert.Equal(t, Failed, res.State)
	assert.Zero(t, stdin.reads)
	assert.Zero(t, out.Len())
}

func TestRunEngineErrorBeforeInput(t *testing.T) {
	// A table that claims every mode lets an unsupported spec reach the
	// engine, which must fail before stdin is read.
	table, err := modes.NewTable(everyMode{})
	require.NoError(t, err)

	var out bytes.Buffer
	var seen []State
	stdin := &countingReader{r: strings.NewReader("\x00\x00\x00\x00")}
	d := &Driver{Table: table, Engine: disasm.XArch{}, Out: &out, Observe: func(s State) { seen = append(seen, s) }}

	res, err := d.Run(context.Background(), Config{
		Token:  "mips",
		Source: input.Source{Reader: stdin},
	})
	assert.ErrorIs(t, err, disasm.ErrEngine)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, []State{ModeResolved, Failed}, seen)
	assert.Zero(t, stdin.reads)
	assert.Zero(t, out.Len())
}

func TestRunEmptyInput(t *testing.T) {
	for _, src := range []input.Source{
		hexSource(""),
		hexSource("zz --"),
		{Reader: strings.NewReader("")},
	} {
		var out bytes.Buffer
		res, err := newDriver(t, &out).Run(context.Background(), Config{Token: "x64", Verbosity: 2, Source: src})
		require.NoError(t, err)
		assert.Equal(t, Done, res.State)
		assert.Zero(t, res.Count)
		assert.Zero(t, out.Len())
	}
}

func TestRunPartialDecode(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		hex       string
		mnemonics []string
		tail      int
	}{
		{"trailing escape", "x64", "90 90 0f", []string{"nop", "nop"}, 1},
		{"escape mid buffer", "x64", "c3 0f 90 90", []string{"ret"}, 3},
		{"att escape mid buffer", "x64att", "c3 0f 90 90", []string{"ret"}, 3},
		{"dangling prefix", "x64", "90 66", []string{"nop"}, 1},
		{"systemz zero halfword", "systemz", "07 fe 00 00", []string{"br"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			res, err := newDriver(t, &out).Run(context.Background(), Config{
				Token:  tt.token,
				Source: hexSource(tt.hex),
			})
			require.NoError(t, err)
			assert.Equal(t, Done, res.State)
			assert.Equal(t, len(tt.mnemonics), res.Count)
			assert.Equal(t, tt.tail, res.Tail)

			var got []string
			for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
				got = append(got, strings.Fields(line)[0])
			}
			assert.Equal(t, tt.mnemonics, got)
		})
	}
}

func TestRunStdin(t *testing.T) {
	var out bytes.Buffer
	_, err := newDriver(t, &out).Run(context.Background(), Config{
		Token:     "arm64",
		Verbosity: 1,
		Source:    input.Source{Reader: bytes.NewReader([]byte{0xc0, 0x03, 0x5f, 0xd6})},
	})
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000    ret\n", out.String())
}

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	_, err := newDriver(t, &out).Run(context.Background(), Config{
		Token:   "x64",
		Address: addr(0x401000),
		Detail:  true,
		Format:  format.JSON,
		Source:  hexSource("48 89 e5 c3"),
		Style:   func(modes.Spec) func(string) string { return strings.ToUpper },
	})
	require.NoError(t, err)

	var doc format.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "x64", doc.Mode)
	require.Len(t, doc.Instructions, 2)
	assert.Equal(t, "mov", doc.Instructions[0].Mnemonic, "styling never reaches JSON")
	assert.Len(t, doc.Instructions[0].Detail, 2)
	assert.Equal(t, "0x0000000000401003", doc.Instructions[1].Address)
}

func TestRunStyle(t *testing.T) {
	var out bytes.Buffer
	var styledFor modes.Spec
	_, err := newDriver(t, &out).Run(context.Background(), Config{
		Token:  "x32att",
		Source: hexSource("c3"),
		Style: func(spec modes.Spec) func(string) string {
			styledFor = spec
			return func(s string) string { return "<" + s + ">" }
		},
	})
	require.NoError(t, err)
	assert.Equal(t, modes.ATT, styledFor.Syntax)
	assert.True(t, strings.HasPrefix(out.String(), "<ret"), out.String())
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdin := &countingReader{r: strings.NewReader("\xc3")}
	res, err := newDriver(t, io.Discard).Run(ctx, Config{Token: "x64", Source: input.Source{Reader: stdin}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, res.State)
	assert.Zero(t, stdin.reads)
}

func TestRunIOError(t *testing.T) {
	var out bytes.Buffer
	_, err := newDriver(t, &out).Run(context.Background(), Config{
		Token:  "x64",
		Source: input.Source{Reader: iotestErrReader{}},
	})
	assert.ErrorIs(t, err, input.ErrIO)
	assert.Zero(t, out.Len())
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestDecodeSectionAddress(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("needs an amd64 ELF test binary")
	}
	d := newDriver(t, io.Discard)
	src := input.Source{File: os.Args[0], Section: ".text"}

	listing, err := d.Decode(context.Background(), Config{Token: "x64", Source: src})
	require.NoError(t, err)
	require.NotEmpty(t, listing.Insts)
	assert.NotZero(t, listing.Base)
	assert.Equal(t, listing.Base, listing.Insts[0].Addr)

	listing, err = d.Decode(context.Background(), Config{Token: "x64", Address: addr(0), Source: src})
	require.NoError(t, err)
	assert.Zero(t, listing.Insts[0].Addr, "explicit address wins over the section address")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "engine-ready", EngineReady.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestSameMachine(t *testing.T) {
	table, err := modes.NewTable(disasm.XArch{})
	require.NoError(t, err)
	resolve := func(tok string) modes.Spec {
		spec, err := table.Resolve(tok)
		require.NoError(t, err)
		return spec
	}
	assert.True(t, sameMachine(resolve("x64"), resolve("x64att")))
	assert.False(t, sameMachine(resolve("x64"), resolve("x32")))
	assert.False(t, sameMachine(resolve("arm64"), resolve("arm64be")))
}
