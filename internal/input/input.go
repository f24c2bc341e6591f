// Package input turns user supplied text, files or stdin into the byte
// buffer handed to the decoder.
package input

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"hexdis/internal/elfx"
)

var (
	ErrIO             = errors.New("input read failed")
	ErrInvalidAddress = errors.New("invalid address literal")
)

// IOError wraps a failure reading the input source.
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// Source describes where the bytes come from. Hex takes precedence over
// File, which takes precedence over Reader.
type Source struct {
	Hex     *string
	File    string
	Section string // ELF section to extract from File
	Reader  io.Reader
}

// Buffer is an acquired byte buffer. Addr is set when the source carries its
// own load address (an ELF section).
type Buffer struct {
	Bytes   []byte
	Addr    uint64
	HasAddr bool

	// ModeHint is the mode token the ELF header suggests, if any.
	ModeHint string
}

// Acquire reads the whole input described by src.
func Acquire(src Source) (Buffer, error) {
	switch {
	case src.Hex != nil:
		return Buffer{Bytes: ParseHex(*src.Hex)}, nil
	case src.File != "" && src.Section != "":
		return readSection(src.File, src.Section)
	case src.File != "":
		data, err := os.ReadFile(src.File)
		if err != nil {
			return Buffer{}, &IOError{Source: src.File, Err: err}
		}
		return Buffer{Bytes: data}, nil
	case src.Reader != nil:
		data, err := io.ReadAll(src.Reader)
		if err != nil {
			return Buffer{}, &IOError{Source: "stdin", Err: err}
		}
		slog.Debug("Read input", "bytes", len(data))
		return Buffer{Bytes: data}, nil
	}
	return Buffer{}, nil
}

func readSection(path, name string) (Buffer, error) {
	img, err := elfx.Open(path)
	if err != nil {
		return Buffer{}, &IOError{Source: path, Err: err}
	}
	defer img.Close()

	sec, err := img.Section(name)
	if err != nil {
		return Buffer{}, &IOError{Source: path, Err: err}
	}
	slog.Debug("Read ELF section", "file", path, "section", name, "addr", fmt.Sprintf("%#x", sec.VA), "size", len(sec.Data))
	return Buffer{Bytes: sec.Data, Addr: sec.VA, HasAddr: true, ModeHint: img.ModeHint()}, nil
}
