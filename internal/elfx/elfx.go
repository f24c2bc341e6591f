// Package elfx provides helpers for opening ELF binaries and pulling the
// bytes and load address of a named section.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"sort"
)

type Image struct {
	Path string
	File *elf.File
}

type Section struct {
	Name string
	VA   uint64
	Data []byte
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	return &Image{Path: path, File: f}, nil
}

// Close closes the underlying file.
func (im *Image) Close() error {
	if im.File == nil {
		return nil
	}
	err := im.File.Close()
	im.File = nil
	return err
}

// Section returns the contents of the named section. Sections without file
// contents (.bss) are rejected.
func (im *Image) Section(name string) (Section, error) {
	s := im.File.Section(name)
	if s == nil {
		return Section{}, fmt.Errorf("no section %q (have %v)", name, im.SectionNames())
	}
	if s.Type == elf.SHT_NOBITS {
		return Section{}, fmt.Errorf("section %q has no file contents", name)
	}
	data, err := s.Data()
	if err != nil {
		return Section{}, fmt.Errorf("read section %q: %w", name, err)
	}
	return Section{Name: s.Name, VA: s.Addr, Data: data}, nil
}

// SectionNames lists the sections that carry file contents, sorted.
func (im *Image) SectionNames() []string {
	var names []string
	for _, s := range im.File.Sections {
		if s.Name == "" || s.Type == elf.SHT_NOBITS {
			continue
		}
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// ModeHint suggests a mode token matching the ELF machine and byte order.
// It returns "" for machines with no matching token.
func (im *Image) ModeHint() string {
	big := im.File.ByteOrder == binary.BigEndian
	switch im.File.Machine {
	case elf.EM_X86_64:
		return "x64"
	case elf.EM_386:
		return "x32"
	case elf.EM_ARM:
		if big {
			return "armbe"
		}
		return "arm"
	case elf.EM_AARCH64:
		if big {
			return "arm64be"
		}
		return "arm64"
	case elf.EM_PPC64:
		if big {
			return "ppc64be"
		}
		return "ppc64"
	case elf.EM_S390:
		return "systemz"
	case elf.EM_MIPS:
		if big {
			if im.File.Class == elf.ELFCLASS64 {
				return "mips64be"
			}
			return "mipsbe"
		}
		if im.File.Class == elf.ELFCLASS64 {
			return "mips64"
		}
		return "mips"
	case elf.EM_SPARC, elf.EM_SPARCV9:
		return "sparc"
	}
	return ""
}
