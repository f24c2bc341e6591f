package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// StyleName is the chroma style registered by this package.
const StyleName = "hexdis-dark"

// HexdisDark colors mnemonics with the solid accent and keeps operands
// readable on dark terminals.
var HexdisDark = styles.Register(chroma.MustNewStyle(StyleName, chroma.StyleEntries{
	chroma.Text:           "#D4D4D4",
	chroma.Comment:        "#6A9955",
	chroma.CommentPreproc: "#6A9955",

	// nasm and gas tokenize mnemonics as keywords or functions
	chroma.Keyword:       Accent,
	chroma.KeywordPseudo: Accent,
	chroma.NameFunction:  Accent,
	chroma.NameBuiltin:   "#7C9C9D", // registers
	chroma.NameVariable:  "#7C9C9D",
	chroma.Name:          "#9CDCFE",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberBin:     "#FF5F87",
	chroma.LiteralNumberOct:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.LiteralNumberFloat:   "#FF5F87",

	chroma.NameLabel:   "#FFD700",
	chroma.Operator:    "#D4D4D4",
	chroma.Punctuation: "#D4D4D4",
	chroma.String:      "#EACD53",
}))
