package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"hexdis/internal/format"
	"hexdis/internal/hexdis/styles"
	"hexdis/internal/modes"
)

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the supported mode tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := modeTable()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) {
				width := 80
				if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
					width = w
				}
				return renderModesMarkdown(out, table, width)
			}
			return writeModesPlain(out, table)
		},
	}
}

func modeRow(e modes.Entry) []string {
	dash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	mode := e.Spec.Mode.String()
	if x := e.Spec.Extra.String(); x != "" {
		mode += "+" + x
	}
	return []string{
		e.Token,
		e.Spec.Arch.String(),
		mode,
		dash(e.Spec.Endian.String()),
		dash(e.Spec.Syntax.String()),
	}
}

var modeHeader = []string{"TOKEN", "ARCH", "MODE", "ENDIAN", "SYNTAX"}

func writeModesPlain(w io.Writer, table *modes.Table) error {
	rows := [][]string{modeHeader}
	for _, e := range table.Entries() {
		rows = append(rows, modeRow(e))
	}
	lines := format.Align(rows, 2)
	lines = append(lines, "", "default: "+table.Default())
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func modesMarkdown(table *modes.Table, engineName string) string {
	var b strings.Builder
	b.WriteString("# Modes\n\n")
	fmt.Fprintf(&b, "Tokens supported by the **%s** engine. The default is `%s`.\n\n", engineName, table.Default())
	b.WriteString("| " + strings.Join(modeHeader, " | ") + " |\n")
	b.WriteString(strings.Repeat("| --- ", len(modeHeader)) + "|\n")
	for _, e := range table.Entries() {
		row := modeRow(e)
		row[0] = "`" + row[0] + "`"
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func renderModesMarkdown(w io.Writer, table *modes.Table, width int) error {
	r, err := styles.MarkdownRenderer(width)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	rendered, err := r.Render(modesMarkdown(table, engine.Name()))
	if err != nil {
		return fmt.Errorf("render modes: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}
