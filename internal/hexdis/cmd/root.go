package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"sync"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"hexdis/internal/config"
	"hexdis/internal/disasm"
	"hexdis/internal/format"
	"hexdis/internal/hexdis/log"
	"hexdis/internal/input"
	"hexdis/internal/modes"
	"hexdis/internal/pipeline"
	"hexdis/internal/ui/colorize"
	"hexdis/internal/ui/view"
)

var (
	engine disasm.Engine = disasm.XArch{}

	// modeTable is built once per process and shared by every command.
	modeTable = sync.OnceValues(func() (*modes.Table, error) {
		return modes.NewTable(engine)
	})
)

type rootOptions struct {
	configPath  string
	debug       bool
	mode        string
	address     string
	detail      bool
	verbose     int
	file        string
	section     string
	json        bool
	color       string
	style       string
	interactive bool
	cpuprofile  string
	memprofile  string

	cfg config.Config
}

// NewRootCmd builds the hexdis command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hexdis [assembly]",
		Short: "Decode machine code into instructions",
		Long: `Hexdis decodes a buffer of machine code into instructions for the
selected architecture and prints one instruction per line.

The buffer is the hex given as arguments, the contents of --file
(optionally a single ELF --section), or raw bytes read from stdin.`,
		Example: `
# Decode x86-64 from a hex string
hexdis "55 48 89 e5 c3"

# Show addresses and bytes, starting at 0x1000
hexdis -vv -a 0x1000 90 90 c3

# Decode raw AArch64 from stdin
printf '\xc0\x03\x5f\xd6' | hexdis -m arm64

# Decode the .text section of an ELF binary
hexdis -m arm64 -f ./libfoo.so -s .text -v
  `,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Path(o.configPath))
			if err != nil {
				return err
			}
			o.cfg = cfg
			log.Setup(o.debug || cfg.Debug)
			return nil
		},
		RunE: o.run,
	}

	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "Debug logging")

	flags := rootCmd.Flags()
	flags.StringVarP(&o.mode, "mode", "m", modes.DefaultToken, modeUsage())
	flags.StringVarP(&o.address, "address", "a", "", "Base address of the first byte, decimal or hex (default 0)")
	flags.BoolVarP(&o.detail, "detail", "d", false, "Request per-operand detail from the decoder")
	flags.CountVarP(&o.verbose, "verbose", "v", "Add addresses (-v) and raw bytes (-vv)")
	flags.StringVarP(&o.file, "file", "f", "", "Read the buffer from a file")
	flags.StringVarP(&o.section, "section", "s", "", "Decode only this ELF section of --file")
	flags.BoolVarP(&o.json, "json", "j", false, "Write a JSON document instead of text")
	flags.StringVar(&o.color, "color", "auto", "Color output: auto, always or never")
	flags.StringVar(&o.style, "style", "solid", "Instruction coloring: solid or syntax")
	flags.BoolVarP(&o.interactive, "interactive", "i", false, "Browse the listing in a pager")
	flags.StringVar(&o.cpuprofile, "cpuprofile", "", "Write CPU profile to file")
	flags.StringVar(&o.memprofile, "memprofile", "", "Write memory profile to file")

	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		table, err := modeTable()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return table.Tokens(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("color", cobra.FixedCompletions([]string{"auto", "always", "never"}, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("style", cobra.FixedCompletions([]string{"solid", "syntax"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(newModesCmd(), newSchemaCmd(), newVersionCmd())
	return rootCmd
}

func modeUsage() string {
	table, err := modeTable()
	if err != nil {
		return "Mode token"
	}
	return "Mode token, one of: " + strings.Join(table.Tokens(), ", ")
}

// merge fills every flag the user did not set from the config file.
func (o *rootOptions) merge(cmd *cobra.Command) {
	changed := cmd.Flags().Changed
	if !changed("mode") && o.cfg.Mode != "" {
		o.mode = o.cfg.Mode
	}
	if !changed("address") && o.cfg.Address != "" {
		o.address = o.cfg.Address
	}
	if !changed("detail") && o.cfg.Detail {
		o.detail = true
	}
	if !changed("verbose") && o.cfg.Verbosity > 0 {
		o.verbose = o.cfg.Verbosity
	}
	if !changed("json") && o.cfg.JSON {
		o.json = true
	}
	if !changed("color") && o.cfg.Color != "" {
		o.color = o.cfg.Color
	}
	if !changed("style") && o.cfg.Style != "" {
		o.style = o.cfg.Style
	}
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	o.merge(cmd)

	stop, err := startProfiling(o.cpuprofile, o.memprofile)
	if err != nil {
		return err
	}
	defer stop()

	table, err := modeTable()
	if err != nil {
		return err
	}
	// Settle the mode before anything touches the input.
	if _, err := table.Resolve(o.mode); err != nil {
		return err
	}

	rc := pipeline.Config{
		Token:     o.mode,
		Detail:    o.detail,
		Verbosity: o.verbose,
	}
	if o.address != "" {
		addr, err := input.ParseAddress(o.address)
		if err != nil {
			return err
		}
		rc.Address = &addr
	}
	if o.section != "" && o.file == "" {
		return errors.New("--section requires --file")
	}
	switch {
	case len(args) > 0:
		hex := strings.Join(args, " ")
		rc.Source.Hex = &hex
	case o.file != "":
		rc.Source.File = o.file
		rc.Source.Section = o.section
	default:
		rc.Source.Reader = cmd.InOrStdin()
	}
	if o.json {
		rc.Format = format.JSON
	}

	when, err := colorize.ParseWhen(o.color)
	if err != nil {
		return err
	}
	kind, err := colorize.ParseKind(o.style)
	if err != nil {
		return err
	}

	driver := &pipeline.Driver{Table: table, Engine: engine, Out: cmd.OutOrStdout()}

	if o.interactive {
		if rc.Source.Reader != nil {
			return errors.New("--interactive needs the input as an argument or --file")
		}
		return runPager(cmd.Context(), driver, rc, kind, when != colorize.Never)
	}

	if colorize.Enabled(when, outFile(cmd)) {
		rc.Style = func(spec modes.Spec) func(string) string {
			return colorize.Styler(kind, spec)
		}
	}
	res, err := driver.Run(cmd.Context(), rc)
	if err != nil {
		return err
	}
	slog.Debug("Decode finished", "mode", o.mode, "spec", res.Spec, "instructions", res.Count, "dropped", res.Tail)
	return nil
}

func runPager(ctx context.Context, driver *pipeline.Driver, rc pipeline.Config, kind colorize.Kind, colored bool) error {
	src := func() (pipeline.Listing, []string, error) {
		listing, err := driver.Decode(ctx, rc)
		if err != nil {
			return listing, nil, err
		}
		var style func(string) string
		if colored {
			style = colorize.Styler(kind, listing.Spec)
		}
		lines, err := view.Lines(listing, rc.Verbosity, style)
		return listing, lines, err
	}
	return view.Run(ctx, view.New("hexdis "+rc.Token, src))
}

// outFile returns the command's output as a file when it is one.
func outFile(cmd *cobra.Command) *os.File {
	f, _ := cmd.OutOrStdout().(*os.File)
	return f
}

func startProfiling(cpuprofile, memprofile string) (func(), error) {
	var stops []func()
	stop := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return stop, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, fmt.Errorf("could not start CPU profile: %w", err)
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if memprofile != "" {
		stops = append(stops, func() {
			f, err := os.Create(memprofile)
			if err != nil {
				slog.Error("Could not create memory profile", "error", err)
				return
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				slog.Error("Could not write memory profile", "error", err)
			}
		})
	}
	return stop, nil
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	defer log.Close()

	// Plain cobra when piped, so errors stay a single line and fang's
	// styling never reaches a file.
	if !term.IsTerminal(os.Stdout.Fd()) || !term.IsTerminal(os.Stderr.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "hexdis: %v\n", err)
			log.Close()
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		log.Close()
		os.Exit(1)
	}
}
