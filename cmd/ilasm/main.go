package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/cil-emit/body"
	"github.com/wippyai/cil-emit/emit"
	"github.com/wippyai/cil-emit/region"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func main() {
	var (
		method      = flag.String("method", "", "Sample method to assemble (default: all)")
		list        = flag.Bool("list", false, "List sample methods and exit")
		showHex     = flag.Bool("hex", false, "Dump the encoded method body")
		noFault     = flag.Bool("nofault", false, "Target a container without fault/filter support")
		colorMode   = flag.String("color", "auto", "Colour output: auto, always or never")
		verbose     = flag.Bool("v", false, "Log emission at debug level")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := configure(*colorMode, *verbose, *noFault)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: ilasm [-method name] [-hex] [-nofault] [-color auto|always|never] [-v]")
		fmt.Fprintln(os.Stderr, "       ilasm -list")
		fmt.Fprintln(os.Stderr, "       ilasm -i  (interactive mode)")
		os.Exit(1)
	}
	defer func() { _ = cfg.log.Sync() }()

	if *list {
		printCatalogue(os.Stdout, cfg.color)
		return
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, *method, *showHex, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configure(colorMode string, verbose, noFault bool) (settings, error) {
	cfg := settings{log: zap.NewNop(), noFault: noFault}

	switch colorMode {
	case "auto":
		cfg.color = term.IsTerminal(int(os.Stdout.Fd()))
	case "always":
		cfg.color = true
	case "never":
	default:
		return cfg, fmt.Errorf("unknown colour mode %q", colorMode)
	}

	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return cfg, fmt.Errorf("create logger: %w", err)
		}
		cfg.log = l
		emit.SetLogger(l)
		body.SetLogger(l)
		region.SetLogger(l)
	}
	return cfg, nil
}

func run(w io.Writer, method string, showHex bool, cfg settings) error {
	samples := catalogue
	if method != "" {
		s, ok := lookup(method)
		if !ok {
			return fmt.Errorf("unknown method %q (use -list)", method)
		}
		samples = []sample{s}
	}

	var unexpected []string
	for _, a := range assembleAll(samples, cfg) {
		printAssembly(w, a, showHex, cfg.color)
		if !a.ok() {
			unexpected = append(unexpected, a.sample.name)
		}
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("unexpected outcome for %s", strings.Join(unexpected, ", "))
	}
	return nil
}

func printCatalogue(w io.Writer, color bool) {
	for _, s := range catalogue {
		fmt.Fprintf(w, "  %-16s %s\n", paint(color, nameStyle, s.name), s.summary)
	}
}

func printAssembly(w io.Writer, a *assembly, showHex, color bool) {
	fmt.Fprintf(w, "%s %s\n\n", paint(color, titleStyle, a.sample.name), a.sample.summary)

	fmt.Fprintln(w, paint(color, sectionStyle, "trace:"))
	fmt.Fprintln(w, indent(a.trace))

	if a.err != nil {
		label := "error:"
		if a.sample.fails {
			label = "rejected:"
		}
		fmt.Fprintf(w, "%s %v\n\n", paint(color, errorStyle, label), a.err)
		return
	}

	fmt.Fprintln(w, paint(color, sectionStyle, "disassembly:"))
	fmt.Fprintln(w, indent(a.listing))

	if showHex {
		fmt.Fprintln(w, paint(color, sectionStyle, "body:"))
		fmt.Fprintln(w, indent(a.hex()))
	}
}

func paint(color bool, s lipgloss.Style, text string) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func indent(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "  (empty)\n"
	}
	return "  " + strings.ReplaceAll(text, "\n", "\n  ") + "\n"
}
