package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputFlag is the persistent flag selecting the output format.
const OutputFlag = "output"

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	Dimmed  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Bold    = lipgloss.NewStyle().Bold(true)
)

// Render styles text unless NO_COLOR is set.
func Render(style lipgloss.Style, text string) string {
	if os.Getenv("NO_COLOR") != "" {
		return text
	}
	return style.Render(text)
}

// Printer writes command results in the selected format.
type Printer struct {
	out    io.Writer
	format string
}

// NewPrinter builds a printer from the command's --output flag.
func NewPrinter(cmd *cobra.Command) (*Printer, error) {
	format := FormatText
	if f := cmd.Flags().Lookup(OutputFlag); f != nil {
		format = f.Value.String()
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
	return &Printer{out: cmd.OutOrStdout(), format: format}, nil
}

// Structured reports whether output is machine-readable.
func (p *Printer) Structured() bool {
	return p.format != FormatText
}

// Print writes v as JSON or YAML, or calls text for the text format.
func (p *Printer) Print(v interface{}, text func(w io.Writer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(p.out)
		return nil
	}
}

// Outcome prints a success or failure line for a domain result.
func (p *Printer) Outcome(v interface{}, success bool, message string) error {
	return p.Print(v, func(w io.Writer) {
		if success {
			fmt.Fprintln(w, Render(Success, "✓ ")+message)
		} else {
			fmt.Fprintln(w, Render(Failure, "✗ ")+message)
		}
	})
}
