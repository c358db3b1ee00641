package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// Command represents a CLI command with common functionality
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Run         func(args []string) error
}

// NewFlagSet creates a standardized flag set for a command
func (c *Command) NewFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.Usage = func() {
		c.PrintUsage()
		fmt.Fprintln(os.Stderr, "\nFLAGS:")
		fs.PrintDefaults()
	}
	return fs
}

// PrintUsage prints standardized usage information
func (c *Command) PrintUsage() {
	fmt.Fprintf(os.Stderr, "%s\n\n", c.Description)
	fmt.Fprintf(os.Stderr, "USAGE:\n    %s\n", c.Usage)
	if len(c.Examples) > 0 {
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		for _, example := range c.Examples {
			fmt.Fprintf(os.Stderr, "    %s\n", example)
		}
	}
}

// CommandRegistry manages all CLI commands
type CommandRegistry struct {
	commands map[string]*Command
	order    []string
	version  VersionInfo
}

// VersionInfo holds build-time version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry(v VersionInfo) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
		version:  v,
	}
}

// Register adds a command to the registry. Help lists commands in
// registration order.
func (r *CommandRegistry) Register(cmd *Command) {
	if _, ok := r.commands[cmd.Name]; !ok {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Execute runs the appropriate command based on args
func (r *CommandRegistry) Execute(args []string) error {
	if len(args) < 1 {
		r.PrintHelp(os.Stdout)
		return fmt.Errorf("no command specified")
	}

	cmdName := args[0]

	switch cmdName {
	case "help", "-h", "--help":
		r.PrintHelp(os.Stdout)
		return nil
	case "version", "--version":
		fmt.Printf("storefront %s (commit: %s, built: %s)\n", r.version.Version, r.version.Commit, r.version.Date)
		return nil
	}

	cmd, ok := r.commands[cmdName]
	if !ok {
		r.PrintHelp(os.Stderr)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	return cmd.Run(args[1:])
}

// PrintHelp prints overall CLI help
func (r *CommandRegistry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "storefront - shop from the terminal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    storefront [--config path] <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	for _, name := range r.order {
		cmd := r.commands[name]
		fmt.Fprintf(w, "    %-12s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintf(w, "    %-12s %s\n", "version", "Show version information")
	fmt.Fprintf(w, "    %-12s %s\n", "help", "Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'storefront <command> --help' for more information on a command.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "    # Sign in and browse the cheapest items first")
	fmt.Fprintln(w, "    storefront login --email buyer@storefront.test --password storefront")
	fmt.Fprintln(w, "    storefront items --sort price-asc")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "    # Order everything in the shopping list")
	fmt.Fprintln(w, "    storefront checkout --request \"Leave at the door\"")
}

// TableWriter provides simple table formatting
type TableWriter struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTableWriter creates a new table writer
func NewTableWriter(headers ...string) *TableWriter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &TableWriter{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *TableWriter) AddRow(row ...string) {
	t.rows = append(t.rows, row)
	for i, cell := range row {
		if i < len(t.widths) && len([]rune(cell)) > t.widths[i] {
			t.widths[i] = len([]rune(cell))
		}
	}
}

// Print writes the table with borders
func (t *TableWriter) Print(w io.Writer) {
	t.printSeparator(w, "┌", "┬", "┐")
	t.printRow(w, t.headers)
	t.printSeparator(w, "├", "┼", "┤")
	for _, row := range t.rows {
		t.printRow(w, row)
	}
	t.printSeparator(w, "└", "┴", "┘")
}

func (t *TableWriter) printSeparator(w io.Writer, left, mid, right string) {
	fmt.Fprint(w, left)
	for i, width := range t.widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			fmt.Fprint(w, mid)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *TableWriter) printRow(w io.Writer, row []string) {
	fmt.Fprint(w, "│")
	for i, cell := range row {
		if i < len(t.widths) {
			fmt.Fprintf(w, " %s%s │", cell, strings.Repeat(" ", t.widths[i]-len([]rune(cell))))
		}
	}
	fmt.Fprintln(w)
}
