package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codenav/internal/unit"
)

var (
	loadPaths   []string
	bufferSpecs []string
	jsonOutput  bool
)

var definitionCmd = &cobra.Command{
	Use:   "definition FILE LINE COLUMN",
	Short: "Print the definition position of the symbol at FILE:LINE:COLUMN",
	Long: `Print where the symbol referenced at FILE:LINE:COLUMN (1-based) is defined,
as FILE:LINE:COLUMN. When nothing better is found the input position is printed
unchanged.

Examples:
  codenav definition test.cpp 7 2 --load print.cpp
  codenav definition test.cpp 7 2 --buffer test.cpp=/tmp/unsaved.cpp --json`,
	Args: cobra.ExactArgs(3),
	RunE: runDefinition,
}

func init() {
	definitionCmd.Flags().StringSliceVarP(&loadPaths, "load", "l", nil, "additional files to load before the lookup")
	definitionCmd.Flags().StringArrayVarP(&bufferSpecs, "buffer", "b", nil, "unsaved buffer as FILE=TEXTFILE (repeatable)")
	definitionCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	rootCmd.AddCommand(definitionCmd)
}

func runDefinition(cmd *cobra.Command, args []string) error {
	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line: %s", args[1])
	}
	col, err := strconv.Atoi(args[2])
	if err != nil || col < 1 {
		return fmt.Errorf("invalid column: %s", args[2])
	}

	buffers, err := parseBuffers(bufferSpecs)
	if err != nil {
		return err
	}

	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(loadPaths) > 0 {
		loadWithProgress(cmd, e, loadPaths, "Loading")
	}

	jump := e.GoToDefinition(args[0], line, col, buffers)

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(jump)
	}
	fmt.Fprintf(out, "%s:%d:%d\n", jump.File, jump.Line, jump.Column)
	return nil
}

// parseBuffers reads FILE=TEXTFILE specs into buffers for FILE.
func parseBuffers(specs []string) ([]unit.Buffer, error) {
	var buffers []unit.Buffer
	for _, spec := range specs {
		file, source, ok := strings.Cut(spec, "=")
		if !ok || file == "" || source == "" {
			return nil, fmt.Errorf("invalid buffer %q, want FILE=TEXTFILE", spec)
		}
		text, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read buffer for %s: %w", file, err)
		}
		buffers = append(buffers, unit.Buffer{File: file, Text: text})
	}
	return buffers, nil
}
