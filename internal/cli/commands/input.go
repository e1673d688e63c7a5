package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNoInput is returned when a command that needs SQL received none.
var errNoInput = errors.New("no SQL given: pass it as arguments, with --input, or on stdin")

// addInputFlag registers -i/--input on a single-query command.
func addInputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "input", "i", "", "Read SQL from a file ('-' for stdin)")
}

// readQuery resolves the SQL of a single-query command. Positional
// arguments win, then --input, then piped stdin.
func readQuery(cmd *cobra.Command, args []string, inputFile string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if inputFile != "" && inputFile != "-" {
		content, err := os.ReadFile(inputFile) //nolint:gosec // G304: file named by the user
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(content), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && inputFile != "-" && term.IsTerminal(int(f.Fd())) {
		return "", errNoInput
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(content) == 0 && inputFile != "-" {
		return "", errNoInput
	}
	return string(content), nil
}
