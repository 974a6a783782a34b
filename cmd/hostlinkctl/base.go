package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"
)

// cmdRun holds what every subcommand shares.
type cmdRun struct {
	subcommands.CommandRunBase
}

// usageErr reports wrong arguments.
func (r *cmdRun) usageErr(a subcommands.Application, usage, format string, args ...any) int {
	fmt.Fprintf(a.GetErr(), "hostlinkctl: %s\nusage: %s\n", fmt.Sprintf(format, args...), usage)
	return exitUsage
}

// done reports err, if any, and returns the exit code.
func (r *cmdRun) done(a subcommands.Application, err error) int {
	if err != nil {
		fmt.Fprintf(a.GetErr(), "hostlinkctl: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeIndented re-indents a JSON document onto w.
func writeIndented(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indent output: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
