// Command hostlinkctl inspects host runtime negotiation offline: it upgrades
// captured runtime records, synthesizes legacy runtimes from TOML host
// profiles, prints wire schemas and validates captured frames.
package main

import (
	"io"
	"os"

	"github.com/maruel/subcommands"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// application is a DefaultApplication whose output streams can be replaced.
type application struct {
	subcommands.DefaultApplication
	out io.Writer
	err io.Writer
}

func (a *application) GetOut() io.Writer { return a.out }
func (a *application) GetErr() io.Writer { return a.err }

func newApplication(out, errOut io.Writer) *application {
	return &application{
		DefaultApplication: subcommands.DefaultApplication{
			Name:  "hostlinkctl",
			Title: "Offline tooling for host runtime negotiation.",
			// Keep in alphabetical order of their name.
			Commands: []*subcommands.Command{
				subcommands.CmdHelp,
				cmdSchema,
				cmdSynthesize,
				cmdUpgrade,
				cmdValidate,
			},
		},
		out: out,
		err: errOut,
	}
}

func main() {
	os.Exit(subcommands.Run(newApplication(os.Stdout, os.Stderr), nil))
}
