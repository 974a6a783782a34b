package main

import (
	"io"
	"log/slog"

	"github.com/maruel/subcommands"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
)

const cmdUpgradeUsage = `upgrade [file]

  file: a runtime record as a host sends it. Reads stdin when omitted.
`

var cmdUpgrade = &subcommands.Command{
	UsageLine: cmdUpgradeUsage,
	ShortDesc: "upgrades a runtime record to the latest schema version.",
	LongDesc:  "Decodes a host runtime record, fast-forwards it through every upgrade step and prints the result.",
	CommandRun: func() subcommands.CommandRun {
		return &upgradeRun{}
	},
}

type upgradeRun struct {
	cmdRun
}

func (r *upgradeRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) > 1 {
		return r.usageErr(a, cmdUpgradeUsage, "expected at most one file")
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	return r.done(a, upgrade(a.GetOut(), path))
}

func upgrade(out io.Writer, path string) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	registry := negotiation.NewRegistry(negotiation.WithRegistryLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	snap, err := registry.InstallJSON(data)
	if err != nil {
		return err
	}
	encoded, err := negotiation.EncodeRuntime(snap.Record())
	if err != nil {
		return err
	}
	return writeIndented(out, encoded)
}
