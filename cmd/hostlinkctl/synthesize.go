package main

import (
	"io"

	"github.com/maruel/subcommands"

	"github.com/hostlink-dev/hostlink-sdk/go/application/negotiation"
	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

const cmdSynthesizeUsage = `synthesize [-profile host.toml] [-host-class class] [-version x.y.z]

  Flags override the profile.
`

var cmdSynthesize = &subcommands.Command{
	UsageLine: cmdSynthesizeUsage,
	ShortDesc: "prints the runtime a legacy host is assumed to have.",
	LongDesc: `Synthesizes the runtime record of a host that sends none, from the
legacy baseline and the capabilities gated by client SDK version.

A profile is a TOML file:

  host_class = "desktop"
  client_sdk_version = "2.0.1"
  baseline = ["calendar"]

  [[gate]]
  version = "2.1.0"
  host_classes = ["desktop", "web"]
  capabilities = ["calendar.open"]`,
	CommandRun: func() subcommands.CommandRun {
		r := &synthesizeRun{}
		r.Flags.StringVar(&r.profile, "profile", "", "TOML host profile.")
		r.Flags.StringVar(&r.hostClass, "host-class", "", "Host class, e.g. desktop.")
		r.Flags.StringVar(&r.version, "version", "", "Client SDK version the host supports.")
		return r
	},
}

type synthesizeRun struct {
	cmdRun
	profile   string
	hostClass string
	version   string
}

func (r *synthesizeRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 0 {
		return r.usageErr(a, cmdSynthesizeUsage, "unexpected arguments %q", args)
	}
	p := defaultProfile()
	if r.profile != "" {
		var err error
		if p, err = loadProfile(r.profile); err != nil {
			return r.done(a, err)
		}
	}
	if r.hostClass != "" {
		p.HostClass = entities.HostClass(r.hostClass)
	}
	if r.version != "" {
		p.ClientSDKVersion = r.version
	}
	return r.done(a, synthesize(a.GetOut(), p))
}

func synthesize(out io.Writer, p hostProfile) error {
	record, err := negotiation.Synthesize(p.ClientSDKVersion, p.Baseline, p.Gates, p.HostClass)
	if err != nil {
		return err
	}
	encoded, err := negotiation.EncodeRuntime(record)
	if err != nil {
		return err
	}
	return writeIndented(out, encoded)
}
