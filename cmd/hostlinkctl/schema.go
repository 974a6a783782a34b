package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maruel/subcommands"

	"github.com/hostlink-dev/hostlink-sdk/go/application/schema"
	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
)

var documentList = strings.Join(schema.Documents(), ", ")

var cmdSchemaUsage = `schema <document>

  document: one of ` + documentList + `.
`

var cmdSchema = &subcommands.Command{
	UsageLine: cmdSchemaUsage,
	ShortDesc: "prints the JSON schema of a wire document.",
	CommandRun: func() subcommands.CommandRun {
		return &schemaRun{}
	},
}

type schemaRun struct {
	cmdRun
}

func (r *schemaRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) != 1 {
		return r.usageErr(a, cmdSchemaUsage, "expected a document name")
	}
	data, err := schema.Document(args[0])
	if err != nil {
		return r.done(a, err)
	}
	_, err = fmt.Fprintf(a.GetOut(), "%s\n", data)
	return r.done(a, err)
}

var cmdValidateUsage = `validate <document> [file]

  document: one of ` + documentList + `.
  file: the captured JSON message. Reads stdin when omitted.
`

var cmdValidate = &subcommands.Command{
	UsageLine: cmdValidateUsage,
	ShortDesc: "validates a captured wire message against its schema.",
	CommandRun: func() subcommands.CommandRun {
		return &validateRun{}
	},
}

type validateRun struct {
	cmdRun
}

func (r *validateRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) < 1 || len(args) > 2 {
		return r.usageErr(a, cmdValidateUsage, "expected a document name and at most one file")
	}
	var path string
	if len(args) == 2 {
		path = args[1]
	}
	return r.done(a, validateMessage(a.GetOut(), args[0], path))
}

func validateMessage(out io.Writer, document, path string) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	err = schema.ValidateDocument(document, data)
	var se *sdkerrors.SchemaError
	if errors.As(err, &se) && len(se.Problems) > 0 {
		for _, p := range se.Problems {
			fmt.Fprintf(out, "- %s\n", p)
		}
		return fmt.Errorf("%s: %d problem(s)", document, len(se.Problems))
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: ok\n", document)
	return err
}
