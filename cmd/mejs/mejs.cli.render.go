package main

import (
	"io"

	mejs "github.com/itsatony/go-mejs"
	"github.com/spf13/cobra"
)

func newRenderCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNameRender + " <name>",
		Short:   "Render a template with data",
		Example: RenderExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, stdin, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringP(FlagData, FlagDataShort, "", "JSON data string")
	f.StringP(FlagDataFile, FlagDataFileShort, "", `JSON or YAML data file (use "-" for stdin)`)
	f.String(FlagLocalsFile, "", "JSON or YAML file with locals shared by every render")
	f.String(FlagLayout, "", "layout template wrapping the output")
	f.StringP(FlagOutput, FlagOutputShort, FlagDefaultOutput, "output file (default: stdout)")
	return cmd
}

func runRender(cmd *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fail(ExitCodeUsageError, ErrMsgMissingName, errMissingName)
	}
	name := args[0]

	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(v)
	if err != nil {
		return err
	}

	if path := v.GetString(FlagLocalsFile); path != "" {
		locals, err := loadData("", path, stdin)
		if err != nil {
			return fail(ExitCodeInputError, ErrMsgInvalidLocals, err)
		}
		cfg.Locals = mejs.Merge(cfg.Locals, locals)
	}

	data, err := loadData(v.GetString(FlagData), v.GetString(FlagDataFile), stdin)
	if err != nil {
		return fail(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	opts, logger, err := options(cfg, v, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg, err := mejs.NewFromGlob(cfg.Pattern, opts...)
	if err != nil {
		return fail(ExitCodeInputError, ErrMsgLoadFailed, err)
	}

	out, err := reg.RenderLayout(name, data)
	if err != nil {
		return fail(ExitCodeError, ErrMsgRenderFailed, err)
	}

	if err := writeOutput(v.GetString(FlagOutput), []byte(out), stdout); err != nil {
		return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
