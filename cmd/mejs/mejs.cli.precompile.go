package main

import (
	"io"

	mejs "github.com/itsatony/go-mejs"
	"github.com/spf13/cobra"
)

func newPrecompileCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNamePrecompile,
		Short:   "Bundle templates into a single script file",
		Example: PrecompileExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrecompile(cmd, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringP(FlagOutput, FlagOutputShort, mejs.DefaultBundleFilename, `bundle file (use "-" for stdout)`)
	f.Bool(FlagMini, false, "emit only the template table")
	f.Bool(FlagRmComment, false, "strip <!-- --> comments before compiling")
	f.Bool(FlagRmLinefeed, false, "strip newlines and the indentation after them")
	return cmd
}

func runPrecompile(cmd *cobra.Command, stdout, stderr io.Writer) error {
	v, err := newSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(v)
	if err != nil {
		return err
	}
	if v.IsSet(FlagOutput) || cfg.Output == "" {
		cfg.Output = v.GetString(FlagOutput)
	}

	opts, logger, err := options(cfg, v, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	file, err := mejs.PrecompileGlob(cfg.Pattern, opts...)
	if err != nil {
		return fail(ExitCodeError, ErrMsgPrecompileFailed, err)
	}

	if err := writeOutput(file.Path, file.Contents, stdout); err != nil {
		return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
