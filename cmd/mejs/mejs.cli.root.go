package main

import (
	"io"
	"strings"

	mejs "github.com/itsatony/go-mejs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIDescription,
		Long:          CLILong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String(FlagConfig, "", "YAML or TOML config file")
	pf.StringP(FlagPattern, FlagPatternShort, "", "glob selecting the template files")
	pf.String(FlagBase, "", "directory template names are relative to (default: static prefix of the pattern)")
	pf.String(FlagBackend, "", "compilation backend: native or script (default: native)")
	pf.String(FlagDelimiter, "", "tag delimiter character (default: %)")
	pf.Int(FlagMaxDepth, mejs.DefaultMaxDepth, "maximum include depth, 0 disables the limit")
	pf.Bool(FlagRmWhitespace, false, "strip indentation and blank lines from templates")
	pf.BoolP(FlagVerbose, FlagVerboseShort, false, "log compilation to stderr")

	root.AddCommand(
		newRenderCmd(stdin, stdout, stderr),
		newPrecompileCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// newSettings layers the command's flags over MEJS_* environment variables
func newSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fail(ExitCodeUsageError, ErrMsgInvalidConfig, err)
	}
	return v, nil
}

// resolveConfig starts from the --config file, if any, and overrides every
// field that was set by flag or environment.
func resolveConfig(v *viper.Viper) (*mejs.Config, error) {
	cfg := &mejs.Config{}
	if path := v.GetString(FlagConfig); path != "" {
		loaded, err := mejs.LoadConfig(path)
		if err != nil {
			return nil, fail(ExitCodeInputError, ErrMsgInvalidConfig, err)
		}
		cfg = loaded
	}

	strs := map[string]*string{
		FlagPattern:   &cfg.Pattern,
		FlagBase:      &cfg.Base,
		FlagBackend:   &cfg.Backend,
		FlagDelimiter: &cfg.Delimiter,
		FlagLayout:    &cfg.Layout,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	bools := map[string]*bool{
		FlagRmWhitespace: &cfg.RmWhitespace,
		FlagRmComment:    &cfg.RmComment,
		FlagRmLinefeed:   &cfg.RmLinefeed,
		FlagMini:         &cfg.Mini,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	if v.IsSet(FlagMaxDepth) {
		depth := v.GetInt(FlagMaxDepth)
		cfg.MaxDepth = &depth
	}

	if cfg.Pattern == "" {
		return nil, fail(ExitCodeUsageError, ErrMsgInvalidConfig, errMissingPattern)
	}
	return cfg, nil
}

// newLogger writes development-style logs to stderr when verbose is set
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// options converts cfg into library options, logging through stderr
func options(cfg *mejs.Config, v *viper.Viper, stderr io.Writer) ([]mejs.Option, *zap.Logger, error) {
	logger := newLogger(v.GetBool(FlagVerbose), stderr)
	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, nil, fail(ExitCodeUsageError, ErrMsgInvalidConfig, err)
	}
	return opts, logger, nil
}
