package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, set via -ldflags
var (
	Version   = VersionUnknown
	Commit    = VersionUnknown
	BuildDate = VersionUnknown
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString(FlagFormat)
			return runVersion(format, stdout)
		},
	}
	cmd.Flags().StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text, json")
	return cmd
}

func runVersion(format string, stdout io.Writer) error {
	v := versionOutput{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	}

	switch format {
	case OutputFormatText:
		fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline, v.Version, v.Commit, v.BuildTime, v.GoVersion)
	case OutputFormatJSON:
		jsonBytes, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	default:
		return fail(ExitCodeUsageError, ErrMsgInvalidFormat, errors.New(format))
	}
	return nil
}
