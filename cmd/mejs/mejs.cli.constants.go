package main

// Command names
const (
	CmdNameRender     = "render"
	CmdNamePrecompile = "precompile"
	CmdNameVersion    = "version"
)

// Flag names - long form
const (
	FlagConfig       = "config"
	FlagPattern      = "pattern"
	FlagBase         = "base"
	FlagData         = "data"
	FlagDataFile     = "data-file"
	FlagLocalsFile   = "locals-file"
	FlagOutput       = "output"
	FlagLayout       = "layout"
	FlagBackend      = "backend"
	FlagDelimiter    = "delimiter"
	FlagMaxDepth     = "max-depth"
	FlagRmWhitespace = "rm-whitespace"
	FlagRmComment    = "rm-comment"
	FlagRmLinefeed   = "rm-linefeed"
	FlagMini         = "mini"
	FlagVerbose      = "verbose"
	FlagFormat       = "format"
)

// Flag names - short form
const (
	FlagPatternShort  = "p"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagVerboseShort  = "v"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeInputError = 4
)

// Environment
const (
	EnvPrefix = "MEJS"
)

// Data file extensions
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Error messages - ALL must be constants
const (
	ErrMsgMissingPattern    = "template pattern required"
	ErrMsgMissingName       = "template name required"
	ErrMsgInvalidData       = "invalid data"
	ErrMsgInvalidLocals     = "invalid locals"
	ErrMsgInvalidConfig     = "invalid configuration"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgLoadFailed        = "failed to load templates"
	ErrMsgRenderFailed      = "template rendering failed"
	ErrMsgPrecompileFailed  = "precompilation failed"
	ErrMsgWriteOutputFailed = "failed to write output"
)

// CLI metadata
const (
	CLIName        = "mejs"
	CLIDescription = "Compile and render EJS-style templates"
	CLILong        = `mejs compiles directories of EJS-style templates and renders them
with JSON or YAML data, or precompiles them into a single script bundle.

Every flag can also be set through the environment with the MEJS_ prefix,
for example MEJS_PATTERN or MEJS_RM_WHITESPACE, or through a YAML/TOML
file passed with --config. Flags win over the environment, which wins
over the config file.`
)

// Usage examples
const (
	RenderExample = `  mejs render index -p 'views/**/*.html' -d '{"title": "Home"}'
  mejs render index -p 'views/**/*.html' -f data.yaml --layout layout
  mejs render index --config mejs.yaml -o out/index.html`

	PrecompileExample = `  mejs precompile -p 'views/**/*.html' -o public/templates.js
  mejs precompile -p 'views/**/*.html' --mini --rm-comment --rm-linefeed`
)

// Version output format templates
const (
	VersionTextTemplate = "mejs version %s\nCommit: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// File permission constants
const (
	FilePermissions = 0644
	DirPermissions  = 0755
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
)
