package internal

// DefaultDelimiter is the delimiter character used when none is configured
const DefaultDelimiter rune = '%'

// Tag framing characters surrounding the delimiter
const (
	CharTagOpen  = '<'
	CharTagClose = '>'
	CharEscaped  = '='
	CharRaw      = '-'
	CharComment  = '#'
	CharSlurp    = '_'
	CharTrim     = '-'
)

// Character constants
const (
	CharNewline     = '\n'
	CharCarriageRet = '\r'
)

// String constants
const (
	StrNewline       = "\n"
	StrLineComment   = "//"
	StrPathSeparator = "/"
	StrCurrentDir    = "."
	StrParentDir     = ".."
	StrCurrentPrefix = "./"
	StrParentPrefix  = "../"
)

// Script identifiers shared between the source emitter and the script host
const (
	ScriptParamData     = "it"
	ScriptParamName     = "__tplName"
	ScriptVarContext    = "ctx"
	ScriptVarOutput     = "__output"
	ScriptVarAppend     = "__append"
	ScriptFuncInclude   = "include"
	ScriptCtxRender     = "render"
	ScriptCtxResolve    = "resolve"
	ScriptCtxCopy       = "copy"
	ScriptCtxEscape     = "escape"
	ScriptCtxStringify  = "stringify"
	ScriptCtxTemplates  = "templates"
	ScriptModuleVar     = "module"
	ScriptModuleExports = "exports"
)

// Backend names
const (
	BackendNameNative = "native"
	BackendNameScript = "script"
)

// Log message constants
const (
	LogMsgTokenizerStart   = "starting tokenization"
	LogMsgTokenizerEnd     = "tokenization complete"
	LogMsgScannerStart     = "starting scan"
	LogMsgScannerEnd       = "scan complete"
	LogMsgNativeLoaded     = "native program loaded"
	LogMsgScriptCompiled   = "script program compiled"
	LogMsgScriptRuntimeNew = "script runtime created"
	LogMsgBundleLoaded     = "bundle loaded"
)

// Log field names
const (
	LogFieldSource       = "source_length"
	LogFieldTokens       = "token_count"
	LogFieldInstructions = "instruction_count"
	LogFieldNodes        = "node_count"
	LogFieldDelimiter    = "delimiter"
	LogFieldTemplateName = "template_name"
	LogFieldUsesInclude  = "uses_include"
	LogFieldTemplates    = "template_count"
)
