package mejs

// Defaults
const (
	DefaultDelimiter      = '%'
	DefaultMaxDepth       = 64
	DefaultBundleFilename = "mejs.js"
	DefaultTemplateName   = "template"
)

// Backend names
const (
	BackendNameNative = "native"
	BackendNameScript = "script"
)

// Data keys used by layout rendering
const (
	DataKeyLayout = "layout"
	DataKeyBody   = "body"
)

// File handling constants
const (
	UTF8BOM        = "\uFEFF"
	PathSeparator  = "/"
	TableTemplates = "mejs_templates"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyKind         = "kind"
	MetaKeyMarker       = "marker"
	MetaKeyLine         = "line"
	MetaKeyColumn       = "column"
	MetaKeyOffset       = "offset"
	MetaKeyBackend      = "backend"
	MetaKeyTemplateName = "template_name"
	MetaKeyChain        = "include_chain"
	MetaKeyCurrentDepth = "current_depth"
	MetaKeyMaxDepth     = "max_depth"
	MetaKeyPattern      = "pattern"
	MetaKeyPath         = "path"
	MetaKeyOption       = "option"
	MetaKeyValue        = "value"
)

// Error kinds stored under MetaKeyKind
const (
	KindCompile          = "compile"
	KindHostLoad         = "host_load"
	KindRegistryConflict = "registry_conflict"
	KindTemplateNotFound = "template_not_found"
	KindIncludeCycle     = "include_cycle"
	KindIncludeDepth     = "include_depth"
	KindLoader           = "loader"
	KindConfig           = "config"
)

// Log messages
const (
	LogMsgTemplateCompiled = "template compiled"
	LogMsgTemplateAdded    = "template added"
	LogMsgTemplateRemoved  = "template removed"
	LogMsgTemplateConflict = "template already registered"
	LogMsgImported         = "registry imported"
	LogMsgRenderStart      = "render started"
	LogMsgRenderEnd        = "render complete"
	LogMsgRenderFailed     = "render failed"
	LogMsgFilesLoaded      = "template files loaded"
	LogMsgBundleBuilt      = "bundle built"
	LogMsgLayoutApplied    = "layout applied"
	LogMsgFilesMatched     = "template files matched"
)

// Log field names
const (
	LogFieldTemplateName = "template_name"
	LogFieldBackend      = "backend"
	LogFieldNamespace    = "namespace"
	LogFieldCount        = "count"
	LogFieldInstructions = "instruction_count"
	LogFieldPattern      = "pattern"
	LogFieldDepth        = "depth"
	LogFieldLayout       = "layout"
	LogFieldBytes        = "bytes"
	LogFieldTable        = "table"
	LogFieldMini         = "mini"
)
