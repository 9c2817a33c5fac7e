package mejs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-mejs/internal"
)

// Error message constants
const (
	ErrMsgUnterminatedTag   = "could not find matching close tag"
	ErrMsgHostLoadFailed    = "template could not be loaded by the execution backend"
	ErrMsgTemplateExists    = "template already exists"
	ErrMsgTemplateNotFound  = "template not found"
	ErrMsgIncludeCycle      = "include cycle detected"
	ErrMsgIncludeDepth      = "maximum include depth exceeded"
	ErrMsgNoFileMatched     = "no file matched with pattern"
	ErrMsgLoadFailed        = "template files could not be loaded"
	ErrMsgReadFailed        = "template file could not be read"
	ErrMsgConfigFailed      = "configuration could not be loaded"
	ErrMsgConfigFormat      = "unsupported configuration file format"
	ErrMsgConfigBackend     = "unknown backend"
	ErrMsgInvalidDelimiter  = "delimiter must be a single character"
	ErrMsgInvalidMaxDepth   = "max depth cannot be negative"
	ErrMsgEmptyTemplateName = "template name cannot be empty"
	ErrMsgNilTemplate       = "template cannot be nil"
	ErrMsgNilRegistry       = "registry cannot be nil"
	ErrMsgInvalidTable      = "invalid table name"
)

// Error code constants for categorization
const (
	ErrCodeCompile  = "MEJS_COMPILE"
	ErrCodeHostLoad = "MEJS_HOST_LOAD"
	ErrCodeRegistry = "MEJS_REGISTRY"
	ErrCodeInclude  = "MEJS_INCLUDE"
	ErrCodeLoader   = "MEJS_LOADER"
	ErrCodeConfig   = "MEJS_CONFIG"
)

// errFmtRender is the message of an annotated render error
const errFmtRender = "render %q: %v"

// NewCompileError creates an error for an opened tag that never closes
func NewCompileError(marker string, line, column, offset int) error {
	return cuserr.NewValidationError(ErrCodeCompile, fmt.Sprintf("%s for %q", ErrMsgUnterminatedTag, marker)).
		WithMetadata(MetaKeyKind, KindCompile).
		WithMetadata(MetaKeyMarker, marker).
		WithMetadata(MetaKeyLine, strconv.Itoa(line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(offset))
}

// compileError converts a tokenizer failure into a CompileError
func compileError(err error) error {
	var tagErr *internal.TagError
	if errors.As(err, &tagErr) {
		pos := tagErr.Position
		return NewCompileError(tagErr.Marker, pos.Line, pos.Column, pos.Offset)
	}
	return cuserr.WrapStdError(err, ErrCodeCompile, ErrMsgUnterminatedTag).
		WithMetadata(MetaKeyKind, KindCompile)
}

// NewHostLoadError wraps an embedded-code error reported by a backend
func NewHostLoadError(backend, name string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeHostLoad, ErrMsgHostLoadFailed).
		WithMetadata(MetaKeyKind, KindHostLoad).
		WithMetadata(MetaKeyBackend, backend).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewRegistryConflictError creates an error for adding an existing name
// without overwrite.
func NewRegistryConflictError(name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, fmt.Sprintf("%s: %q", ErrMsgTemplateExists, name)).
		WithMetadata(MetaKeyKind, KindRegistryConflict).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewTemplateNotFoundError creates an error for rendering an unknown name
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplateName, fmt.Sprintf("%s: %q", ErrMsgTemplateNotFound, name)).
		WithMetadata(MetaKeyKind, KindTemplateNotFound).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewIncludeCycleError creates an error for a template that includes itself,
// directly or through other templates.
func NewIncludeCycleError(chain []string) error {
	joined := strings.Join(chain, " -> ")
	return cuserr.NewValidationError(ErrCodeInclude, ErrMsgIncludeCycle+": "+joined).
		WithMetadata(MetaKeyKind, KindIncludeCycle).
		WithMetadata(MetaKeyChain, joined).
		WithMetadata(MetaKeyTemplateName, chain[len(chain)-1])
}

// NewIncludeDepthError creates an error for include nesting beyond the limit
func NewIncludeDepthError(name string, depth, maxDepth int) error {
	return cuserr.NewValidationError(ErrCodeInclude, ErrMsgIncludeDepth).
		WithMetadata(MetaKeyKind, KindIncludeDepth).
		WithMetadata(MetaKeyTemplateName, name).
		WithMetadata(MetaKeyCurrentDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(maxDepth))
}

// NewNoMatchError creates an error for a glob pattern without matches
func NewNoMatchError(pattern string) error {
	return cuserr.NewNotFoundError(MetaKeyPattern, ErrMsgNoFileMatched+" "+pattern).
		WithMetadata(MetaKeyKind, KindLoader).
		WithMetadata(MetaKeyPattern, pattern)
}

// NewLoaderError wraps a failure while discovering or reading templates
func NewLoaderError(msg, pattern string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeLoader, msg).
		WithMetadata(MetaKeyKind, KindLoader).
		WithMetadata(MetaKeyPattern, pattern)
}

// NewReadError wraps a failure reading one matched file
func NewReadError(pattern, file string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeLoader, ErrMsgReadFailed).
		WithMetadata(MetaKeyKind, KindLoader).
		WithMetadata(MetaKeyPattern, pattern).
		WithMetadata(MetaKeyPath, file)
}

// NewConfigError wraps a failure while reading a configuration file
func NewConfigError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeConfig, ErrMsgConfigFailed).
		WithMetadata(MetaKeyKind, KindConfig).
		WithMetadata(MetaKeyPath, path)
}

// NewConfigValueError reports an invalid configuration value
func NewConfigValueError(option, value, msg string) error {
	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyKind, KindConfig).
		WithMetadata(MetaKeyOption, option).
		WithMetadata(MetaKeyValue, value)
}

// RenderError annotates an error raised while executing a template body.
// A render chain annotates an error at most once; nested include failures
// keep the annotation of the template that raised them.
type RenderError struct {
	TemplateName   string
	TemplateSource string
	Data           map[string]any
	Cause          error
}

// Error implements the error interface
func (e *RenderError) Error() string {
	return fmt.Sprintf(errFmtRender, e.TemplateName, e.Cause)
}

// Unwrap returns the underlying error
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// ErrorKind returns the kind metadata of a mejs error, or "" for foreign errors
func ErrorKind(err error) string {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return ""
	}
	kind, _ := customErr.GetMetadata(MetaKeyKind)
	return kind
}

// IsCompileError reports whether err is an unterminated-tag error
func IsCompileError(err error) bool { return ErrorKind(err) == KindCompile }

// IsHostLoadError reports whether err was raised by a backend loading a template
func IsHostLoadError(err error) bool { return ErrorKind(err) == KindHostLoad }

// IsRegistryConflict reports whether err is a name conflict in a registry
func IsRegistryConflict(err error) bool { return ErrorKind(err) == KindRegistryConflict }

// IsTemplateNotFound reports whether err names an unknown template
func IsTemplateNotFound(err error) bool { return ErrorKind(err) == KindTemplateNotFound }

// IsIncludeCycle reports whether err is an include cycle
func IsIncludeCycle(err error) bool { return ErrorKind(err) == KindIncludeCycle }

// IsRenderError reports whether err carries render annotation
func IsRenderError(err error) bool {
	var renderErr *RenderError
	return errors.As(err, &renderErr)
}
