package mejs

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadata(t *testing.T, err error, key string) string {
	t.Helper()
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	value, ok := customErr.GetMetadata(key)
	require.True(t, ok, "missing metadata %q", key)
	return value
}

func TestCompileError(t *testing.T) {
	tests := []struct {
		name   string
		source string
		marker string
		line   string
		column string
	}{
		{"eval", "abc <% x", "<%", "1", "5"},
		{"escaped", "a\nb <%= it.x", "<%=", "2", "3"},
		{"raw", "<%- x", "<%-", "1", "1"},
		{"comment", "x <%# note", "<%#", "1", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			require.Error(t, err)
			assert.True(t, IsCompileError(err))
			assert.Contains(t, err.Error(), ErrMsgUnterminatedTag)
			assert.Equal(t, tt.marker, metadata(t, err, MetaKeyMarker))
			assert.Equal(t, tt.line, metadata(t, err, MetaKeyLine))
			assert.Equal(t, tt.column, metadata(t, err, MetaKeyColumn))
		})
	}
}

func TestHostLoadError(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
	}{
		{"native", NativeBackend()},
		{"script", ScriptBackend()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("<% } %>", WithBackend(tt.backend))
			require.Error(t, err)
			assert.True(t, IsHostLoadError(err))
			assert.False(t, IsCompileError(err))
			assert.Equal(t, tt.name, metadata(t, err, MetaKeyBackend))
			assert.Equal(t, DefaultTemplateName, metadata(t, err, MetaKeyTemplateName))
		})
	}
}

func TestRegistryErrors_Metadata(t *testing.T) {
	err := NewRegistryConflictError("a/b")
	assert.Equal(t, "a/b", metadata(t, err, MetaKeyTemplateName))
	assert.Contains(t, err.Error(), ErrMsgTemplateExists)

	err = NewTemplateNotFoundError("x")
	assert.True(t, IsTemplateNotFound(err))
	assert.Contains(t, err.Error(), ErrMsgTemplateNotFound)

	err = NewIncludeCycleError([]string{"a", "b", "a"})
	assert.Equal(t, "a -> b -> a", metadata(t, err, MetaKeyChain))
	assert.Equal(t, "a", metadata(t, err, MetaKeyTemplateName))

	err = NewIncludeDepthError("c", 3, 2)
	assert.Equal(t, "3", metadata(t, err, MetaKeyCurrentDepth))
	assert.Equal(t, "2", metadata(t, err, MetaKeyMaxDepth))
}

func TestLoaderErrors_Wrap(t *testing.T) {
	cause := errors.New("disk on fire")

	err := NewReadError("*.html", "a.html", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindLoader, ErrorKind(err))
	assert.Equal(t, "a.html", metadata(t, err, MetaKeyPath))

	err = NewConfigError("mejs.yaml", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindConfig, ErrorKind(err))
}

func TestRenderError(t *testing.T) {
	cause := NewTemplateNotFoundError("nav")
	err := &RenderError{TemplateName: "index", TemplateSource: "src", Cause: cause}

	assert.Contains(t, err.Error(), `render "index"`)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRenderError(err))
	assert.True(t, IsTemplateNotFound(err))
	assert.False(t, IsRenderError(cause))
}

func TestErrorKind_ForeignError(t *testing.T) {
	assert.Equal(t, "", ErrorKind(errors.New("plain")))
	assert.Equal(t, "", ErrorKind(nil))
}

func TestTemplate_ExecuteAnnotates(t *testing.T) {
	tmpl := MustCompile("<%= missing %>")

	_, err := tmpl.Execute(nil)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, DefaultTemplateName, renderErr.TemplateName)
	assert.Equal(t, "<%= missing %>", renderErr.TemplateSource)

	_, err = MustCompile(`<%- include("x") %>`).Execute(nil)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("<%") })
}
