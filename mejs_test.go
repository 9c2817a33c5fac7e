package mejs_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mejs "github.com/itsatony/go-mejs"
)

// E2E Integration Tests - Zero Mocks
// Every scenario runs against both backends.

func forEachBackend(t *testing.T, fn func(t *testing.T, backend mejs.Backend)) {
	t.Helper()
	for _, newBackend := range []func(...mejs.BackendOption) mejs.Backend{
		func(opts ...mejs.BackendOption) mejs.Backend { return mejs.NativeBackend(opts...) },
		func(opts ...mejs.BackendOption) mejs.Backend { return mejs.ScriptBackend(opts...) },
	} {
		backend := newBackend()
		t.Run(backend.Name(), func(t *testing.T) {
			fn(t, backend)
		})
	}
}

func TestE2E_LocalsMerge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		reg := mejs.NewRegistry(
			mejs.WithBackend(backend),
			mejs.WithLocals(map[string]any{"name": "zhang"}),
		)
		require.NoError(t, reg.AddSource("index", "<p><%= it.name %></p>", false))

		out, err := reg.Render("index", nil)
		require.NoError(t, err)
		assert.Equal(t, "<p>zhang</p>", out)

		out, err = reg.Render("index", map[string]any{"name": "li"})
		require.NoError(t, err)
		assert.Equal(t, "<p>li</p>", out)

		out, err = reg.Render("index", map[string]any{"name": nil})
		require.NoError(t, err)
		assert.Equal(t, "<p></p>", out)

		assert.Equal(t, map[string]any{"name": "zhang"}, reg.Locals())
	})
}

func TestE2E_IncludeAfterImport(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		a := mejs.NewRegistry(mejs.WithBackend(backend))
		require.NoError(t, a.AddSource("include-simple", `<%- include("hello-world") %>`, false))
		b := mejs.NewRegistry(mejs.WithBackend(backend))
		require.NoError(t, b.AddSource("hello-world", "Hello World", false))

		require.NoError(t, a.Import("/", b, false))

		out, err := a.Render("include-simple", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello World", out)
	})
}

func TestE2E_OutputTags(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		data     map[string]any
		expected string
	}{
		{"escaped", "<%= it.name %>", map[string]any{"name": "&nbsp;<script>"}, "&amp;nbsp;&lt;script&gt;"},
		{"raw", "<%- it.name %>", map[string]any{"name": "<script>"}, "<script>"},
		{"null", "<%= null %>", nil, ""},
		{"undefined", "<%= undefined %>", nil, ""},
		{"zero", "<%= 0 %>", nil, "0"},
		{"false", "<%= false %>", nil, "false"},
		{"nil stringer pointer", "<p><%= it.t %></p>", map[string]any{"t": (*time.Time)(nil)}, "<p></p>"},
		{"bytes as text", "<%= it.b %>|<%= it.nested.list[0] %>", map[string]any{"b": []byte("<"), "nested": map[string]any{"list": []any{[]byte("x")}}}, "&lt;|x"},
		{"all escaped chars", "<%= it.s %>", map[string]any{"s": "&<>\"'`"}, "&amp;&lt;&gt;&quot;&#39;&#96;"},
		{"comment", "a<%# ignored %>b", nil, "ab"},
		{"literal tags", "<%% it.x %%>", nil, "<% it.x %>"},
		{"trim lf", "<%= 1 -%>\nx", nil, "1x"},
		{"trim crlf", "<%= 1 -%>\r\nx", nil, "1x"},
		{"trim cr", "<%= 1 -%>\rx", nil, "1x"},
		{"trim once", "<%= 1 -%>\n\nx", nil, "1\nx"},
		{"literal round trip", "a\\b \"q\"\n'x'\r\n\\n", nil, "a\\b \"q\"\n'x'\r\n\\n"},
		{"loop", "<% it.list.forEach(function (x) { %>[<%= x %>]<% }) %>", map[string]any{"list": []any{"a", "b"}}, "[a][b]"},
		{"condition", "<% if (it.ok) { %>yes<% } else { %>no<% } %>", map[string]any{"ok": false}, "no"},
	}

	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tmpl, err := mejs.Compile(tt.source, mejs.WithBackend(backend))
				require.NoError(t, err)

				out, err := tmpl.Execute(tt.data)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, out)
			})
		}
	})
}

func TestE2E_CustomDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		delim  rune
		source string
	}{
		{"ascii", '?', "<?= it.x ?> <%= it.x %>"},
		{"multibyte", '§', "<§= it.x -§>\n <%= it.x %>"},
	}

	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tmpl, err := mejs.Compile(tt.source, mejs.WithBackend(backend), mejs.WithDelimiter(tt.delim))
				require.NoError(t, err)

				out, err := tmpl.Execute(map[string]any{"x": 1})
				require.NoError(t, err)
				assert.Equal(t, "1 <%= it.x %>", out)
			})
		}
	})
}

func TestE2E_RelativeIncludes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		reg := mejs.NewRegistry(mejs.WithBackend(backend), mejs.WithLocals(map[string]any{"site": "S"}))
		reg.MustAddSource("pages/index", `<%- include("./partials/nav", {active: "home"}) %>|<%- include("../layout/footer") %>`, false).
			MustAddSource("pages/partials/nav", "<%= it.site %>:<%= it.active %>:<%= it.user %>", false).
			MustAddSource("layout/footer", "footer", false)

		out, err := reg.Render("pages/index", map[string]any{"user": "u"})
		require.NoError(t, err)
		assert.Equal(t, "S:home:u|footer", out)
	})
}

func TestE2E_ConcurrentRenders(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		reg := mejs.NewRegistry(mejs.WithBackend(backend))
		reg.MustAddSource("outer", `<%- include("inner", {n: it.n}) %>`, false).
			MustAddSource("inner", "<%= it.n %>", false)

		var wg sync.WaitGroup
		results := make([]string, 32)
		errs := make([]error, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = reg.Render("outer", map[string]any{"n": i})
			}(i)
		}
		wg.Wait()

		for i := range results {
			require.NoError(t, errs[i])
			assert.Equal(t, fmt.Sprint(i), results[i])
		}
	})
}

func TestE2E_Errors(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		reg := mejs.NewRegistry(mejs.WithBackend(backend))

		err := reg.AddSource("broken", "<p><%= it.name </p>", false)
		assert.True(t, mejs.IsCompileError(err))
		assert.False(t, reg.Has("broken"))

		err = reg.AddSource("bad-code", "<% if (it.a) { %>", false)
		assert.True(t, mejs.IsHostLoadError(err))

		_, err = reg.Render("missing", nil)
		assert.True(t, mejs.IsTemplateNotFound(err))
		assert.False(t, mejs.IsRenderError(err))

		reg.MustAddSource("outer", `<%- include("inner") %>`, false).
			MustAddSource("inner", "\n<%= nope %>", false)
		_, err = reg.Render("outer", map[string]any{"x": "1"})
		var renderErr *mejs.RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, "inner", renderErr.TemplateName)
		assert.Equal(t, "\n<%= nope %>", renderErr.TemplateSource)
		assert.Equal(t, "1", renderErr.Data["x"])
		assert.Contains(t, err.Error(), "nope is not defined")
	})
}

func TestE2E_IncludeCycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend mejs.Backend) {
		reg := mejs.NewRegistry(mejs.WithBackend(backend))
		reg.MustAddSource("a", `<%- include("b") %>`, false).
			MustAddSource("b", `<%- include("a") %>`, false).
			MustAddSource("self", `<%- include("self") %>`, false)

		_, err := reg.Render("a", nil)
		assert.True(t, mejs.IsIncludeCycle(err))
		assert.Contains(t, err.Error(), "a -> b -> a")

		_, err = reg.Render("self", nil)
		assert.True(t, mejs.IsIncludeCycle(err))
	})
}
