package internal

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScript(t *testing.T, src string) ExecFunc {
	t.Helper()
	exec, err := NewScriptBackend(nil).Load("test", compileProgram(t, src, TokenizerConfig{}))
	require.NoError(t, err)
	return exec
}

func TestScriptBackend_Render(t *testing.T) {
	data := map[string]any{
		"name": "&nbsp;<script>",
		"list": []any{"a", "b"},
		"user": map[string]any{"name": "li"},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"escaped", "<%= it.name %>", "&amp;nbsp;&lt;script&gt;"},
		{"raw", "<%- it.name %>", "&nbsp;<script>"},
		{"null", "<%= null %>", ""},
		{"undefined", "<%= undefined %>", ""},
		{"zero", "<%= 0 %>", "0"},
		{"false", "<%= false %>", "false"},
		{"nested map", "<%= it.user.name %>", "li"},
		{"loop", "<% it.list.forEach(function (x, i) { %><%= i %><%= x %><% }) %>", "0a1b"},
		{"line comment", "<% var n = 2 // two %><%= n %>", "2"},
		{"template name", "<%= __tplName %>", "test"},
		{"literal text", "a\\b \"q\"\r\n ", "a\\b \"q\"\r\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := loadScript(t, tt.input)(nil, data, "test")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestScriptBackend_Load_SyntaxError(t *testing.T) {
	_, err := NewScriptBackend(nil).Load("broken", compileProgram(t, "<% if (it.a) { %>", TokenizerConfig{}))
	assert.Error(t, err)
}

func TestScriptBackend_Render_ReferenceError(t *testing.T) {
	_, err := loadScript(t, "<%= nope %>")(nil, nil, "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope is not defined")
}

func TestScriptBackend_Include(t *testing.T) {
	host := &fakeHost{outputs: map[string]string{"a/c": "C"}}

	out, err := loadScript(t, `[<%- include("./c", {y: 2}) %>]`)(host, map[string]any{"x": 1}, "a/b")

	require.NoError(t, err)
	assert.Equal(t, "[C]", out)
	assert.Equal(t, []string{"a/c"}, host.calls)
	assert.Equal(t, 2, len(host.data[0]))
	assert.Equal(t, int64(2), host.data[0]["y"])
}

func TestScriptBackend_Include_ErrorPassesThrough(t *testing.T) {
	cause := errors.New("nested failure")
	host := &fakeHost{err: cause}

	_, err := loadScript(t, `<%- include("x") %>`)(host, nil, "test")

	assert.Same(t, cause, err)
}

func TestScriptBackend_ConcurrentRenders(t *testing.T) {
	exec := loadScript(t, "<%= it.n * 2 %>")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := exec(nil, map[string]any{"n": n}, "test"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func bundleEntries(t *testing.T, sources map[string]string) []BundleEntry {
	t.Helper()
	var entries []BundleEntry
	for _, name := range []string{"index", "partials/nav"} {
		if src, ok := sources[name]; ok {
			entries = append(entries, BundleEntry{Name: name, Program: compileProgram(t, src, TokenizerConfig{})})
		}
	}
	return entries
}

func TestBundleSource(t *testing.T) {
	entries := bundleEntries(t, map[string]string{"index": "<p><%= it.x %></p>"})

	full := BundleSource(entries, false)
	assert.Contains(t, full, "function Mejs(locals)")
	assert.Contains(t, full, "templates['index'] = function (it, __tplName) {")
	assert.NotContains(t, full, bundlePlaceholder)

	mini := BundleSource(entries, true)
	assert.NotContains(t, mini, "function Mejs(locals)")
	assert.Contains(t, mini, "templates['index'] = function (it, __tplName) {")
}

func TestLoadScriptBundle(t *testing.T) {
	sources := map[string]string{
		"index":        `<%- include("partials/nav", {title: "Home"}) %><p><%= it.x %></p>`,
		"partials/nav": "<nav><%= it.title %></nav>",
	}

	for _, mini := range []bool{false, true} {
		bundle, err := LoadScriptBundle("mejs.js", BundleSource(bundleEntries(t, sources), mini), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"index", "partials/nav"}, bundle.Names())

		exec, ok := bundle.Exec("partials/nav")
		require.True(t, ok)
		out, err := exec(nil, map[string]any{"title": "<T>"}, "partials/nav")
		require.NoError(t, err)
		assert.Equal(t, "<nav>&lt;T&gt;</nav>", out)

		_, ok = bundle.Exec("missing")
		assert.False(t, ok)
	}
}

func TestLoadScriptBundle_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", "module.exports = {"},
		{"throws", "throw new Error('boom')"},
		{"no templates", "module.exports = function () {}"},
		{"non function entry", "module.exports = {a: 1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScriptBundle("bad.js", tt.src, nil)
			assert.Error(t, err)
		})
	}
}

func TestBundleRegistrySource_Runtime(t *testing.T) {
	entries := bundleEntries(t, map[string]string{
		"index":        `<%- include("partials/nav") %>|<%= it.name %>`,
		"partials/nav": "<%= it.name %>!",
	})
	src := BundleSource(entries, false) + `
var Mejs = module.exports;
var m = new Mejs({name: "zhang"});
module.exports = {
  out: function () { return m.render('index', {}); },
  resolved: function () { return m.resolve('a/b/c/', '../../d/e'); },
  escaped: function () { return m.escape("<'&'>"); }
};`

	bundle, err := LoadScriptBundle("runtime.js", src, nil)
	require.NoError(t, err)

	call := func(name string) string {
		exec, ok := bundle.Exec(name)
		require.True(t, ok)
		out, err := exec(nil, nil, name)
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, "zhang!|zhang", call("out"))
	assert.Equal(t, "a/d/e", call("resolved"))
	assert.Equal(t, "&lt;&#39;&amp;&#39;&gt;", call("escaped"))
}

func TestPreprocessSource(t *testing.T) {
	src := "<div>\n  <!-- note -->\n  <p>x</p>\n</div>"

	assert.Equal(t, "<div>\n  \n  <p>x</p>\n</div>", PreprocessSource(src, true, false))
	assert.Equal(t, "<div><!-- note --><p>x</p></div>", PreprocessSource(src, false, true))
	assert.Equal(t, "<div><p>x</p></div>", PreprocessSource(src, true, true))
	assert.Equal(t, src, PreprocessSource(src, false, false))
}
