package mejs

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundleFiles() []File {
	return []File{
		{Path: "views/index.html", Base: "views", Contents: []byte(
			"<div>\n  <!-- header -->\n  <%- include('./partials/nav', {active: 'home'}) %>\n  <p><%= it.user %></p>\n</div>")},
		{Path: "views/partials/nav.html", Base: "views", Contents: []byte(
			"<nav><%= it.active %>:<%= it.site %></nav>")},
	}
}

func TestPrecompile(t *testing.T) {
	file, err := Precompile(bundleFiles())
	require.NoError(t, err)
	assert.Equal(t, DefaultBundleFilename, file.Path)

	src := file.Source()
	assert.Contains(t, src, "function Mejs(locals)")
	assert.Contains(t, src, "templates['index'] = function (it, __tplName) {")
	assert.Contains(t, src, "templates['partials/nav'] = function (it, __tplName) {")
	assert.Contains(t, src, "<!-- header -->")

	mini, err := Precompile(bundleFiles(), WithMini(true), WithRmComment(true), WithBundleFilename("out/t.js"))
	require.NoError(t, err)
	assert.Equal(t, "out/t.js", mini.Path)
	assert.NotContains(t, mini.Source(), "function Mejs(locals)")
	assert.NotContains(t, mini.Source(), "<!-- header -->")
}

func TestPrecompile_CompileErrorAborts(t *testing.T) {
	files := append(bundleFiles(), File{Path: "bad.html", Contents: []byte("<%= x")})

	_, err := Precompile(files)
	assert.True(t, IsCompileError(err))
}

func TestLoadBundle_Render(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"full", nil, "<div>\n  \n  <nav>home:S</nav>\n  <p>&lt;u&gt;</p>\n</div>"},
		{"mini", []Option{WithMini(true)}, "<div>\n  \n  <nav>home:S</nav>\n  <p>&lt;u&gt;</p>\n</div>"},
		{"rm linefeed", []Option{WithRmLinefeed(true), WithRmComment(true)}, "<div><nav>home:S</nav><p>&lt;u&gt;</p></div>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithRmComment(true)}, tt.opts...)
			file, err := Precompile(bundleFiles(), opts...)
			require.NoError(t, err)

			bundle, err := LoadBundle(*file)
			require.NoError(t, err)
			assert.Equal(t, []string{"index", "partials/nav"}, bundle.Names())

			reg := bundle.NewRegistry(map[string]any{"site": "S"})
			out, err := reg.Render("index", map[string]any{"user": "<u>"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLoadBundle_MultilineLiteral(t *testing.T) {
	files := []File{{Path: "lit.html", Contents: []byte("<% var s = `x\n  y`; %><%= 1 %><%= s %>")}}

	for _, mini := range []bool{false, true} {
		file, err := Precompile(files, WithMini(mini))
		require.NoError(t, err)

		bundle, err := LoadBundle(*file)
		require.NoError(t, err)
		out, err := bundle.NewRegistry(nil).Render("lit", nil)
		require.NoError(t, err)
		assert.Equal(t, "1x\n  y", out)
	}

	reg := NewRegistry(WithBackend(ScriptBackend()))
	reg.MustAddSource("lit", string(files[0].Contents), false)
	out, err := reg.Render("lit", nil)
	require.NoError(t, err)
	assert.Equal(t, "1x\n  y", out)
}

func TestLoadBundle_Errors(t *testing.T) {
	_, err := LoadBundle(File{Path: "broken.js", Contents: []byte("module.exports = {")})
	assert.True(t, IsHostLoadError(err))

	file, err := Precompile([]File{{Path: "x.html", Contents: []byte("<%= it.a.b %>")}})
	require.NoError(t, err)
	bundle, err := LoadBundle(*file)
	require.NoError(t, err)

	_, err = bundle.NewRegistry(nil).Render("x", nil)
	assert.True(t, IsRenderError(err))
}

func TestLoadBundle_ConcurrentRenders(t *testing.T) {
	file, err := Precompile(bundleFiles())
	require.NoError(t, err)
	bundle, err := LoadBundle(*file)
	require.NoError(t, err)
	reg := bundle.NewRegistry(map[string]any{"site": "S"})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Render("index", nil); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPrecompileGlob(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"tpl/a.ejs":   "A",
		"tpl/b/c.ejs": "<%= it.x %>",
	})

	file, err := PrecompileGlob(filepath.Join(dir, "tpl", "**", "*.ejs"), WithMini(true))
	require.NoError(t, err)

	bundle, err := LoadBundle(*file)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b/c"}, bundle.Names())

	tmpl, ok := bundle.NewRegistry(nil).Get("b/c")
	require.True(t, ok)
	out, err := tmpl.Execute(map[string]any{"x": 7})
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}
