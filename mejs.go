// Package mejs compiles EJS-style templates into reusable render functions
// and manages them in a registry addressed by virtual paths.
//
// Templates mix literal text with embedded code between tags:
//
//	<p><%= it.user.name %></p>
//	<% it.items.forEach(function (item) { %>
//	  <li><%- include("./item", {item: item}) %></li>
//	<% }) %>
//
// # Basic Usage
//
// Compile templates into a registry and render them by name:
//
//	reg := mejs.NewRegistry(mejs.WithLocals(map[string]any{"site": "example"}))
//	if err := reg.AddSource("hello", "Hello <%= it.name %>!", false); err != nil {
//	    return err
//	}
//	out, err := reg.Render("hello", map[string]any{"name": "World"})
//	// out: "Hello World!"
//
// # Tags
//
// The default delimiter is '%'; any single character can be substituted
// with WithDelimiter.
//
//	<%  code  %>   run a statement fragment, no output
//	<%= expr  %>   output the value, HTML-escaped
//	<%- expr  %>   output the value unescaped
//	<%# text  %>   comment, dropped
//	<%%            literal "<%"
//	%%>            literal "%>"
//	-%>            close and drop one following line break
//	<%_  _%>       slurp adjacent spaces and tabs
//
// null and undefined render as the empty string; 0 and false render as
// "0" and "false".
//
// # Backends
//
// Compilation yields a backend-independent instruction list. The native
// backend (default) interprets embedded code as a JavaScript subset without
// any runtime dependency. The script backend emits the program as a
// JavaScript function and runs it on an embedded ECMAScript engine, for
// templates that need the full language.
//
//	reg := mejs.NewRegistry(mejs.WithBackend(mejs.ScriptBackend()))
//
// # Loading and Bundles
//
// NewFromGlob compiles every file matching a doublestar pattern, naming each
// template by its path relative to the pattern base with the extension
// removed. Precompile renders a set of files into a single JavaScript module
// that LoadBundle (or any CommonJS host) can execute.
package mejs
