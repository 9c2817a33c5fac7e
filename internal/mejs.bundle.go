package internal

import (
	"regexp"
	"strings"
)

// BundleEntry is one compiled template of a bundle
type BundleEntry struct {
	Name    string
	Program *Program
}

const bundlePlaceholder = "/*@templates@*/"

// bundleRegistrySource exports a registry constructor. Instances satisfy the
// same render/resolve/copy/escape/stringify contract the emitted functions
// expect from "this".
const bundleRegistrySource = `;(function (root, factory) {
  'use strict';
  if (typeof module === 'object' && module.exports) module.exports = factory();
  else root.Mejs = factory();
}(this, function () {
  'use strict';

  var hasOwn = Object.prototype.hasOwnProperty;
  var entities = {'&': '&amp;', '<': '&lt;', '>': '&gt;', '"': '&quot;', "'": '&#39;', '` + "`" + `': '&#96;'};

  function Mejs(locals) {
    if (!(this instanceof Mejs)) return new Mejs(locals);
    var templates = {};
    this.locals = locals || {};
    this.templates = templates;
    /*@templates@*/
  }

  var proto = Mejs.prototype;

  proto.render = function (tplName, data) {
    return this.get(tplName).call(this, this.copy(data, this.locals), tplName);
  };

  proto.add = function (tplName, tplFn, overwrite) {
    if (!overwrite && hasOwn.call(this.templates, tplName))
      throw new Error('template "' + tplName + '" already exists');
    this.templates[tplName] = tplFn;
    return this;
  };

  proto.get = function (tplName) {
    if (!hasOwn.call(this.templates, tplName))
      throw new Error('template "' + tplName + '" not found');
    return this.templates[tplName];
  };

  proto.remove = function (tplName) {
    delete this.templates[tplName];
    return this;
  };

  proto['import'] = function (ns, other, overwrite) {
    if (typeof ns !== 'string') {
      overwrite = other;
      other = ns;
      ns = '';
    }
    ns = ns.replace(/^\/+/, '');
    if (ns && ns.charAt(ns.length - 1) !== '/') ns += '/';
    for (var tplName in other.templates) {
      if (hasOwn.call(other.templates, tplName))
        this.add(this.resolve(ns, tplName), other.templates[tplName], overwrite);
    }
    return this;
  };

  proto.resolve = function (parent, child) {
    parent = parent || '';
    child = child || '';
    var joined;
    if (parent === '' || parent.charAt(parent.length - 1) === '/') joined = parent + '/' + child;
    else if (child.indexOf('./') === 0 || child.indexOf('../') === 0)
      joined = parent.slice(0, parent.lastIndexOf('/') + 1) + child;
    else joined = child;
    var out = [], parts = joined.split('/');
    for (var i = 0; i < parts.length; i++) {
      if (parts[i] === '' || parts[i] === '.') continue;
      if (parts[i] === '..') out.pop();
      else out.push(parts[i]);
    }
    return out.join('/');
  };

  proto.copy = function (data, defaults) {
    var out = {}, key;
    for (key in defaults || {}) if (hasOwn.call(defaults, key)) out[key] = defaults[key];
    for (key in data || {}) if (hasOwn.call(data, key)) out[key] = data[key];
    return out;
  };

  proto.stringify = function (value) {
    return value == null ? '' : String(value);
  };

  proto.escape = function (value) {
    return this.stringify(value).replace(/[&<>"'` + "`" + `]/g, function (c) { return entities[c]; });
  };

  return Mejs;
}));
`

// bundleTemplatesSource exports only the templates object
const bundleTemplatesSource = `;(function (root, factory) {
  'use strict';
  if (typeof module === 'object' && module.exports) module.exports = factory();
  else root.templates = factory();
}(this, function () {
  'use strict';

  var templates = {};

  /*@templates@*/

  return templates;
}));
`

var (
	reHTMLComment = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reLinefeedRun = regexp.MustCompile(`\n+\s*`)
)

// PreprocessSource strips HTML comments and line feeds ahead of compilation
func PreprocessSource(src string, rmComment, rmLinefeed bool) string {
	if rmComment {
		src = reHTMLComment.ReplaceAllString(src, "")
	}
	if rmLinefeed {
		src = reLinefeedRun.ReplaceAllString(src, "")
	}
	return src
}

// BundleSource renders a module holding every entry as emitted function text.
// With mini set the module exports the bare templates object.
func BundleSource(entries []BundleEntry, mini bool) string {
	shell := bundleRegistrySource
	if mini {
		shell = bundleTemplatesSource
	}

	// Only assignment lines are indented, to the placeholder's column.
	// Function bodies may hold multi-line string literals that must stay
	// byte for byte.
	at := strings.Index(shell, bundlePlaceholder)
	indent := shell[strings.LastIndexByte(shell[:at], CharNewline)+1 : at]

	assignments := make([]string, len(entries))
	for i, e := range entries {
		assignments[i] = "templates[" + QuoteName(e.Name) + "] = " + EmitFunction(e.Program) + ";"
	}
	body := strings.Join(assignments, "\n\n"+indent)
	return strings.Replace(shell, bundlePlaceholder, body, 1)
}
