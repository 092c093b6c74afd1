package browser

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// targetAttribute marks the node an element action should drive
const targetAttribute = "data-conduit-target"

// resolveFunc resolves a selector.Spec against the live document:
// scope, then query, then text filter, then index.
const resolveFunc = `function(spec) {
  function resolve(s) {
    var roots = s.scope ? resolve(s.scope) : [document];
    var out = [];
    roots.forEach(function(root) {
      root.querySelectorAll(s.query).forEach(function(n) {
        if (out.indexOf(n) < 0) { out.push(n); }
      });
    });
    if (s.text) {
      out = out.filter(function(n) { return (n.textContent || '').indexOf(s.text) >= 0; });
    }
    if (s.index >= 0) {
      out = out.length > s.index ? [out[s.index]] : [];
    }
    return out;
  }
  return resolve(spec);
}`

const snapshotFunc = `function(n) {
  var style = window.getComputedStyle(n);
  var rect = n.getBoundingClientRect();
  var attrs = {};
  for (var i = 0; i < n.attributes.length; i++) {
    attrs[n.attributes[i].name] = n.attributes[i].value;
  }
  return {
    text: (n.innerText !== undefined ? n.innerText : n.textContent) || '',
    value: n.value !== undefined && n.value !== null ? String(n.value) : '',
    visible: style.display !== 'none' && style.visibility !== 'hidden' && (rect.width > 0 || rect.height > 0),
    disabled: !!n.disabled,
    focused: document.activeElement === n,
    tagName: n.tagName,
    attrs: attrs,
    classes: Array.prototype.slice.call(n.classList),
    html: n.innerHTML
  };
}`

func specJSON(loc selector.Locator) string {
	b, err := json.Marshal(loc.Spec())
	if err != nil {
		// Spec only holds strings and ints
		panic(err)
	}
	return string(b)
}

// queryScript returns a script evaluating to a Node snapshot per match
func queryScript(loc selector.Locator) string {
	return fmt.Sprintf(`(function() {
  var resolve = %s;
  var snapshot = %s;
  return resolve(%s).map(snapshot);
})()`, resolveFunc, snapshotFunc, specJSON(loc))
}

// markScript tags the first match with targetAttribute=token and returns the
// number of matches
func markScript(loc selector.Locator, token string) string {
	return fmt.Sprintf(`(function() {
  var resolve = %s;
  document.querySelectorAll('[%s]').forEach(function(n) { n.removeAttribute('%s'); });
  var nodes = resolve(%s);
  if (nodes.length > 0) { nodes[0].setAttribute('%s', %s); }
  return nodes.length;
})()`, resolveFunc, targetAttribute, targetAttribute, specJSON(loc), targetAttribute, jsString(token))
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func targetQuery(token string) string {
	return fmt.Sprintf(`[%s="%s"]`, targetAttribute, token)
}

const storageGetScript = `(function(key) {
  try {
    var v = window.localStorage.getItem(key);
    return { ok: v !== null, value: v === null ? '' : v };
  } catch (e) {
    return { ok: false, value: '' };
  }
})(%s)`

const storageSetScript = `(function(key, value) {
  window.localStorage.setItem(key, value);
  return true;
})(%s, %s)`

const storageClearScript = `(function() {
  try {
    window.localStorage.clear();
    window.sessionStorage.clear();
  } catch (e) {}
  return true;
})()`
