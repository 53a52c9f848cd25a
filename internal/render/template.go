package render

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// The report templates use a small placeholder dialect:
//
//	{{name}}                     variable substitution
//	{{parent.child}}             one level of nesting
//	{{#each list}} ... {{/each}} repeat block per element ({{this}} for scalars)
//	{{#if flag}} ... {{/if}}     include block when the value is truthy
//
// Templates are parsed once into a node tree and rendered with an output
// specific escape function. Unresolved placeholders render as empty strings.
// Loops inside loop bodies are not expanded; the inner block is stripped.

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodeVar
	nodeLoop
	nodeIf
)

type node struct {
	kind nodeKind
	text string // literal text
	path string // variable path for var/loop/if nodes
	body []node // loop/if body
}

// Template is a parsed report template.
type Template struct {
	nodes []node
}

const (
	openDelim  = "{{"
	closeDelim = "}}"
	eachOpen   = "#each "
	ifOpen     = "#if "
	eachClose  = "/each"
	ifClose    = "/if"
)

// ParseTemplate parses the placeholder dialect into a node tree.
func ParseTemplate(src string) (*Template, error) {
	nodes, rest, err := parseNodes(src, "")
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected closing tag near %q", truncateAt(rest, 24))
	}
	return &Template{nodes: nodes}, nil
}

// MustParseTemplate panics on parse failure; for package-level template constants.
func MustParseTemplate(src string) *Template {
	t, err := ParseTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

// parseNodes consumes src until the closing tag named by until (empty at top
// level). Returns the parsed nodes and the unconsumed remainder after the
// closing tag.
func parseNodes(src, until string) ([]node, string, error) {
	var nodes []node
	for {
		idx := strings.Index(src, openDelim)
		if idx < 0 {
			if until != "" {
				return nil, "", fmt.Errorf("missing {{%s}}", until)
			}
			if src != "" {
				nodes = append(nodes, node{kind: nodeLiteral, text: src})
			}
			return nodes, "", nil
		}

		if idx > 0 {
			nodes = append(nodes, node{kind: nodeLiteral, text: src[:idx]})
		}
		src = src[idx+len(openDelim):]

		end := strings.Index(src, closeDelim)
		if end < 0 {
			// Dangling open delimiter: keep as literal, matching the
			// strip-don't-crash posture of the dialect.
			nodes = append(nodes, node{kind: nodeLiteral, text: openDelim + src})
			return nodes, "", nil
		}

		tag := strings.TrimSpace(src[:end])
		src = src[end+len(closeDelim):]

		switch {
		case tag == until:
			return nodes, src, nil
		case strings.HasPrefix(tag, eachOpen):
			path := strings.TrimSpace(strings.TrimPrefix(tag, eachOpen))
			body, rest, err := parseNodes(src, eachClose)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node{kind: nodeLoop, path: path, body: flattenNestedLoops(body)})
			src = rest
		case strings.HasPrefix(tag, ifOpen):
			path := strings.TrimSpace(strings.TrimPrefix(tag, ifOpen))
			body, rest, err := parseNodes(src, ifClose)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node{kind: nodeIf, path: path, body: body})
			src = rest
		case tag == eachClose || tag == ifClose:
			return nil, "", fmt.Errorf("unmatched {{%s}}", tag)
		default:
			nodes = append(nodes, node{kind: nodeVar, path: tag})
		}
	}
}

// flattenNestedLoops removes loops found inside a loop body so the whole
// inner block is stripped at render time. Nested loop expansion is a
// documented limitation of the dialect, not an error.
func flattenNestedLoops(body []node) []node {
	out := make([]node, 0, len(body))
	for _, n := range body {
		if n.kind == nodeLoop {
			continue
		}
		if n.kind == nodeIf {
			n.body = flattenNestedLoops(n.body)
		}
		out = append(out, n)
	}
	return out
}

// Render substitutes vars into the template with no escaping (markdown/plain output).
func (t *Template) Render(vars map[string]any) string {
	return t.RenderEscaped(vars, nil)
}

// RenderEscaped substitutes vars, passing every substituted value through
// escape. Literal template text is emitted untouched.
func (t *Template) RenderEscaped(vars map[string]any, escape func(string) string) string {
	var sb strings.Builder
	renderNodes(&sb, t.nodes, vars, escape)
	return sb.String()
}

func renderNodes(sb *strings.Builder, nodes []node, scope map[string]any, escape func(string) string) {
	for _, n := range nodes {
		switch n.kind {
		case nodeLiteral:
			sb.WriteString(n.text)
		case nodeVar:
			value, ok := lookup(scope, n.path)
			if !ok || value == nil {
				continue // unresolved placeholders are stripped
			}
			s := stringify(value)
			if escape != nil {
				s = escape(s)
			}
			sb.WriteString(s)
		case nodeIf:
			if value, ok := lookup(scope, n.path); ok && truthy(value) {
				renderNodes(sb, n.body, scope, escape)
			}
		case nodeLoop:
			value, ok := lookup(scope, n.path)
			if !ok {
				continue
			}
			for _, elem := range elements(value) {
				renderNodes(sb, n.body, elementScope(elem), escape)
			}
		}
	}
}

// lookup resolves a variable path against the scope, supporting one level
// of nesting ("parent.child").
func lookup(scope map[string]any, path string) (any, bool) {
	if scope == nil {
		return nil, false
	}
	parent, child, nested := strings.Cut(path, ".")
	value, ok := scope[parent]
	if !ok {
		return nil, false
	}
	if !nested {
		return value, true
	}
	switch m := value.(type) {
	case map[string]any:
		v, ok := m[child]
		return v, ok
	case map[string]string:
		v, ok := m[child]
		return v, ok
	default:
		return nil, false
	}
}

// elements normalizes a loop target into a []any, accepting any slice or
// array type via reflection.
func elements(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// elementScope exposes a loop element's fields by name, with the element
// itself available as {{this}} for scalars.
func elementScope(elem any) map[string]any {
	scope := map[string]any{"this": elem}
	if m, ok := elem.(map[string]any); ok {
		for k, v := range m {
			scope[k] = v
		}
	}
	return scope
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map {
			return rv.Len() > 0
		}
		return true
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncateAt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
