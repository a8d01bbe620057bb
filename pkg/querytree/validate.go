package querytree

import (
	"fmt"
	"time"

	"github.com/ccoveille/go-safecast"

	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/store"
)

// Parse decodes and validates a JSON request document against the bound
// dictionary, returning the validated query tree.
func Parse(doc []byte, rootType string, binder *dictionary.Binder, limits Limits) (*Tree, error) {
	req, err := ParseRequest(doc)
	if err != nil {
		return nil, err
	}
	return Build(req, rootType, binder, limits)
}

// Build validates a request document against the bound dictionary. The
// complexity caps are checked first, on the raw request shape, so that a
// pathological request is rejected without walking the dictionary. Validation
// failures accumulate into a single ValidationError.
func Build(req *Request, rootType string, binder *dictionary.Binder, limits Limits) (*Tree, error) {
	depth, nodeCount := measure(req)
	if depth > limits.MaxDepth || nodeCount > limits.MaxNodes {
		return nil, NewTooComplexError(depth, nodeCount, limits)
	}

	root, err := binder.ResolveNodeType(rootType)
	if err != nil {
		return nil, err
	}

	v := &validator{binder: binder, limits: limits}
	rootNode := v.walk(req, root, rootType)
	if len(v.issues) > 0 {
		return nil, NewValidationError(v.issues)
	}

	return &Tree{Root: rootNode, NodeCount: nodeCount, Depth: depth}, nil
}

func measure(req *Request) (depth int, nodes int) {
	depth = 1
	nodes = 1
	for i := range req.Links {
		childDepth, childNodes := measure(&req.Links[i].Request)
		if childDepth+1 > depth {
			depth = childDepth + 1
		}
		nodes += childNodes
	}
	return depth, nodes
}

type validator struct {
	binder *dictionary.Binder
	limits Limits
	issues []Issue
}

func (v *validator) addIssue(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) walk(req *Request, nodeType *dictionary.NodeType, path string) *Node {
	node := &Node{
		Type: nodeType,
		Path: path,
	}

	for _, fieldName := range req.Fields {
		field, ok := nodeType.Field(fieldName)
		if !ok {
			v.addIssue(path+"."+fieldName, "unknown field on node type `%s`", nodeType.Name())
			continue
		}
		node.Fields = append(node.Fields, field)
	}

	for _, arg := range req.Filters {
		if filter, ok := v.validateFilter(arg, nodeType, path); ok {
			node.Filters = append(node.Filters, filter)
		}
	}

	node.Order = v.validateOrdering(req, nodeType, path)
	node.Window = v.validateWindow(req, path)

	for i := range req.Links {
		link := &req.Links[i]
		rel, err := v.binder.ResolveRelationship(nodeType, link.Name)
		if err != nil {
			v.addIssue(path+"."+link.Name, "unknown relationship on node type `%s`", nodeType.Name())
			continue
		}

		linkPath := path + "." + link.Name
		if link.Count {
			if len(link.Fields) > 0 || len(link.Links) > 0 {
				v.addIssue(linkPath, "a count link cannot select fields or nested links")
				continue
			}
			target, resolveErr := v.binder.ResolveNodeType(rel.TargetType)
			if resolveErr != nil {
				v.addIssue(linkPath, "relationship target `%s` not in dictionary", rel.TargetType)
				continue
			}
			countNode := v.walk(&link.Request, target, linkPath)
			node.Links = append(node.Links, &Link{Relationship: rel, CountOnly: true, Node: countNode})
			continue
		}

		target, resolveErr := v.binder.ResolveNodeType(rel.TargetType)
		if resolveErr != nil {
			v.addIssue(linkPath, "relationship target `%s` not in dictionary", rel.TargetType)
			continue
		}

		node.Links = append(node.Links, &Link{
			Relationship: rel,
			Node:         v.walk(&link.Request, target, linkPath),
		})
	}

	return node
}

func (v *validator) validateFilter(arg FilterArg, nodeType *dictionary.NodeType, path string) (store.Filter, bool) {
	fieldPath := path + "." + arg.Field

	op, ok := parseOp(arg.Op)
	if !ok {
		v.addIssue(fieldPath, "unknown filter operator `%s`", arg.Op)
		return store.Filter{}, false
	}

	field, ok := nodeType.Field(arg.Field)
	if !ok {
		v.addIssue(fieldPath, "unknown field on node type `%s`", nodeType.Name())
		return store.Filter{}, false
	}

	if op.Ranged() && !field.Kind.Ordinal() {
		v.addIssue(fieldPath, "operator `%s` requires an ordinal field, `%s` is %s",
			arg.Op, arg.Field, field.Kind)
		return store.Filter{}, false
	}

	if op == store.OpIsNull {
		want := true
		if arg.Value != nil {
			b, ok := arg.Value.(bool)
			if !ok {
				v.addIssue(fieldPath, "isnull takes a boolean value")
				return store.Filter{}, false
			}
			want = b
		}
		return store.Filter{Field: arg.Field, Op: op, Values: []any{want}}, true
	}

	values, ok := filterValues(arg.Value)
	if !ok || len(values) == 0 {
		v.addIssue(fieldPath, "filter requires a value")
		return store.Filter{}, false
	}
	if op.Ranged() && len(values) != 1 {
		v.addIssue(fieldPath, "operator `%s` takes exactly one value", arg.Op)
		return store.Filter{}, false
	}

	coerced := make([]any, 0, len(values))
	for _, raw := range values {
		value, err := coerceLiteral(raw, field.Kind)
		if err != nil {
			v.addIssue(fieldPath, "%s", err)
			return store.Filter{}, false
		}
		coerced = append(coerced, value)
	}

	return store.Filter{Field: arg.Field, Op: op, Values: coerced}, true
}

func (v *validator) validateOrdering(req *Request, nodeType *dictionary.NodeType, path string) store.Ordering {
	direction := store.Ascending
	if req.Desc {
		direction = store.Descending
	}

	if req.OrderBy == "" || req.OrderBy == "id" {
		return store.Ordering{Direction: direction}
	}

	if _, ok := nodeType.Field(req.OrderBy); !ok {
		v.addIssue(path+"."+req.OrderBy, "cannot order by unknown field on node type `%s`", nodeType.Name())
		return store.Ordering{Direction: direction}
	}

	return store.Ordering{Field: req.OrderBy, Direction: direction}
}

func (v *validator) validateWindow(req *Request, path string) store.Window {
	var window store.Window

	if req.Offset != nil {
		offset, err := safecast.ToUint64(*req.Offset)
		if err != nil {
			v.addIssue(path, "offset must be a non-negative integer")
			return window
		}
		window.Offset = offset
	}

	// Absent first means the default cap; an explicit zero asks for an
	// uncapped fetch, which is still clamped to the configured maximum so a
	// single level can never trigger an unguarded full fetch.
	limit := v.limits.DefaultFirst
	if req.First != nil {
		first, err := safecast.ToUint64(*req.First)
		if err != nil {
			v.addIssue(path, "first must be a non-negative integer")
			return window
		}
		if first == 0 || first > v.limits.MaxFirst {
			limit = v.limits.MaxFirst
		} else {
			limit = first
		}
	}
	window.Limit = &limit

	return window
}

func parseOp(name string) (store.CompareOp, bool) {
	switch name {
	case "eq", "", "=":
		return store.OpEq, true
	case "neq", "not":
		return store.OpNeq, true
	case "in":
		return store.OpIn, true
	case "lt", "<":
		return store.OpLt, true
	case "lte", "<=":
		return store.OpLte, true
	case "gt", ">":
		return store.OpGt, true
	case "gte", ">=":
		return store.OpGte, true
	case "isnull":
		return store.OpIsNull, true
	default:
		return store.OpEq, false
	}
}

func filterValues(value any) ([]any, bool) {
	switch tv := value.(type) {
	case nil:
		return nil, false
	case []any:
		return tv, true
	default:
		return []any{value}, true
	}
}

func coerceLiteral(raw any, kind dictionary.FieldKind) (any, error) {
	switch kind {
	case dictionary.KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string literal, got %T", raw)
		}
		return s, nil

	case dictionary.KindInt:
		switch n := raw.(type) {
		case float64:
			i := int64(n)
			if float64(i) != n {
				return nil, fmt.Errorf("expected integer literal, got %v", n)
			}
			return i, nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		default:
			return nil, fmt.Errorf("expected integer literal, got %T", raw)
		}

	case dictionary.KindFloat:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected numeric literal, got %T", raw)
		}

	case dictionary.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean literal, got %T", raw)
		}
		return b, nil

	case dictionary.KindDatetime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected datetime literal, got %T", raw)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("expected RFC 3339 datetime literal: %v", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}
