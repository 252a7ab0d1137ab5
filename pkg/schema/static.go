package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ifworker/ifworker/pkg/config"
)

// Static is a declarative reference Engine: signatures are registered
// once up front in a "declare once, resolve by name" table, and Check
// walks each field's Path against the subtree with no side effects.
type Static struct {
	table map[string][]Signature
}

// NewStatic returns an empty Static engine ready for Register calls.
func NewStatic() *Static {
	return &Static{table: make(map[string][]Signature)}
}

// Register adds a candidate signature for its (service, method) pair,
// in declaration order — the order Static.Signatures returns them in,
// which is what makes "first-declared wins" overload resolution
// deterministic.
func (s *Static) Register(sig Signature) {
	key := sig.Service + "/" + sig.Method
	s.table[key] = append(s.table[key], sig)
}

// Signatures returns every registered overload for (service, method), in
// declaration order.
func (s *Static) Signatures(service, method string) ([]Signature, error) {
	sigs, ok := s.table[service+"/"+method]
	if !ok {
		return nil, fmt.Errorf("schema: no signatures registered for %s.%s", service, method)
	}
	return sigs, nil
}

// Check dry-run type-checks subtree against sig's declared fields,
// returning a TypeError naming the first field that fails.
func (s *Static) Check(sig Signature, subtree *config.Node) (ArgDoc, error) {
	values := make(map[string]any, len(sig.Fields))
	for _, f := range sig.Fields {
		node := subtree
		for _, seg := range f.Path {
			node = node.Child(seg)
		}

		var raw string
		var present bool
		if f.Attr != "" {
			raw, present = node.Attr(f.Attr)
		} else if node != nil {
			raw = node.Text()
			present = raw != ""
		}

		if !present {
			if f.Required {
				return ArgDoc{}, &TypeError{Field: f.Name, Reason: "missing"}
			}
			continue
		}

		switch f.Kind {
		case FieldString:
			values[f.Name] = raw
		case FieldInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return ArgDoc{}, &TypeError{Field: f.Name, Reason: "not an integer"}
			}
			values[f.Name] = n
		case FieldBool:
			values[f.Name] = raw != "false"
		case FieldList:
			values[f.Name] = strings.Fields(raw)
		default:
			return ArgDoc{}, &TypeError{Field: f.Name, Reason: "unknown field kind"}
		}
	}
	return ArgDoc{Values: values}, nil
}
