// Package schema is the contract the binder uses to dry-run type-check a
// configuration subtree against a candidate method's declared argument
// schema, plus a declarative reference implementation.
package schema

import "github.com/ifworker/ifworker/pkg/config"

// Role distinguishes ordinary call methods from the factory methods that
// materialise a device object, and from deprecated aliases kept only for
// compatibility (original_source/include/wicked/dbus-service.h).
type Role int

const (
	RoleCall Role = iota
	RoleFactory
	RoleDeprecated
)

func (r Role) String() string {
	switch r {
	case RoleFactory:
		return "factory"
	case RoleDeprecated:
		return "deprecated"
	default:
		return "call"
	}
}

// FieldKind is the primitive type a declared argument field dry-run
// checks against.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
	FieldBool
	FieldList
)

// Field declares one argument the method expects, and where to find it
// in the configuration subtree.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	// Path navigates from the subtree root to the element carrying this
	// field: e.g. []string{"bond", "mode"} for <bond mode="...">'s
	// attribute, consumed by Static's resolver.
	Path []string
	// Attr, if non-empty, names the attribute at Path's element to read
	// instead of its character data.
	Attr string
}

// Signature is one candidate (service, method) overload: its role and
// its declared argument fields.
type Signature struct {
	Service string
	Method  string
	Role    Role
	Fields  []Field
}

// ArgDoc is a type-checked, ready-to-marshal argument document.
type ArgDoc struct {
	Values map[string]any
}

// Get returns a field's checked value.
func (d ArgDoc) Get(name string) (any, bool) {
	v, ok := d.Values[name]
	return v, ok
}

// TypeError reports why a subtree failed to type-check against a field.
type TypeError struct {
	Field  string
	Reason string
}

func (e *TypeError) Error() string {
	return "argument " + e.Field + ": " + e.Reason
}

// Engine resolves a service+method name to its candidate signatures and
// dry-run checks a subtree against one of them. Check has no side
// effects, so binder tests can supply fixtures without a live schema
// daemon.
type Engine interface {
	Signatures(service, method string) ([]Signature, error)
	Check(sig Signature, subtree *config.Node) (ArgDoc, error)
}
