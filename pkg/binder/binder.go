// Package binder implements two-level call resolution: an action's
// Behavior names an abstract service hint and method name; the binder
// resolves those against a concrete bus object, picking a service from
// its advertised list and an overload from the schema engine's dry-run
// type check.
package binder

import (
	"fmt"

	"github.com/ifworker/ifworker/pkg/action"
	"github.com/ifworker/ifworker/pkg/config"
	"github.com/ifworker/ifworker/pkg/schema"
	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/worker"
)

// ObjectDirectory answers the two questions the binder cannot derive
// from an action's Behavior alone: which services a bus object
// advertises, and which factory object creates a new device of a given
// kind. A live daemon answers these via bus introspection; StaticDirectory
// is a fixture-driven reference implementation for tests.
type ObjectDirectory interface {
	Services(objectPath string) ([]string, error)
	FactoryPath(kind worker.Kind) (string, error)
}

// StaticDirectory is a map-backed ObjectDirectory, grounded on
// rpcbus.Fake's own fixture-registration style.
type StaticDirectory struct {
	Objects   map[string][]string
	Factories map[worker.Kind]string
}

// NewStaticDirectory returns an empty StaticDirectory ready for its
// Objects and Factories maps to be populated directly.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		Objects:   make(map[string][]string),
		Factories: make(map[worker.Kind]string),
	}
}

// Services implements ObjectDirectory.
func (d *StaticDirectory) Services(objectPath string) ([]string, error) {
	services, ok := d.Objects[objectPath]
	if !ok {
		return nil, fmt.Errorf("binder: no such object %s", objectPath)
	}
	return services, nil
}

// FactoryPath implements ObjectDirectory.
func (d *StaticDirectory) FactoryPath(kind worker.Kind) (string, error) {
	path, ok := d.Factories[kind]
	if !ok {
		return "", fmt.Errorf("binder: no factory registered for kind %s", kind)
	}
	return path, nil
}

// Bind resolves a's ObjectPath and Binding (and ExtraBindings, for
// FanOut behaviors) against w's current graph position and
// configuration. callOverloading controls the ambiguous-overload
// policy: when false, more than one type-checking overload is a binding
// error rather than "first-declared wins".
func Bind(w *worker.Worker, a *action.Action, dir ObjectDirectory, engine schema.Engine, callOverloading bool) error {
	objectPath, err := resolveObjectPath(w, a, dir)
	if err != nil {
		return util.NewWorkerError(util.KindBinding, w.Name, a.Behavior.CallName(), err.Error())
	}
	a.ObjectPath = objectPath

	if a.Behavior.FanOut() {
		return bindFanOut(w, a, dir, engine, objectPath, callOverloading)
	}
	return bindSingle(w, a, dir, engine, objectPath, callOverloading)
}

func resolveObjectPath(w *worker.Worker, a *action.Action, dir ObjectDirectory) (string, error) {
	if w.ObjectPath != "" {
		return w.ObjectPath, nil
	}
	// The only action that legally runs before a worker has an object
	// path is the DeviceDown -> DeviceExists factory call.
	if a.Behavior.ServiceHint() != "device" || a.Behavior.MethodName() != "create" {
		return "", fmt.Errorf("no object path bound for %s yet", w.Name)
	}
	return dir.FactoryPath(w.Kind)
}

func bindSingle(w *worker.Worker, a *action.Action, dir ObjectDirectory, engine schema.Engine, objectPath string, callOverloading bool) error {
	// The auth service is optional: an ethernet or wired bridge/bond
	// member names no <wireless> auth-mode at all, so linkAuthenticate
	// and its reverse linkDeauthenticate skip their call entirely rather
	// than failing to bind against a service no object need advertise.
	if a.Behavior.ServiceHint() == "auth" && w.Config.WirelessAuthMode() == "" {
		a.Binding = action.Binding{Service: "auth", Method: a.Behavior.MethodName(), SkipCall: true}
		a.ExtraBindings = nil
		a.Bound = true
		return nil
	}

	service, err := pickService(dir, objectPath, a.Behavior.ServiceHint())
	if err != nil {
		return util.NewWorkerError(util.KindBinding, w.Name, a.Behavior.CallName(), err.Error())
	}
	b, err := resolveOverload(engine, service, a.Behavior.MethodName(), w.Config, callOverloading)
	if err != nil {
		return util.NewWorkerError(util.KindBinding, w.Name, a.Behavior.CallName(), err.Error())
	}
	a.Binding = b
	a.ExtraBindings = nil
	a.Bound = true
	return nil
}

// bindFanOut handles addrconfUp/addrconfDown: one binding per address
// family configured under <addrconf>, each against its own
// "<hint>-<family>" service (e.g. "addrconf-ipv4-dhcp"), skipped when
// the family is explicitly disabled.
func bindFanOut(w *worker.Worker, a *action.Action, dir ObjectDirectory, engine schema.Engine, objectPath string, callOverloading bool) error {
	families := w.Config.AddressFamilies()
	if len(families) == 0 {
		a.Binding = action.Binding{SkipCall: true}
		a.ExtraBindings = nil
		a.Bound = true
		return nil
	}

	bindings := make([]action.Binding, 0, len(families))
	for _, fam := range families {
		service := a.Behavior.ServiceHint() + "-" + fam.Name()
		if !w.Config.FamilyEnabled(fam) {
			bindings = append(bindings, action.Binding{Service: service, Method: a.Behavior.MethodName(), SkipCall: true})
			continue
		}
		if _, err := pickService(dir, objectPath, service); err != nil {
			return util.NewWorkerError(util.KindBinding, w.Name, a.Behavior.CallName(), err.Error())
		}
		b, err := resolveOverload(engine, service, a.Behavior.MethodName(), fam, callOverloading)
		if err != nil {
			return util.NewWorkerError(util.KindBinding, w.Name, a.Behavior.CallName(), err.Error())
		}
		bindings = append(bindings, b)
	}

	a.Binding = bindings[0]
	a.ExtraBindings = bindings[1:]
	a.Bound = true
	return nil
}

func pickService(dir ObjectDirectory, objectPath, hint string) (string, error) {
	services, err := dir.Services(objectPath)
	if err != nil {
		return "", err
	}
	for _, s := range services {
		if s == hint {
			return s, nil
		}
	}
	return "", fmt.Errorf("object %s advertises no %q service", objectPath, hint)
}

// resolveOverload picks the first registered signature of service.method
// whose declared fields type-check against subtree. Non-deprecated
// signatures are tried first; deprecated ones are tried only when no
// non-deprecated signature type-checks. With callOverloading disabled, a
// second type-checking candidate is a binding error rather than a
// silently discarded alternative.
func resolveOverload(engine schema.Engine, service, method string, subtree *config.Node, callOverloading bool) (action.Binding, error) {
	sigs, err := engine.Signatures(service, method)
	if err != nil {
		return action.Binding{}, err
	}

	candidates := preferNonDeprecated(sigs)
	if len(candidates) < len(sigs) {
		for _, s := range sigs {
			if s.Role == schema.RoleDeprecated {
				candidates = append(candidates, s)
			}
		}
	}

	var chosen action.Binding
	matches := 0
	for i, sig := range candidates {
		if i > 0 && sig.Role == schema.RoleDeprecated && candidates[i-1].Role != schema.RoleDeprecated && matches > 0 {
			break
		}
		doc, err := engine.Check(sig, subtree)
		if err != nil {
			continue
		}
		matches++
		if matches == 1 {
			chosen = action.Binding{Service: service, Method: method, Args: doc}
		}
		if callOverloading {
			return chosen, nil
		}
	}

	if matches == 0 {
		return action.Binding{}, fmt.Errorf("no signature of %s.%s type-checks", service, method)
	}
	if matches > 1 {
		return action.Binding{}, fmt.Errorf("%d overloads of %s.%s all type-check and call overloading is disabled", matches, service, method)
	}
	return chosen, nil
}

func preferNonDeprecated(sigs []schema.Signature) []schema.Signature {
	primary := make([]schema.Signature, 0, len(sigs))
	for _, s := range sigs {
		if s.Role != schema.RoleDeprecated {
			primary = append(primary, s)
		}
	}
	if len(primary) > 0 {
		return primary
	}
	return sigs
}
