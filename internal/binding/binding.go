// Package binding resolves blob trigger and output paths for functions.
//
// A Binding pairs a trigger pattern with an output pattern, e.g.
//
//	trigger: test-samples-trigger/{name}
//	output:  test-samples-output/{name}-output.txt
//
// A blob matching the trigger binds its variables, which are then substituted
// into the output pattern to locate where the function writes its result.
package binding

import (
	"fmt"
	"strings"

	"filemeta/internal/model"
)

// NameVariable is the variable conventionally holding the triggering blob's name.
const NameVariable = "name"

// Binding is the declarative trigger/output wiring of one function.
type Binding struct {
	Trigger *Pattern
	Output  *Pattern
}

// Trigger is the result of binding a blob to a function.
type Trigger struct {
	Source model.BlobRef
	Output model.BlobRef
	Vars   map[string]string
}

// Name returns the value bound to {name}, or the source blob name when the
// trigger pattern has no such variable.
func (t Trigger) Name() string {
	if v, ok := t.Vars[NameVariable]; ok {
		return v
	}
	return t.Source.Name
}

// New parses both patterns and checks that the output only uses variables the trigger binds.
func New(trigger, output string) (Binding, error) {
	tp, err := Parse(trigger)
	if err != nil {
		return Binding{}, fmt.Errorf("trigger: %w", err)
	}
	op, err := Parse(output)
	if err != nil {
		return Binding{}, fmt.Errorf("output: %w", err)
	}

	bound := make(map[string]bool)
	for _, v := range tp.Variables() {
		bound[v] = true
	}
	for _, v := range op.Variables() {
		if !bound[v] {
			return Binding{}, fmt.Errorf("output: %w %q not bound by trigger %q", ErrMissingVariable, v, trigger)
		}
	}
	return Binding{Trigger: tp, Output: op}, nil
}

// Bind matches ref against the trigger pattern and resolves the output location.
func (b Binding) Bind(ref model.BlobRef) (Trigger, bool) {
	vars, ok := b.Trigger.Match(ref.Path())
	if !ok {
		return Trigger{}, false
	}
	out, err := b.Output.Resolve(vars)
	if err != nil {
		// New guarantees every output variable is bound.
		return Trigger{}, false
	}
	return Trigger{
		Source: ref,
		Output: SplitPath(out),
		Vars:   vars,
	}, true
}

func (b Binding) String() string {
	return b.Trigger.String() + " -> " + b.Output.String()
}

// SplitPath splits "container/name" at the first slash.
func SplitPath(p string) model.BlobRef {
	container, name, _ := strings.Cut(p, "/")
	return model.BlobRef{Container: container, Name: name}
}
