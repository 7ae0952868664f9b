// Package stack collects resource declarations into a CloudFormation stack.
//
// A Stack assigns logical IDs, carries per-resource options (retention, explicit
// DependsOn) and hands out references. A reference to a resource declared in another
// stack is turned into an export on the producing stack and an Fn::ImportValue in the
// consuming one, which also records the stack-level dependency.
package stack

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/intrinsics"
)

var (
	// ErrDuplicateID is returned when two resources share a logical ID.
	ErrDuplicateID = errors.New("duplicate logical ID")
	// ErrInvalidID is returned for logical IDs CloudFormation would reject.
	ErrInvalidID = errors.New("invalid logical ID")
	// ErrUndefinedReference is returned when a property refers to an undeclared resource.
	ErrUndefinedReference = errors.New("undefined reference")
	// ErrCycle is returned when resources or stacks depend on each other in a loop.
	ErrCycle = errors.New("circular dependency")
)

var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

// Stack is a named set of resources synthesized into one template.
type Stack struct {
	name        string
	description string

	entries map[string]*entry
	order   []string // declaration order

	outputs map[string]bucketinfra.Output
	deps    map[string]*Stack

	errs []error
}

type entry struct {
	id                  string
	resource            bucketinfra.Resource
	deletionPolicy      string
	updateReplacePolicy string
	dependsOn           []string
}

// Option configures a Stack.
type Option func(*Stack)

// WithDescription sets the template description.
func WithDescription(description string) Option {
	return func(s *Stack) {
		s.description = description
	}
}

// New creates an empty stack.
func New(name string, opts ...Option) *Stack {
	s := &Stack{
		name:    name,
		entries: make(map[string]*entry),
		outputs: make(map[string]bucketinfra.Output),
		deps:    make(map[string]*Stack),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !stackNamePattern.MatchString(name) {
		s.errs = append(s.errs, fmt.Errorf("stack name %q: must start with a letter and contain only letters, digits and hyphens", name))
	}
	return s
}

var stackNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,127}$`)

// Name returns the stack name.
func (s *Stack) Name() string {
	return s.name
}

// Description returns the template description.
func (s *Stack) Description() string {
	return s.description
}

// ResourceOption configures a single resource declaration.
type ResourceOption func(*entry)

// WithRetain keeps the resource, and its data, when the stack is deleted or the
// resource is replaced.
func WithRetain() ResourceOption {
	return func(e *entry) {
		e.deletionPolicy = bucketinfra.PolicyRetain
		e.updateReplacePolicy = bucketinfra.PolicyRetain
	}
}

// WithDependsOn adds explicit DependsOn entries. Handles must belong to the same stack.
func WithDependsOn(handles ...Handle) ResourceOption {
	return func(e *entry) {
		for _, h := range handles {
			e.dependsOn = append(e.dependsOn, h.id)
		}
	}
}

// Add declares a resource under the given logical ID.
// Problems are recorded and reported by Template.
func (s *Stack) Add(id string, r bucketinfra.Resource, opts ...ResourceOption) Handle {
	switch {
	case r == nil:
		s.errs = append(s.errs, fmt.Errorf("%s: nil resource", id))
		return Handle{}
	case !logicalIDPattern.MatchString(id):
		s.errs = append(s.errs, fmt.Errorf("%w: %q", ErrInvalidID, id))
		return Handle{}
	}
	if _, exists := s.entries[id]; exists {
		s.errs = append(s.errs, fmt.Errorf("%w: %s", ErrDuplicateID, id))
		return Handle{stack: s, id: id, typ: s.entries[id].resource.ResourceType()}
	}

	e := &entry{id: id, resource: r}
	for _, opt := range opts {
		opt(e)
	}
	s.entries[id] = e
	s.order = append(s.order, id)

	return Handle{stack: s, id: id, typ: r.ResourceType()}
}

// Resource returns the declared value for a logical ID.
func (s *Stack) Resource(id string) (bucketinfra.Resource, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.resource, true
}

// Handles returns every declared resource in declaration order.
func (s *Stack) Handles() []Handle {
	handles := make([]Handle, 0, len(s.order))
	for _, id := range s.order {
		handles = append(handles, Handle{stack: s, id: id, typ: s.entries[id].resource.ResourceType()})
	}
	return handles
}

// Len returns the number of declared resources.
func (s *Stack) Len() int {
	return len(s.order)
}

// Ref returns a value resolving to the resource's Ref return value when the
// template is deployed.
func (s *Stack) Ref(h Handle) any {
	return s.reference(h, intrinsics.Ref{LogicalName: h.id}, "ExportsOutputRef"+h.id)
}

// GetAtt returns a value resolving to one of the resource's attributes.
func (s *Stack) GetAtt(h Handle, attribute string) any {
	return s.reference(h, bucketinfra.AttrRef{Resource: h.id, Attribute: attribute}, "ExportsOutputFnGetAtt"+h.id+attribute)
}

func (s *Stack) reference(h Handle, local any, outputID string) any {
	if h.IsZero() {
		s.errs = append(s.errs, fmt.Errorf("%w: empty handle", ErrUndefinedReference))
		return nil
	}
	if h.stack == s {
		return local
	}
	if h.stack.dependsOn(s) {
		s.errs = append(s.errs, fmt.Errorf("%w: %s and %s reference each other", ErrCycle, s.name, h.stack.name))
		return nil
	}

	exportName := h.stack.export(outputID, local)
	s.deps[h.stack.name] = h.stack
	return intrinsics.ImportValue{ExportName: exportName}
}

// export publishes value as a stack output and returns its export name.
func (s *Stack) export(outputID string, value any) string {
	name := s.name + ":" + outputID
	if _, exists := s.outputs[outputID]; !exists {
		s.outputs[outputID] = bucketinfra.Output{
			Value:  value,
			Export: &bucketinfra.Export{Name: name},
		}
	}
	return name
}

// dependsOn reports whether s transitively imports from other.
func (s *Stack) dependsOn(other *Stack) bool {
	if s == other {
		return true
	}
	for _, dep := range s.deps {
		if dep.dependsOn(other) {
			return true
		}
	}
	return false
}

// Dependencies returns the stacks this stack imports from, sorted by name.
func (s *Stack) Dependencies() []*Stack {
	deps := make([]*Stack, 0, len(s.deps))
	for _, dep := range s.deps {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool {
		return deps[i].name < deps[j].name
	})
	return deps
}

// Handle identifies a declared resource.
type Handle struct {
	stack *Stack
	id    string
	typ   string
}

// LogicalID returns the resource's logical ID.
func (h Handle) LogicalID() string {
	return h.id
}

// Type returns the CloudFormation resource type.
func (h Handle) Type() string {
	return h.typ
}

// Stack returns the declaring stack.
func (h Handle) Stack() *Stack {
	return h.stack
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h.stack == nil || h.id == ""
}

// String returns "Stack/LogicalID".
func (h Handle) String() string {
	if h.stack == nil {
		return h.id
	}
	return h.stack.name + "/" + h.id
}

// Sort orders stacks so that every stack follows the stacks it imports from.
// Every dependency must itself be in stacks.
func Sort(stacks []*Stack) ([]*Stack, error) {
	byName := make(map[string]*Stack, len(stacks))
	for _, s := range stacks {
		byName[s.name] = s
	}

	dependencies := make(map[string][]string, len(stacks))
	for _, s := range stacks {
		names := make([]string, 0, len(s.deps))
		for name, dep := range s.deps {
			if byName[name] != dep {
				return nil, fmt.Errorf("stack %s: %w: imports from %s, which is not part of the app", s.name, ErrUndefinedReference, name)
			}
			names = append(names, name)
		}
		sort.Strings(names)
		dependencies[s.name] = names
	}

	order, err := topologicalSort(dependencies)
	if err != nil {
		return nil, err
	}
	sorted := make([]*Stack, 0, len(order))
	for _, name := range order {
		sorted = append(sorted, byName[name])
	}
	return sorted, nil
}
