package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/serialize"
)

// TemplateFormatVersion is the only template format version CloudFormation accepts.
const TemplateFormatVersion = "2010-09-09"

// resolved is a stack whose properties have been serialized and whose
// resource dependencies are known.
type resolved struct {
	properties   map[string]map[string]any
	dependencies map[string][]string
}

func (s *Stack) resolve() (*resolved, error) {
	if len(s.errs) > 0 {
		return nil, fmt.Errorf("stack %s: %w", s.name, errors.Join(s.errs...))
	}

	r := &resolved{
		properties:   make(map[string]map[string]any, len(s.entries)),
		dependencies: make(map[string][]string, len(s.entries)),
	}

	var errs []error
	for _, id := range s.order {
		e := s.entries[id]

		props, err := serialize.Properties(e.resource)
		if err != nil {
			errs = append(errs, fmt.Errorf("serializing %s: %w", id, err))
			continue
		}
		r.properties[id] = props

		deps := make(map[string]bool)
		for _, ref := range serialize.References(props) {
			if _, ok := s.entries[ref]; !ok {
				errs = append(errs, fmt.Errorf("%s: %w to %s", id, ErrUndefinedReference, ref))
				continue
			}
			deps[ref] = true
		}
		for _, dep := range e.dependsOn {
			if _, ok := s.entries[dep]; !ok {
				errs = append(errs, fmt.Errorf("%s: %w in DependsOn: %s", id, ErrUndefinedReference, dep))
				continue
			}
			deps[dep] = true
		}

		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)
		r.dependencies[id] = names
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("stack %s: %w", s.name, errors.Join(errs...))
	}
	return r, nil
}

// Template synthesizes the CloudFormation template.
func (s *Stack) Template() (*bucketinfra.Template, error) {
	r, err := s.resolve()
	if err != nil {
		return nil, err
	}
	if _, err := topologicalSort(r.dependencies); err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}

	template := &bucketinfra.Template{
		AWSTemplateFormatVersion: TemplateFormatVersion,
		Description:              s.description,
		Resources:                make(map[string]bucketinfra.ResourceDef, len(s.entries)),
	}

	for _, id := range s.order {
		e := s.entries[id]
		var dependsOn []string
		if len(e.dependsOn) > 0 {
			dependsOn = append(dependsOn, e.dependsOn...)
			sort.Strings(dependsOn)
		}
		template.Resources[id] = bucketinfra.ResourceDef{
			Type:                e.resource.ResourceType(),
			Properties:          r.properties[id],
			DependsOn:           dependsOn,
			DeletionPolicy:      e.deletionPolicy,
			UpdateReplacePolicy: e.updateReplacePolicy,
		}
	}

	if len(s.outputs) > 0 {
		template.Outputs = make(map[string]bucketinfra.Output, len(s.outputs))
		for id, out := range s.outputs {
			value, err := serialize.Normalize(out.Value)
			if err != nil {
				return nil, fmt.Errorf("stack %s: output %s: %w", s.name, id, err)
			}
			out.Value = value
			template.Outputs[id] = out
		}
	}

	return template, nil
}

// Order returns logical IDs so that every resource follows the resources it references.
func (s *Stack) Order() ([]string, error) {
	r, err := s.resolve()
	if err != nil {
		return nil, err
	}
	order, err := topologicalSort(r.dependencies)
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}
	return order, nil
}

// ResourceDependencies returns, per logical ID, the resources it references.
func (s *Stack) ResourceDependencies() (map[string][]string, error) {
	r, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return r.dependencies, nil
}

// topologicalSort orders nodes after their dependencies (Kahn's algorithm).
// Ties are broken alphabetically so the result is deterministic.
func topologicalSort(dependencies map[string][]string) ([]string, error) {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)

	for name, deps := range dependencies {
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(inDegree) {
		return nil, detectCycle(dependencies)
	}
	return result, nil
}

// detectCycle finds and reports one cycle in the dependency graph.
func detectCycle(dependencies map[string][]string) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onPath[node] = true

		for _, dep := range dependencies[node] {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if onPath[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		onPath[node] = false
		return false
	}

	names := make([]string, 0, len(dependencies))
	for name := range dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " → "))
	}
	return ErrCycle
}

// ToJSON serializes the template to JSON.
func ToJSON(t *bucketinfra.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *bucketinfra.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
