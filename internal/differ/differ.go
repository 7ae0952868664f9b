// Package differ provides semantic comparison of CloudFormation templates and
// synthesized assemblies.
//
// Changes are reported by property path only. Values never appear in the output,
// so a diff of a secret's SecretString shows that it changed and nothing more.
package differ

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    bucketinfra.TemplateDiff
	Summary bucketinfra.DiffSummary
}

// Compare compares two CloudFormation templates and returns differences.
// Either template may be nil, meaning the stack does not exist on that side.
func Compare(template1, template2 *bucketinfra.Template, opts Options) (*Result, error) {
	result := &Result{}

	var res1, res2 map[string]bucketinfra.ResourceDef
	if template1 != nil {
		res1 = template1.Resources
	}
	if template2 != nil {
		res2 = template2.Resources
	}

	// Find added resources (in template2 but not in template1)
	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, bucketinfra.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find removed resources (in template1 but not in template2)
	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, bucketinfra.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find modified resources
	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, bucketinfra.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	// Sort entries for consistent output
	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	// Calculate summary
	result.Summary = bucketinfra.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareAssemblies compares every stack of two assemblies. Stacks present on only
// one side show all their resources as added or removed. Results follow the
// deployment order of after, then stacks only present in before.
func CompareAssemblies(before, after *app.Assembly, opts Options) ([]bucketinfra.DiffResult, error) {
	names := after.StackNames()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for _, name := range before.StackNames() {
		if !seen[name] {
			names = append(names, name)
		}
	}

	results := make([]bucketinfra.DiffResult, 0, len(names))
	for _, name := range names {
		r, err := Compare(before.Templates[name], after.Templates[name], opts)
		if err != nil {
			return nil, fmt.Errorf("comparing %s: %w", name, err)
		}
		results = append(results, bucketinfra.DiffResult{Stack: name, Diff: r.Diff, Summary: r.Summary})
	}
	return results, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := app.ReadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := app.ReadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 bucketinfra.ResourceDef, opts Options) []string {
	var changes []string

	// Compare type
	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	// Compare properties
	propChanges := compareProperties("", def1.Properties, def2.Properties, opts)
	changes = append(changes, propChanges...)

	// Compare DependsOn
	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %s → %s", policyName(def1.DeletionPolicy), policyName(def2.DeletionPolicy)))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %s → %s", policyName(def1.UpdateReplacePolicy), policyName(def2.UpdateReplacePolicy)))
	}

	return changes
}

func policyName(p string) string {
	if p == "" {
		return bucketinfra.PolicyDelete
	}
	return p
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	// Find added/modified properties
	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}

		nested1, ok1 := val1.(map[string]any)
		nested2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(nested1) && !isIntrinsic(nested2) {
			changes = append(changes, compareProperties(path, nested1, nested2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	// Find removed properties
	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// isIntrinsic reports whether m is a single intrinsic function call.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || len(k) > 4 && k[:4] == "Fn::"
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		// Normalize slices for comparison
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts slices by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return encode(result[i]) < encode(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func encode(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []bucketinfra.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
