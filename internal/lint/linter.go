// Package lint checks synthesized PankBase templates for access-control and
// retention invariants.
//
// Rules:
//
//	PKB001: External account grants on bucket policies are read-only
//	PKB002: Download policies never write; upload policies carry the federated-token statement
//	PKB003: Standard and restricted resources are disjoint
//	PKB004: Buckets are retained; content buckets are versioned
//	PKB005: One upload user and one access key per access stack, bound only to the upload policy
//	PKB006: No secret material in outputs or plain property values
package lint

import (
	corelint "github.com/lex00/wetwire-core-go/lint"

	"github.com/pankbase/bucket-infra/internal/app"
)

// Type aliases shared with the core lint package.
type (
	// Issue is an alias for corelint.Issue.
	Issue = corelint.Issue
	// Severity is an alias for corelint.Severity.
	Severity = corelint.Severity
)

// Severity constants.
const (
	SeverityError   = corelint.SeverityError
	SeverityWarning = corelint.SeverityWarning
	SeverityInfo    = corelint.SeverityInfo
)

// SeverityName returns the lowercase name used in CLI output.
func SeverityName(s Severity) string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Finding is an issue located on a stack resource.
type Finding struct {
	Issue
	Stack    string
	Resource string
}

// Rule checks an assembly.
type Rule interface {
	ID() string
	Description() string
	Check(ctx *Context) []Finding
}

// Result contains the outcome of linting.
type Result struct {
	Success  bool
	Findings []Finding
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
}

// Lint runs the enabled rules over asm.
func Lint(asm *app.Assembly, opts Options) Result {
	ctx := NewContext(asm)

	var findings []Finding
	for _, rule := range getRules(opts) {
		findings = append(findings, rule.Check(ctx)...)
	}

	return Result{
		Success:  len(findings) == 0,
		Findings: findings,
	}
}

// AllRules returns all available lint rules.
func AllRules() []Rule {
	return []Rule{
		ExternalReadOnly{},
		PolicyScope{},
		VariantsDisjoint{},
		Retention{},
		UploadUser{},
		SecretExposure{},
	}
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	// Filter by enabled rules if specified
	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
