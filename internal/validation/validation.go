// Package validation runs the project lint rules and cfn-lint-go over a
// synthesized assembly.
//
// The pipeline mirrors a deployment:
//   - lint: PankBase access-control and retention rules on the templates
//   - write: templates are written to a scratch directory as JSON
//   - cfn-lint-go: CloudFormation schema validation of every written template
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfnlint "github.com/lex00/cfn-lint-go/pkg/lint"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/lint"
)

// CfnLintResult contains the result of running cfn-lint on one template.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// ValidationResult contains all validation results for an assembly.
type ValidationResult struct {
	LintResult lint.Result `json:"lint_result"`
	// CfnLintResults is keyed by stack name.
	CfnLintResults map[string]*CfnLintResult `json:"cfn_lint_results"`
	Resources      int                       `json:"resources"`
}

// Passed reports whether no lint finding and no cfn-lint error was found.
// cfn-lint warnings are acceptable.
func (r *ValidationResult) Passed() bool {
	if !r.LintResult.Success {
		return false
	}
	for _, c := range r.CfnLintResults {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Summary flattens the result into the validate command's output.
// Lint findings with error severity and cfn-lint errors are errors; the rest are warnings.
func (r *ValidationResult) Summary() bucketinfra.ValidateResult {
	out := bucketinfra.ValidateResult{
		Success:   r.Passed(),
		Resources: r.Resources,
	}

	for _, f := range r.LintResult.Findings {
		line := fmt.Sprintf("%s: %s: %s", f.Stack, f.Rule, f.Message)
		if f.Resource != "" {
			line = fmt.Sprintf("%s/%s: %s: %s", f.Stack, f.Resource, f.Rule, f.Message)
		}
		if f.Severity == lint.SeverityError {
			out.Errors = append(out.Errors, line)
		} else {
			out.Warnings = append(out.Warnings, line)
		}
	}

	for _, name := range sortedKeys(r.CfnLintResults) {
		c := r.CfnLintResults[name]
		for _, e := range c.Errors {
			out.Errors = append(out.Errors, name+": "+e)
		}
		for _, w := range c.Warnings {
			out.Warnings = append(out.Warnings, name+": "+w)
		}
	}
	return out
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := cfnlint.New(cfnlint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match cfnlint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateAssembly runs the full validation pipeline on asm.
// When workDir is empty, templates are written to a temporary directory that
// is removed afterwards.
func ValidateAssembly(asm *app.Assembly, workDir string, opts lint.Options) (*ValidationResult, error) {
	result := &ValidationResult{
		LintResult:     lint.Lint(asm, opts),
		CfnLintResults: make(map[string]*CfnLintResult, len(asm.Templates)),
		Resources:      asm.ResourceCount(),
	}

	if workDir == "" {
		dir, err := os.MkdirTemp("", "pankbase-validate-")
		if err != nil {
			return nil, fmt.Errorf("creating work directory: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	if err := asm.Write(workDir, app.FormatJSON); err != nil {
		return nil, fmt.Errorf("writing templates: %w", err)
	}

	for _, s := range asm.Manifest.Stacks {
		cfnResult, err := RunCfnLint(filepath.Join(workDir, s.TemplateFile))
		if err != nil {
			return nil, fmt.Errorf("running cfn-lint on %s: %w", s.Name, err)
		}
		result.CfnLintResults[s.Name] = cfnResult
	}

	return result, nil
}

func sortedKeys(m map[string]*CfnLintResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
