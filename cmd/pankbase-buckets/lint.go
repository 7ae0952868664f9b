package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/lint"
)

func newLintCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		rules        []string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check synthesized templates for issues",
		Long: `Lint synthesizes the templates in memory and checks them.

Rules:
    PKB001: External account grants on bucket policies are read-only
    PKB002: Download policies never write; upload policies carry the federated-token statement
    PKB003: Standard and restricted resources are disjoint
    PKB004: Buckets are retained; content buckets are versioned
    PKB005: One upload user and one access key per access stack, bound only to the upload policy
    PKB006: No secret material in outputs or plain property values

Exits with code 2 when issues are found.

Examples:
    pankbase-buckets lint
    pankbase-buckets lint --rules PKB001,PKB004 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, asm, err := root.synthesize()
			if err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			return outputLintResult(cmd.OutOrStdout(), runLint(asm, rules), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "Rules to run (default: all)")

	return cmd
}

func runLint(asm *app.Assembly, rules []string) bucketinfra.LintResult {
	lintResult := lint.Lint(asm, lint.Options{EnabledRules: rules})

	result := bucketinfra.LintResult{Success: lintResult.Success}
	for _, f := range lintResult.Findings {
		result.Issues = append(result.Issues, bucketinfra.LintIssue{
			Stack:    f.Stack,
			Resource: f.Resource,
			Severity: lint.SeverityName(f.Severity),
			Message:  f.Message,
			Rule:     f.Rule,
		})
	}
	return result
}

func outputLintResult(out io.Writer, result bucketinfra.LintResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if result.Success {
			fmt.Fprintln(out, "No issues found.")
			return nil
		}

		for _, issue := range result.Issues {
			location := issue.Stack
			if issue.Resource != "" {
				location += "/" + issue.Resource
			}
			fmt.Fprintf(out, "%s: %s: %s [%s]\n", location, issue.Severity, issue.Message, issue.Rule)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return errIssuesFound
	}
	return nil
}
