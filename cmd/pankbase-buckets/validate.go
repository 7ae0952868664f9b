package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/lint"
	"github.com/pankbase/bucket-infra/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking template validity.
func newValidateCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		workDir      string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate synthesized templates",
		Long: `Validate synthesizes the templates and checks them.

Checks performed:
  - Lint rules PKB001-PKB006
  - cfn-lint: CloudFormation schema and intrinsic function checks on every template

Warnings do not fail validation.

Examples:
    pankbase-buckets validate
    pankbase-buckets validate --format json
    pankbase-buckets validate --workdir /tmp/pankbase    # keep the checked templates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, asm, err := root.synthesize()
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			result, err := validation.ValidateAssembly(asm, workDir, lint.Options{})
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return outputValidateResult(cmd.OutOrStdout(), result.Summary(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Directory to write checked templates to (default: temporary)")

	return cmd
}

func outputValidateResult(out io.Writer, result bucketinfra.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(out, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(out, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(out, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(out, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(out, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return &exitError{code: 1, msg: "validation failed"}
	}
	return nil
}
