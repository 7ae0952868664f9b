package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/differ"
)

func newDiffCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before> [after]",
		Short: "Compare synthesized templates",
		Long: `Diff compares two synthesized assembly directories, or two template files.
With a single directory, the current declaration is synthesized in memory and
compared against it.

Property values are never printed, only the paths that changed.

Examples:
    pankbase-buckets diff cdk.out
    pankbase-buckets diff old.out new.out
    pankbase-buckets diff a.template.json b.template.json --ignore-order`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := runDiff(root, args, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}
			return outputDiffResults(cmd.OutOrStdout(), results, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

func runDiff(root *rootOptions, args []string, opts differ.Options) ([]bucketinfra.DiffResult, error) {
	info, err := os.Stat(args[0])
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if len(args) != 2 {
			return nil, fmt.Errorf("comparing template files needs two files")
		}
		result, err := differ.CompareFiles(args[0], args[1], opts)
		if err != nil {
			return nil, err
		}
		return []bucketinfra.DiffResult{{Stack: args[1], Diff: result.Diff, Summary: result.Summary}}, nil
	}

	before, err := app.ReadAssembly(args[0])
	if err != nil {
		return nil, err
	}

	var after *app.Assembly
	if len(args) == 2 {
		after, err = app.ReadAssembly(args[1])
	} else {
		_, after, err = root.synthesize()
	}
	if err != nil {
		return nil, err
	}

	return differ.CompareAssemblies(before, after, opts)
}

func outputDiffResults(out io.Writer, results []bucketinfra.DiffResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		total := 0
		for _, r := range results {
			total += r.Summary.Total
			if r.Summary.Total == 0 {
				continue
			}
			fmt.Fprintf(out, "%s\n", r.Stack)
			for _, e := range r.Diff.Added {
				fmt.Fprintf(out, "  + %s (%s)\n", e.Resource, e.Type)
			}
			for _, e := range r.Diff.Removed {
				fmt.Fprintf(out, "  - %s (%s)\n", e.Resource, e.Type)
			}
			for _, e := range r.Diff.Modified {
				fmt.Fprintf(out, "  ~ %s (%s)\n", e.Resource, e.Type)
				for _, c := range e.Changes {
					fmt.Fprintf(out, "      %s\n", c)
				}
			}
		}
		if total == 0 {
			fmt.Fprintln(out, "No differences.")
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
