package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources",
		Long: `List displays every declared resource, stack by stack in deployment order.

Examples:
    pankbase-buckets list
    pankbase-buckets list --variant restricted --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, asm, err := root.synthesize()
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResources(asm), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResources(asm *app.Assembly) bucketinfra.ListResult {
	result := bucketinfra.ListResult{
		Resources: make([]bucketinfra.ListResource, 0, asm.ResourceCount()),
	}

	for _, stackName := range asm.StackNames() {
		template := asm.Templates[stackName]
		names := make([]string, 0, len(template.Resources))
		for name := range template.Resources {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			result.Resources = append(result.Resources, bucketinfra.ListResource{
				Stack: stackName,
				Name:  name,
				Type:  template.Resources[name].Type,
			})
		}
	}
	return result
}

func outputListResult(out io.Writer, result bucketinfra.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(out, "No resources found.")
			return nil
		}

		fmt.Fprintf(out, "Declared resources (%d):\n", len(result.Resources))
		stack := ""
		for _, res := range result.Resources {
			if res.Stack != stack {
				stack = res.Stack
				fmt.Fprintf(out, "\n%s\n", stack)
			}
			fmt.Fprintf(out, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
