package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankbase/bucket-infra/internal/graph"
)

func newGraphCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat   string
		clusterByStack bool
		stacks         []string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies,
including the imports that connect access stacks to storage stacks.

The output can be rendered with Graphviz:
    pankbase-buckets graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    pankbase-buckets graph -f mermaid

Examples:
    pankbase-buckets graph
    pankbase-buckets graph -c                                   # cluster by stack
    pankbase-buckets graph --stack PankbaseBucketStorage        # one stack`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, asm, err := root.synthesize()
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:         graphFormat,
				ClusterByStack: clusterByStack,
				Stacks:         stacks,
			}
			return gen.Generate(asm, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&clusterByStack, "cluster", "c", false, "Cluster resources by stack")
	cmd.Flags().StringSliceVar(&stacks, "stack", nil, "Only graph the named stacks")

	return cmd
}
