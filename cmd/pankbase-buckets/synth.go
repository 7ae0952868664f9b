package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/config"
	"github.com/pankbase/bucket-infra/internal/pankbase"
)

func newSynthCmd(root *rootOptions) *cobra.Command {
	var (
		outDir         string
		templateFormat string
		outputFormat   string
		accessLogging  bool
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write CloudFormation templates and the stack manifest",
		Long: `Synth declares every selected variant and writes one template per stack plus
manifest.json, which lists the stacks in deployment order.

Examples:
    pankbase-buckets synth
    pankbase-buckets synth -o out --template-format yaml
    pankbase-buckets synth --variant restricted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd.OutOrStdout(), root, synthOptions{
				outDir:         outDir,
				templateFormat: templateFormat,
				outputFormat:   outputFormat,
				accessLogging:  accessLogging,
				accessChanged:  cmd.Flags().Changed("access-logging"),
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "o", "", "Output directory (default: from config)")
	cmd.Flags().StringVar(&templateFormat, "template-format", "", "Template format: json or yaml (default: from config)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&accessLogging, "access-logging", false, "Send server access logs to the log buckets")

	return cmd
}

type synthOptions struct {
	outDir         string
	templateFormat string
	outputFormat   string
	accessLogging  bool
	accessChanged  bool
}

func runSynth(out io.Writer, root *rootOptions, opts synthOptions) error {
	cfg, logger, err := root.load(func(cfg *config.Config) {
		if opts.outDir != "" {
			cfg.OutDir = opts.outDir
		}
		if opts.templateFormat != "" {
			cfg.Format = opts.templateFormat
		}
		if opts.accessChanged {
			cfg.AccessLogging = opts.accessLogging
		}
	})
	if err != nil {
		return err
	}

	result := bucketinfra.BuildResult{OutDir: cfg.OutDir}

	infra, err := pankbase.Build(cfg, logger)
	if err == nil {
		asm, synthErr := infra.App.Synth(cfg.OutDir, cfg.Format)
		if synthErr == nil {
			result.Success = true
			result.Stacks = asm.StackNames()
			result.Resources = asm.ResourceCount()
		}
		err = synthErr
	}
	if err != nil {
		result.Errors = []string{err.Error()}
	}

	return outputBuildResult(out, result, opts.outputFormat)
}

func outputBuildResult(out io.Writer, result bucketinfra.BuildResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if !result.Success {
			for _, e := range result.Errors {
				fmt.Fprintln(os.Stderr, e)
			}
			break
		}
		fmt.Fprintf(out, "Synthesized %d stacks (%d resources) to %s\n", len(result.Stacks), result.Resources, result.OutDir)
		for _, name := range result.Stacks {
			fmt.Fprintf(out, "  %s\n", name)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("synth failed")
	}
	return nil
}
