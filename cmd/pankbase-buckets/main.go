// Command pankbase-buckets synthesizes the PankBase bucket infrastructure as
// CloudFormation templates.
//
// Usage:
//
//	pankbase-buckets synth               Write templates and manifest to cdk.out
//	pankbase-buckets lint                Check access-control and retention rules
//	pankbase-buckets validate            Lint and run cfn-lint on every template
//	pankbase-buckets diff cdk.out        Compare with a previous synthesis
//	pankbase-buckets drift               Compare with the live account
//	pankbase-buckets version             Show version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitError carries a process exit code for outcomes that are not failures
// of the command itself, such as lint issues found.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// errIssuesFound is returned by checking commands when they found problems.
var errIssuesFound = &exitError{code: 2, msg: "issues found"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pankbase-buckets",
		Short: "Synthesize PankBase S3 bucket infrastructure",
		Long: `pankbase-buckets declares the PankBase S3 buckets, their cross-account read
policies, and the download/upload IAM policies as CloudFormation stacks.

Two variants are declared, each as a storage stack and an access stack:

    standard     pankbase-files, pankbase-blobs
    restricted   pankbase-restricted-files

Generate the templates:

    pankbase-buckets synth`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&root.configPath, "config", "c", "", "Config file (default: pankbase.yaml if present)")
	flags.StringSliceVar(&root.variants, "variant", nil, "Variants to synthesize (default: from config)")
	flags.StringVar(&root.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newSynthCmd(root),
		newListCmd(root),
		newGraphCmd(root),
		newLintCmd(root),
		newValidateCmd(root),
		newDiffCmd(root),
		newDriftCmd(root),
		newWatchCmd(root),
		newVersionCmd(),
	)

	return rootCmd
}
