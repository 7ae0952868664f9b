package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankbase/bucket-infra/internal/drift"
	"github.com/pankbase/bucket-infra/internal/logging"
	"github.com/pankbase/bucket-infra/internal/pankbase"
)

func newDriftCmd(root *rootOptions) *cobra.Command {
	var (
		outputFormat string
		region       string
		account      string
		endpoint     string
		accessKeyID  string
	)

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare declared buckets with the live account",
		Long: `Drift reads the live state of every declared bucket and reports differences
in existence, versioning, CORS rules and bucket policy grants.

Only read-only control-plane calls are made. Credentials come from the default
AWS chain, or from --access-key-id with the secret taken from the
AWS_SECRET_ACCESS_KEY environment variable.

Exits with code 2 when drift is found.

Examples:
    pankbase-buckets drift
    pankbase-buckets drift --variant restricted --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if region == "" {
				region = cfg.Env.Region
			}
			if account == "" {
				account = cfg.Env.Account
			}

			asm, err := pankbase.Synthesize(cfg, logger)
			if err != nil {
				return fmt.Errorf("synthesis failed: %w", err)
			}

			s3Client, stsClient, err := drift.NewClients(cmd.Context(), drift.ClientOptions{
				Region:          region,
				AccessKeyID:     accessKeyID,
				SecretAccessKey: logging.Secret(os.Getenv("AWS_SECRET_ACCESS_KEY")),
				SessionToken:    logging.Secret(os.Getenv("AWS_SESSION_TOKEN")),
				Endpoint:        endpoint,
			})
			if err != nil {
				return err
			}

			report, err := drift.NewChecker(s3Client, stsClient, logger).Check(cmd.Context(), asm, account)
			if err != nil {
				return fmt.Errorf("drift check failed: %w", err)
			}
			return outputDriftReport(cmd.OutOrStdout(), report, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: from config)")
	cmd.Flags().StringVar(&account, "account", "", "Expected AWS account ID (default: from config)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3 endpoint override")
	cmd.Flags().StringVar(&accessKeyID, "access-key-id", "", "Static access key ID")

	return cmd
}

func outputDriftReport(out io.Writer, report *drift.Report, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		fmt.Fprintf(out, "Account %s\n", report.Account)
		for _, b := range report.Buckets {
			fmt.Fprintf(out, "  %-45s %s\n", b.Bucket, b.Status)
			for _, d := range b.Differences {
				fmt.Fprintf(out, "      %s\n", d)
			}
			if b.Error != "" {
				fmt.Fprintf(out, "      %s\n", b.Error)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !report.InSync() {
		return errIssuesFound
	}
	return nil
}
