// Package drift compares the declared PankBase buckets with the live account.
//
// Only read-only control-plane calls are made: HeadBucket, GetBucketVersioning,
// GetBucketCors, GetBucketPolicy and sts:GetCallerIdentity. No object is read.
package drift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/logging"
)

// ErrAccountMismatch is returned when the credentials belong to another account
// than the one the assembly targets.
var ErrAccountMismatch = errors.New("account mismatch")

// Status of a bucket.
type Status string

const (
	StatusInSync  Status = "in-sync"
	StatusDrifted Status = "drifted"
	StatusMissing Status = "missing"
	StatusUnknown Status = "unknown"
)

// S3 error codes the check recognizes.
const (
	ErrCodeNotFound                = "NotFound"
	ErrCodeNoSuchBucket            = "NoSuchBucket"
	ErrCodeNoSuchCORSConfiguration = "NoSuchCORSConfiguration"
	ErrCodeNoSuchBucketPolicy      = "NoSuchBucketPolicy"
)

// BucketReport is the outcome for one bucket.
type BucketReport struct {
	Bucket      string   `json:"bucket"`
	Stack       string   `json:"stack"`
	Resource    string   `json:"resource"`
	Status      Status   `json:"status"`
	Differences []string `json:"differences,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Report is the outcome of a drift check.
type Report struct {
	Account string         `json:"account"`
	Buckets []BucketReport `json:"buckets"`
}

// InSync reports whether every bucket matches its declaration.
func (r *Report) InSync() bool {
	for _, b := range r.Buckets {
		if b.Status != StatusInSync {
			return false
		}
	}
	return true
}

// Checker reads live bucket state.
type Checker struct {
	s3     S3API
	sts    STSAPI
	logger *slog.Logger
}

// NewChecker creates a Checker. A nil logger discards diagnostics.
func NewChecker(s3Client S3API, stsClient STSAPI, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Checker{s3: s3Client, sts: stsClient, logger: logger}
}

// Check compares every bucket declared in asm with the live account.
// When account is non-empty the caller identity must belong to it.
func (c *Checker) Check(ctx context.Context, asm *app.Assembly, account string) (*Report, error) {
	identity, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("identifying caller: %w", err)
	}
	live := aws.ToString(identity.Account)
	if account != "" && live != account {
		return nil, fmt.Errorf("%w: credentials belong to %s, assembly targets %s", ErrAccountMismatch, live, account)
	}

	report := &Report{Account: live}
	for _, b := range Expected(asm) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := c.checkBucket(ctx, b)
		c.logger.Debug("checked bucket", "bucket", b.Name, "status", r.Status)
		report.Buckets = append(report.Buckets, r)
	}
	return report, nil
}

func (c *Checker) checkBucket(ctx context.Context, want Bucket) BucketReport {
	r := BucketReport{Bucket: want.Name, Stack: want.Stack, Resource: want.Resource, Status: StatusInSync}
	bucket := aws.String(want.Name)

	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket}); err != nil {
		return c.failed(r, err)
	}

	versioning, err := c.s3.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: bucket})
	if err != nil {
		return c.failed(r, err)
	}
	if enabled := string(versioning.Status) == "Enabled"; enabled != want.Versioned {
		r.Differences = append(r.Differences, fmt.Sprintf("versioning: declared enabled=%t, live status %q", want.Versioned, versioning.Status))
	}

	var cors []string
	corsOut, err := c.s3.GetBucketCors(ctx, &s3.GetBucketCorsInput{Bucket: bucket})
	switch {
	case errorCode(err) == ErrCodeNoSuchCORSConfiguration:
	case err != nil:
		return c.failed(r, err)
	default:
		for _, rule := range corsOut.CORSRules {
			cors = append(cors, corsFingerprint(rule.AllowedMethods, rule.AllowedOrigins, rule.AllowedHeaders, rule.ExposeHeaders, int(aws.ToInt32(rule.MaxAgeSeconds))))
		}
		slices.Sort(cors)
	}
	if !slices.Equal(cors, want.CORS) {
		r.Differences = append(r.Differences, fmt.Sprintf("cors: declared %d rules, live %d rules differ", len(want.CORS), len(cors)))
	}

	policyOut, err := c.s3.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: bucket})
	switch {
	case errorCode(err) == ErrCodeNoSuchBucketPolicy:
		if want.HasPolicy {
			r.Differences = append(r.Differences, "policy: declared, live bucket has none")
		}
	case err != nil:
		return c.failed(r, err)
	default:
		var doc any
		if err := json.Unmarshal([]byte(aws.ToString(policyOut.Policy)), &doc); err != nil {
			return c.failed(r, fmt.Errorf("parsing live policy: %w", err))
		}
		actions, accounts := grants(doc)
		if !want.HasPolicy {
			r.Differences = append(r.Differences, "policy: live bucket has a policy that is not declared")
			break
		}
		if !slices.Equal(actions, want.Actions) {
			r.Differences = append(r.Differences, fmt.Sprintf("policy actions: declared %v, live %v", want.Actions, actions))
		}
		if !slices.Equal(accounts, want.Accounts) {
			r.Differences = append(r.Differences, fmt.Sprintf("policy accounts: declared %v, live %v", want.Accounts, accounts))
		}
	}

	if len(r.Differences) > 0 {
		r.Status = StatusDrifted
	}
	return r
}

// failed classifies err into the report.
func (c *Checker) failed(r BucketReport, err error) BucketReport {
	switch errorCode(err) {
	case ErrCodeNotFound, ErrCodeNoSuchBucket:
		r.Status = StatusMissing
		return r
	}
	r.Status = StatusUnknown
	r.Error = describe(err)
	c.logger.Warn("reading bucket failed", "bucket", r.Bucket, "error", r.Error)
	return r
}

// errorCode returns the API error code of err, or "" when err is not an API error.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func describe(err error) string {
	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("%s %s: %v", opErr.ServiceID, opErr.OperationName, opErr.Err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}
