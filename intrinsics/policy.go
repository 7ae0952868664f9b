// Package intrinsics provides CloudFormation intrinsic functions.
// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
	"fmt"
)

// Json is a shorthand for map[string]any.
// Used for inline JSON objects like Condition blocks.
type Json = map[string]any

// List creates a typed slice from the given items.
func List[T any](items ...T) []T {
	return items
}

// Any creates a []any slice from the given items.
func Any(items ...any) []any {
	return items
}

// PolicyVersion is the IAM policy language version used by every document.
const PolicyVersion = "2012-10-17"

// EffectAllow is the only effect used by the declarations.
const EffectAllow = "Allow"

// PolicyDocument represents an IAM policy document.
//
// Example:
//
//	var ReadPolicy = PolicyDocument{
//	    Version:   "2012-10-17",
//	    Statement: []any{ReadStatement},
//	}
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
//
// A statement without Principal is an identity-based statement that applies to
// whichever identity the policy is attached to.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// Actions returns the statement's actions as a string slice.
// Non-string entries are skipped.
func (s PolicyStatement) Actions() []string {
	return stringsOf(s.Action)
}

func stringsOf(v any) []string {
	switch a := v.(type) {
	case string:
		return []string{a}
	case []string:
		return a
	case []any:
		out := make([]string, 0, len(a))
		for _, item := range a {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// --- Principal Helpers ---

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
//
// Examples:
//
//	AWSPrincipal{"arn:aws:iam::123456789012:root"}
//	AWSPrincipal{AccountPrincipal("109189702753"), AccountPrincipal("920073238245")}
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"AWS": p[0]})
	}
	return json.Marshal(map[string]any{"AWS": []any(p)})
}

// AccountPrincipal returns the root principal ARN of an AWS account in the stack's partition.
//
//	AccountPrincipal("109189702753") → {"Fn::Sub": "arn:${AWS::Partition}:iam::109189702753:root"}
func AccountPrincipal(accountID string) Sub {
	return Sub{String: fmt.Sprintf("arn:${AWS::Partition}:iam::%s:root", accountID)}
}

// AllResources is the wildcard resource.
const AllResources = "*"

// --- IAM action names ---

const (
	S3GetObject         = "s3:GetObject"
	S3GetObjectVersion  = "s3:GetObjectVersion"
	S3GetBucketAcl      = "s3:GetBucketAcl"
	S3ListBucket        = "s3:ListBucket"
	S3GetBucketLocation = "s3:GetBucketLocation"
	S3PutObject         = "s3:PutObject"

	IAMPassRole           = "iam:PassRole"
	STSGetFederationToken = "sts:GetFederationToken"
)
