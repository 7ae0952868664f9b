// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds IAM policy document types.
//
// Core intrinsic functions:
//
//	Ref{"FilesBucket"} → {"Ref": "FilesBucket"}
//	Sub{"arn:${AWS::Partition}:iam::109189702753:root"} → {"Fn::Sub": "..."}
//	Join{"", []any{bucketArn, "/*"}} → {"Fn::Join": ["", [..., "/*"]]}
//	ImportValue{"PankbaseBucketStorage:..."} → {"Fn::ImportValue": "..."}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue
)

// Pseudo-parameters used by the declarations.
var (
	// AWS_ACCOUNT_ID returns the AWS account ID of the account in which the stack is created.
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID

	// AWS_PARTITION returns the partition the resource is in (aws, aws-cn, aws-us-gov).
	AWS_PARTITION = intrinsics.AWS_PARTITION

	// AWS_REGION returns the AWS Region in which the stack is created.
	AWS_REGION = intrinsics.AWS_REGION
)

// ObjectsArn returns the ARN pattern matching every object key under a bucket ARN.
//
//	ObjectsArn(bucketArn) → {"Fn::Join": ["", [bucketArn, "/*"]]}
func ObjectsArn(bucketArn any) Join {
	return Join{Delimiter: "", Values: []any{bucketArn, "/*"}}
}

// Helper functions for creating pointers to primitive types.

// IntPtr returns a pointer to the given int value.
func IntPtr(i int) *int {
	return &i
}
