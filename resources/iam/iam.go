// Package iam contains AWS::IAM resource types.
package iam

// Attribute names available through Fn::GetAtt.
const (
	AttrArn             = "Arn"
	AttrSecretAccessKey = "SecretAccessKey"
)

// ManagedPolicy represents an AWS::IAM::ManagedPolicy. Ref returns the policy ARN.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-iam-managedpolicy.html
type ManagedPolicy struct {
	ManagedPolicyName any    `json:"ManagedPolicyName,omitempty"`
	Description       string `json:"Description,omitempty"`
	Path              string `json:"Path,omitempty"`
	PolicyDocument    any    `json:"PolicyDocument"`
	Users             []any  `json:"Users,omitempty"`
	Groups            []any  `json:"Groups,omitempty"`
	Roles             []any  `json:"Roles,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r ManagedPolicy) ResourceType() string {
	return "AWS::IAM::ManagedPolicy"
}

// User represents an AWS::IAM::User. Ref returns the user name.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-iam-user.html
type User struct {
	UserName          any    `json:"UserName,omitempty"`
	Path              string `json:"Path,omitempty"`
	ManagedPolicyArns []any  `json:"ManagedPolicyArns,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r User) ResourceType() string {
	return "AWS::IAM::User"
}

// Access key statuses.
const (
	AccessKeyActive   = "Active"
	AccessKeyInactive = "Inactive"
)

// AccessKey represents an AWS::IAM::AccessKey. Ref returns the access key ID and
// GetAtt SecretAccessKey returns the secret material.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-iam-accesskey.html
type AccessKey struct {
	UserName any    `json:"UserName"`
	Serial   int    `json:"Serial,omitempty"`
	Status   string `json:"Status,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r AccessKey) ResourceType() string {
	return "AWS::IAM::AccessKey"
}
