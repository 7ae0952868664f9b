package s3

// BucketPolicy represents an AWS::S3::BucketPolicy, the resource-based policy of a bucket.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-s3-bucketpolicy.html
type BucketPolicy struct {
	// Bucket is the name of the bucket the policy applies to.
	Bucket any `json:"Bucket"`

	// PolicyDocument is the policy attached to the bucket.
	PolicyDocument any `json:"PolicyDocument"`
}

// ResourceType returns the CloudFormation resource type.
func (r BucketPolicy) ResourceType() string {
	return "AWS::S3::BucketPolicy"
}
