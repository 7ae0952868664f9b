// Package s3 contains AWS::S3 resource types.
package s3

// Attribute names available through Fn::GetAtt on a Bucket.
const (
	AttrArn                = "Arn"
	AttrDomainName         = "DomainName"
	AttrRegionalDomainName = "RegionalDomainName"
)

// Bucket represents an AWS::S3::Bucket.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-s3-bucket.html
type Bucket struct {
	// BucketName is the physical bucket name. Ref on a Bucket returns this name.
	BucketName any `json:"BucketName,omitempty"`

	// CorsConfiguration describes the cross-origin access configuration.
	CorsConfiguration *Bucket_CorsConfiguration `json:"CorsConfiguration,omitempty"`

	// LoggingConfiguration sends server access logs to another bucket.
	LoggingConfiguration *Bucket_LoggingConfiguration `json:"LoggingConfiguration,omitempty"`

	// OwnershipControls configures object ownership.
	OwnershipControls *Bucket_OwnershipControls `json:"OwnershipControls,omitempty"`

	// VersioningConfiguration enables multiple versions of all objects in the bucket.
	VersioningConfiguration *Bucket_VersioningConfiguration `json:"VersioningConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Bucket) ResourceType() string {
	return "AWS::S3::Bucket"
}

// Versioned reports whether versioning is enabled.
func (r Bucket) Versioned() bool {
	return r.VersioningConfiguration != nil && r.VersioningConfiguration.Status == VersioningEnabled
}

// Versioning statuses.
const (
	VersioningEnabled   = "Enabled"
	VersioningSuspended = "Suspended"
)

// Bucket_VersioningConfiguration represents AWS::S3::Bucket.VersioningConfiguration.
type Bucket_VersioningConfiguration struct {
	Status string `json:"Status"`
}

// Bucket_CorsConfiguration represents AWS::S3::Bucket.CorsConfiguration.
type Bucket_CorsConfiguration struct {
	CorsRules []Bucket_CorsRule `json:"CorsRules"`
}

// HTTP methods accepted in a CORS rule.
const (
	MethodGET    = "GET"
	MethodHEAD   = "HEAD"
	MethodPOST   = "POST"
	MethodPUT    = "PUT"
	MethodDELETE = "DELETE"
)

// Bucket_CorsRule represents AWS::S3::Bucket.CorsRule.
type Bucket_CorsRule struct {
	Id             string   `json:"Id,omitempty"`
	AllowedMethods []string `json:"AllowedMethods"`
	AllowedOrigins []string `json:"AllowedOrigins"`
	AllowedHeaders []string `json:"AllowedHeaders,omitempty"`
	ExposedHeaders []string `json:"ExposedHeaders,omitempty"`
	MaxAge         int      `json:"MaxAge,omitempty"`
}

// AllowsMethod reports whether the rule permits the given HTTP method.
func (r Bucket_CorsRule) AllowsMethod(method string) bool {
	for _, m := range r.AllowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Bucket_LoggingConfiguration represents AWS::S3::Bucket.LoggingConfiguration.
type Bucket_LoggingConfiguration struct {
	DestinationBucketName any    `json:"DestinationBucketName,omitempty"`
	LogFilePrefix         string `json:"LogFilePrefix,omitempty"`
}

// Object ownership settings.
const (
	ObjectOwnershipBucketOwnerEnforced  = "BucketOwnerEnforced"
	ObjectOwnershipBucketOwnerPreferred = "BucketOwnerPreferred"
	ObjectOwnershipObjectWriter         = "ObjectWriter"
)

// Bucket_OwnershipControls represents AWS::S3::Bucket.OwnershipControls.
type Bucket_OwnershipControls struct {
	Rules []Bucket_OwnershipControlsRule `json:"Rules"`
}

// Bucket_OwnershipControlsRule represents AWS::S3::Bucket.OwnershipControlsRule.
type Bucket_OwnershipControlsRule struct {
	ObjectOwnership string `json:"ObjectOwnership"`
}
