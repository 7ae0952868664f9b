// Package storage declares the PankBase bucket storage stack: one versioned,
// retained content bucket per dataset, a retained log bucket beside each, and a
// bucket policy granting read access to the IGVF dev and staging accounts.
package storage

import (
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/stack"
	"github.com/pankbase/bucket-infra/internal/variant"
	"github.com/pankbase/bucket-infra/intrinsics"
	"github.com/pankbase/bucket-infra/resources/s3"
)

// BrowserUploadCORS lets Google Apps Script pages upload directly from a browser.
var BrowserUploadCORS = s3.Bucket_CorsRule{
	AllowedMethods: []string{s3.MethodGET, s3.MethodHEAD, s3.MethodPOST, s3.MethodPUT},
	AllowedOrigins: []string{"https://*-script.googleusercontent.com"},
	AllowedHeaders: []string{"*"},
	ExposedHeaders: []string{"Content-Length", "Content-Range", "Content-Type", "ETag"},
	MaxAge:         3000,
}

// ReadCORS allows reads from any origin.
var ReadCORS = s3.Bucket_CorsRule{
	AllowedMethods: []string{s3.MethodGET, s3.MethodHEAD},
	AllowedOrigins: []string{"*"},
	AllowedHeaders: []string{"Accept", "Origin", "Range", "X-Requested-With", "Cache-Control"},
	ExposedHeaders: []string{"Content-Length", "Content-Range", "Content-Type"},
	MaxAge:         3000,
}

// ReadActions is the fixed read action set granted to readers of a bucket.
var ReadActions = []string{
	intrinsics.S3GetObjectVersion,
	intrinsics.S3GetObject,
	intrinsics.S3GetBucketAcl,
	intrinsics.S3ListBucket,
	intrinsics.S3GetBucketLocation,
}

// ReadAccessStatement returns an Allow statement granting exactly ReadActions on
// resources to principals.
func ReadAccessStatement(sid string, principals []any, resources []any) intrinsics.PolicyStatement {
	return intrinsics.PolicyStatement{
		Sid:       sid,
		Effect:    intrinsics.EffectAllow,
		Principal: intrinsics.AWSPrincipal(principals),
		Action:    append([]string(nil), ReadActions...),
		Resource:  resources,
	}
}

// CORSRules returns the CORS rules for a dataset role.
func CORSRules(role variant.Role) []s3.Bucket_CorsRule {
	if role == variant.RoleFiles {
		return []s3.Bucket_CorsRule{BrowserUploadCORS, ReadCORS}
	}
	return []s3.Bucket_CorsRule{ReadCORS}
}

// Options tunes the storage declaration.
type Options struct {
	// AccessLogging sends each content bucket's server access logs to its log bucket.
	AccessLogging bool
}

// Bucket is a declared content bucket together with its log bucket and policy.
type Bucket struct {
	Dataset variant.Dataset

	Handle stack.Handle
	Logs   stack.Handle
	Policy stack.Handle
}

// Name returns the content bucket's physical name.
func (b Bucket) Name() string {
	return b.Dataset.BucketName
}

// Storage is the declared storage stack of one variant.
type Storage struct {
	stack   *stack.Stack
	variant variant.Variant
	buckets []Bucket
}

// New declares the storage stack for v in a.
func New(a *app.App, id string, v variant.Variant, opts Options) *Storage {
	s := a.NewStack(id, stack.WithDescription("PankBase "+v.Name+" bucket storage"))
	st := &Storage{stack: s, variant: v}

	principals := make([]any, 0, len(variant.ExternalReaders))
	for _, account := range variant.ExternalReaders {
		principals = append(principals, intrinsics.AccountPrincipal(account))
	}

	for _, d := range v.Datasets {
		logs := s.Add(d.LogsBucketID(), s3.Bucket{
			BucketName: d.LogsBucketName,
			OwnershipControls: &s3.Bucket_OwnershipControls{
				Rules: []s3.Bucket_OwnershipControlsRule{
					{ObjectOwnership: s3.ObjectOwnershipBucketOwnerPreferred},
				},
			},
		}, stack.WithRetain())

		bucket := s3.Bucket{
			BucketName:              d.BucketName,
			CorsConfiguration:       &s3.Bucket_CorsConfiguration{CorsRules: CORSRules(d.Role)},
			VersioningConfiguration: &s3.Bucket_VersioningConfiguration{Status: s3.VersioningEnabled},
		}
		if opts.AccessLogging {
			bucket.LoggingConfiguration = &s3.Bucket_LoggingConfiguration{
				DestinationBucketName: s.Ref(logs),
				LogFilePrefix:         d.BucketName + "/",
			}
		}
		content := s.Add(d.BucketID(), bucket, stack.WithRetain())

		arn := s.GetAtt(content, s3.AttrArn)
		policy := s.Add(d.PolicyID(), s3.BucketPolicy{
			Bucket: s.Ref(content),
			PolicyDocument: intrinsics.NewPolicyDocument(
				ReadAccessStatement(v.CrossAccountReadSid, principals, []any{arn, intrinsics.ObjectsArn(arn)}),
			),
		})

		st.buckets = append(st.buckets, Bucket{Dataset: d, Handle: content, Logs: logs, Policy: policy})
	}

	a.Logger().Debug("declared bucket storage", "stack", id, "variant", v.Name, "buckets", len(st.buckets))
	return st
}

// Stack returns the underlying stack.
func (st *Storage) Stack() *stack.Stack {
	return st.stack
}

// Variant returns the variant the storage was declared for.
func (st *Storage) Variant() variant.Variant {
	return st.variant
}

// Buckets returns the content buckets in declaration order.
func (st *Storage) Buckets() []Bucket {
	return append([]Bucket(nil), st.buckets...)
}

// Bucket returns the content bucket of a dataset.
func (st *Storage) Bucket(dataset string) (Bucket, bool) {
	for _, b := range st.buckets {
		if b.Dataset.ID == dataset {
			return b, true
		}
	}
	return Bucket{}, false
}
