// Package access declares the PankBase bucket access policies stack: a download
// and an upload managed policy scoped to the storage stack's buckets, an upload
// user bound to the upload policy, its access key, and a secret holding the key.
package access

import (
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/stack"
	"github.com/pankbase/bucket-infra/internal/storage"
	"github.com/pankbase/bucket-infra/internal/variant"
	"github.com/pankbase/bucket-infra/intrinsics"
	"github.com/pankbase/bucket-infra/resources/iam"
	"github.com/pankbase/bucket-infra/resources/s3"
	"github.com/pankbase/bucket-infra/resources/secretsmanager"
)

// Keys of the JSON object stored in the access key secret.
const (
	SecretKeyAccessKey       = "ACCESS_KEY"
	SecretKeySecretAccessKey = "SECRET_ACCESS_KEY"
)

// UploadActions is the read action set plus object writes.
var UploadActions = append([]string{intrinsics.S3PutObject}, storage.ReadActions...)

// FederatedTokenActions let the upload user mint temporary credentials.
var FederatedTokenActions = []string{
	intrinsics.IAMPassRole,
	intrinsics.STSGetFederationToken,
}

// Policies is the declared access policies stack of one variant.
type Policies struct {
	stack   *stack.Stack
	variant variant.Variant

	Download  stack.Handle
	Upload    stack.Handle
	User      stack.Handle
	AccessKey stack.Handle
	Secret    stack.Handle
}

// New declares the access policies stack for the buckets of st.
// Bucket ARNs are always taken from st, never rebuilt from bucket names.
func New(a *app.App, id string, st *storage.Storage, v variant.Variant) *Policies {
	s := a.NewStack(id, stack.WithDescription("PankBase "+v.Name+" bucket access policies"))
	p := &Policies{stack: s, variant: v}

	resources := BucketResources(s, st)

	download := intrinsics.PolicyStatement{
		Sid:      v.DownloadSid,
		Effect:   intrinsics.EffectAllow,
		Action:   append([]string(nil), storage.ReadActions...),
		Resource: resources,
	}
	upload := intrinsics.PolicyStatement{
		Sid:      v.UploadSid,
		Effect:   intrinsics.EffectAllow,
		Action:   append([]string(nil), UploadActions...),
		Resource: resources,
	}
	federated := intrinsics.PolicyStatement{
		Sid:      v.FederatedTokenSid,
		Effect:   intrinsics.EffectAllow,
		Action:   append([]string(nil), FederatedTokenActions...),
		Resource: []any{intrinsics.AllResources},
	}

	p.Download = s.Add(v.DownloadPolicyID(), iam.ManagedPolicy{
		ManagedPolicyName: v.DownloadPolicyName,
		Path:              "/",
		PolicyDocument:    intrinsics.NewPolicyDocument(download),
	})
	p.Upload = s.Add(v.UploadPolicyID(), iam.ManagedPolicy{
		ManagedPolicyName: v.UploadPolicyName,
		Path:              "/",
		PolicyDocument:    intrinsics.NewPolicyDocument(upload, federated),
	})

	p.User = s.Add(v.UploadUserID(), iam.User{
		UserName:          v.UploadUserName,
		ManagedPolicyArns: []any{s.Ref(p.Upload)},
	})
	p.AccessKey = s.Add(v.AccessKeyID(), iam.AccessKey{
		UserName: s.Ref(p.User),
	})
	p.Secret = s.Add(v.SecretID(), secretsmanager.Secret{
		Name: v.SecretName,
		SecretString: secretsmanager.ObjectSecretString(
			secretsmanager.Field{Key: SecretKeyAccessKey, Value: s.Ref(p.AccessKey)},
			secretsmanager.Field{Key: SecretKeySecretAccessKey, Value: s.GetAtt(p.AccessKey, iam.AttrSecretAccessKey)},
		),
	})

	a.Logger().Debug("declared bucket access policies",
		"stack", id,
		"variant", v.Name,
		"buckets", len(st.Buckets()),
		"secret", v.SecretName,
	)
	return p
}

// BucketResources returns, for every bucket of st, its ARN and the ARN pattern of
// its objects, as seen from stack s.
func BucketResources(s *stack.Stack, st *storage.Storage) []any {
	buckets := st.Buckets()
	resources := make([]any, 0, 2*len(buckets))
	for _, b := range buckets {
		arn := s.GetAtt(b.Handle, s3.AttrArn)
		resources = append(resources, arn, intrinsics.ObjectsArn(arn))
	}
	return resources
}

// Stack returns the underlying stack.
func (p *Policies) Stack() *stack.Stack {
	return p.stack
}

// Variant returns the variant the policies were declared for.
func (p *Policies) Variant() variant.Variant {
	return p.variant
}
