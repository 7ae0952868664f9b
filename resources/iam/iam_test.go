package iam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankbase/bucket-infra/intrinsics"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		expected string
	}{
		{"ManagedPolicy", ManagedPolicy{}.ResourceType(), "AWS::IAM::ManagedPolicy"},
		{"User", User{}.ResourceType(), "AWS::IAM::User"},
		{"AccessKey", AccessKey{}.ResourceType(), "AWS::IAM::AccessKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.typ)
		})
	}
}

func TestManagedPolicy_MarshalJSON(t *testing.T) {
	p := ManagedPolicy{
		ManagedPolicyName: "download-igvf-files",
		Path:              "/",
		PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
			Effect:   intrinsics.EffectAllow,
			Action:   []string{intrinsics.S3GetObject},
			Resource: "arn:aws:s3:::pankbase-files/*",
		}),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ManagedPolicyName": "download-igvf-files",
		"Path": "/",
		"PolicyDocument": {
			"Version": "2012-10-17",
			"Statement": [{"Effect": "Allow", "Action": ["s3:GetObject"], "Resource": "arn:aws:s3:::pankbase-files/*"}]
		}
	}`, string(data))
}

func TestUser_MarshalJSON(t *testing.T) {
	u := User{
		UserName:          "upload-igvf-files",
		ManagedPolicyArns: []any{intrinsics.Ref{LogicalName: "UploadIgvfFilesPolicy"}},
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"UserName": "upload-igvf-files", "ManagedPolicyArns": [{"Ref": "UploadIgvfFilesPolicy"}]}`, string(data))
}

func TestAccessKey_MarshalJSON(t *testing.T) {
	k := AccessKey{UserName: intrinsics.Ref{LogicalName: "UploadIgvfFilesUser"}, Status: AccessKeyActive}

	data, err := json.Marshal(k)
	require.NoError(t, err)
	assert.JSONEq(t, `{"UserName": {"Ref": "UploadIgvfFilesUser"}, "Status": "Active"}`, string(data))
}
