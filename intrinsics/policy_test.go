package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAWSPrincipal_MarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		principal AWSPrincipal
		expected  string
	}{
		{
			name:      "single",
			principal: AWSPrincipal{"arn:aws:iam::109189702753:root"},
			expected:  `{"AWS": "arn:aws:iam::109189702753:root"}`,
		},
		{
			name:      "multiple accounts",
			principal: AWSPrincipal{AccountPrincipal("109189702753"), AccountPrincipal("920073238245")},
			expected: `{"AWS": [
				{"Fn::Sub": "arn:${AWS::Partition}:iam::109189702753:root"},
				{"Fn::Sub": "arn:${AWS::Partition}:iam::920073238245:root"}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.principal)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestPolicyStatement_OmitsEmptyPrincipal(t *testing.T) {
	stmt := PolicyStatement{
		Sid:      "AllowGenerateFederatedToken",
		Effect:   EffectAllow,
		Action:   []string{IAMPassRole, STSGetFederationToken},
		Resource: AllResources,
	}

	data, err := json.Marshal(stmt)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Sid": "AllowGenerateFederatedToken",
		"Effect": "Allow",
		"Action": ["iam:PassRole", "sts:GetFederationToken"],
		"Resource": "*"
	}`, string(data))
}

func TestPolicyStatement_Actions(t *testing.T) {
	assert.Equal(t, []string{S3GetObject}, PolicyStatement{Action: S3GetObject}.Actions())
	assert.Equal(t, []string{S3GetObject, S3PutObject}, PolicyStatement{Action: []string{S3GetObject, S3PutObject}}.Actions())
	assert.Equal(t, []string{S3ListBucket}, PolicyStatement{Action: []any{S3ListBucket, 42}}.Actions())
	assert.Nil(t, PolicyStatement{}.Actions())
}

func TestNewPolicyDocument(t *testing.T) {
	doc := NewPolicyDocument(PolicyStatement{Effect: EffectAllow, Action: S3GetObject, Resource: AllResources})
	assert.Equal(t, "2012-10-17", doc.Version)
	assert.Len(t, doc.Statement, 1)
}
