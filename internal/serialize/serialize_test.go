package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankbase/bucket-infra/intrinsics"
)

type TestBucket struct {
	BucketName  any               `json:"BucketName,omitempty"`
	Tags        []Tag             `json:"Tags,omitempty"`
	Versioning  *TestVersioning   `json:"VersioningConfiguration,omitempty"`
	Environment map[string]string `json:"Environment,omitempty"`
}

type Tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type TestVersioning struct {
	Status string `json:"Status"`
}

func TestResource_SimpleStruct(t *testing.T) {
	bucket := TestBucket{
		BucketName: "pankbase-files",
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "pankbase-files", props["BucketName"])
	assert.NotContains(t, props, "Tags")       // Empty slice should be omitted
	assert.NotContains(t, props, "Versioning") // Nil pointer should be omitted
}

func TestResource_WithNestedStruct(t *testing.T) {
	bucket := TestBucket{
		BucketName: "pankbase-files",
		Versioning: &TestVersioning{
			Status: "Enabled",
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "pankbase-files", props["BucketName"])

	versioning := props["VersioningConfiguration"].(map[string]any)
	assert.Equal(t, "Enabled", versioning["Status"])
}

func TestResource_WithSlice(t *testing.T) {
	bucket := TestBucket{
		BucketName: "pankbase-files",
		Tags: []Tag{
			{Key: "Environment", Value: "prod"},
			{Key: "Team", Value: "pankbase"},
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	tags := props["Tags"].([]any)
	assert.Len(t, tags, 2)

	tag0 := tags[0].(map[string]any)
	assert.Equal(t, "Environment", tag0["Key"])
	assert.Equal(t, "prod", tag0["Value"])
}

func TestResource_WithMap(t *testing.T) {
	bucket := TestBucket{
		BucketName: "pankbase-files",
		Environment: map[string]string{
			"BUCKET_NAME": "pankbase-files",
			"REGION":      "us-east-1",
		},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	env := props["Environment"].(map[string]any)
	assert.Equal(t, "pankbase-files", env["BUCKET_NAME"])
	assert.Equal(t, "us-east-1", env["REGION"])
}

func TestResource_OmitsZeroValues(t *testing.T) {
	bucket := TestBucket{
		BucketName: "", // Empty string
		Tags:       nil,
		Versioning: nil,
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	// All zero values should be omitted
	assert.Empty(t, props)
}

func TestResource_InterfaceFields(t *testing.T) {
	tests := []struct {
		name  string
		value any
		omit  bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"zero int", 0, true},
		{"false", false, true},
		{"name", "pankbase-files", false},
		{"ref", intrinsics.Ref{LogicalName: "FilesBucket"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := Resource(TestBucket{BucketName: tt.value})
			require.NoError(t, err)
			if tt.omit {
				assert.NotContains(t, props, "BucketName")
				return
			}
			assert.Contains(t, props, "BucketName")
		})
	}
}

func TestResource_WithPointer(t *testing.T) {
	bucket := &TestBucket{
		BucketName: "pankbase-files",
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, "pankbase-files", props["BucketName"])
}

func TestResource_WithIntrinsic(t *testing.T) {
	bucket := TestBucket{
		BucketName: intrinsics.Sub{String: "${AWS::StackName}-files"},
	}

	props, err := Resource(bucket)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Fn::Sub": "${AWS::StackName}-files"}, props["BucketName"])
}

func TestProperties_NormalizesNumbers(t *testing.T) {
	type rule struct {
		MaxAge int `json:"MaxAge,omitempty"`
	}
	type cors struct {
		CorsRules []rule `json:"CorsRules"`
	}

	props, err := Properties(cors{CorsRules: []rule{{MaxAge: 3000}}})
	require.NoError(t, err)

	rules := props["CorsRules"].([]any)
	assert.Equal(t, float64(3000), rules[0].(map[string]any)["MaxAge"])
}

func TestReferences(t *testing.T) {
	props := map[string]any{
		"Bucket": map[string]any{"Ref": "FilesBucket"},
		"PolicyDocument": map[string]any{
			"Statement": []any{
				map[string]any{
					"Resource": []any{
						map[string]any{"Fn::GetAtt": []any{"FilesBucket", "Arn"}},
						map[string]any{"Fn::Join": []any{"", []any{
							map[string]any{"Fn::GetAtt": []any{"BlobsBucket", "Arn"}},
							"/*",
						}}},
					},
					"Principal": map[string]any{"AWS": map[string]any{"Ref": "AWS::AccountId"}},
				},
			},
		},
	}

	assert.Equal(t, []string{"BlobsBucket", "FilesBucket"}, References(props))
}

func TestImports(t *testing.T) {
	props := map[string]any{
		"PolicyDocument": map[string]any{
			"Statement": []any{
				map[string]any{
					"Resource": []any{
						map[string]any{"Fn::ImportValue": "Storage:ExportsOutputFnGetAttFilesBucketArn"},
						map[string]any{"Fn::Join": []any{"", []any{
							map[string]any{"Fn::ImportValue": "Storage:ExportsOutputFnGetAttFilesBucketArn"},
							"/*",
						}}},
					},
				},
			},
		},
	}

	assert.Equal(t, []string{"Storage:ExportsOutputFnGetAttFilesBucketArn"}, Imports(props))
	assert.Empty(t, Imports(map[string]any{"BucketName": "pankbase-files"}))
}
