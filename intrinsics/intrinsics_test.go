package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_MarshalJSON(t *testing.T) {
	ref := Ref{LogicalName: "FilesBucket"}
	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "FilesBucket"}`, string(data))
}

func TestGetAtt_MarshalJSON(t *testing.T) {
	getAtt := GetAtt{LogicalName: "FilesBucket", Attribute: "Arn"}
	data, err := json.Marshal(getAtt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["FilesBucket", "Arn"]}`, string(data))
}

func TestImportValue_MarshalJSON(t *testing.T) {
	imp := ImportValue{ExportName: "PankbaseBucketStorage:ExportsOutputFnGetAttFilesBucketArn"}
	data, err := json.Marshal(imp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::ImportValue": "PankbaseBucketStorage:ExportsOutputFnGetAttFilesBucketArn"}`, string(data))
}

func TestObjectsArn(t *testing.T) {
	data, err := json.Marshal(ObjectsArn(GetAtt{LogicalName: "FilesBucket", Attribute: "Arn"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", [{"Fn::GetAtt": ["FilesBucket", "Arn"]}, "/*"]]}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}
