package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, err := Lookup("standard")
	require.NoError(t, err)
	assert.Equal(t, "PankbaseBucketStorage", v.StorageStack)

	v, err = Lookup("restricted")
	require.NoError(t, err)
	assert.Equal(t, "PankbaseRestrictedBucketAccessPolicies", v.AccessStack)

	_, err = Lookup("public")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "restricted")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"restricted", "standard"}, Names())
}

func TestLogicalIDs(t *testing.T) {
	assert.Equal(t, "DownloadIgvfFilesPolicy", Standard.DownloadPolicyID())
	assert.Equal(t, "UploadIgvfFilesPolicy", Standard.UploadPolicyID())
	assert.Equal(t, "UploadIgvfFilesUser", Standard.UploadUserID())
	assert.Equal(t, "UploadIgvfFilesUserAccessKey", Standard.AccessKeyID())
	assert.Equal(t, "UploadIgvfFilesUserAccessKeySecret", Standard.SecretID())
	assert.Equal(t, "UploadIgvfRestrictedFilesUserAccessKeySecret", Restricted.SecretID())

	files, ok := Standard.Dataset("Files")
	require.True(t, ok)
	assert.Equal(t, "FilesBucket", files.BucketID())
	assert.Equal(t, "FilesLogsBucket", files.LogsBucketID())
	assert.Equal(t, "FilesBucketPolicy", files.PolicyID())

	_, ok = Standard.Dataset("RestrictedFiles")
	assert.False(t, ok)
}

func TestVariantsAreDisjoint(t *testing.T) {
	names := func(v Variant) []string {
		return append(v.BucketNames(),
			v.StorageStack, v.AccessStack,
			v.DownloadPolicyName, v.UploadPolicyName, v.UploadUserName, v.SecretName,
			v.DownloadPolicyID(), v.UploadPolicyID(), v.UploadUserID(), v.SecretID(),
		)
	}

	standard := make(map[string]bool)
	for _, n := range names(Standard) {
		standard[n] = true
	}
	for _, n := range names(Restricted) {
		assert.False(t, standard[n], "%s is shared by both variants", n)
	}
}

func TestBucketNames(t *testing.T) {
	assert.Equal(t, []string{
		"pankbase-files", "pankbase-files-production-log",
		"pankbase-blobs", "pankbase-blobs-log-production",
	}, Standard.BucketNames())
	assert.Len(t, Restricted.BucketNames(), 2)
}
