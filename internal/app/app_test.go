package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankbase/bucket-infra/internal/stack"
	"github.com/pankbase/bucket-infra/resources/iam"
	"github.com/pankbase/bucket-infra/resources/s3"
)

// twoStacks declares a producer and a consumer that imports the producer's bucket ARN.
func twoStacks(t *testing.T) *App {
	t.Helper()
	a := New(WithEnvironment(Environment{Account: "123456789012", Region: "us-west-2"}))

	// Declared consumer first so ordering is exercised.
	storage := stack.New("Storage")
	access := a.NewStack("Access")
	a.stacks = append(a.stacks, storage)
	a.byName["Storage"] = storage

	bucket := storage.Add("FilesBucket", s3.Bucket{BucketName: "pankbase-files"}, stack.WithRetain())
	access.Add("DownloadPolicy", iam.ManagedPolicy{
		ManagedPolicyName: "download",
		PolicyDocument:    map[string]any{"Resource": access.GetAtt(bucket, s3.AttrArn)},
	})
	return a
}

func TestApp_NewStack(t *testing.T) {
	a := New()
	s := a.NewStack("Storage")

	got, ok := a.Stack("Storage")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Len(t, a.Stacks(), 1)

	a.NewStack("Storage")
	_, err := a.Synthesize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateStack)
}

func TestApp_DefaultLogger(t *testing.T) {
	a := New()
	require.NotNil(t, a.Logger())
	a.Logger().Info("discarded")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, logger, New(WithLogger(logger)).Logger())
}

func TestApp_Order(t *testing.T) {
	a := twoStacks(t)

	order, err := a.Order()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "Storage", order[0].Name())
	assert.Equal(t, "Access", order[1].Name())
}

func TestApp_Synthesize(t *testing.T) {
	asm, err := twoStacks(t).Synthesize()
	require.NoError(t, err)

	assert.Equal(t, []string{"Storage", "Access"}, asm.StackNames())
	assert.Equal(t, 2, asm.ResourceCount())
	assert.Equal(t, []string{"Access", "Storage"}, asm.SortedTemplateNames())

	access := asm.Manifest.Stacks[1]
	assert.Equal(t, []string{"Storage"}, access.Dependencies)
	assert.Equal(t, "123456789012", access.Account)
	assert.Equal(t, "us-west-2", access.Region)
	assert.Equal(t, "Access.template.json", access.TemplateFile)

	storage := asm.Templates["Storage"]
	require.Contains(t, storage.Outputs, "ExportsOutputFnGetAttFilesBucketArn")
}

func TestApp_SynthesizeReportsAllStackErrors(t *testing.T) {
	a := New()
	a.NewStack("One").Add("bad-id", s3.Bucket{})
	a.NewStack("Two").Add("Dup", s3.Bucket{})
	a.stacks[1].Add("Dup", s3.Bucket{})

	_, err := a.Synthesize()
	require.Error(t, err)
	assert.ErrorIs(t, err, stack.ErrInvalidID)
	assert.ErrorIs(t, err, stack.ErrDuplicateID)
}

func TestAssembly_WriteAndRead(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			asm, err := twoStacks(t).Synthesize()
			require.NoError(t, err)

			dir := t.TempDir()
			require.NoError(t, asm.Write(dir, format))

			_, err = os.Stat(filepath.Join(dir, "Storage.template."+format))
			require.NoError(t, err)
			_, err = os.Stat(filepath.Join(dir, ManifestFile))
			require.NoError(t, err)

			read, err := ReadAssembly(dir)
			require.NoError(t, err)
			assert.Equal(t, asm.StackNames(), read.StackNames())

			assert.Equal(t, asm.Templates["Storage"], read.Templates["Storage"])

			bucket := read.Templates["Storage"].Resources["FilesBucket"]
			assert.True(t, bucket.Retained())
		})
	}
}

func TestAssembly_WriteUnknownFormat(t *testing.T) {
	asm, err := twoStacks(t).Synthesize()
	require.NoError(t, err)

	err = asm.Write(t.TempDir(), "toml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadAssembly_Missing(t *testing.T) {
	_, err := ReadAssembly(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest")
}

func TestApp_Synth(t *testing.T) {
	dir := t.TempDir()
	asm, err := twoStacks(t).Synth(dir, FormatYAML)
	require.NoError(t, err)
	assert.Len(t, asm.Templates, 2)

	read, err := ReadAssembly(dir)
	require.NoError(t, err)
	require.Len(t, read.Manifest.Stacks, 2)
	assert.Equal(t, "Storage.template.yaml", read.Manifest.Stacks[0].TemplateFile)
}
