package differ

import (
	"strings"
	"testing"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/config"
	"github.com/pankbase/bucket-infra/internal/pankbase"
)

func TestCompare(t *testing.T) {
	t1 := &bucketinfra.Template{
		Resources: map[string]bucketinfra.ResourceDef{
			"Bucket1": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "pankbase-files"}},
			"Bucket2": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "pankbase-blobs"}},
		},
	}

	t2 := &bucketinfra.Template{
		Resources: map[string]bucketinfra.ResourceDef{
			"Bucket1": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "pankbase-files-renamed"}},
			"Bucket3": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "pankbase-restricted-files"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	// Bucket2 was removed
	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "Bucket2" {
		t.Errorf("Removed[0].Resource = %s, want Bucket2", result.Diff.Removed[0].Resource)
	}

	// Bucket3 was added
	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Resource != "Bucket3" {
		t.Errorf("Added[0].Resource = %s, want Bucket3", result.Diff.Added[0].Resource)
	}

	// Bucket1 was modified
	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if result.Diff.Modified[0].Resource != "Bucket1" {
		t.Errorf("Modified[0].Resource = %s, want Bucket1", result.Diff.Modified[0].Resource)
	}

	// Summary
	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &bucketinfra.Template{
		Resources: map[string]bucketinfra.ResourceDef{
			"Bucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"BucketName": "test"}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0 for identical templates", result.Summary.Total)
	}
}

func TestCompareEmpty(t *testing.T) {
	t1 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{}}
	t2 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &bucketinfra.Template{
		Resources: map[string]bucketinfra.ResourceDef{
			"Resource1": {Type: "AWS::S3::Bucket"},
		},
	}

	t2 := &bucketinfra.Template{
		Resources: map[string]bucketinfra.ResourceDef{
			"Resource1": {Type: "AWS::S3::AccessPoint"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	found := false
	for _, change := range result.Diff.Modified[0].Changes {
		if change == "Type changed: AWS::S3::Bucket → AWS::S3::AccessPoint" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected type change to be detected")
	}
}

func TestCompareProperties(t *testing.T) {
	tests := []struct {
		name    string
		props1  map[string]any
		props2  map[string]any
		wantLen int
	}{
		{
			name:    "identical",
			props1:  map[string]any{"Key": "value"},
			props2:  map[string]any{"Key": "value"},
			wantLen: 0,
		},
		{
			name:    "added property",
			props1:  map[string]any{},
			props2:  map[string]any{"Key": "value"},
			wantLen: 1,
		},
		{
			name:    "removed property",
			props1:  map[string]any{"Key": "value"},
			props2:  map[string]any{},
			wantLen: 1,
		},
		{
			name:    "modified property",
			props1:  map[string]any{"Key": "value1"},
			props2:  map[string]any{"Key": "value2"},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := compareProperties("", tt.props1, tt.props2, Options{})
			if len(changes) != tt.wantLen {
				t.Errorf("compareProperties() returned %d changes, want %d", len(changes), tt.wantLen)
			}
		})
	}
}

func TestEqualStringSlices(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{[]string{}, []string{}, true},
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		got := equalStringSlices(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("equalStringSlices(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareNestedProperties(t *testing.T) {
	t1 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{
		"FilesBucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{
			"VersioningConfiguration": map[string]any{"Status": "Enabled"},
			"BucketName":              map[string]any{"Ref": "Name"},
		}},
	}}
	t2 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{
		"FilesBucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{
			"VersioningConfiguration": map[string]any{"Status": "Suspended"},
			"BucketName":              map[string]any{"Ref": "OtherName"},
		}},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}
	changes := result.Diff.Modified[0].Changes
	want := []string{"BucketName modified", "VersioningConfiguration.Status modified"}
	if strings.Join(changes, ",") != strings.Join(want, ",") {
		t.Errorf("Changes = %v, want %v", changes, want)
	}
}

func TestCompareRetentionChange(t *testing.T) {
	t1 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{
		"FilesBucket": {Type: "AWS::S3::Bucket", DeletionPolicy: "Retain", UpdateReplacePolicy: "Retain"},
	}}
	t2 := &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{
		"FilesBucket": {Type: "AWS::S3::Bucket"},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	changes := result.Diff.Modified[0].Changes
	if len(changes) != 2 || changes[0] != "DeletionPolicy changed: Retain → Delete" {
		t.Errorf("Changes = %v", changes)
	}
}

func TestCompareIgnoreOrder(t *testing.T) {
	props1 := map[string]any{"Action": []any{"s3:GetObject", "s3:ListBucket"}}
	props2 := map[string]any{"Action": []any{"s3:ListBucket", "s3:GetObject"}}

	if changes := compareProperties("", props1, props2, Options{}); len(changes) != 1 {
		t.Errorf("ordered compare returned %d changes, want 1", len(changes))
	}
	if changes := compareProperties("", props1, props2, Options{IgnoreOrder: true}); len(changes) != 0 {
		t.Errorf("unordered compare returned %v, want none", changes)
	}
}

func TestCompareNeverPrintsValues(t *testing.T) {
	secret := func(v string) *bucketinfra.Template {
		return &bucketinfra.Template{Resources: map[string]bucketinfra.ResourceDef{
			"Secret": {Type: "AWS::SecretsManager::Secret", Properties: map[string]any{"SecretString": v}},
		}}
	}

	result, err := Compare(secret("old-key-material"), secret("new-key-material"), Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	for _, change := range result.Diff.Modified[0].Changes {
		if strings.Contains(change, "key-material") {
			t.Errorf("change %q leaks a value", change)
		}
	}
}

func TestCompareAssemblies(t *testing.T) {
	standard := config.Default()
	standard.Variants = []string{"standard"}
	before, err := pankbase.Synthesize(standard, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	logging := config.Default()
	logging.AccessLogging = true
	after, err := pankbase.Synthesize(logging, nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	results, err := CompareAssemblies(before, after, Options{})
	if err != nil {
		t.Fatalf("CompareAssemblies() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}

	byStack := make(map[string]bucketinfra.DiffResult)
	for _, r := range results {
		byStack[r.Stack] = r
	}

	storage := byStack["PankbaseBucketStorage"]
	if storage.Summary.Modified != 2 || storage.Summary.Added != 0 {
		t.Errorf("storage summary = %+v, want 2 modified", storage.Summary)
	}
	if byStack["PankbaseBucketAccessPolicies"].Summary.Total != 0 {
		t.Errorf("access policies should be unchanged: %+v", byStack["PankbaseBucketAccessPolicies"].Summary)
	}
	if got := byStack["PankbaseRestrictedBucketStorage"].Summary.Added; got != 3 {
		t.Errorf("restricted storage added = %d, want 3", got)
	}

	// Round-trip through disk yields no differences.
	dir := t.TempDir()
	if err := after.Write(dir, app.FormatYAML); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	recorded, err := app.ReadAssembly(dir)
	if err != nil {
		t.Fatalf("ReadAssembly() error = %v", err)
	}
	results, err = CompareAssemblies(recorded, after, Options{})
	if err != nil {
		t.Fatalf("CompareAssemblies() error = %v", err)
	}
	for _, r := range results {
		if r.Summary.Total != 0 {
			t.Errorf("%s: %+v after round trip", r.Stack, r.Diff)
		}
	}
}
