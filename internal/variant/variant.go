// Package variant holds the fixed naming conventions of the standard and
// restricted PankBase bucket sets.
//
// Names are not configurable: both the storage and the access stacks read them
// from here, and the restricted set shares no name with the standard one.
package variant

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is returned by Lookup for an unregistered variant name.
var ErrUnknown = errors.New("unknown variant")

// Role describes what a content bucket is used for, which decides its CORS rules.
type Role string

const (
	// RoleFiles buckets receive browser-based uploads and serve downloads.
	RoleFiles Role = "files"
	// RoleBlobs buckets are read-only to browsers.
	RoleBlobs Role = "blobs"
)

// Dataset is one content bucket and its log bucket.
type Dataset struct {
	// ID prefixes the logical IDs of the dataset's resources (e.g. "Files" → "FilesBucket").
	ID   string
	Role Role

	BucketName     string
	LogsBucketName string
}

// BucketID is the content bucket's logical ID.
func (d Dataset) BucketID() string { return d.ID + "Bucket" }

// LogsBucketID is the log bucket's logical ID.
func (d Dataset) LogsBucketID() string { return d.ID + "LogsBucket" }

// PolicyID is the content bucket policy's logical ID.
func (d Dataset) PolicyID() string { return d.ID + "BucketPolicy" }

// Variant is a complete, self-contained set of names for one bucket family.
type Variant struct {
	Name string

	StorageStack string
	AccessStack  string

	Datasets []Dataset

	// CrossAccountReadSid names the bucket policy statement granting external reads.
	CrossAccountReadSid string

	DownloadSid       string
	UploadSid         string
	FederatedTokenSid string

	// LogicalPrefix prefixes the access stack's logical IDs (e.g. "UploadIgvfFiles").
	LogicalPrefix string

	DownloadPolicyName string
	UploadPolicyName   string
	UploadUserName     string
	SecretName         string
}

// DownloadPolicyID is the download managed policy's logical ID.
func (v Variant) DownloadPolicyID() string { return "Download" + v.LogicalPrefix + "Policy" }

// UploadPolicyID is the upload managed policy's logical ID.
func (v Variant) UploadPolicyID() string { return "Upload" + v.LogicalPrefix + "Policy" }

// UploadUserID is the upload user's logical ID.
func (v Variant) UploadUserID() string { return "Upload" + v.LogicalPrefix + "User" }

// AccessKeyID is the upload user's access key logical ID.
func (v Variant) AccessKeyID() string { return v.UploadUserID() + "AccessKey" }

// SecretID is the access key secret's logical ID.
func (v Variant) SecretID() string { return v.AccessKeyID() + "Secret" }

// BucketNames returns every bucket name of the variant, content and logs.
func (v Variant) BucketNames() []string {
	names := make([]string, 0, 2*len(v.Datasets))
	for _, d := range v.Datasets {
		names = append(names, d.BucketName, d.LogsBucketName)
	}
	return names
}

// Dataset returns the dataset with the given ID.
func (v Variant) Dataset(id string) (Dataset, bool) {
	for _, d := range v.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return Dataset{}, false
}

// ExternalReaders are the AWS accounts granted cross-account read on every content bucket.
var ExternalReaders = []string{
	"109189702753", // igvf-dev
	"920073238245", // igvf-staging
}

// Standard is the public-portal bucket family.
var Standard = Variant{
	Name:         "standard",
	StorageStack: "PankbaseBucketStorage",
	AccessStack:  "PankbaseBucketAccessPolicies",
	Datasets: []Dataset{
		{
			ID:             "Files",
			Role:           RoleFiles,
			BucketName:     "pankbase-files",
			LogsBucketName: "pankbase-files-production-log",
		},
		{
			ID:             "Blobs",
			Role:           RoleBlobs,
			BucketName:     "pankbase-blobs",
			LogsBucketName: "pankbase-blobs-log-production",
		},
	},
	CrossAccountReadSid: "AllowReadFromIgvfDevAndStagingAccounts",
	DownloadSid:         "AllowReadFromFilesAndBlobsBuckets",
	UploadSid:           "AllowReadAndWriteToFilesAndBlobsBuckets",
	FederatedTokenSid:   "AllowGenerateFederatedToken",
	LogicalPrefix:       "IgvfFiles",
	DownloadPolicyName:  "download-pankbase-files",
	UploadPolicyName:    "upload-pankbase-files",
	UploadUserName:      "upload-pankbase-files",
	SecretName:          "upload-pankbase-files-user-access-key-secret",
}

// Restricted is the controlled-access bucket family.
var Restricted = Variant{
	Name:         "restricted",
	StorageStack: "PankbaseRestrictedBucketStorage",
	AccessStack:  "PankbaseRestrictedBucketAccessPolicies",
	Datasets: []Dataset{
		{
			ID:             "RestrictedFiles",
			Role:           RoleFiles,
			BucketName:     "pankbase-restricted-files",
			LogsBucketName: "pankbase-restricted-files-production-log",
		},
	},
	CrossAccountReadSid: "AllowReadFromIgvfDevAndStagingAccounts",
	DownloadSid:         "AllowReadFromRestrictedFilesBucket",
	UploadSid:           "AllowReadAndWriteToRestrictedFilesBucket",
	FederatedTokenSid:   "AllowGenerateFederatedTokenRestrictedFiles",
	LogicalPrefix:       "IgvfRestrictedFiles",
	DownloadPolicyName:  "download-pankbase-restricted-files",
	UploadPolicyName:    "upload-pankbase-restricted-files",
	UploadUserName:      "upload-pankbase-restricted-files",
	SecretName:          "upload-pankbase-restricted-files-user-access-key-secret",
}

var registry = map[string]Variant{
	Standard.Name:   Standard,
	Restricted.Name: Restricted,
}

// Lookup returns the variant registered under name.
func Lookup(name string) (Variant, error) {
	v, ok := registry[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknown, name, Names())
	}
	return v, nil
}

// Names returns the registered variant names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
