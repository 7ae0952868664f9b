package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pankbase/bucket-infra/internal/storage"
	"github.com/pankbase/bucket-infra/internal/variant"
	"github.com/pankbase/bucket-infra/intrinsics"
)

func readActionSet() map[string]bool {
	set := make(map[string]bool, len(storage.ReadActions))
	for _, a := range storage.ReadActions {
		set[a] = true
	}
	return set
}

// ExternalReadOnly checks that bucket policy statements granting other accounts
// only read, only target the bucket they are attached to, and only name the
// known external reader accounts.
type ExternalReadOnly struct{}

func (r ExternalReadOnly) ID() string { return "PKB001" }
func (r ExternalReadOnly) Description() string {
	return "External account grants on bucket policies are read-only"
}

var accountPattern = regexp.MustCompile(`iam::(\d{12}):root`)

func (r ExternalReadOnly) Check(ctx *Context) []Finding {
	var findings []Finding
	read := readActionSet()
	known := make(map[string]bool)
	for _, account := range variant.ExternalReaders {
		known[account] = true
	}

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)
		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]
			if res.Type != typeBucketPolicy {
				continue
			}
			attached, _ := ctx.Resolve(stack, res.Properties["Bucket"])

			for _, stmt := range statements(res.Properties["PolicyDocument"]) {
				if stmt["Principal"] == nil || stmt["Effect"] != intrinsics.EffectAllow {
					continue
				}
				for _, action := range actions(stmt) {
					if !read[action] {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
							fmt.Sprintf("Bucket policy grants %s to another account", action),
							"Grant only the read action set"))
					}
				}
				for _, account := range principalAccounts(stmt["Principal"]) {
					if !known[account] {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityWarning,
							fmt.Sprintf("Bucket policy grants read access to unlisted account %s", account),
							"Only the IGVF dev and staging accounts read PankBase buckets"))
					}
				}
				for _, resource := range list(stmt["Resource"]) {
					t, ok := ctx.Resolve(stack, resource)
					if !ok || t.Wildcard || (attached.Bucket != "" && t.Bucket != attached.Bucket) {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
							"Bucket policy statement reaches beyond the bucket it is attached to",
							"Use the bucket ARN and its object ARN pattern"))
						break
					}
				}
			}
		}
	}
	return findings
}

// principalAccounts extracts the account IDs of {"AWS": ...} principals.
func principalAccounts(principal any) []string {
	m, ok := principal.(map[string]any)
	if !ok {
		if s, ok := principal.(string); ok && s == "*" {
			return []string{"*"}
		}
		return nil
	}
	var accounts []string
	for _, p := range list(m["AWS"]) {
		var arn string
		switch v := p.(type) {
		case string:
			arn = v
		case map[string]any:
			arn, _ = v["Fn::Sub"].(string)
		}
		if match := accountPattern.FindStringSubmatch(arn); match != nil {
			accounts = append(accounts, match[1])
		} else if arn == "*" {
			accounts = append(accounts, "*")
		}
	}
	return accounts
}

// PolicyScope checks managed policies: download policies only read, upload
// policies add object writes and carry the federated-token statement, and every
// S3 statement is scoped to declared buckets.
type PolicyScope struct{}

func (r PolicyScope) ID() string { return "PKB002" }
func (r PolicyScope) Description() string {
	return "Download policies never write; upload policies carry the federated-token statement"
}

func (r PolicyScope) Check(ctx *Context) []Finding {
	var findings []Finding
	read := readActionSet()
	write := map[string]bool{intrinsics.S3PutObject: true}

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)
		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]
			if res.Type != typeManagedPolicy {
				continue
			}
			name, _ := res.Properties["ManagedPolicyName"].(string)
			upload := strings.HasPrefix(name, "upload-")
			federated := false

			for _, stmt := range statements(res.Properties["PolicyDocument"]) {
				acts := actions(stmt)
				if isFederatedToken(stmt, acts) {
					federated = true
					continue
				}
				for _, action := range acts {
					if read[action] || (upload && write[action]) {
						continue
					}
					findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
						fmt.Sprintf("Policy %s allows %s", name, action),
						"Download policies read; upload policies read and put objects"))
				}
				for _, resource := range list(stmt["Resource"]) {
					if t, ok := ctx.Resolve(stack, resource); !ok || t.Wildcard {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
							fmt.Sprintf("Policy %s has an S3 statement not scoped to a declared bucket", name),
							"Use ARNs taken from the storage stack"))
						break
					}
				}
			}

			if upload && !federated {
				findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
					fmt.Sprintf("Upload policy %s lacks the federated-token statement", name),
					"Bundle iam:PassRole and sts:GetFederationToken on \"*\""))
			}
			if !upload && federated {
				findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
					fmt.Sprintf("Policy %s can mint federated tokens", name),
					"Only the upload policy carries the federated-token statement"))
			}
		}
	}
	return findings
}

func isFederatedToken(stmt map[string]any, acts []string) bool {
	has := make(map[string]bool, len(acts))
	for _, a := range acts {
		has[a] = true
	}
	if !has[intrinsics.STSGetFederationToken] {
		return false
	}
	for _, resource := range list(stmt["Resource"]) {
		if resource != intrinsics.AllResources {
			return false
		}
	}
	return true
}

// VariantsDisjoint checks that no physical name is declared twice and that no
// policy reaches a bucket of a stack it does not depend on.
type VariantsDisjoint struct{}

func (r VariantsDisjoint) ID() string { return "PKB003" }
func (r VariantsDisjoint) Description() string {
	return "Standard and restricted resources are disjoint"
}

var physicalNameKeys = []string{"BucketName", "ManagedPolicyName", "UserName", "Name"}

func (r VariantsDisjoint) Check(ctx *Context) []Finding {
	var findings []Finding
	declared := make(map[string]string) // type|name → stack

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)
		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]

			for _, key := range physicalNameKeys {
				name, ok := res.Properties[key].(string)
				if !ok {
					continue
				}
				k := res.Type + "|" + name
				if other, dup := declared[k]; dup {
					findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
						fmt.Sprintf("%s %q is also declared in %s", res.Type, name, other),
						"Each variant owns its own resources"))
					continue
				}
				declared[k] = stack
			}

			if res.Type != typeManagedPolicy && res.Type != typeBucketPolicy {
				continue
			}
			seen := make(map[string]bool)
			for _, stmt := range statements(res.Properties["PolicyDocument"]) {
				for _, resource := range list(stmt["Resource"]) {
					t, ok := ctx.Resolve(stack, resource)
					if !ok || t.Wildcard || seen[t.Bucket] {
						continue
					}
					seen[t.Bucket] = true
					owner := t.Stack
					if owner == "" {
						owner, _ = ctx.BucketStack(t.Bucket)
					}
					if owner != "" && !ctx.DependsOn(stack, owner) {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
							fmt.Sprintf("Policy reaches bucket %s of unrelated stack %s", t.Bucket, owner),
							"Reference buckets through the storage stack of the same variant"))
					}
				}
			}
		}
	}
	return findings
}

// Retention checks that every bucket survives stack deletion and replacement
// and that content buckets keep object versions.
type Retention struct{}

func (r Retention) ID() string { return "PKB004" }
func (r Retention) Description() string {
	return "Buckets are retained; content buckets are versioned"
}

func (r Retention) Check(ctx *Context) []Finding {
	var findings []Finding

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)

		content := make(map[string]bool)
		for _, res := range template.Resources {
			if res.Type != typeBucketPolicy {
				continue
			}
			if id, ok := refTarget(res.Properties["Bucket"]); ok {
				content[id] = true
			}
		}

		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]
			if res.Type != typeBucket {
				continue
			}
			if !res.Retained() {
				findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
					"Bucket is not retained on stack deletion and replacement",
					"Set DeletionPolicy and UpdateReplacePolicy to Retain"))
			}
			if !content[id] && res.Properties["CorsConfiguration"] == nil {
				continue
			}
			versioning, _ := res.Properties["VersioningConfiguration"].(map[string]any)
			if versioning["Status"] != "Enabled" {
				findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
					"Content bucket is not versioned",
					"Enable versioning"))
			}
		}
	}
	return findings
}

// UploadUser checks the credentials of access stacks.
type UploadUser struct{}

func (r UploadUser) ID() string { return "PKB005" }
func (r UploadUser) Description() string {
	return "One upload user and one access key per access stack, bound only to the upload policy"
}

func (r UploadUser) Check(ctx *Context) []Finding {
	var findings []Finding

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)

		var users, uploads []string
		keys := make(map[string]int)
		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]
			switch res.Type {
			case typeUser:
				users = append(users, id)
			case typeAccessKey:
				if user, ok := refTarget(res.Properties["UserName"]); ok {
					keys[user]++
				} else {
					findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
						"Access key is not bound to a declared user", "Reference the upload user"))
				}
			case typeManagedPolicy:
				if name, _ := res.Properties["ManagedPolicyName"].(string); strings.HasPrefix(name, "upload-") {
					uploads = append(uploads, id)
				}
				for _, key := range []string{"Users", "Groups", "Roles"} {
					if res.Properties[key] != nil {
						findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
							fmt.Sprintf("Managed policy is attached through %s", key),
							"Attach policies only through the upload user"))
					}
				}
			}
		}

		if len(uploads) > 0 && len(users) != 1 {
			findings = append(findings, ctx.finding(r.ID(), stack, "", SeverityError,
				fmt.Sprintf("Access stack declares %d users, want 1", len(users)),
				"Declare exactly one upload user"))
		}

		for _, user := range users {
			if keys[user] != 1 {
				findings = append(findings, ctx.finding(r.ID(), stack, user, SeverityError,
					fmt.Sprintf("User has %d access keys, want 1", keys[user]),
					"Declare exactly one access key"))
			}

			arns := list(template.Resources[user].Properties["ManagedPolicyArns"])
			bound := make([]string, 0, len(arns))
			for _, arn := range arns {
				id, _ := refTarget(arn)
				bound = append(bound, id)
			}
			sort.Strings(bound)
			if len(bound) != 1 || !contains(uploads, bound[0]) {
				findings = append(findings, ctx.finding(r.ID(), stack, user, SeverityError,
					fmt.Sprintf("User is bound to %v, want only the upload policy", bound),
					"Bind the user to the upload managed policy alone"))
			}
		}
	}
	return findings
}

func contains(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}
