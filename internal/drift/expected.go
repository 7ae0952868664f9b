package drift

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pankbase/bucket-infra/internal/app"
)

// Bucket is the declared state of one bucket.
type Bucket struct {
	Name     string
	Stack    string
	Resource string

	Versioned bool
	CORS      []string // rule fingerprints, sorted

	// HasPolicy is set when a bucket policy targets the bucket.
	HasPolicy bool
	Actions   []string // sorted
	Accounts  []string // sorted
}

var accountPattern = regexp.MustCompile(`iam::(\d{12}):root`)

// Expected extracts the declared bucket state from a synthesized assembly.
// Buckets are returned sorted by name.
func Expected(asm *app.Assembly) []Bucket {
	var buckets []Bucket

	for _, stackName := range asm.SortedTemplateNames() {
		template := asm.Templates[stackName]

		byID := make(map[string]*Bucket)
		var ids []string
		for id, res := range template.Resources {
			if res.Type != "AWS::S3::Bucket" {
				continue
			}
			name, ok := res.Properties["BucketName"].(string)
			if !ok {
				continue
			}
			b := &Bucket{Name: name, Stack: stackName, Resource: id}
			if v, ok := res.Properties["VersioningConfiguration"].(map[string]any); ok {
				b.Versioned = v["Status"] == "Enabled"
			}
			if cors, ok := res.Properties["CorsConfiguration"].(map[string]any); ok {
				rules, _ := cors["CorsRules"].([]any)
				for _, r := range rules {
					if m, ok := r.(map[string]any); ok {
						b.CORS = append(b.CORS, corsFingerprint(
							stringList(m["AllowedMethods"]),
							stringList(m["AllowedOrigins"]),
							stringList(m["AllowedHeaders"]),
							stringList(m["ExposedHeaders"]),
							number(m["MaxAge"]),
						))
					}
				}
				sort.Strings(b.CORS)
			}
			byID[id] = b
			ids = append(ids, id)
		}

		for _, res := range template.Resources {
			if res.Type != "AWS::S3::BucketPolicy" {
				continue
			}
			ref, _ := res.Properties["Bucket"].(map[string]any)
			id, _ := ref["Ref"].(string)
			b, ok := byID[id]
			if !ok {
				continue
			}
			b.HasPolicy = true
			b.Actions, b.Accounts = grants(res.Properties["PolicyDocument"])
		}

		for _, id := range ids {
			buckets = append(buckets, *byID[id])
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// grants returns the actions and principal accounts of a policy document's
// cross-account statements.
func grants(doc any) (actions, accounts []string) {
	m, _ := doc.(map[string]any)
	actionSet := make(map[string]bool)
	accountSet := make(map[string]bool)

	for _, s := range anyList(m["Statement"]) {
		stmt, ok := s.(map[string]any)
		if !ok || stmt["Principal"] == nil {
			continue
		}
		for _, a := range stringList(stmt["Action"]) {
			actionSet[a] = true
		}
		principal, _ := stmt["Principal"].(map[string]any)
		for _, p := range anyList(principal["AWS"]) {
			var arn string
			switch v := p.(type) {
			case string:
				arn = v
			case map[string]any:
				arn, _ = v["Fn::Sub"].(string)
			}
			if match := accountPattern.FindStringSubmatch(arn); match != nil {
				accountSet[match[1]] = true
			} else if len(arn) == 12 {
				// S3 may normalize a root principal to the bare account ID.
				accountSet[arn] = true
			}
		}
	}
	return sortedSet(actionSet), sortedSet(accountSet)
}

func corsFingerprint(methods, origins, headers, exposed []string, maxAge int) string {
	return fmt.Sprintf("methods=%s origins=%s headers=%s exposed=%s maxAge=%d",
		sortedJoin(methods), sortedJoin(origins), sortedJoin(headers), sortedJoin(exposed), maxAge)
}

func sortedJoin(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func anyList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

func stringList(v any) []string {
	var out []string
	for _, item := range anyList(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func number(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
