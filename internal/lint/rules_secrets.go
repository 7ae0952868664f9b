package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	bucketinfra "github.com/pankbase/bucket-infra"
)

// SecretExposure detects access key material outside the secret store and
// hardcoded secrets in property values.
type SecretExposure struct{}

func (r SecretExposure) ID() string { return "PKB006" }
func (r SecretExposure) Description() string {
	return "No secret material in outputs or plain property values"
}

type secretPatternDef struct {
	name    string
	pattern *regexp.Regexp
}

var secretPatterns = []secretPatternDef{
	// AWS Access Key ID (starts with AKIA, ABIA, ACCA, or ASIA)
	{"AWS access key", regexp.MustCompile(`^(A3T[A-Z0-9]|AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}$`)},

	// AWS Secret Access Key (40 character base64-like string)
	{"AWS secret key", regexp.MustCompile(`^[A-Za-z0-9/+=]{40}$`)},

	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},

	{"GitHub token", regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9_]{36,}$`)},
	{"GitHub token", regexp.MustCompile(`^github_pat_[A-Za-z0-9_]{22,}$`)},

	{"API key", regexp.MustCompile(`^[A-Za-z0-9_\-]{32,}$`)},
}

// sensitiveFieldNames are property names that commonly hold secrets.
var sensitiveFieldNames = map[string]bool{
	"password":          true,
	"secret":            true,
	"api_key":           true,
	"apikey":            true,
	"access_key":        true,
	"accesskey":         true,
	"secret_access_key": true,
	"secretaccesskey":   true,
	"private_key":       true,
	"privatekey":        true,
	"secret_key":        true,
	"secretkey":         true,
	"token":             true,
	"credentials":       true,
}

func (r SecretExposure) Check(ctx *Context) []Finding {
	var findings []Finding

	for _, stack := range ctx.Stacks() {
		template := ctx.Template(stack)

		outputIDs := make([]string, 0, len(template.Outputs))
		for id := range template.Outputs {
			outputIDs = append(outputIDs, id)
		}
		sort.Strings(outputIDs)
		for _, id := range outputIDs {
			if what := exposedCredential(template.Outputs[id].Value, template.Resources); what != "" {
				findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
					fmt.Sprintf("Output %s exposes the %s", id, what),
					"Read credentials from Secrets Manager"))
			}
		}

		for _, id := range ctx.SortedResources(stack) {
			res := template.Resources[id]

			if res.Type == typeSecret {
				if _, literal := res.Properties["SecretString"].(string); literal {
					findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError,
						"SecretString is a literal value",
						"Build the secret from the access key's Ref and SecretAccessKey attribute"))
				}
			}

			walkStrings("", res.Properties, func(key, value string) {
				if msg := secretMessage(key, value); msg != "" {
					findings = append(findings, ctx.finding(r.ID(), stack, id, SeverityError, msg,
						"Use Secrets Manager or resource attributes instead of literal values"))
				}
			})
		}
	}
	return findings
}

// exposedCredential names the credential an output value reveals, if any.
func exposedCredential(v any, resources map[string]bucketinfra.ResourceDef) string {
	switch val := v.(type) {
	case map[string]any:
		if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) == 2 && getAtt[1] == "SecretAccessKey" {
			return "secret access key"
		}
		if id, ok := refTarget(val); ok {
			switch resources[id].Type {
			case typeAccessKey:
				return "access key ID"
			case typeSecret:
				return "secret ARN"
			}
		}
		for _, item := range val {
			if what := exposedCredential(item, resources); what != "" {
				return what
			}
		}
	case []any:
		for _, item := range val {
			if what := exposedCredential(item, resources); what != "" {
				return what
			}
		}
	}
	return ""
}

// walkStrings calls fn for every string leaf of v with the nearest map key.
func walkStrings(key string, v any, fn func(key, value string)) {
	switch val := v.(type) {
	case string:
		fn(key, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(k, val[k], fn)
		}
	case []any:
		for _, item := range val {
			walkStrings(key, item, fn)
		}
	}
}

func secretMessage(key, value string) string {
	if len(value) >= 10 {
		for _, sp := range secretPatterns {
			if !sp.pattern.MatchString(value) {
				continue
			}
			if sp.name == "AWS secret key" && (isSafeString(value) || !isHighEntropy(value)) {
				continue
			}
			if sp.name == "API key" && !isHighEntropy(value) {
				continue
			}
			return fmt.Sprintf("Potential %s in property %s", sp.name, key)
		}
	}

	name := strings.ToLower(key)
	if sensitiveFieldNames[name] && len(value) >= 8 && !isPlaceholder(value) {
		return fmt.Sprintf("Hardcoded value in sensitive property %s", key)
	}
	return ""
}

// isSafeString checks if a string is likely safe (not a secret)
func isSafeString(s string) bool {
	safePatterns := []string{
		"arn:aws:",
		"${",
		"AWS::",
		"http://",
		"https://",
		"s3://",
		".amazonaws.com",
	}

	for _, pattern := range safePatterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

// isHighEntropy checks if a string has high entropy (likely a secret)
func isHighEntropy(s string) bool {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSpecial := false

	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	count := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSpecial} {
		if has {
			count++
		}
	}

	return count >= 3 && len(s) >= 32
}

// isPlaceholder checks if a string looks like a placeholder
func isPlaceholder(s string) bool {
	s = strings.ToLower(s)
	placeholders := []string{
		"changeme",
		"placeholder",
		"example",
		"your-",
		"todo",
		"<",
		">",
		"xxx",
		"dummy",
	}

	for _, p := range placeholders {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
