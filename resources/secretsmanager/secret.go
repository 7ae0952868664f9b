// Package secretsmanager contains AWS::SecretsManager resource types.
package secretsmanager

import (
	"log/slog"
	"strconv"

	"github.com/pankbase/bucket-infra/intrinsics"
)

// Secret represents an AWS::SecretsManager::Secret. Ref returns the secret ARN.
// See: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-secretsmanager-secret.html
type Secret struct {
	Name        any    `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
	KmsKeyId    any    `json:"KmsKeyId,omitempty"`
	// SecretString is stored encrypted by Secrets Manager. It is never logged.
	SecretString any `json:"SecretString,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Secret) ResourceType() string {
	return "AWS::SecretsManager::Secret"
}

// LogValue keeps SecretString out of structured logs.
func (r Secret) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("name", r.Name),
		slog.String("secretString", "[REDACTED]"),
	)
}

// Field is one key of a JSON object stored as a secret string.
type Field struct {
	Key   string
	Value any
}

// ObjectSecretString renders fields as a JSON object whose values may be intrinsics.
//
//	ObjectSecretString(Field{"ACCESS_KEY", Ref{"Key"}})
//	→ {"Fn::Join": ["", ["{\"ACCESS_KEY\":\"", {"Ref": "Key"}, "\"}"]]}
func ObjectSecretString(fields ...Field) intrinsics.Join {
	values := make([]any, 0, 2*len(fields)+1)
	prefix := "{"
	for i, f := range fields {
		if i > 0 {
			prefix = ","
		}
		values = append(values, prefix+strconv.Quote(f.Key)+`:"`, f.Value, `"`)
	}
	if len(fields) == 0 {
		values = append(values, "{")
	}
	values = append(values, "}")
	return intrinsics.Join{Delimiter: "", Values: mergeLiterals(values)}
}

// mergeLiterals joins adjacent string literals so the rendered Join stays compact.
func mergeLiterals(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(string); ok {
				out[len(out)-1] = prev + s
				continue
			}
		}
		out = append(out, v)
	}
	return out
}
