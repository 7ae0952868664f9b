package lint

import (
	"regexp"
	"sort"
	"strings"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
)

// Resource types the rules look at.
const (
	typeBucket        = "AWS::S3::Bucket"
	typeBucketPolicy  = "AWS::S3::BucketPolicy"
	typeManagedPolicy = "AWS::IAM::ManagedPolicy"
	typeUser          = "AWS::IAM::User"
	typeAccessKey     = "AWS::IAM::AccessKey"
	typeSecret        = "AWS::SecretsManager::Secret"
)

// s3ArnPrefix matches the bucket ARN prefix in any partition.
var s3ArnPrefix = regexp.MustCompile(`^arn:(?:[a-z-]+|\$\{AWS::Partition\}):s3:::`)

// Context gives rules cross-stack views of an assembly.
type Context struct {
	Assembly *app.Assembly

	exports map[string]export
	deps    map[string]map[string]bool
	buckets map[string]string // bucket name → declaring stack
}

type export struct {
	stack string
	value any
}

// NewContext indexes asm's exports, stack dependencies and bucket names.
func NewContext(asm *app.Assembly) *Context {
	c := &Context{
		Assembly: asm,
		exports:  make(map[string]export),
		deps:     make(map[string]map[string]bool),
		buckets:  make(map[string]string),
	}

	direct := make(map[string][]string)
	for _, s := range asm.Manifest.Stacks {
		direct[s.Name] = s.Dependencies
	}
	for _, name := range c.Stacks() {
		template := asm.Templates[name]
		for _, out := range template.Outputs {
			if out.Export != nil {
				c.exports[out.Export.Name] = export{stack: name, value: out.Value}
			}
		}
		for _, r := range template.Resources {
			if r.Type != typeBucket {
				continue
			}
			if bucket, ok := r.Properties["BucketName"].(string); ok {
				c.buckets[bucket] = name
			}
		}

		reach := map[string]bool{name: true}
		queue := []string{name}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			for _, dep := range direct[next] {
				if !reach[dep] {
					reach[dep] = true
					queue = append(queue, dep)
				}
			}
		}
		c.deps[name] = reach
	}
	return c
}

// Stacks returns the stack names in a stable order.
func (c *Context) Stacks() []string {
	return c.Assembly.SortedTemplateNames()
}

// Template returns a stack's template.
func (c *Context) Template(stack string) *bucketinfra.Template {
	return c.Assembly.Templates[stack]
}

// SortedResources returns a template's logical IDs, sorted.
func (c *Context) SortedResources(stack string) []string {
	template := c.Template(stack)
	ids := make([]string, 0, len(template.Resources))
	for id := range template.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// File returns the template file name of a stack.
func (c *Context) File(stack string) string {
	for _, s := range c.Assembly.Manifest.Stacks {
		if s.Name == stack {
			return s.TemplateFile
		}
	}
	return app.TemplateFile(stack, app.FormatJSON)
}

// DependsOn reports whether stack can read from other, directly or transitively.
func (c *Context) DependsOn(stack, other string) bool {
	return c.deps[stack][other]
}

// BucketStack returns the stack declaring the bucket with the given name.
func (c *Context) BucketStack(bucket string) (string, bool) {
	s, ok := c.buckets[bucket]
	return s, ok
}

// Target is what a policy Resource entry resolves to.
type Target struct {
	// Wildcard is set for "*".
	Wildcard bool
	// Bucket is the physical bucket name.
	Bucket string
	// Stack declares the bucket, when known.
	Stack string
	// Objects is set for the bucket's object ARN pattern.
	Objects bool
}

// Resolve follows imports, Fn::GetAtt, Ref and Fn::Join to the bucket a value
// points at, as seen from stack.
func (c *Context) Resolve(stack string, v any) (Target, bool) {
	switch val := v.(type) {
	case string:
		if val == "*" {
			return Target{Wildcard: true}, true
		}
		prefix := s3ArnPrefix.FindString(val)
		if prefix == "" {
			return Target{}, false
		}
		name := strings.TrimPrefix(val, prefix)
		objects := strings.HasSuffix(name, "/*")
		name = strings.TrimSuffix(name, "/*")
		if strings.ContainsAny(name, "/*") {
			return Target{}, false
		}
		declaring, _ := c.BucketStack(name)
		return Target{Bucket: name, Stack: declaring, Objects: objects}, true

	case map[string]any:
		if len(val) != 1 {
			return Target{}, false
		}
		if name, ok := val["Fn::ImportValue"].(string); ok {
			exp, ok := c.exports[name]
			if !ok {
				return Target{}, false
			}
			return c.Resolve(exp.stack, exp.value)
		}
		if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) == 2 && getAtt[1] == "Arn" {
			id, _ := getAtt[0].(string)
			return c.bucket(stack, id)
		}
		if id, ok := val["Ref"].(string); ok {
			return c.bucket(stack, id)
		}
		if join, ok := val["Fn::Join"].([]any); ok && len(join) == 2 {
			parts, _ := join[1].([]any)
			if len(parts) == 2 && parts[1] == "/*" {
				t, ok := c.Resolve(stack, parts[0])
				if !ok || t.Objects || t.Wildcard {
					return Target{}, false
				}
				t.Objects = true
				return t, true
			}
		}
	}
	return Target{}, false
}

func (c *Context) bucket(stack, id string) (Target, bool) {
	template := c.Template(stack)
	if template == nil {
		return Target{}, false
	}
	r, ok := template.Resources[id]
	if !ok || r.Type != typeBucket {
		return Target{}, false
	}
	name, ok := r.Properties["BucketName"].(string)
	if !ok {
		return Target{}, false
	}
	return Target{Bucket: name, Stack: stack}, true
}

// statements returns the statements of a policy document.
func statements(doc any) []map[string]any {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	switch s := m["Statement"].(type) {
	case map[string]any:
		return []map[string]any{s}
	case []any:
		out := make([]map[string]any, 0, len(s))
		for _, item := range s {
			if stmt, ok := item.(map[string]any); ok {
				out = append(out, stmt)
			}
		}
		return out
	}
	return nil
}

// list returns a statement field that may be a single value or a list.
func list(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

// actions returns a statement's actions.
func actions(stmt map[string]any) []string {
	var out []string
	for _, a := range list(stmt["Action"]) {
		if s, ok := a.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// refTarget returns the logical ID of a {"Ref": id} value.
func refTarget(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	id, ok := m["Ref"].(string)
	return id, ok
}

func (c *Context) finding(rule, stack, resource string, severity Severity, message, suggestion string) Finding {
	return Finding{
		Issue: Issue{
			Rule:       rule,
			Message:    message,
			Suggestion: suggestion,
			File:       c.File(stack),
			Severity:   severity,
		},
		Stack:    stack,
		Resource: resource,
	}
}
