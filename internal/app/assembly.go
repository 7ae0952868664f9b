package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/stack"
)

// Output formats for templates.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ManifestFile is the name of the manifest inside an assembly directory.
const ManifestFile = "manifest.json"

// ManifestVersion identifies the manifest layout.
const ManifestVersion = "1"

// ErrUnknownFormat is returned for output formats other than json and yaml.
var ErrUnknownFormat = errors.New("unknown format")

// Assembly is the synthesized form of an app.
type Assembly struct {
	Manifest  bucketinfra.Manifest
	Templates map[string]*bucketinfra.Template
}

// Synthesize renders every stack to a template. Declaration errors of all stacks
// are reported together.
func (a *App) Synthesize() (*Assembly, error) {
	ordered, err := a.Order()
	if err != nil {
		return nil, err
	}

	asm := &Assembly{
		Manifest:  bucketinfra.Manifest{Version: ManifestVersion},
		Templates: make(map[string]*bucketinfra.Template, len(ordered)),
	}

	var errs []error
	for _, s := range ordered {
		template, err := s.Template()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		asm.Templates[s.Name()] = template

		var deps []string
		for _, dep := range s.Dependencies() {
			deps = append(deps, dep.Name())
		}
		asm.Manifest.Stacks = append(asm.Manifest.Stacks, bucketinfra.StackManifest{
			Name:         s.Name(),
			TemplateFile: TemplateFile(s.Name(), FormatJSON),
			Dependencies: deps,
			Account:      a.env.Account,
			Region:       a.env.Region,
		})
		a.logger.Debug("synthesized stack", "stack", s.Name(), "resources", len(template.Resources), "dependencies", deps)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return asm, nil
}

// Synth synthesizes every stack and writes the assembly to dir.
func (a *App) Synth(dir, format string) (*Assembly, error) {
	asm, err := a.Synthesize()
	if err != nil {
		return nil, err
	}
	if err := asm.Write(dir, format); err != nil {
		return nil, err
	}
	a.logger.Info("wrote assembly", "dir", dir, "format", format, "stacks", len(asm.Templates))
	return asm, nil
}

// TemplateFile returns the file name of a stack's template.
func TemplateFile(stackName, format string) string {
	return stackName + ".template." + format
}

// StackNames returns the stack names in deployment order.
func (asm *Assembly) StackNames() []string {
	names := make([]string, 0, len(asm.Manifest.Stacks))
	for _, s := range asm.Manifest.Stacks {
		names = append(names, s.Name)
	}
	return names
}

// ResourceCount returns the number of resources across all templates.
func (asm *Assembly) ResourceCount() int {
	n := 0
	for _, t := range asm.Templates {
		n += len(t.Resources)
	}
	return n
}

// Write stores the templates and manifest in dir.
func (asm *Assembly) Write(dir, format string) error {
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	manifest := asm.Manifest
	manifest.Stacks = make([]bucketinfra.StackManifest, len(asm.Manifest.Stacks))
	for i, s := range asm.Manifest.Stacks {
		s.TemplateFile = TemplateFile(s.Name, format)
		manifest.Stacks[i] = s

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = stack.ToJSON(asm.Templates[s.Name])
		case FormatYAML:
			data, err = stack.ToYAML(asm.Templates[s.Name])
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", s.Name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, s.TemplateFile), data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", s.TemplateFile, err)
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("rendering manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	asm.Manifest = manifest
	return nil
}

// ReadAssembly loads an assembly previously written by Write.
// Template values are normalized to their JSON form regardless of the file format.
func ReadAssembly(dir string) (*Assembly, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	asm := &Assembly{Templates: make(map[string]*bucketinfra.Template)}
	if err := json.Unmarshal(data, &asm.Manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	for _, s := range asm.Manifest.Stacks {
		template, err := ReadTemplate(filepath.Join(dir, s.TemplateFile))
		if err != nil {
			return nil, err
		}
		asm.Templates[s.Name] = template
	}
	return asm, nil
}

// ReadTemplate loads a single JSON or YAML template file.
func ReadTemplate(path string) (*bucketinfra.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}

	var raw any
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	// Round-trip through JSON so YAML and JSON templates compare equal.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", filepath.Base(path), err)
	}
	var template bucketinfra.Template
	if err := json.Unmarshal(normalized, &template); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &template, nil
}

// SortedTemplateNames returns the names of all templates, sorted.
func (asm *Assembly) SortedTemplateNames() []string {
	names := make([]string, 0, len(asm.Templates))
	for name := range asm.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
