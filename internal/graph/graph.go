// Package graph generates DOT and Mermaid dependency graphs of a synthesized assembly.
package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	bucketinfra "github.com/pankbase/bucket-infra"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/serialize"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from synthesized templates.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByStack groups resources by the stack declaring them.
	ClusterByStack bool

	// Stacks limits the graph to the named stacks. Empty means all.
	Stacks []string
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(asm *app.Assembly, w io.Writer) error {
	graph := g.buildGraph(asm)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(asm *app.Assembly) (string, error) {
	var sb strings.Builder
	if err := g.Generate(asm, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Edge is a dependency from one resource node to another, possibly across stacks.
type Edge struct {
	From, To string
	// GetAtt marks a reference through Fn::GetAtt.
	GetAtt bool
	// Imported marks a reference through Fn::ImportValue.
	Imported bool
}

// buildGraph creates the dot.Graph structure from the assembly's templates.
func (g *Generator) buildGraph(asm *app.Assembly) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	// Set default node style
	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	// Set default edge style
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	stacks := g.selected(asm)
	nodes := make(map[string]dot.Node)

	for i, stackName := range stacks {
		template := asm.Templates[stackName]
		parent := graph
		if g.ClusterByStack {
			// Subgraphs are written sorted by name; the index keeps deployment order.
			parent = graph.Subgraph(fmt.Sprintf("cluster_%03d_%s", i, stackName), dot.ClusterOption{})
			parent.Attr("label", stackName)
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}
		for _, id := range sortedKeys(template.Resources) {
			key := NodeID(stackName, id)
			n := parent.Node(key)
			n.Label(id + "\\n[" + template.Resources[id].Type + "]")
			if template.Resources[id].Retained() {
				n.Attr("style", "bold")
			}
			nodes[key] = n
		}
	}

	for _, e := range Edges(asm) {
		from, ok := nodes[e.From]
		if !ok {
			continue
		}
		to, ok := nodes[e.To]
		if !ok {
			continue
		}
		de := graph.Edge(from, to)
		switch {
		case e.Imported:
			de.Attr("style", "dashed")
			de.Attr("color", "red")
		case e.GetAtt:
			de.Attr("color", "blue")
		}
	}

	return graph
}

func (g *Generator) selected(asm *app.Assembly) []string {
	if len(g.Stacks) == 0 {
		return asm.StackNames()
	}
	want := make(map[string]bool, len(g.Stacks))
	for _, s := range g.Stacks {
		want[s] = true
	}
	var names []string
	for _, name := range asm.StackNames() {
		if want[name] {
			names = append(names, name)
		}
	}
	return names
}

// NodeID names a resource node. Mermaid rejects "/" and ":" in identifiers.
func NodeID(stackName, logicalID string) string {
	return stackName + "_" + logicalID
}

// Edges returns every resource-to-resource dependency in the assembly, sorted.
// Imports are resolved through the producing stack's exports.
func Edges(asm *app.Assembly) []Edge {
	exports := make(map[string]string) // export name → producer node
	for _, stackName := range asm.StackNames() {
		for _, out := range asm.Templates[stackName].Outputs {
			if out.Export == nil {
				continue
			}
			refs := serialize.References(out.Value)
			if len(refs) == 1 {
				exports[out.Export.Name] = NodeID(stackName, refs[0])
			}
		}
	}

	var edges []Edge
	for _, stackName := range asm.StackNames() {
		template := asm.Templates[stackName]
		for _, id := range sortedKeys(template.Resources) {
			r := template.Resources[id]
			from := NodeID(stackName, id)
			getAtts := getAttTargets(r.Properties)

			seen := make(map[string]bool)
			for _, dep := range append(serialize.References(r.Properties), r.DependsOn...) {
				if seen[dep] {
					continue
				}
				seen[dep] = true
				edges = append(edges, Edge{From: from, To: NodeID(stackName, dep), GetAtt: getAtts[dep]})
			}
			for _, name := range serialize.Imports(r.Properties) {
				if to, ok := exports[name]; ok {
					edges = append(edges, Edge{From: from, To: to, Imported: true})
				}
			}
		}
	}
	return edges
}

// getAttTargets returns the logical IDs referenced through Fn::GetAtt.
func getAttTargets(v any) map[string]bool {
	targets := make(map[string]bool)
	var walk func(any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if getAtt, ok := val["Fn::GetAtt"].([]any); ok && len(getAtt) == 2 {
				if name, ok := getAtt[0].(string); ok {
					targets[name] = true
				}
				return
			}
			for _, nested := range val {
				walk(nested)
			}
		case []any:
			for _, nested := range val {
				walk(nested)
			}
		}
	}
	walk(v)
	return targets
}

func sortedKeys(resources map[string]bucketinfra.ResourceDef) []string {
	keys := make([]string, 0, len(resources))
	for k := range resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
