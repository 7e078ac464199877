package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/framegraph/internal/ctxlog"
	"github.com/vk/framegraph/internal/fsutil"
	"github.com/vk/framegraph/internal/graph"
	"github.com/vk/framegraph/internal/registry"
)

// Scene is a loaded graph plus the node a caller should watch.
type Scene struct {
	Graph *graph.Graph
	// Watch is the id of the node to observe, or empty.
	Watch string
}

// Loader turns HCL files into graphs. Function names in call blocks are
// resolved against its registry.
type Loader struct {
	funcs *registry.Registry
}

// NewLoader creates a loader resolving calls through funcs.
func NewLoader(funcs *registry.Registry) *Loader {
	return &Loader{funcs: funcs}
}

// Load reads every .hcl file found under the given files or directories and
// builds a single graph from them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Scene, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL graph loader started.", "path_count", len(paths))

	files, err := fsutil.Collect(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "files", files)

	parser := hclparse.NewParser()
	var root fileRoot
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := decodeInto(&root, hclFile); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}
	return l.build(ctx, &root)
}

// Parse builds a graph from a single in-memory source.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*Scene, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var root fileRoot
	if err := decodeInto(&root, hclFile); err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	return l.build(ctx, &root)
}

// decodeInto decodes one file and appends its blocks to root.
func decodeInto(root *fileRoot, file *hcl.File) error {
	var part fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &part); diags.HasErrors() {
		return diags
	}
	root.Graphs = append(root.Graphs, part.Graphs...)
	root.Values = append(root.Values, part.Values...)
	root.Refs = append(root.Refs, part.Refs...)
	root.Calls = append(root.Calls, part.Calls...)
	return nil
}

// build checks the decoded blocks and translates them into a graph.
func (l *Loader) build(ctx context.Context, root *fileRoot) (*Scene, error) {
	switch len(root.Graphs) {
	case 0:
		return nil, fmt.Errorf("missing graph block")
	case 1:
	default:
		ids := make([]string, len(root.Graphs))
		for i, gb := range root.Graphs {
			ids[i] = gb.ID
		}
		return nil, fmt.Errorf("expected exactly one graph block, found %d: %v", len(root.Graphs), ids)
	}
	gb := root.Graphs[0]

	g, err := graph.New(gb.ID)
	if err != nil {
		return nil, err
	}
	g.Out = gb.Out

	t := &translator{funcs: l.funcs, g: g, names: make(map[string]string)}
	if err := t.declare(root); err != nil {
		return nil, err
	}

	var result *multierror.Error
	for _, vb := range root.Values {
		result = multierror.Append(result, t.value(vb))
	}
	for _, rb := range root.Refs {
		result = multierror.Append(result, t.ref(rb))
	}
	for _, cb := range root.Calls {
		result = multierror.Append(result, t.call(cb))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("graph '%s': %w", g.ID, err)
	}

	if gb.Watch != "" {
		if _, ok := g.Node(gb.Watch); !ok {
			return nil, fmt.Errorf("graph '%s': watch '%s': %w", g.ID, gb.Watch, graph.ErrNodeNotFound)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("HCL graph loaded.", "graph", g.ID, "nodes", len(g.Nodes), "edges", len(g.Edges), "out", g.Out, "watch", gb.Watch)
	return &Scene{Graph: g, Watch: gb.Watch}, nil
}
