// Package manifest loads pipeline definitions from YAML files and builds
// them into runnable trees.
//
// A manifest names a root node under "pipeline". Each node is a mapping
// whose kind key ("task", "sequence" or "selector") carries the node id:
//
//	name: android-debug
//	order: dfs
//	rollback: backtrace
//	pipeline:
//	  sequence: debug
//	  children:
//	    - selector: preprocess
//	      select: false
//	      children:
//	        - task: touch-drawables
//	          run: touch res/drawable
//	    - task: assemble
//	      run: [./gradlew, ":app:assembleDebug"]
//	      stream: true
//	      undo: ./gradlew clean
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/traverse"
)

// Manifest is a parsed pipeline definition.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Order       string `yaml:"order"`
	Rollback    string `yaml:"rollback"`
	Pipeline    Node   `yaml:"pipeline"`

	Source string `yaml:"-"` // file the manifest was read from
}

// Node is one pipeline node as written in the manifest.
type Node struct {
	Kind     pipeline.Kind `yaml:"-"`
	ID       string        `yaml:"-"`
	Line     int           `yaml:"-"`
	Run      Command       `yaml:"run"`
	Dir      string        `yaml:"dir"`
	Stream   bool          `yaml:"stream"`
	Undo     Command       `yaml:"undo"`
	Select   *yaml.Node    `yaml:"select"`
	Children []Node        `yaml:"children"`
}

// UnmarshalYAML decodes the node and picks its kind and id from whichever
// kind key is present.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type plain Node
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.Line = value.Line
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		switch pipeline.Kind(key) {
		case pipeline.KindTask, pipeline.KindSequence, pipeline.KindSelector:
			n.Kind = pipeline.Kind(key)
			if val.Tag != "!!null" {
				n.ID = val.Value
			}
		}
	}
	return nil
}

// Command is an argv written either as a list or as a single
// whitespace-separated string.
type Command []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*c = strings.Fields(value.Value)
		return nil
	}
	var argv []string
	if err := value.Decode(&argv); err != nil {
		return err
	}
	*c = argv
	return nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data, path)
}

// Parse validates data against the manifest schema and decodes it. Any
// problem with the document is reported as a *pipeline.StructuralError.
func Parse(data []byte, source string) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, structural(source, fmt.Errorf("parsing YAML: %w", err))
	}
	if err := validateSchema(doc); err != nil {
		return nil, structural(source, err)
	}

	m := &Manifest{Source: source}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, structural(source, fmt.Errorf("decoding manifest: %w", err))
	}
	return m, nil
}

func structural(source string, err error) error {
	if source != "" {
		err = fmt.Errorf("%s: %w", source, err)
	}
	return &pipeline.StructuralError{Err: err}
}

// Settings returns the traversal order and rollback mode the manifest asks
// for. Unset values come back as the defaults.
func (m *Manifest) Settings() (traverse.Order, traverse.RollbackMode, error) {
	order, err := traverse.ParseOrder(m.Order)
	if err != nil {
		return 0, 0, structural(m.Source, err)
	}
	mode, err := traverse.ParseRollbackMode(m.Rollback)
	if err != nil {
		return 0, 0, structural(m.Source, err)
	}
	return order, mode, nil
}

// Build constructs the runnable tree. Every problem found is reported
// together in a *pipeline.StructuralError.
func (m *Manifest) Build() (pipeline.Runnable, error) {
	b := &builder{}
	root := b.build(&m.Pipeline, "pipeline")
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, structural(m.Source, err)
	}
	return root, nil
}

type builder struct {
	errs *multierror.Error
}

func (b *builder) fail(n *Node, path, format string, args ...any) {
	err := fmt.Errorf(format, args...)
	b.errs = multierror.Append(b.errs, fmt.Errorf("line %d: %s: %w", n.Line, path, err))
}

func (b *builder) build(n *Node, path string) pipeline.Runnable {
	if n.ID != "" {
		path = fmt.Sprintf("%s(%s)", path, n.ID)
	}
	children := make([]pipeline.Runnable, 0, len(n.Children))
	for i := range n.Children {
		if c := b.build(&n.Children[i], fmt.Sprintf("%s/%d", path, i)); c != nil {
			children = append(children, c)
		}
	}

	switch n.Kind {
	case pipeline.KindTask:
		if len(n.Run) == 0 {
			b.fail(n, path, "task has no command")
			return nil
		}
		if len(n.Children) > 0 {
			b.fail(n, path, "task cannot have children")
		}
		t := pipeline.NewShellTask(n.Run...).InDir(n.Dir)
		if n.ID != "" {
			t.WithID(n.ID)
		}
		if n.Stream {
			t.Streaming()
		}
		if len(n.Undo) > 0 {
			t.WithUndoCommand(n.Undo...)
		}
		return t
	case pipeline.KindSequence:
		return pipeline.NewSequence(children...).WithID(n.ID)
	case pipeline.KindSelector:
		sel, err := selection(n.Select)
		if err != nil {
			b.fail(n, path, "%v", err)
			return nil
		}
		return pipeline.NewSelector(sel, children...).WithID(n.ID)
	}
	b.fail(n, path, "node needs one of task, sequence or selector")
	return nil
}

// selection converts the select value: a bool, an int, or a list of ints.
func selection(v *yaml.Node) (pipeline.Selection, error) {
	if v == nil {
		return pipeline.Selection{}, fmt.Errorf("selector has no select value")
	}
	switch {
	case v.Kind == yaml.ScalarNode && v.Tag == "!!bool":
		var b bool
		if err := v.Decode(&b); err != nil {
			return pipeline.Selection{}, err
		}
		return pipeline.Bool(b), nil
	case v.Kind == yaml.ScalarNode && v.Tag == "!!int":
		var i int
		if err := v.Decode(&i); err != nil {
			return pipeline.Selection{}, err
		}
		return pipeline.Index(i), nil
	case v.Kind == yaml.SequenceNode:
		is := make([]int, 0, len(v.Content))
		for _, item := range v.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!int" {
				return pipeline.Selection{}, fmt.Errorf("select list must contain only integers, got %q", item.Value)
			}
			var i int
			if err := item.Decode(&i); err != nil {
				return pipeline.Selection{}, err
			}
			is = append(is, i)
		}
		return pipeline.Indices(is...), nil
	}
	return pipeline.Selection{}, fmt.Errorf("select must be a bool, an integer or a list of integers, got %q", v.Value)
}
