package paramfile

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/params"
)

const (
	tagParams = "!params"
	tagGroup  = "!group"
)

type yamlParams struct {
	Args   []any          `yaml:"args"`
	Kwargs map[string]any `yaml:"kwargs"`
}

// DecodeYAML decodes a YAML payload. Node entries carry the !params tag and
// group entries the !group tag; untagged entries are globals:
//
//	fudge: 10
//	a: !params
//	  args: [5]
//	  kwargs: {y: 10}
//	sub: !group
//	  c: !params
//	    kwargs: {fudge: 20}
//
// A !params sequence is shorthand for its positional arguments.
func DecodeYAML(ctx context.Context, src []byte) (params.Group, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding YAML parameters.", "bytes", len(src))

	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, errs.Wrap(errs.KindDecode, "decode yaml", "", err)
	}

	// An empty document has no content.
	if len(doc.Content) == 0 {
		return params.Group{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errs.Wrap(errs.KindDecode, "decode yaml", "", posErr(root, "top level must be a mapping"))
	}

	out, err := decodeYAMLGroup(root)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecode, "decode yaml", "", err)
	}

	logger.Debug("YAML parameters decoded.", "entries", len(out))
	return out, nil
}

func decodeYAMLGroup(m *yaml.Node) (params.Group, error) {
	out := make(params.Group, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, posErr(key, "keys must be scalars")
		}
		name := key.Value
		if _, dup := out[name]; dup {
			return nil, posErr(key, "duplicate entry %q", name)
		}

		v, err := decodeYAMLEntry(val)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func decodeYAMLEntry(n *yaml.Node) (any, error) {
	switch n.Tag {
	case tagParams:
		return decodeYAMLParams(n)
	case tagGroup:
		if isEmpty(n) {
			return params.Group{}, nil
		}
		if n.Kind != yaml.MappingNode {
			return nil, posErr(n, "%s value must be a mapping", tagGroup)
		}
		return decodeYAMLGroup(n)
	}

	if err := checkTags(n); err != nil {
		return nil, err
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeYAMLParams(n *yaml.Node) (params.Params, error) {
	p := params.P()
	if isEmpty(n) {
		return p, nil
	}

	body := *n
	body.Tag = ""
	if err := checkTags(&body); err != nil {
		return p, err
	}

	switch body.Kind {
	case yaml.SequenceNode:
		if err := body.Decode(&p.Args); err != nil {
			return p, err
		}
		return p, nil
	case yaml.MappingNode:
	default:
		return p, posErr(n, "%s value must be a mapping or a sequence", tagParams)
	}

	for i := 0; i < len(body.Content); i += 2 {
		if k := body.Content[i].Value; k != "args" && k != "kwargs" {
			return p, posErr(body.Content[i], "unknown %s field %q", tagParams, k)
		}
	}

	var raw yamlParams
	if err := body.Decode(&raw); err != nil {
		return p, err
	}
	if raw.Args != nil {
		p.Args = raw.Args
	}
	if raw.Kwargs != nil {
		p.Kwargs = raw.Kwargs
	}
	return p, nil
}

// checkTags rejects custom tags below n. Only the entry level may carry them.
func checkTags(n *yaml.Node) error {
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		return posErr(n, "unexpected tag %s", n.Tag)
	}
	for _, c := range n.Content {
		if err := checkTags(c); err != nil {
			return err
		}
	}
	return nil
}

func isEmpty(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && (n.Value == "" || n.Value == "~" || n.Value == "null")
}

func posErr(n *yaml.Node, format string, a ...any) error {
	return fmt.Errorf("line %d, column %d: %s", n.Line, n.Column, fmt.Sprintf(format, a...))
}
