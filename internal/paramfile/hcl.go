// Package paramfile decodes parameter payloads written as HCL or YAML into
// the params.Group accepted by a runtime instance's Set.
//
// In both formats a plain entry is a global value, a node entry becomes a
// params.Params and a group entry nests another payload.
package paramfile

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/pipegraph/internal/ctxlog"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// hclNode is the body of a node block.
type hclNode struct {
	Args   cty.Value `hcl:"args,optional"`
	Kwargs cty.Value `hcl:"kwargs,optional"`
}

// DecodeHCL decodes an HCL payload:
//
//	fudge = 10
//
//	node "a" {
//	  args   = [5]
//	  kwargs = { y = 10 }
//	}
//
//	group "sub" {
//	  node "c" {
//	    kwargs = { fudge = 20 }
//	  }
//	}
//
// filename is only used in error messages.
func DecodeHCL(ctx context.Context, src []byte, filename string) (params.Group, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding HCL parameters.", "file", filename)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errs.Wrap(errs.KindDecode, "decode hcl", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errs.New(errs.KindDecode, "decode hcl", filename, "unexpected body type %T", file.Body)
	}

	out, err := decodeHCLBody(body)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecode, "decode hcl", filename, err)
	}

	logger.Debug("HCL parameters decoded.", "file", filename, "entries", len(out))
	return out, nil
}

// decodeHCLBody walks the syntax body directly: attributes are globals and
// blocks are dispatched by type.
func decodeHCLBody(body *hclsyntax.Body) (params.Group, error) {
	out := params.Group{}
	add := func(name string, v any, rng hcl.Range) error {
		if _, dup := out[name]; dup {
			return fmt.Errorf("%s: duplicate entry %q", rng, name)
		}
		out[name] = v
		return nil
	}

	for _, name := range params.SortedKeys(body.Attributes) {
		attr := body.Attributes[name]
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", attr.SrcRange, name, err)
		}
		if err := add(name, native, attr.SrcRange); err != nil {
			return nil, err
		}
	}

	for _, blk := range body.Blocks {
		if len(blk.Labels) != 1 {
			return nil, fmt.Errorf("%s: %s block needs exactly one label", blk.DefRange(), blk.Type)
		}
		name := blk.Labels[0]

		var v any
		switch blk.Type {
		case "node":
			var n hclNode
			if diags := gohcl.DecodeBody(blk.Body, nil, &n); diags.HasErrors() {
				return nil, diags
			}
			p, err := n.params()
			if err != nil {
				return nil, fmt.Errorf("%s: node %q: %w", blk.DefRange(), name, err)
			}
			v = p
		case "group":
			sub, err := decodeHCLBody(blk.Body)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", name, err)
			}
			v = sub
		default:
			return nil, fmt.Errorf("%s: unexpected %q block, want node or group", blk.DefRange(), blk.Type)
		}

		if err := add(name, v, blk.DefRange()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (n *hclNode) params() (params.Params, error) {
	p := params.P()

	if !n.Args.IsNull() {
		t := n.Args.Type()
		if !t.IsTupleType() && !t.IsListType() {
			return p, fmt.Errorf("args must be a list, got %s", t.FriendlyName())
		}
		args, err := ctyToNative(n.Args)
		if err != nil {
			return p, fmt.Errorf("args: %w", err)
		}
		p.Args = args.([]any)
	}

	if !n.Kwargs.IsNull() {
		t := n.Kwargs.Type()
		if !t.IsObjectType() && !t.IsMapType() {
			return p, fmt.Errorf("kwargs must be an object, got %s", t.FriendlyName())
		}
		kwargs, err := ctyToNative(n.Kwargs)
		if err != nil {
			return p, fmt.Errorf("kwargs: %w", err)
		}
		p.Kwargs = kwargs.(map[string]any)
	}
	return p, nil
}

// ctyToNative converts a cty value into plain Go values. Whole numbers
// become int and other numbers float64.
func ctyToNative(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	t := val.Type()
	switch {
	case t == cty.String:
		var s string
		err := gocty.FromCtyValue(val, &s)
		return s, err
	case t == cty.Bool:
		var b bool
		err := gocty.FromCtyValue(val, &b)
		return b, err
	case t == cty.Number:
		var i int
		if err := gocty.FromCtyValue(val, &i); err == nil {
			return i, nil
		}
		var f float64
		err := gocty.FromCtyValue(val, &f)
		return f, err
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case t.IsMapType() || t.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			v, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", t.FriendlyName())
	}
}
