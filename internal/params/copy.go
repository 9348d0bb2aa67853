package params

// CopyValue returns a copy of v that shares no argument containers with it.
// []any, map[string]any, Params and Group values are copied recursively;
// every other value is returned as is.
func CopyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	case map[string]any:
		return CopyKwargs(t)
	case Group:
		out := make(Group, len(t))
		for k, e := range t {
			out[k] = CopyValue(e)
		}
		return out
	case Params:
		return Params{Args: CopyArgs(t.Args), Kwargs: CopyKwargs(t.Kwargs)}
	default:
		return v
	}
}

// CopyArgs deep-copies a positional argument list. A nil list stays nil.
func CopyArgs(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = CopyValue(v)
	}
	return out
}

// CopyKwargs deep-copies a keyword map. A nil map yields an empty, non-nil map.
func CopyKwargs(kw map[string]any) map[string]any {
	out := make(map[string]any, len(kw))
	for k, v := range kw {
		out[k] = CopyValue(v)
	}
	return out
}
