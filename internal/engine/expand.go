package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/wren/internal/expr"
	"github.com/simonhull/firebird-suite/wren/internal/schema"
)

// Expand returns a copy of node with every "${expr}" string replaced by
// the value of expr. The input tree is not modified.
//
// propertyPath is the dotted property the node belongs to. Keys of an
// object reached through "properties" extend it, and expressions below
// them see the extended path as the variable property.
//
// With strict unset, expressions that fail or have no value are left as
// written and no errors are returned; a later strict pass reports them.
func Expand(node any, env *expr.Env, propertyPath string, inProperties, strict bool) (any, []error) {
	var errs []error
	out := expand(node, env, propertyPath, inProperties, strict, &errs)
	return out, errs
}

func expand(node any, env *expr.Env, propertyPath string, inProperties, strict bool, errs *[]error) any {
	switch n := node.(type) {
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = expand(item, env, propertyPath, false, strict, errs)
		}
		return out

	case *schema.Object:
		out := schema.NewObject()
		for pair := n.Oldest(); pair != nil; pair = pair.Next() {
			childPath, childEnv := propertyPath, env
			if inProperties {
				childPath = pair.Key
				if propertyPath != "" {
					childPath = propertyPath + "." + pair.Key
				}
				scoped, err := env.With("property", childPath)
				if err != nil {
					*errs = append(*errs, fmt.Errorf("%s: %w", childPath, err))
				} else {
					childEnv = scoped
				}
			}
			out.Set(pair.Key, expand(pair.Value, childEnv, childPath, pair.Key == "properties", strict, errs))
		}
		return out

	case string:
		if !strings.HasPrefix(n, "${") || !strings.HasSuffix(n, "}") || len(n) < 3 {
			return n
		}
		val, err := env.Evaluate(n[2 : len(n)-1])
		if err == nil {
			return schema.FromPlain(val)
		}
		if strict {
			*errs = append(*errs, expansionError(propertyPath, n, err))
		}
		return n

	default:
		return n
	}
}

func expansionError(propertyPath, src string, err error) error {
	where := propertyPath
	if where == "" {
		where = "schema"
	}
	if errors.Is(err, expr.ErrEmpty) {
		return fmt.Errorf("%s: %s: %w", where, src, err)
	}
	return fmt.Errorf("%s: %s: evaluation failed: %w", where, src, err)
}
