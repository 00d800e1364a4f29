// Package expr evaluates the expressions embedded in schemas as "${...}".
//
// Expressions use HCL native syntax: attribute access (schema.properties),
// index access for keys that are not identifiers (node["$entities"]),
// arithmetic, conditionals, for expressions and function calls.
package expr

import (
	"errors"
	"fmt"
	"maps"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// ErrEmpty is returned when an expression evaluates to a falsy value: null,
// unknown, false, zero, "" or an empty collection.
var ErrEmpty = errors.New("expression has no value")

// Env holds the variables and functions available to expressions.
type Env struct {
	vars  map[string]cty.Value
	funcs map[string]function.Function
}

// NewEnv converts plain Go values (strings, numbers, bools, nil, []any,
// []string, map[string]any) into an evaluation environment.
func NewEnv(vars map[string]any) (*Env, error) {
	env := &Env{
		vars:  make(map[string]cty.Value, len(vars)),
		funcs: Functions(),
	}
	for name, v := range vars {
		cv, err := ToValue(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		env.vars[name] = cv
	}
	return env, nil
}

// With returns a copy of env with one variable replaced.
func (e *Env) With(name string, value any) (*Env, error) {
	cv, err := ToValue(value)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	vars := maps.Clone(e.vars)
	vars[name] = cv
	return &Env{vars: vars, funcs: e.funcs}, nil
}

// Evaluate parses and evaluates src. A falsy result is reported as ErrEmpty.
func (e *Env) Evaluate(src string) (any, error) {
	parsed, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: e.vars,
		Functions: e.funcs,
	}
	val, diags := parsed.Value(ctx)
	if diags.HasErrors() {
		return nil, errors.New(diags.Error())
	}

	if falsy(val) {
		return nil, ErrEmpty
	}
	return FromValue(val), nil
}

// Evaluate is a convenience for a single evaluation.
func Evaluate(src string, vars map[string]any) (any, error) {
	env, err := NewEnv(vars)
	if err != nil {
		return nil, err
	}
	return env.Evaluate(src)
}

func falsy(v cty.Value) bool {
	if !v.IsWhollyKnown() || v.IsNull() {
		return true
	}
	t := v.Type()
	switch {
	case t == cty.Bool:
		return v.False()
	case t == cty.String:
		return v.AsString() == ""
	case t == cty.Number:
		return v.AsBigFloat().Sign() == 0
	case t.IsObjectType():
		return len(t.AttributeTypes()) == 0
	case t.IsListType(), t.IsSetType(), t.IsMapType(), t.IsTupleType():
		return v.LengthInt() == 0
	}
	return false
}
