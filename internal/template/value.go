package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Value is an anchor field: either a plain number or an arithmetic formula
// over imgWidth and imgHeight, e.g. "imgWidth / 2 + 10".
type Value struct {
	num     float64
	formula string
	program *vm.Program
}

// Number returns a constant value.
func Number(n float64) Value {
	return Value{num: n}
}

// Formula compiles an expression over imgWidth and imgHeight.
func Formula(src string) (Value, error) {
	program, err := expr.Compile(src,
		expr.Env(formulaEnv(0, 0)),
		expr.AsFloat64(),
		expr.DisableAllBuiltins(),
		expr.EnableBuiltin("min"),
		expr.EnableBuiltin("max"),
		expr.EnableBuiltin("abs"),
		expr.EnableBuiltin("ceil"),
		expr.EnableBuiltin("floor"),
		expr.EnableBuiltin("round"),
	)
	if err != nil {
		return Value{}, fmt.Errorf("invalid formula %q: %w", src, err)
	}
	return Value{formula: src, program: program}, nil
}

func formulaEnv(imgWidth, imgHeight float64) map[string]any {
	return map[string]any{
		"imgWidth":  imgWidth,
		"imgHeight": imgHeight,
	}
}

// Eval resolves the value for an image of the given size.
func (v Value) Eval(imgWidth, imgHeight float64) (float64, error) {
	if v.program == nil {
		return v.num, nil
	}
	out, err := expr.Run(v.program, formulaEnv(imgWidth, imgHeight))
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %q: %w", v.formula, err)
	}
	n, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("formula %q returned %T", v.formula, out)
	}
	return n, nil
}

func (v Value) String() string {
	if v.program != nil {
		return v.formula
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var src string
		if err := json.Unmarshal(data, &src); err != nil {
			return err
		}
		parsed, err := Formula(src)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("anchor value must be a number or a formula: %w", err)
	}
	*v = Number(n)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.program != nil {
		return json.Marshal(v.formula)
	}
	return json.Marshal(v.num)
}
