package network

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/parser"
)

// Filter is a CUE boolean expression evaluated against the fields of one
// species or reaction.
type Filter struct {
	expr    string
	imports string
	ctx     *cue.Context
}

var builtinPackages = []string{"list", "math", "strings", "regexp"}

// CompileFilter prepares expr. Surrounding brackets, as in "[z <= 20]", are
// stripped. An empty expression matches everything.
func CompileFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}

	f := &Filter{expr: expr, ctx: cuecontext.New()}
	if expr == "" {
		return f, nil
	}

	var imports []string
	for _, pkg := range builtinPackages {
		if strings.Contains(expr, pkg+".") {
			imports = append(imports, fmt.Sprintf("import %q\n", pkg))
		}
	}
	f.imports = strings.Join(imports, "")

	// reference errors only surface on Match
	if _, err := parser.ParseExpr("filter", expr); err != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, err)
	}
	return f, nil
}

func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the expression with fields bound as top-level values.
func (f *Filter) Match(fields map[string]any) (bool, error) {
	if f.expr == "" {
		return true, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(f.imports)
	for _, k := range keys {
		lit, err := json.Marshal(fields[k])
		if err != nil {
			return false, fmt.Errorf("filter field %s: %w", k, err)
		}
		fmt.Fprintf(&b, "%s: %s\n", k, lit)
	}
	fmt.Fprintf(&b, "out: %s\n", f.expr)

	v := f.ctx.CompileString(b.String(), cue.Filename("filter"))
	if err := v.Err(); err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}
	out, err := v.LookupPath(cue.ParsePath("out")).Bool()
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}
	return out, nil
}
