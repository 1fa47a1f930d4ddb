package example

import (
	"fmt"
	"log/slog"
	"strings"

	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"pydocket/internal/slogutil"
)

// Example scripts rebind names and loop at top level.
func init() {
	resolve.AllowGlobalReassign = true
	resolve.AllowRecursion = true
	resolve.AllowSet = true
}

const filename = "<example>"

// Verifier runs example blocks in Starlark and compares their results with
// the documented values.
type Verifier struct {
	logger      *slog.Logger
	predeclared starlark.StringDict

	// OnBlock, when set, is called after every asserted block with the
	// outcome of the assertion.
	OnBlock func(comment string, b Block, err error)
}

// NewVerifier creates a Verifier. A nil logger discards output.
func NewVerifier(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Verifier{
		logger: logger,
		predeclared: starlark.StringDict{
			"json": starjson.Module,
			"math": starmath.Module,
			"time": startime.Module,
		},
	}
}

// Namespace returns a fresh, empty namespace for one block.
func (v *Verifier) Namespace() starlark.StringDict {
	return starlark.StringDict{}
}

func (v *Verifier) thread() *starlark.Thread {
	return &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			v.logger.Debug("example output", slog.String("text", msg))
		},
	}
}

func (v *Verifier) env(ns starlark.StringDict) starlark.StringDict {
	env := make(starlark.StringDict, len(v.predeclared)+len(ns))
	for k, val := range v.predeclared {
		env[k] = val
	}
	for k, val := range ns {
		env[k] = val
	}
	return env
}

// Exec runs a block and returns its value. For a valued block the final
// statement is held back: everything before it runs into ns, then the final
// expression (or the right-hand side of a final assignment) is evaluated on
// its own. An unvalued block runs whole and yields None.
func (v *Verifier) Exec(b Block, ns starlark.StringDict) (starlark.Value, error) {
	f, err := syntax.Parse(filename, b.Code, 0)
	if err != nil {
		return nil, newCodeError(err, b.Code)
	}

	stmts := f.Stmts
	var last syntax.Stmt
	if b.Valued() && len(stmts) > 0 {
		last = stmts[len(stmts)-1]
		stmts = stmts[:len(stmts)-1]
	}

	if len(stmts) > 0 {
		prefix := b.Code
		if last != nil {
			prefix = before(b.Code, last)
		}
		if err := v.run(prefix, ns); err != nil {
			return nil, newCodeError(err, prefix)
		}
	}

	if last == nil {
		return starlark.None, nil
	}

	expr := resultExpr(last)
	text := statementText(b.Code, last)
	if expr == nil {
		return nil, newCodeError(fmt.Errorf("%s: final statement is not an expression", filename), text)
	}
	actual, err := starlark.EvalExpr(v.thread(), expr, v.env(ns))
	if err != nil {
		return nil, newCodeError(err, text)
	}
	return actual, nil
}

// run executes src and copies the globals it binds into ns.
func (v *Verifier) run(src string, ns starlark.StringDict) error {
	env := v.env(ns)
	_, prog, err := starlark.SourceProgram(filename, src, env.Has)
	if err != nil {
		return err
	}
	globals, err := prog.Init(v.thread(), env)
	for k, val := range globals {
		ns[k] = val
	}
	return err
}

// Eval evaluates a block's documented value as an expression against ns.
func (v *Verifier) Eval(b Block, ns starlark.StringDict) (starlark.Value, error) {
	if !b.Valued() {
		return nil, newCodeError(fmt.Errorf("%s: block has no value", filename), "")
	}
	val, err := starlark.Eval(v.thread(), filename, *b.Value, v.env(ns))
	if err != nil {
		return nil, newCodeError(err, *b.Value)
	}
	return val, nil
}

// resultExpr returns the expression whose value a final statement produces.
func resultExpr(stmt syntax.Stmt) syntax.Expr {
	switch s := stmt.(type) {
	case *syntax.ExprStmt:
		return s.X
	case *syntax.AssignStmt:
		return s.RHS
	}
	return nil
}

// before returns the part of code that precedes stmt.
func before(code string, stmt syntax.Stmt) string {
	start, _ := stmt.Span()
	lines := strings.Split(code, "\n")
	idx := int(start.Line) - 1
	if idx < 0 {
		return ""
	}
	if idx >= len(lines) {
		return code
	}
	head := lines[:idx]
	if col := int(start.Col) - 1; col > 0 {
		head = append(head[:idx:idx], string([]rune(lines[idx])[:col]))
	}
	return strings.Join(head, "\n")
}

// statementText returns the source lines a statement spans.
func statementText(code string, stmt syntax.Stmt) string {
	start, end := stmt.Span()
	lines := strings.Split(code, "\n")
	from, to := int(start.Line)-1, int(end.Line)
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	if from >= to {
		return code
	}
	return strings.Join(lines[from:to], "\n")
}
