package example

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.starlark.net/starlark"

	"pydocket/internal/errors"
)

// CodeError reports example code that failed to parse, run or evaluate. Its
// message carries the interpreter's trace followed by the numbered code.
type CodeError struct {
	Code  string
	Trace string
	cause error
}

func newCodeError(cause error, code string) *CodeError {
	trace := cause.Error()
	if ee, ok := cause.(*starlark.EvalError); ok {
		trace = ee.Backtrace()
	}
	return &CodeError{Code: code, Trace: trace, cause: cause}
}

func (e *CodeError) Error() string {
	if e.Code == "" {
		return e.Trace
	}
	return e.Trace + "\n" + Listing(e.Code)
}

// Unwrap exposes the EXAMPLE_CODE classification and the interpreter error.
func (e *CodeError) Unwrap() []error {
	return []error{errors.New(errors.ExampleCode, "example code failed", nil), e.cause}
}

// Listing numbers the lines of code from 1.
func Listing(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = fmt.Sprintf("%d: %s", i+1, line)
	}
	return strings.Join(lines, "\n")
}

// MismatchError reports an example whose result differs from its
// documented value. Correction is ready to paste back under the example.
type MismatchError struct {
	Comment    string
	Expected   starlark.Value
	Actual     starlark.Value
	Correction string
	Diff       string
}

func newMismatch(comment string, expected, actual starlark.Value, evaluate bool) *MismatchError {
	m := &MismatchError{
		Comment:    comment,
		Expected:   expected,
		Actual:     actual,
		Correction: Correction(comment, CorrectValue(actual, evaluate)),
	}
	want, got := display(expected), display(actual)
	if strings.Contains(want, "\n") || strings.Contains(got, "\n") {
		m.Diff, _ = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(got),
			FromFile: "expected",
			ToFile:   "actual",
			Context:  3,
		})
	}
	return m
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%s != %s : %s", e.Expected, e.Actual, e.Correction)
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

func (e *MismatchError) Unwrap() error {
	return errors.New(errors.AssertionMismatch, "example value mismatch", nil)
}

// Correction renders value as comment lines under a "Correct value:" banner,
// preceded by the breadcrumb when there is one.
func Correction(comment, value string) string {
	var lines []string
	if comment != "" {
		lines = append(lines, comment)
	}
	lines = append(lines, "Correct value:")
	for _, line := range strings.Split(value, "\n") {
		lines = append(lines, Marker+" "+line)
	}
	return strings.ReplaceAll(strings.Join(lines, "\n"), `\`, `\\`)
}

// CorrectValue renders an actual value the way it should be documented:
// booleans as True or False, strings verbatim when values are literal text,
// and everything else as indented JSON with sorted keys.
func CorrectValue(actual starlark.Value, evaluate bool) string {
	switch a := actual.(type) {
	case starlark.Bool:
		if a {
			return "True"
		}
		return "False"
	case starlark.String:
		if !evaluate {
			return string(a)
		}
	}
	return Dump(actual)
}

// Dump renders a value as JSON indented by four spaces. Values JSON cannot
// represent appear as their Starlark string form.
func Dump(v starlark.Value) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(toGo(v)); err != nil {
		return v.String()
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func display(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return Dump(v)
}

// toGo converts a Starlark value to plain Go data for encoding.
func toGo(v starlark.Value) any {
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(x)
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i
		}
		return json.Number(x.String())
	case starlark.Float:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1e16 {
			return json.Number(strconv.FormatFloat(f, 'f', 1, 64))
		}
		return f
	case starlark.String:
		return string(x)
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			out[key] = toGo(item[1])
		}
		return out
	case starlark.Iterable:
		if _, ok := x.(starlark.Indexable); !ok {
			if _, ok := x.(*starlark.Set); !ok {
				return x.String()
			}
		}
		var out []any
		iter := x.Iterate()
		defer iter.Done()
		var item starlark.Value
		for iter.Next(&item) {
			out = append(out, toGo(item))
		}
		if _, ok := x.(*starlark.Set); ok {
			sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
		}
		if out == nil {
			out = []any{}
		}
		return out
	default:
		return x.String()
	}
}
