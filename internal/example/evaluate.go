package example

import "pydocket/internal/errors"

// Evaluator decides, per assertion, whether a block's documented value is
// code to evaluate (true) or literal text (false). comment is the breadcrumb
// path of the passage being verified.
type Evaluator interface {
	Evaluate(comment string) (bool, error)
}

// Always answers the same for every assertion.
type Always bool

func (a Always) Evaluate(string) (bool, error) { return bool(a), nil }

// Sequence answers from a list, one entry per assertion.
type Sequence struct {
	answers []bool
}

// NewSequence creates a Sequence over answers.
func NewSequence(answers ...bool) *Sequence {
	return &Sequence{answers: append([]bool(nil), answers...)}
}

func (s *Sequence) Evaluate(comment string) (bool, error) {
	if len(s.answers) == 0 {
		return false, errors.Newf(errors.InternalError, "no evaluate answer left for %s", comment)
	}
	next := s.answers[0]
	s.answers = s.answers[1:]
	return next, nil
}

// Remaining reports how many answers have not been used.
func (s *Sequence) Remaining() int { return len(s.answers) }

// ByComment picks an evaluator by breadcrumb path. Paths without an entry
// use Default, or evaluate when Default is nil.
type ByComment struct {
	Paths   map[string]Evaluator
	Default Evaluator
}

func (b ByComment) Evaluate(comment string) (bool, error) {
	if ev, ok := b.Paths[comment]; ok {
		return ev.Evaluate(comment)
	}
	if b.Default != nil {
		return b.Default.Evaluate(comment)
	}
	return true, nil
}

// Overrides builds the evaluator configured for a run: base everywhere
// except the listed comment paths.
func Overrides(base bool, paths map[string]bool) Evaluator {
	if len(paths) == 0 {
		return Always(base)
	}
	out := ByComment{Paths: make(map[string]Evaluator, len(paths)), Default: Always(base)}
	for path, v := range paths {
		out.Paths[path] = Always(v)
	}
	return out
}
