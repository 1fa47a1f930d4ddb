//go:build cgo

package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pydocket/internal/errors"
)

const widgets = `"""
description: Widgets and the things they do
"""

import os

LIMIT = 3  # how many


class Widget:
    """A widget"""

    @staticmethod
    def make(size):  # the size
        pass

    class Part:
        def fit(self):
            """Fits"""
            return 1


def helper(a):
    pass
`

func TestLookup(t *testing.T) {
	f, err := ParseString(context.Background(), "widgets", widgets)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	tests := []struct {
		path       string
		kind       Kind
		decorators []string
	}{
		{"", KindModule, nil},
		{"Widget", KindClass, nil},
		{"Widget.make", KindFunction, []string{"staticmethod"}},
		{"Widget.Part", KindClass, nil},
		{"Widget.Part.fit", KindFunction, nil},
		{"helper", KindFunction, nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := f.Lookup(tt.path)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.path, err)
			}
			if res.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", res.Kind, tt.kind)
			}
			if strings.Join(res.Decorators, ",") != strings.Join(tt.decorators, ",") {
				t.Errorf("Decorators = %v, want %v", res.Decorators, tt.decorators)
			}
			if tt.path != "" && res.Path != tt.path {
				t.Errorf("Path = %q, want %q", res.Path, tt.path)
			}
		})
	}
}

func TestLookup_Missing(t *testing.T) {
	f, err := ParseString(context.Background(), "widgets", widgets)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	for _, path := range []string{"Gadget", "Widget.nope", "helper.inner"} {
		if _, err := f.Lookup(path); !errors.Is(err, errors.SourceUnavailable) {
			t.Errorf("Lookup(%q) error = %v, want SOURCE_UNAVAILABLE", path, err)
		}
	}
}

func TestText_Dedents(t *testing.T) {
	f, err := ParseString(context.Background(), "widgets", widgets)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	res, err := f.Lookup("Widget.make")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	want := "@staticmethod\ndef make(size):  # the size\n    pass"
	if got := Text(res); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	// the dedented text must parse on its own
	if _, err := ParseString(context.Background(), "make", Text(res)); err != nil {
		t.Errorf("dedented text does not parse: %v", err)
	}
}

func TestDocstring(t *testing.T) {
	f, err := ParseString(context.Background(), "widgets", widgets)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if got := f.Docstring(f.Root); got != "description: Widgets and the things they do" {
		t.Errorf("module docstring = %q", got)
	}

	cls, _ := f.Lookup("Widget")
	if got := f.Docstring(Body(cls.Definition)); got != "A widget" {
		t.Errorf("class docstring = %q", got)
	}

	fn, _ := f.Lookup("helper")
	if got := f.Docstring(Body(fn.Definition)); got != "" {
		t.Errorf("helper docstring = %q, want empty", got)
	}
}

func TestComments(t *testing.T) {
	f, err := ParseString(context.Background(), "widgets", widgets)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	comments := Comments(f.Root)
	var texts []string
	for _, nodes := range comments {
		for _, n := range nodes {
			texts = append(texts, CommentText(f.Content(n)))
		}
	}
	if len(texts) != 2 {
		t.Fatalf("expected 2 comments, got %d: %v", len(texts), texts)
	}
	if got := comments[6]; len(got) != 1 || f.Content(got[0]) != "# how many" {
		t.Errorf("row 6 comments = %v", got)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseString(context.Background(), "broken", "def f(:\n    pass\n")
	if !errors.Is(err, errors.SourceUnavailable) {
		t.Fatalf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.py")
	if err := os.WriteFile(path, []byte("def area(r):\n    return r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Name != "shapes" {
		t.Errorf("Name = %q, want shapes", f.Name)
	}
	if f.Path != path {
		t.Errorf("Path = %q, want %q", f.Path, path)
	}

	if _, err := Load(context.Background(), filepath.Join(dir, "missing.py")); !errors.Is(err, errors.SourceUnavailable) {
		t.Errorf("Load(missing) error = %v, want SOURCE_UNAVAILABLE", err)
	}
}
