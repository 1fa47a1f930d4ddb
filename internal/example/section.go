// Package example extracts runnable usage examples from documentation text
// and verifies them against the values documented next to them.
package example

import (
	"strings"
	"unicode"
)

// Marker starts an expected-value line inside example code.
const Marker = "#"

// Block is one unit of example code. Code holds every line up to this
// block's value run, so running a later block repeats the earlier ones.
type Block struct {
	Code  string
	Value *string
}

// NewBlock builds a block from code and value lines. No value lines means
// the block is unvalued.
func NewBlock(code, value []string) Block {
	b := Block{Code: strings.Join(code, "\n")}
	if len(value) > 0 {
		v := strings.Join(value, "\n")
		b.Value = &v
	}
	return b
}

// Valued reports whether the block documents an expected value.
func (b Block) Valued() bool { return b.Value != nil }

// Section is the ordered blocks of one usage passage.
type Section struct {
	Code   string
	Blocks []Block
}

// NewSection extracts the code regions of text and chunks them.
func NewSection(text string) *Section {
	code := Parse(text)
	return &Section{Code: code, Blocks: Chunk(code)}
}

// IsPassage reports whether a documentation string may hold examples: it
// spans several lines and contains a literal block marker.
func IsPassage(text string) bool {
	return strings.Contains(text, "\n") && strings.Contains(text, "::")
}

// Parse collects the literal blocks of a reStructuredText passage into one
// script. A block opens after an unindented line ending in "::" that is not
// a directive such as ".. note::". Its first non-blank line sets the indent;
// following lines with that indent are kept with it removed, blank lines are
// kept empty, and the first line without it closes the block.
func Parse(text string) string {
	var lines []string
	var indent string
	open := false

	for _, line := range strings.Split(text, "\n") {
		if opensRegion(line) {
			open, indent = true, ""
			continue
		}
		if !open {
			continue
		}
		if strings.TrimSpace(line) == "" {
			if indent != "" {
				lines = append(lines, "")
			}
			continue
		}
		if indent == "" {
			indent = leadingSpace(line)
			if indent == "" {
				open = false
				continue
			}
		}
		if !strings.HasPrefix(line, indent) {
			open, indent = false, ""
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, indent))
	}
	return strings.Join(lines, "\n")
}

func opensRegion(line string) bool {
	if !strings.HasSuffix(line, "::") || line == "" || unicode.IsSpace(rune(line[0])) {
		return false
	}
	return !strings.HasPrefix(line, "..")
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
}

type chunkState int

const (
	inBlock chunkState = iota
	inBlank
	inValue
)

// Chunk splits a script into blocks. A run of comment lines after code is
// the value of everything before it; the marker and the character after it
// are removed from value lines. Code after the last value run becomes a
// final unvalued block.
func Chunk(code string) []Block {
	var blocks []Block
	var lines, value []string
	state := inBlock
	pending := false

	for _, line := range strings.Split(code, "\n") {
		blank := strings.TrimSpace(line) == ""

		if state == inBlank && !blank {
			state = inBlock
		}
		switch state {
		case inBlock:
			if strings.HasPrefix(line, Marker) {
				state = inValue
			} else if blank {
				state = inBlank
			}
		case inValue:
			if !strings.HasPrefix(line, Marker) {
				blocks = append(blocks, NewBlock(lines, value))
				value = nil
				pending = false
				state = inBlock
				if blank {
					state = inBlank
				}
			}
		}

		if state == inValue {
			value = append(value, valueLine(line))
			continue
		}
		lines = append(lines, line)
		if !blank {
			pending = true
		}
	}

	if len(value) > 0 || pending {
		blocks = append(blocks, NewBlock(trimTrailingBlank(lines), value))
	}
	return blocks
}

func valueLine(line string) string {
	rest := strings.TrimPrefix(line, Marker)
	if len(rest) > 0 {
		rest = rest[1:]
	}
	return rest
}

func trimTrailingBlank(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}
