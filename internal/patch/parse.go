// Package patch implements the multi-file patch format: file sections headed
// by Add/Update/Delete markers, with Update hunks carried as SEARCH/REPLACE
// blocks. Changes are staged for every section before anything is written.
package patch

import (
	"strings"
)

// Kind is the file-level operation of one section.
type Kind int

const (
	KindAdd Kind = iota
	KindUpdate
	KindDelete
)

// Chunk is one SEARCH/REPLACE pair inside an Update section. An empty
// Search block means pure append.
type Chunk struct {
	Search  string
	Replace string
}

// Hunk is one parsed file section.
type Hunk struct {
	Kind       Kind
	Path       string
	MovePath   string
	Chunks     []Chunk
	NewContent string
}

const (
	markerBegin  = "*** Begin Patch"
	markerEnd    = "*** End Patch"
	markerAdd    = "*** Add File:"
	markerUpdate = "*** Update File:"
	markerDelete = "*** Delete File:"
	markerMove   = "*** Move to:"

	markerSearch  = "<<<<<<< SEARCH"
	markerDivide  = "======="
	markerReplace = ">>>>>>> REPLACE"
)

// parser state inside an Update section
type chunkState int

const (
	outsideChunk chunkState = iota
	inSearch
	inReplace
)

// Parse scans patch text into an ordered hunk list in a single pass.
func Parse(text string) ([]Hunk, error) {
	lines := splitLines(text)

	var hunks []Hunk
	var cur *Hunk
	state := outsideChunk
	var search, replace []string

	closeChunk := func() {
		cur.Chunks = append(cur.Chunks, Chunk{
			Search:  strings.Join(search, "\n"),
			Replace: strings.Join(replace, "\n"),
		})
		search, replace = nil, nil
		state = outsideChunk
	}
	closeSection := func() error {
		if cur == nil {
			return nil
		}
		if state != outsideChunk {
			return &ParseError{Line: 0, Msg: "unterminated SEARCH/REPLACE block in section for " + cur.Path}
		}
		hunks = append(hunks, *cur)
		cur = nil
		return nil
	}

	for i, line := range lines {
		switch {
		case line == markerBegin || line == markerEnd:
			continue

		case strings.HasPrefix(line, markerAdd):
			if err := closeSection(); err != nil {
				return nil, err
			}
			cur = &Hunk{Kind: KindAdd, Path: strings.TrimSpace(line[len(markerAdd):])}

		case strings.HasPrefix(line, markerUpdate):
			if err := closeSection(); err != nil {
				return nil, err
			}
			cur = &Hunk{Kind: KindUpdate, Path: strings.TrimSpace(line[len(markerUpdate):])}

		case strings.HasPrefix(line, markerDelete):
			if err := closeSection(); err != nil {
				return nil, err
			}
			cur = &Hunk{Kind: KindDelete, Path: strings.TrimSpace(line[len(markerDelete):])}

		case strings.HasPrefix(line, markerMove):
			if cur == nil || cur.Kind != KindUpdate {
				return nil, &ParseError{Line: i + 1, Msg: "Move to outside an Update section"}
			}
			cur.MovePath = strings.TrimSpace(line[len(markerMove):])

		case cur == nil:
			// prose between the envelope and the first section is tolerated

		case cur.Kind == KindAdd:
			cur.NewContent += strings.TrimPrefix(line, "+") + "\n"

		case cur.Kind == KindUpdate:
			switch {
			case line == markerSearch:
				if state != outsideChunk {
					return nil, &ParseError{Line: i + 1, Msg: "nested SEARCH marker"}
				}
				state = inSearch
			case line == markerDivide && state == inSearch:
				state = inReplace
			case line == markerReplace:
				if state != inReplace {
					return nil, &ParseError{Line: i + 1, Msg: "REPLACE marker without a preceding ======="}
				}
				closeChunk()
			case state == inSearch:
				search = append(search, line)
			case state == inReplace:
				replace = append(replace, line)
			}
		}
	}
	if err := closeSection(); err != nil {
		return nil, err
	}

	if len(hunks) == 0 {
		normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
		if normalized == "" || normalized == markerBegin+"\n"+markerEnd {
			return nil, ErrEmptyPatch
		}
		return nil, ErrNoHunks
	}
	return hunks, nil
}

// splitLines normalizes line endings and drops trailing empty lines so a
// patch ending in a newline does not grow a phantom content line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
