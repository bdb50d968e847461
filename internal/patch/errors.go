package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPatch indicates a patch with no sections at all.
	ErrEmptyPatch = errors.New("patch rejected: empty patch")

	// ErrNoHunks indicates non-trivial input that yielded no sections.
	ErrNoHunks = errors.New("patch verification failed: no hunks found")
)

// ParseError reports a structural problem in the patch text.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("patch parse error at line %d: %s", e.Line, e.Msg)
	}
	return "patch parse error: " + e.Msg
}

// MismatchError reports a SEARCH block that does not appear in the current
// file content, with enough context for the caller to self-correct.
type MismatchError struct {
	Path   string
	Search string
}

func (e *MismatchError) Error() string {
	excerpt := e.Search
	if len(excerpt) > 120 {
		excerpt = excerpt[:120] + "..."
	}
	return fmt.Sprintf("SEARCH block mismatch in %s: %q not found in current content", e.Path, excerpt)
}
