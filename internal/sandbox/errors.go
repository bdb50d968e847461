package sandbox

import "fmt"

// Violation reasons. These are contract strings: callers match on them and
// they surface verbatim in tool results.
const (
	ReasonPathEscape   = "path escape"
	ReasonReadOnlyPool = "read-only pool"
	ReasonUnknownPool  = "unknown pool alias"
)

// SecurityViolation is returned when a path resolution breaks containment
// or write policy. It is always fatal to the tool call that raised it.
type SecurityViolation struct {
	Reason string
	Path   string
}

func (e *SecurityViolation) Error() string {
	return fmt.Sprintf("access denied: %s (%s)", e.Reason, e.Path)
}

// IsSecurityViolation reports whether err is a SecurityViolation.
func IsSecurityViolation(err error) bool {
	_, ok := err.(*SecurityViolation)
	return ok
}
