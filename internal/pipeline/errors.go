package pipeline

import "fmt"

// Kind identifies which validation stage rejected the bundle. Every Kind is
// terminal: the run aborts at the first failure and nothing is retried.
type Kind int

const (
	KindUnsupportedPlatform Kind = iota
	KindMissingArtifact
	KindConversionFailed
	KindManifestSyntax
	KindInvalidIconFormat
	KindInvalidIconDimensions
	KindMissingScriptKey
	KindScriptFileMissing
	KindInvalidFilename
	KindInvalidExtension
	KindArchive
)

// String returns a short name for the failure kind.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindMissingArtifact:
		return "missing artifact"
	case KindConversionFailed:
		return "manifest conversion failed"
	case KindManifestSyntax:
		return "manifest syntax error"
	case KindInvalidIconFormat:
		return "invalid icon format"
	case KindInvalidIconDimensions:
		return "invalid icon dimensions"
	case KindMissingScriptKey:
		return "missing Script key"
	case KindScriptFileMissing:
		return "script file missing"
	case KindInvalidFilename:
		return "invalid script filename"
	case KindInvalidExtension:
		return "invalid script extension"
	case KindArchive:
		return "archive creation failed"
	default:
		return "unknown failure"
	}
}

// Error is the terminal failure of a pipeline run. The CLI layer translates
// it into an exit status and a single stderr line.
type Error struct {
	Kind   Kind
	Detail string
	Err    error // underlying tool error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the underlying tool error to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// failf builds a pipeline Error with a formatted detail message.
func failf(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, a...)}
}
