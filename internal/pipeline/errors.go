package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a whole-operation failure. Per-page and per-chunk
// failures are absorbed into results and never surface as a Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocumentUnreadable
	KindExtractionFailed
	KindSummarizationUnavailable
	KindTranslationUnavailable
	KindInvalidParameters
)

func (k Kind) String() string {
	switch k {
	case KindDocumentUnreadable:
		return "document_unreadable"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindSummarizationUnavailable:
		return "summarization_unavailable"
	case KindTranslationUnavailable:
		return "translation_unavailable"
	case KindInvalidParameters:
		return "invalid_parameters"
	}
	return "internal_error"
}

// HTTPStatus maps the kind to the status code the server surface uses.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindDocumentUnreadable:
		return http.StatusUnprocessableEntity
	case KindInvalidParameters:
		return http.StatusBadRequest
	case KindSummarizationUnavailable, KindTranslationUnavailable:
		return http.StatusServiceUnavailable
	case KindExtractionFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Error is the single error type the pipeline returns to callers.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on kind sentinels created with newKindError.
func (e *Error) Is(target error) bool {
	var pe *Error
	if errors.As(target, &pe) {
		return pe.Kind == e.Kind && (pe.Msg == "" || pe.Msg == e.Msg)
	}
	return false
}

func DocumentUnreadable(msg string, cause error) *Error {
	return &Error{Kind: KindDocumentUnreadable, Msg: msg, cause: cause}
}

func ExtractionFailed(msg string, cause error) *Error {
	return &Error{Kind: KindExtractionFailed, Msg: msg, cause: cause}
}

func SummarizationUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindSummarizationUnavailable, Msg: msg, cause: cause}
}

func TranslationUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindTranslationUnavailable, Msg: msg, cause: cause}
}

func InvalidParameters(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParameters, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind from any error in the chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
