package chi

import (
	"github.com/kailas-cloud/videoseek/internal/domain"
	playbackuc "github.com/kailas-cloud/videoseek/internal/usecase/playback"
)

// ErrorCode identifies an error category in API responses.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeIndexUnavailable ErrorCode = "index_unavailable"
	CodeDocumentNotFound ErrorCode = "document_not_found"
	CodeNotInResults     ErrorCode = "not_in_results"
	CodeNoSelection      ErrorCode = "no_selection"
	CodeSigningFailed    ErrorCode = "signing_failed"
	CodeBadTimecode      ErrorCode = "bad_timecode"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the error body shape for all endpoints.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type searchResponse struct {
	Results []domain.Match `json:"results"`
	Total   int            `json:"total"`
}

type selectRequest struct {
	DocumentID string `json:"documentId"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type resultsResponse struct {
	Mode     domain.Mode       `json:"mode"`
	Results  []domain.Match    `json:"results"`
	Total    int               `json:"total"`
	Selected *domain.Selection `json:"selected,omitempty"`
}

type playbackResponse = playbackuc.Playback
