package chessdto

// Error codes carried by DomainError.
const (
	CodeBadRequest        = "bad_request"
	CodeSessionNotFound   = "session_not_found"
	CodeGameNotFound      = "game_not_found"
	CodeInvalidSquare     = "invalid_square"
	CodeInvalidPiece      = "invalid_piece"
	CodeUnknownDifficulty = "unknown_difficulty"
	CodeUnknownCastling   = "unknown_castling"
	CodeUnavailable       = "unavailable"
	CodeInternal          = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error DomainError `json:"error"`
}
