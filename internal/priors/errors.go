package priors

import "fmt"

// BlockErrorCode categorizes machine block failures.
type BlockErrorCode string

const (
	// ErrCodeMissingBlock indicates the section or its json fence is absent.
	ErrCodeMissingBlock BlockErrorCode = "MISSING_BLOCK"

	// ErrCodeEmptyBlock indicates the json fence has no content.
	ErrCodeEmptyBlock BlockErrorCode = "EMPTY_BLOCK"

	// ErrCodeParseError indicates malformed JSON or a non-array payload.
	ErrCodeParseError BlockErrorCode = "PARSE_ERROR"
)

// BlockError is returned when the machine block cannot be located or decoded.
// Match categories with errors.Is against ErrMissingBlock, ErrEmptyBlock and
// ErrParse.
type BlockError struct {
	Code    BlockErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is matching. Only Code is compared.
var (
	ErrMissingBlock = &BlockError{Code: ErrCodeMissingBlock}
	ErrEmptyBlock   = &BlockError{Code: ErrCodeEmptyBlock}
	ErrParse        = &BlockError{Code: ErrCodeParseError}
)

func (e *BlockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a BlockError with the same code.
func (e *BlockError) Is(target error) bool {
	t, ok := target.(*BlockError)
	return ok && t.Code == e.Code
}
