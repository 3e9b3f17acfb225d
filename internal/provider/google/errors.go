package google

import (
	"errors"
	"fmt"

	ai "github.com/Holovkat/Auto-Claude"
	"google.golang.org/genai"
)

// wrapError categorizes a GenAI error so the retry layer can tell rate
// limits from bad requests. genai.APIError carries no headers, so there is
// no Retry-After to honor.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.Code
	msg := fmt.Sprintf("gemini: %s", apiErr.Message)
	switch categorizeStatusCode(code) {
	case ai.ErrorTransient:
		return ai.NewTransientError(msg, code, err)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

func categorizeStatusCode(code int) ai.ErrorCategory {
	switch {
	case code == 429, code >= 500 && code < 600:
		return ai.ErrorTransient
	case code == 400, code == 404, code == 422:
		return ai.ErrorUserInput
	default:
		return ai.ErrorPermanent
	}
}

// BlockedError reports a prompt rejected by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}
