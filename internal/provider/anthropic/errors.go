package anthropic

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/Holovkat/Auto-Claude"
)

// wrapError categorizes an SDK error. Claude's 529 overloaded status is
// treated like any other 5xx.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.StatusCode
	msg := fmt.Sprintf("anthropic: status %d", code)
	switch {
	case code == 429 || code >= 500:
		if d := retryAfter(apiErr.Response); d > 0 {
			return ai.NewTransientErrorWithRetry(msg, code, d, err)
		}
		return ai.NewTransientError(msg, code, err)
	case code == 400 || code == 404 || code == 413 || code == 422:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
