package ai

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
	ErrRateLimited         = errors.New("ai gateway rate limit exceeded")
	ErrPaymentRequired     = errors.New("ai gateway credits exhausted")
	ErrMissingAPIKey       = errors.New("ai gateway api key is not configured")
	ErrNoImage             = errors.New("no image provided")
)

// IsSoft reports whether err is a rate-limit or payment failure. Callers
// treat these as expected and fall back to cached or placeholder content.
func IsSoft(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrPaymentRequired)
}
