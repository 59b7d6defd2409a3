package sharing

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes gives 256 bits of randomness per token, well beyond the
// strength of a v4 UUID. The encoded form is 43 URL-safe characters and
// carries no information about the owner, the reports, or the issue time.
const tokenBytes = 32

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
