// Package uploads signs parameters for direct browser uploads to
// Cloudinary. The server never proxies file bytes; it hands the client a
// signature over the upload parameters and stores metadata afterwards.
package uploads

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"medivault/internal/config"
	"medivault/internal/models"
)

// Signer produces Cloudinary upload signatures.
type Signer struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

// NewSigner creates a signer from configuration.
func NewSigner(cfg *config.Config) *Signer {
	return &Signer{
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		folder:    cfg.CloudinaryUploadFolder,
	}
}

// Enabled reports whether Cloudinary credentials are configured.
func (s *Signer) Enabled() bool {
	return s.cloudName != "" && s.apiKey != "" && s.apiSecret != ""
}

// Sign returns signed parameters for an upload started at the given time.
func (s *Signer) Sign(now time.Time) models.UploadSignature {
	timestamp := now.Unix()
	params := map[string]string{
		"folder":    s.folder,
		"timestamp": fmt.Sprintf("%d", timestamp),
	}

	return models.UploadSignature{
		Timestamp: timestamp,
		Folder:    s.folder,
		Signature: signParams(params, s.apiSecret),
		APIKey:    s.apiKey,
		CloudName: s.cloudName,
	}
}

// signParams implements Cloudinary's signing scheme: parameters sorted by
// key, joined as key=value pairs with "&", the API secret appended, then
// SHA-1 hex.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
