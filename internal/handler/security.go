package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-Api-Key"

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API
// keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate wraps next with API key authentication: it computes the
// HMAC-SHA256 of the presented key, looks it up in the repository, and
// performs a constant-time comparison to prevent timing attacks.
func (s *SecurityHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// The returned row is re-verified in constant time. The lookup is
		// not trusted to compare exactly: a repository backed by a
		// case-insensitive collation, or a loose test double, may return a
		// row whose hash does not match byte for byte.
		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := zctx.With(r.Context(), zap.String("api_key_name", info.Name))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
