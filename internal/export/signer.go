package export

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing download token")
	ErrTokenExpired = errors.New("download token expired")
	ErrInvalidToken = errors.New("invalid download token")
)

// downloadSigner issues HMAC tokens bound to a job id and an expiry.
type downloadSigner struct {
	secret []byte
	ttl    time.Duration
}

func newDownloadSigner(secret []byte, ttl time.Duration) *downloadSigner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if len(secret) == 0 {
		secret = []byte(uuid.New().String())
	}
	return &downloadSigner{secret: secret, ttl: ttl}
}

func (s *downloadSigner) Sign(jobID uuid.UUID, now time.Time) string {
	payload := fmt.Sprintf("%s:%d", jobID, now.Add(s.ttl).Unix())
	raw := payload + ":" + hex.EncodeToString(s.mac(payload))
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (s *downloadSigner) Verify(jobID uuid.UUID, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 || parts[0] != jobID.String() {
		return ErrInvalidToken
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad expiry", ErrInvalidToken)
	}
	provided, err := hex.DecodeString(parts[2])
	if err != nil || !hmac.Equal(s.mac(parts[0]+":"+parts[1]), provided) {
		return ErrInvalidToken
	}
	if now.Unix() > expires {
		return ErrTokenExpired
	}
	return nil
}

func (s *downloadSigner) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return h.Sum(nil)
}
