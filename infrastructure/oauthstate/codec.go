package oauthstate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"social-hub/domain/model"
)

// MaxAge is the validity window of an authorization round-trip.
const MaxAge = 300 * time.Second

// Codec encodes the signed, self-contained payload carried through an OAuth
// redirect. No server-side session is involved; everything the callback needs
// travels inside the state value.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// NewCodecWithClock is used by tests to control expiry.
func NewCodecWithClock(secret string, now func() time.Time) *Codec {
	return &Codec{secret: []byte(secret), now: now}
}

// Encode stamps and signs the state. The nonce keys the replay guard.
func (c *Codec) Encode(st model.OAuthState) (string, error) {
	if st.TimestampMs == 0 {
		st.TimestampMs = c.now().UnixMilli()
	}
	if st.Nonce == "" {
		b := make([]byte, 16)
		_, _ = rand.Read(b)
		st.Nonce = hex.EncodeToString(b)
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(payload), nil
}

// Decode verifies and parses a state value. Age is checked before the
// signature: a stale state is ErrExpiredState regardless of signature
// validity; anything malformed or tampered is ErrInvalidState.
func (c *Codec) Decode(raw string) (model.OAuthState, error) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 {
		return model.OAuthState{}, model.ErrInvalidState
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return model.OAuthState{}, model.ErrInvalidState
	}
	var st model.OAuthState
	if err := json.Unmarshal(payload, &st); err != nil {
		return model.OAuthState{}, model.ErrInvalidState
	}
	if c.now().UnixMilli()-st.TimestampMs > MaxAge.Milliseconds() {
		return model.OAuthState{}, model.ErrExpiredState
	}
	if !hmac.Equal([]byte(c.sign(payload)), []byte(parts[1])) {
		return model.OAuthState{}, model.ErrInvalidState
	}
	return st, nil
}

func (c *Codec) sign(payload []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
