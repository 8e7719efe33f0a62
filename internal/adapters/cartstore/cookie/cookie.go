// Package cookie persists the cart list in a single HMAC-signed browser
// cookie: the one named slot of durable client storage the shop uses. The
// payload is the JSON cart list, base64url encoded, prefixed by its
// signature. Anything unreadable (missing cookie, bad signature, bad JSON)
// is an empty cart, never an error the shopper sees.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andrifs/tokobolen/internal/domain"
)

const maxAge = 60 * 60 * 24 * 30

// Store binds the cart slot to one request/response pair.
type Store struct {
	w    http.ResponseWriter
	r    *http.Request
	name string
	key  []byte
}

func New(w http.ResponseWriter, r *http.Request, name string, key []byte) *Store {
	return &Store{w: w, r: r, name: name, key: key}
}

func (s *Store) Read() ([]domain.CartItem, error) {
	c, err := s.r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return nil, nil
	}
	sig, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		log.Warn().Str("cookie", s.name).Msg("cart signature mismatch, dropping")
		return nil, nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		log.Warn().Err(err).Str("cookie", s.name).Msg("cart payload unreadable, dropping")
		return nil, nil
	}
	return items, nil
}

func (s *Store) Write(items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	val := sig + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(s.w, &http.Cookie{Name: s.name, Value: val, Path: "/", MaxAge: maxAge, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return nil
}

func (s *Store) Clear() error {
	http.SetCookie(s.w, &http.Cookie{Name: s.name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return nil
}
