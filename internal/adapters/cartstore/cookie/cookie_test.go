package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andrifs/tokobolen/internal/domain"
)

var testKey = []byte("test-session-key")

func writeThenReissue(t *testing.T, items []domain.CartItem) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/cart", nil)
	if err := New(w, r, "bolen_cart_v1", testKey).Write(items); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestRoundTrip(t *testing.T) {
	items := []domain.CartItem{
		{Key: "bolen-keju::Large", ProductID: "bolen-keju", Variant: "Large", Qty: 3},
		{Key: "es-campur::", ProductID: "es-campur", Qty: 1},
	}
	c := writeThenReissue(t, items)

	r := httptest.NewRequest("GET", "/cart", nil)
	r.AddCookie(c)
	got, err := New(httptest.NewRecorder(), r, "bolen_cart_v1", testKey).Read()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(got) != 2 || got[0].Key != "bolen-keju::Large" || got[0].Qty != 3 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestMissingCookieIsEmptyCart(t *testing.T) {
	r := httptest.NewRequest("GET", "/cart", nil)
	got, err := New(httptest.NewRecorder(), r, "bolen_cart_v1", testKey).Read()
	if err != nil || len(got) != 0 {
		t.Fatalf("missing slot should be empty cart, got %+v, %v", got, err)
	}
}

func TestTamperedPayloadIsEmptyCart(t *testing.T) {
	c := writeThenReissue(t, []domain.CartItem{{Key: "p::", ProductID: "p", Qty: 9}})

	parts := strings.SplitN(c.Value, ".", 2)
	c.Value = parts[0] + "." + "eyJmYWtlIjp0cnVlfQ"

	r := httptest.NewRequest("GET", "/cart", nil)
	r.AddCookie(c)
	got, err := New(httptest.NewRecorder(), r, "bolen_cart_v1", testKey).Read()
	if err != nil || len(got) != 0 {
		t.Fatalf("tampered slot should be empty cart, got %+v, %v", got, err)
	}
}

func TestSignedGarbagePayloadIsEmptyCart(t *testing.T) {
	payload := []byte("not a cart list")
	h := hmac.New(sha256.New, testKey)
	h.Write(payload)
	val := base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(payload)

	r := httptest.NewRequest("GET", "/cart", nil)
	r.AddCookie(&http.Cookie{Name: "bolen_cart_v1", Value: val})
	got, err := New(httptest.NewRecorder(), r, "bolen_cart_v1", testKey).Read()
	if err != nil || len(got) != 0 {
		t.Fatalf("undecodable payload should be empty cart, got %+v, %v", got, err)
	}
}

func TestWrongKeyIsEmptyCart(t *testing.T) {
	c := writeThenReissue(t, []domain.CartItem{{Key: "p::", ProductID: "p", Qty: 2}})

	r := httptest.NewRequest("GET", "/cart", nil)
	r.AddCookie(c)
	got, _ := New(httptest.NewRecorder(), r, "bolen_cart_v1", []byte("other-key")).Read()
	if len(got) != 0 {
		t.Fatalf("foreign signature should read as empty, got %+v", got)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/cart/clear", nil)
	if err := New(w, r, "bolen_cart_v1", testKey).Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected expiring empty cookie, got %+v", cookies)
	}
}
