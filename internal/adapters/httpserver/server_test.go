package httpserver

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/andrifs/tokobolen/internal/adapters/handoff/whatsapp"
	"github.com/andrifs/tokobolen/internal/cartview"
	"github.com/andrifs/tokobolen/internal/domain"
	"github.com/andrifs/tokobolen/internal/usecase"
	"github.com/andrifs/tokobolen/internal/views"
)

type fakeProductRepo struct {
	products map[string]domain.Product
}

func (f *fakeProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id string) error {
	delete(f.products, id)
	return nil
}

type repoSource struct{ repo *fakeProductRepo }

func (s repoSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	repo := &fakeProductRepo{products: map[string]domain.Product{
		"bolen-keju":       {ID: "bolen-keju", Name: "Bolen Keju", Price: 15000, Emoji: "🧀", Variants: []string{"Small", "Large"}},
		"es-teler-special": {ID: "es-teler-special", Name: "Es Teler Special", Price: 12000, Emoji: "🍧"},
	}}
	funcMap := template.FuncMap{
		"rp":  cartview.FormatRupiah,
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	tmpl, err := template.New("layout").Funcs(funcMap).ParseFS(views.FS, "*.html")
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	catalog := usecase.NewCatalogUC(repoSource{repo: repo})
	cart := usecase.NewCartUC(catalog, cartview.NewSinks())
	wa := whatsapp.NewGateway("6288299435445")
	shop := domain.Shop{Name: "Bolen & Es Teler", WANumber: "6288299435445"}
	return New(tmpl, shop, repo, catalog, cart, wa, nil)
}

func postForm(h http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHomeRendersCatalog(t *testing.T) {
	h := newTestServer(t)
	w := get(h, "/", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Bolen Keju") || !strings.Contains(body, "Rp 15.000") {
		t.Errorf("home missing product card:\n%s", body)
	}
	if !strings.Contains(body, "Keranjang kosong.") {
		t.Error("empty drawer placeholder missing")
	}
}

func TestAddToCartSetsCookieAndRendersDrawer(t *testing.T) {
	h := newTestServer(t)

	w := postForm(h, "/cart", url.Values{"id": {"bolen-keju"}, "variant": {"Large"}, "qty": {"2"}}, nil)
	if w.Code != 302 {
		t.Fatalf("add status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected cart cookie")
	}

	w2 := get(h, "/cart", cookies)
	if w2.Code != 200 {
		t.Fatalf("cart status = %d", w2.Code)
	}
	body := w2.Body.String()
	if !strings.Contains(body, "Bolen Keju Large") {
		t.Errorf("cart page missing line label:\n%s", body)
	}
	if !strings.Contains(body, "Rp 30.000") {
		t.Errorf("cart page missing total:\n%s", body)
	}
}

func TestCartCountEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := postForm(h, "/cart", url.Values{"id": {"es-teler-special"}, "qty": {"3"}}, nil)
	cookies := w.Result().Cookies()

	w2 := get(h, "/cart/count", cookies)
	var resp struct {
		Count      int    `json:"count"`
		Total      int64  `json:"total"`
		TotalLabel string `json:"totalLabel"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp.Count != 3 || resp.Total != 36000 || resp.TotalLabel != "Rp 36.000" {
		t.Errorf("count response = %+v", resp)
	}
}

func TestAddInvalidQtyFloorsToOne(t *testing.T) {
	h := newTestServer(t)

	w := postForm(h, "/cart", url.Values{"id": {"bolen-keju"}, "qty": {"banana"}}, nil)
	cookies := w.Result().Cookies()

	w2 := get(h, "/cart/count", cookies)
	var resp struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w2.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestRemoveFromCart(t *testing.T) {
	h := newTestServer(t)

	w := postForm(h, "/cart", url.Values{"id": {"bolen-keju"}}, nil)
	cookies := w.Result().Cookies()

	w2 := postForm(h, "/cart/remove", url.Values{"key": {"bolen-keju::"}}, cookies)
	if w2.Code != 302 {
		t.Fatalf("remove status = %d", w2.Code)
	}
	w3 := get(h, "/cart", w2.Result().Cookies())
	if !strings.Contains(w3.Body.String(), "Keranjang kosong.") {
		t.Error("expected empty cart after remove")
	}
}

func TestOrderHandoffRedirectsToChat(t *testing.T) {
	h := newTestServer(t)

	w := get(h, "/order?id=bolen-keju&variant=Large&qty=3", nil)
	if w.Code != 302 {
		t.Fatalf("status = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	want := "https://wa.me/6288299435445?text=kak+mau+beli+Bolen+Keju+Large+x3+ya"
	if loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestOrderHandoffUnknownProductUsesRawID(t *testing.T) {
	h := newTestServer(t)

	w := get(h, "/order?id=ghost&qty=1", nil)
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, url.QueryEscape("kak mau beli ghost ya")) {
		t.Errorf("Location = %q", loc)
	}
}

func TestCatalogJSON(t *testing.T) {
	h := newTestServer(t)

	w := get(h, "/products.json", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	var list []domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 products, got %d", len(list))
	}
}

func TestAdminLoginAndProductList(t *testing.T) {
	h := newTestServer(t)

	w := postForm(h, "/admin/auth", url.Values{"user": {"admin"}, "pass": {"admin123"}}, nil)
	if w.Code != 302 {
		t.Fatalf("login status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected admin token cookie")
	}

	w2 := get(h, "/admin/products", cookies)
	if w2.Code != 200 {
		t.Fatalf("admin products status = %d", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "Bolen Keju") {
		t.Error("admin list missing product")
	}

	// unauthenticated access bounces to the login form
	w3 := get(h, "/admin/products", nil)
	if w3.Code != 302 || w3.Header().Get("Location") != "/admin/auth" {
		t.Errorf("expected redirect to /admin/auth, got %d %q", w3.Code, w3.Header().Get("Location"))
	}
}

func TestAdminLoginConcurrent(t *testing.T) {
	h := newTestServer(t)

	codes := make([]int, 8)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := postForm(h, "/admin/auth", url.Values{"user": {"admin"}, "pass": {"admin123"}}, nil)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != 302 {
			t.Errorf("login %d: status = %d, want 302", i, code)
		}
	}
}

func TestAdminPasswordLoginWithAllowedEmailsConfigured(t *testing.T) {
	t.Setenv("ADMIN_ALLOWED_EMAILS", "owner@example.com")
	h := newTestServer(t)

	w := postForm(h, "/admin/auth", url.Values{"user": {"admin"}, "pass": {"admin123"}}, nil)
	if w.Code != 302 {
		t.Fatalf("login status = %d", w.Code)
	}
	w2 := get(h, "/admin/products", w.Result().Cookies())
	if w2.Code != 200 {
		t.Fatalf("admin products status = %d, want 200", w2.Code)
	}
}

func TestParseQty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"0", 1},
		{"-3", 1},
		{"abc", 1},
		{"2", 2},
		{" 4 ", 4},
	}
	for _, tc := range tests {
		if got := parseQty(tc.in); got != tc.want {
			t.Errorf("parseQty(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
