package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2"

	"github.com/andrifs/tokobolen/internal/adapters/cartstore/cookie"
	"github.com/andrifs/tokobolen/internal/adapters/handoff/whatsapp"
	"github.com/andrifs/tokobolen/internal/cartview"
	"github.com/andrifs/tokobolen/internal/domain"
	"github.com/andrifs/tokobolen/internal/usecase"
)

type Server struct {
	mux      *http.ServeMux
	tmpl     *template.Template
	shop     domain.Shop
	products domain.ProductRepo
	catalog  *usecase.CatalogUC
	cart     *usecase.CartUC
	wa       *whatsapp.Gateway

	cartCookie string
	sessionKey []byte

	// adminAllowed is fixed at construction and never mutated; handlers run
	// concurrently and only read it.
	adminAllowed map[string]struct{}
	adminSecret  []byte
	adminUser    string
	adminPass    string
	localAdmin   string
	oauthCfg     *oauth2.Config
}

func New(t *template.Template, shop domain.Shop, products domain.ProductRepo, catalog *usecase.CatalogUC, cart *usecase.CartUC, wa *whatsapp.Gateway, oauthCfg *oauth2.Config) http.Handler {
	s := &Server{
		mux:      http.NewServeMux(),
		tmpl:     t,
		shop:     shop,
		products: products,
		catalog:  catalog,
		cart:     cart,
		wa:       wa,
		oauthCfg: oauthCfg,
	}

	s.cartCookie = os.Getenv("CART_COOKIE")
	if s.cartCookie == "" {
		s.cartCookie = "bolen_cart_v1"
	}
	s.sessionKey = secretKey()

	allowed := map[string]struct{}{}
	if raw := os.Getenv("ADMIN_ALLOWED_EMAILS"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e != "" {
				allowed[e] = struct{}{}
			}
		}
	}
	s.adminAllowed = allowed
	sec := os.Getenv("JWT_ADMIN_SECRET")
	if sec == "" {
		sec = os.Getenv("SECRET_KEY")
	}
	if sec == "" {
		sec = "dev-admin-secret"
	}
	s.adminSecret = []byte(sec)

	s.adminUser = os.Getenv("ADMIN_USER")
	if s.adminUser == "" {
		s.adminUser = "admin"
	}
	s.adminPass = os.Getenv("ADMIN_PASS")
	if s.adminPass == "" {
		s.adminPass = "admin123"
	}
	s.localAdmin = s.adminUser + "@local"

	s.routes()
	return Chain(s.mux,
		SecurityHeaders,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))

	s.mux.HandleFunc("/robots.txt", s.handleRobots)

	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/product", s.handleProduct)
	s.mux.HandleFunc("/products.json", s.handleCatalogJSON)

	s.mux.HandleFunc("/cart", s.handleCart)
	s.mux.HandleFunc("/cart/update", s.handleCartUpdate)
	s.mux.HandleFunc("/cart/remove", s.handleCartRemove)
	s.mux.HandleFunc("/cart/clear", s.handleCartClear)
	s.mux.HandleFunc("/cart/count", s.handleCartCount)

	s.mux.HandleFunc("/order", s.handleOrder)
	s.mux.HandleFunc("/wa", s.handleContact)

	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	s.mux.HandleFunc("/logout", s.handleLogout)

	s.mux.HandleFunc("/admin/auth", s.handleAdminAuth)
	s.mux.HandleFunc("/admin/logout", s.handleAdminLogout)
	s.mux.HandleFunc("/admin/products", s.handleAdminProducts)
	s.mux.HandleFunc("/admin/products/delete", s.handleAdminProductDelete)
	s.mux.HandleFunc("/admin/export/xlsx", s.handleAdminExportXLSX)
}

// cartStore binds the visitor's cart slot to the current request.
func (s *Server) cartStore(w http.ResponseWriter, r *http.Request) domain.CartStorage {
	return cookie.New(w, r, s.cartCookie, s.sessionKey)
}

func (s *Server) cartView(w http.ResponseWriter, r *http.Request) cartview.View {
	return cartview.Build(s.cart.Items(r.Context(), s.cartStore(w, r)))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	products := s.catalog.Products(r.Context())
	data := map[string]any{
		"Products": products,
		"Cart":     s.cartView(w, r),
		"Added":    r.URL.Query().Get("added") == "1",
	}
	if u := readUserSession(r, s.sessionKey); u != nil {
		data["User"] = u
	}
	s.render(w, "home.html", data)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	p, ok := s.catalog.ByID(r.Context(), id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := map[string]any{
		"Product": p,
		"Cart":    s.cartView(w, r),
		"Added":   r.URL.Query().Get("added") == "1",
	}
	if u := readUserSession(r, s.sessionKey); u != nil {
		data["User"] = u
	}
	s.render(w, "product.html", data)
}

// handleCatalogJSON publishes the catalog in its external shape. This is the
// read-only resource the session cache consumes; failures degrade to an
// empty list, the storefront never sees an error page for it.
func (s *Server) handleCatalogJSON(w http.ResponseWriter, r *http.Request) {
	list, err := s.products.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("catalog json")
		list = []domain.Product{}
	}
	writeJSON(w, 200, list)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data := map[string]any{"Cart": s.cartView(w, r)}
		if u := readUserSession(r, s.sessionKey); u != nil {
			data["User"] = u
		}
		s.render(w, "cart.html", data)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form", 400)
			return
		}
		id := r.FormValue("id")
		if id == "" {
			http.Error(w, "id", 400)
			return
		}
		variant := r.FormValue("variant")
		qty := parseQty(r.FormValue("qty"))
		lines := s.cart.Add(r.Context(), s.cartStore(w, r), id, variant, qty)
		if wantsJSON(r) {
			v := cartview.Build(lines)
			writeJSON(w, 200, map[string]any{"status": "ok", "id": id, "count": v.Count})
			return
		}
		http.Redirect(w, r, backTarget(r)+"?added=1", 302)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	key := r.FormValue("key")
	qty := parseQty(r.FormValue("qty"))
	s.cart.UpdateQty(r.Context(), s.cartStore(w, r), key, qty)
	http.Redirect(w, r, "/cart", 302)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	s.cart.Remove(r.Context(), s.cartStore(w, r), r.FormValue("key"))
	http.Redirect(w, r, "/cart", 302)
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	s.cart.Clear(r.Context(), s.cartStore(w, r))
	http.Redirect(w, r, "/cart", 302)
}

// handleCartCount feeds the badge: every counter on the page shows this
// value.
func (s *Server) handleCartCount(w http.ResponseWriter, r *http.Request) {
	v := s.cartView(w, r)
	writeJSON(w, 200, map[string]any{"count": v.Count, "total": v.Total, "totalLabel": v.TotalLabel})
}

// handleOrder is the quick-buy handoff: build the greeting for one
// (product, variant, qty) and send the shopper to the pre-filled chat. The
// cart is bypassed entirely.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	variant := q.Get("variant")
	qty := parseQty(q.Get("qty"))
	name := id
	if p, ok := s.catalog.ByID(r.Context(), id); ok {
		name = p.Name
	}
	msg := whatsapp.BuildOrderMessage(name, variant, qty)
	http.Redirect(w, r, s.wa.OrderURL(msg), 302)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.wa.OrderURL(""), 302)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Disallow: /admin/")
	fmt.Fprintln(w, "Disallow: /cart")
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	m, ok := data.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	if _, exists := m["Year"]; !exists {
		m["Year"] = time.Now().Year()
	}
	if _, exists := m["Shop"]; !exists {
		m["Shop"] = s.shop
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, m); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
		http.Error(w, "tpl", 500)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// parseQty floors any quantity input to 1: empty, non-numeric, zero and
// negative all coerce. Deliberate permissive policy, not silent failure.
func parseQty(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return domain.NormalizeQty(n)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "fetch"
}

func backTarget(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := r.URL.Parse(ref); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return "/"
}

func secretKey() []byte {
	k := os.Getenv("SESSION_KEY")
	if k == "" {
		k = "dev-insecure"
	}
	return []byte(k)
}

type sessionUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func writeUserSession(w http.ResponseWriter, key []byte, u *sessionUser) {
	if u == nil {
		http.SetCookie(w, &http.Cookie{Name: "sess", Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteStrictMode})
		return
	}
	b, _ := json.Marshal(u)
	h := hmac.New(sha256.New, key)
	h.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	val := sig + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{Name: "sess", Value: val, Path: "/", MaxAge: 60 * 60 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteStrictMode})
}

func readUserSession(r *http.Request, key []byte) *sessionUser {
	if r == nil {
		return nil
	}
	c, err := r.Cookie("sess")
	if err != nil || c.Value == "" {
		return nil
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	sig, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	h := hmac.New(sha256.New, key)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil || u.Email == "" {
		return nil
	}
	return &u
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 500)
		return
	}
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 300, HttpOnly: true})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), 302)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", 500)
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie("oauth_state")
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		http.Error(w, "state", 400)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange")
		http.Error(w, "oauth", 400)
		return
	}
	client := s.oauthCfg.Client(r.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil || resp.StatusCode != 200 {
		log.Error().Err(err).Msg("userinfo")
		http.Error(w, "userinfo", 400)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	_ = json.Unmarshal(body, &info)
	if info.Email == "" {
		http.Error(w, "email", 400)
		return
	}
	writeUserSession(w, s.sessionKey, &sessionUser{Email: info.Email, Name: info.Name})
	if _, ok := s.adminAllowed[strings.ToLower(info.Email)]; ok {
		if tok, _, err := s.issueAdminToken(info.Email, 6*time.Hour); err == nil {
			setAdminCookie(w, r, tok, 60*60*6)
		}
	}
	http.Redirect(w, r, "/", 302)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeUserSession(w, s.sessionKey, nil)
	http.Redirect(w, r, "/", 302)
}

func setAdminCookie(w http.ResponseWriter, r *http.Request, tok string, maxAge int) {
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: "admin_token", Value: tok, Path: "/", MaxAge: maxAge, HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode})
}

func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.isAdminSession(r) {
			http.Redirect(w, r, "/admin/products", 302)
			return
		}
		s.render(w, "admin_auth.html", map[string]any{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form", 400)
			return
		}
		user := strings.TrimSpace(r.FormValue("user"))
		pass := strings.TrimSpace(r.FormValue("pass"))
		if user != s.adminUser || pass != s.adminPass {
			http.Error(w, "credentials", 401)
			return
		}
		// Password logins carry their own synthetic identity; the allowed-
		// email set only constrains OAuth-issued tokens.
		tok, _, err := s.issueAdminToken(s.localAdmin, 6*time.Hour)
		if err != nil {
			http.Error(w, "token", 500)
			return
		}
		setAdminCookie(w, r, tok, 60*60*6)
		http.Redirect(w, r, "/admin/products", 302)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	setAdminCookie(w, r, "", -1)
	http.Redirect(w, r, "/admin/auth", 302)
}

func (s *Server) isAdminSession(r *http.Request) bool {
	if c, err := r.Cookie("admin_token"); err == nil && c.Value != "" {
		if _, err := s.verifyAdminToken(c.Value); err == nil {
			return true
		}
	}
	return false
}

func (s *Server) issueAdminToken(email string, dur time.Duration) (string, time.Time, error) {
	head := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(dur)
	claims := map[string]any{"sub": email, "email": email, "role": "admin", "exp": exp.Unix(), "iat": time.Now().Unix(), "iss": "tokobolen"}
	b, _ := json.Marshal(claims)
	pay := base64.RawURLEncoding.EncodeToString(b)
	unsigned := head + "." + pay
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return unsigned + "." + sig, exp, nil
}

func (s *Server) verifyAdminToken(tok string) (string, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("format")
	}
	unsigned := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("sig")
	}
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	if !hmac.Equal(sig, h.Sum(nil)) {
		return "", fmt.Errorf("signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("payload")
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", fmt.Errorf("json")
	}
	role, _ := m["role"].(string)
	email, _ := m["email"].(string)
	expF, _ := m["exp"].(float64)
	if role != "admin" || email == "" {
		return "", fmt.Errorf("claims")
	}
	if time.Now().Unix() > int64(expF) {
		return "", fmt.Errorf("expired")
	}
	if email != s.localAdmin && len(s.adminAllowed) > 0 {
		if _, ok := s.adminAllowed[strings.ToLower(email)]; !ok {
			return "", fmt.Errorf("not allowed")
		}
	}
	return email, nil
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := s.products.List(r.Context())
		if err != nil {
			http.Error(w, "err", 500)
			return
		}
		s.render(w, "admin_products.html", map[string]any{
			"Products": list,
			"Saved":    r.URL.Query().Get("saved") == "1",
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form", 400)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			http.Error(w, "name", 400)
			return
		}
		price, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue("price")), 10, 64)
		if price < 0 {
			http.Error(w, "price", 400)
			return
		}
		p := &domain.Product{
			ID:          strings.TrimSpace(r.FormValue("id")),
			Name:        name,
			Price:       price,
			Description: strings.TrimSpace(r.FormValue("description")),
			Emoji:       strings.TrimSpace(r.FormValue("emoji")),
			Variants:    splitVariants(r.FormValue("variants")),
		}
		if err := s.products.Save(r.Context(), p); err != nil {
			log.Error().Err(err).Msg("save product")
			http.Error(w, "save", 500)
			return
		}
		s.catalog.Invalidate()
		http.Redirect(w, r, "/admin/products?saved=1", 302)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) handleAdminProductDelete(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	id := r.FormValue("id")
	if id == "" {
		http.Error(w, "id", 400)
		return
	}
	if err := s.products.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("delete product")
		http.Error(w, "delete", 500)
		return
	}
	s.catalog.Invalidate()
	http.Redirect(w, r, "/admin/products", 302)
}

func (s *Server) handleAdminExportXLSX(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Error(w, "unauthorized", 401)
		return
	}
	list, err := s.products.List(r.Context())
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Produk"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"ID", "Nama", "Harga", "Deskripsi", "Emoji", "Varian"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, p := range list {
		values := []any{p.ID, p.Name, p.Price, p.Description, p.Emoji, strings.Join(p.Variants, ", ")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=produk_%s.xlsx", time.Now().Format("2006-01-02")))
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("xlsx export")
	}
}

func splitVariants(raw string) []string {
	out := []string{}
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
