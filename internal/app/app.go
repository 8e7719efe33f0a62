package app

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/andrifs/tokobolen/internal/adapters/catalog/httpjson"
	"github.com/andrifs/tokobolen/internal/adapters/handoff/whatsapp"
	"github.com/andrifs/tokobolen/internal/adapters/httpserver"
	"github.com/andrifs/tokobolen/internal/adapters/repo/postgres"
	"github.com/andrifs/tokobolen/internal/cartview"
	"github.com/andrifs/tokobolen/internal/domain"
	"github.com/andrifs/tokobolen/internal/usecase"
	"github.com/andrifs/tokobolen/internal/views"
)

type App struct {
	DB       *gorm.DB
	Tmpl     *template.Template
	Shop     domain.Shop
	Products domain.ProductRepo
	Catalog  *usecase.CatalogUC
	Cart     *usecase.CartUC
	WA       *whatsapp.Gateway

	oauthCfg *oauth2.Config
}

// logCounterSink mirrors the on-page counter into the log so cart activity
// is visible in diagnostics.
type logCounterSink struct{}

func (logCounterSink) SetCount(count int) {
	log.Debug().Int("count", count).Msg("cart counter")
}

func NewApp(db *gorm.DB) (*App, error) {
	prodRepo := postgres.NewProductRepo(db)

	shop := domain.Shop{
		Name:     os.Getenv("SHOP_NAME"),
		WANumber: os.Getenv("SHOP_WA"),
	}
	if shop.Name == "" {
		shop.Name = "Bolen & Es Teler"
	}
	if shop.WANumber == "" {
		shop.WANumber = "6288299435445"
	}

	var source domain.CatalogSource
	if u := strings.TrimSpace(os.Getenv("CATALOG_URL")); u != "" {
		source = httpjson.New(u)
	} else {
		source = postgres.NewCatalogSource(prodRepo)
	}
	catalog := usecase.NewCatalogUC(source)

	sinks := cartview.NewSinks()
	sinks.RegisterCounter(logCounterSink{})
	cart := usecase.NewCartUC(catalog, sinks)

	var oauthCfg *oauth2.Config
	googleID := os.Getenv("GOOGLE_CLIENT_ID")
	googleSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if googleID != "" && googleSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     googleID,
			ClientSecret: googleSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	funcMap := template.FuncMap{
		"rp": cartview.FormatRupiah,
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	appEnv := strings.ToLower(os.Getenv("APP_ENV"))
	isDev := appEnv == "" || appEnv == "development" || appEnv == "dev"

	var tmpl *template.Template
	var err error
	if isDev {
		tmpl, err = template.New("layout").Funcs(funcMap).ParseGlob("internal/views/*.html")
		if err != nil {
			tmpl, err = template.New("layout").Funcs(funcMap).ParseFS(views.FS, "*.html")
		}
	} else {
		tmpl, err = template.New("layout").Funcs(funcMap).ParseFS(views.FS, "*.html")
	}
	if err != nil {
		return nil, err
	}

	return &App{
		DB:       db,
		Tmpl:     tmpl,
		Shop:     shop,
		Products: prodRepo,
		Catalog:  catalog,
		Cart:     cart,
		WA:       whatsapp.NewGateway(shop.WANumber),
		oauthCfg: oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Tmpl, a.Shop, a.Products, a.Catalog, a.Cart, a.WA, a.oauthCfg)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(&domain.Product{}); err != nil {
		return err
	}
	var count int64
	if err := a.DB.Model(&domain.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		seedProducts(a.DB)
	}
	return nil
}

func seedProducts(db *gorm.DB) {
	prods := []domain.Product{
		{ID: "bolen-keju", Name: "Bolen Keju", Price: 15000, Description: "Bolen pisang isi keju, renyah di luar", Emoji: "🧀", Variants: []string{"Small", "Large"}},
		{ID: "bolen-coklat", Name: "Bolen Coklat", Price: 14000, Description: "Bolen isi coklat lumer", Emoji: "🍫", Variants: []string{"Small", "Large"}},
		{ID: "bolen-pisang", Name: "Bolen Pisang Original", Price: 12000, Description: "Bolen klasik isi pisang raja", Emoji: "🍌"},
		{ID: "es-teler-special", Name: "Es Teler Special", Price: 12000, Description: "Alpukat, kelapa muda, nangka, susu", Emoji: "🍧"},
		{ID: "es-teler-original", Name: "Es Teler Original", Price: 10000, Description: "Es teler resep keluarga", Emoji: "🥤"},
		{ID: "es-campur", Name: "Es Campur", Price: 11000, Description: "Campuran buah segar dan sirup merah", Emoji: "🍨"},
	}
	for _, p := range prods {
		if err := db.WithContext(context.Background()).Create(&p).Error; err != nil {
			log.Warn().Err(err).Str("id", p.ID).Msg("seed product")
		}
	}
}
