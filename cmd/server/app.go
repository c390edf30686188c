package main

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/httpx"
	"github.com/diewo77/freelance/i18n"
	"github.com/diewo77/freelance/internal/db"
	"github.com/diewo77/freelance/internal/logger"
	"github.com/diewo77/freelance/internal/metrics"
	"github.com/diewo77/freelance/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = metrics.InstrumentHandler(logger.Middleware(auth.Middleware(withPreferences(app.mux))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public
	ah := a.routerCfg.AuthHandler
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Pages
	hh := a.routerCfg.HomeHandler
	ih := a.routerCfg.InvoiceHandler
	ch := a.routerCfg.ClientHandler
	dh := a.routerCfg.DayHandler
	sh := a.routerCfg.SettingsHandler

	a.handle("GET /", hh.Home)

	a.handle("GET /invoices", ih.List)
	a.handle("GET /invoices/new", ih.New)
	a.handle("GET /invoices/{number}", ih.Show)
	a.handle("GET /invoices/{number}/pdf", ih.PDF)

	a.handle("GET /clients", ch.List)
	a.handle("GET /clients/new", ch.New)
	a.handle("POST /clients/new", ch.New)
	a.handle("GET /clients/{id}", ch.Edit)
	a.handle("POST /clients/{id}", ch.Edit)

	a.handle("GET /calendar", dh.Calendar)

	a.handle("GET /settings", sh.Edit)
	a.handle("POST /settings", sh.Update)

	// JSON API
	a.handle("GET /api/days", dh.List)
	a.handle("POST /api/days", dh.Create)
	a.handle("DELETE /api/days", dh.Delete)

	a.handle("GET /api/invoices/{id}", ih.Get)
	a.handle("PUT /api/invoices/{id}", ih.Update)
	a.handle("POST /api/invoices/{id}", ih.Upload)
	a.handle("DELETE /api/invoices/{id}", ih.Delete)
}

// handle registers a route that requires a logged-in user.
func (a *App) handle(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withPreferences injects the language from ?lang, the lang cookie or Accept-Language.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
