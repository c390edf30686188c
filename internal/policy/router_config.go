package policy

import (
	"gorm.io/gorm"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/internal/handlers"
	"github.com/diewo77/freelance/internal/mailer"
	"github.com/diewo77/freelance/internal/services"
	"github.com/diewo77/freelance/internal/storage"
)

// RouterConfig holds the configured handlers and the services behind them.
type RouterConfig struct {
	AuthGate *AuthGate

	AuthHandler     *handlers.AuthHandler
	HomeHandler     *handlers.HomeHandler
	InvoiceHandler  *handlers.InvoiceHandler
	ClientHandler   *handlers.ClientHandler
	DayHandler      *handlers.DayHandler
	SettingsHandler *handlers.SettingsHandler

	InvoiceService  *services.InvoiceService
	SettingsService *services.SettingsService
}

// NewRouterConfig wires services and handlers around db. A nil send uses SMTP.
func NewRouterConfig(db *gorm.DB, media *storage.Store, send mailer.Factory, limiter *auth.Limiter) *RouterConfig {
	authGate := NewAuthGate()

	settings := services.NewSettingsService(db)
	clients := services.NewClientService(db)
	days := services.NewDayService(db)
	invoices := services.NewInvoiceService(db, media, send)

	return &RouterConfig{
		AuthGate:        authGate,
		AuthHandler:     handlers.NewAuthHandler(db, limiter),
		HomeHandler:     handlers.NewHomeHandler(invoices, settings),
		InvoiceHandler:  handlers.NewInvoiceHandler(invoices, clients, settings, authGate),
		ClientHandler:   handlers.NewClientHandler(clients, authGate),
		DayHandler:      handlers.NewDayHandler(days),
		SettingsHandler: handlers.NewSettingsHandler(settings),
		InvoiceService:  invoices,
		SettingsService: settings,
	}
}
