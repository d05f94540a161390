package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/shipdesk/internal/appsettings"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	"github.com/smallbiznis/shipdesk/internal/audit"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/auth"
	authdomain "github.com/smallbiznis/shipdesk/internal/auth/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/token"
	"github.com/smallbiznis/shipdesk/internal/authorization"
	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/city"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	"github.com/smallbiznis/shipdesk/internal/client"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/company"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/currency"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/smallbiznis/shipdesk/internal/demodata"
	"github.com/smallbiznis/shipdesk/internal/observability"
	obslogger "github.com/smallbiznis/shipdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/shipdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/shipdesk/internal/observability/tracing"
	"github.com/smallbiznis/shipdesk/internal/order"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/paymentmethod"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	"github.com/smallbiznis/shipdesk/internal/ratelimit"
	"github.com/smallbiznis/shipdesk/internal/recovery"
	"github.com/smallbiznis/shipdesk/internal/shippingcompany"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	"github.com/smallbiznis/shipdesk/internal/spreadsheet"
	"github.com/smallbiznis/shipdesk/internal/store"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Services groups every domain module the HTTP API and the CLI depend on.
var Services = fx.Options(
	authorization.Module,
	audit.Module,
	cache.Module,
	ratelimit.Module,
	auth.Module,
	company.Module,
	appsettings.Module,
	paymentmethod.Module,
	currency.Module,
	city.Module,
	store.Module,
	shippingcompany.Module,
	client.Module,
	order.Module,
	demodata.Module,
	spreadsheet.Module,
	recovery.Module,
)

var Module = fx.Module("http.server",
	Services,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		QuietRoutes:     obsCfg.QuietRoutes,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.MiddlewareConfig{SkipRoutes: obsCfg.QuietRoutes}))
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine             *gin.Engine
	cfg                config.Config
	log                *zap.Logger
	tokens             *token.Issuer
	guard              *ratelimit.Guard
	authzSvc           authorization.Service
	auditSvc           auditdomain.Service
	authSvc            authdomain.Service
	companySvc         companydomain.Service
	settingsSvc        appsettingsdomain.Service
	paymentMethodSvc   paymentmethoddomain.Service
	currencySvc        currencydomain.Service
	citySvc            citydomain.Service
	storeSvc           storedomain.Service
	shippingCompanySvc shippingcompanydomain.Service
	clientSvc          clientdomain.Service
	orderSvc           orderdomain.Service
	demoSvc            *demodata.Service
	sheets             *spreadsheet.Service
	recovery           *recovery.Store
}

type ServerParams struct {
	fx.In

	Gin                *gin.Engine
	Cfg                config.Config
	Log                *zap.Logger
	Tokens             *token.Issuer
	Guard              *ratelimit.Guard `optional:"true"`
	AuthzSvc           authorization.Service
	AuditSvc           auditdomain.Service
	AuthSvc            authdomain.Service
	CompanySvc         companydomain.Service
	SettingsSvc        appsettingsdomain.Service
	PaymentMethodSvc   paymentmethoddomain.Service
	CurrencySvc        currencydomain.Service
	CitySvc            citydomain.Service
	StoreSvc           storedomain.Service
	ShippingCompanySvc shippingcompanydomain.Service
	ClientSvc          clientdomain.Service
	OrderSvc           orderdomain.Service
	DemoSvc            *demodata.Service
	Sheets             *spreadsheet.Service
	Recovery           *recovery.Store
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:             p.Gin,
		cfg:                p.Cfg,
		log:                p.Log.Named("http"),
		tokens:             p.Tokens,
		guard:              p.Guard,
		authzSvc:           p.AuthzSvc,
		auditSvc:           p.AuditSvc,
		authSvc:            p.AuthSvc,
		companySvc:         p.CompanySvc,
		settingsSvc:        p.SettingsSvc,
		paymentMethodSvc:   p.PaymentMethodSvc,
		currencySvc:        p.CurrencySvc,
		citySvc:            p.CitySvc,
		storeSvc:           p.StoreSvc,
		shippingCompanySvc: p.ShippingCompanySvc,
		clientSvc:          p.ClientSvc,
		orderSvc:           p.OrderSvc,
		demoSvc:            p.DemoSvc,
		sheets:             p.Sheets,
		recovery:           p.Recovery,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerAdminRoutes()
	s.registerFallback()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/login", s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	const (
		view   = authorization.ActionView
		manage = authorization.ActionManage
	)
	settings := func(action string) gin.HandlerFunc { return s.authorize(authorization.ObjectSettings, action) }

	// -------- Settings --------
	api.GET("/settings/company", settings(view), s.GetCompany)
	api.PUT("/settings/company", settings(manage), s.SaveCompany)
	api.PATCH("/settings/company", settings(manage), s.PatchCompany)
	api.POST("/settings/company/logo", settings(manage), s.UploadLogo)
	api.DELETE("/settings/company/logo", settings(manage), s.RemoveLogo)

	api.GET("/settings/app", settings(view), s.GetAppSettings)
	api.PUT("/settings/app", settings(manage), s.SaveAppSettings)
	api.PATCH("/settings/app", settings(manage), s.PatchAppSettings)
	api.GET("/settings/app/zones", settings(view), s.ListZones)
	api.POST("/settings/app/zones", settings(manage), s.AddZone)
	api.PUT("/settings/app/zones/:name", settings(manage), s.UpdateZone)
	api.DELETE("/settings/app/zones/:name", settings(manage), s.DeleteZone)
	api.GET("/settings/app/quote", settings(view), s.QuoteShipping)
	api.GET("/settings/app/whatsapp/:lang", settings(view), s.GetTemplates)
	api.PUT("/settings/app/whatsapp/:lang", settings(manage), s.SetTemplates)

	// -------- Catalogs --------
	api.GET("/payment-methods", settings(view), s.ListPaymentMethods)
	api.POST("/payment-methods", settings(manage), s.CreatePaymentMethod)
	api.GET("/payment-methods/:id", settings(view), s.GetPaymentMethod)
	api.PUT("/payment-methods/:id", settings(manage), s.UpdatePaymentMethod)
	api.PATCH("/payment-methods/:id", settings(manage), s.PatchPaymentMethod)
	api.DELETE("/payment-methods/:id", settings(manage), s.DeletePaymentMethod)

	api.GET("/currencies", settings(view), s.ListCurrencies)
	api.POST("/currencies", settings(manage), s.CreateCurrency)
	api.GET("/currencies/convert", settings(view), s.ConvertCurrency)
	api.GET("/currencies/:code", settings(view), s.GetCurrency)
	api.PUT("/currencies/:code", settings(manage), s.UpdateCurrency)
	api.PATCH("/currencies/:code", settings(manage), s.PatchCurrency)
	api.DELETE("/currencies/:code", settings(manage), s.DeleteCurrency)
	api.POST("/currencies/:code/default", settings(manage), s.SetDefaultCurrency)

	api.GET("/cities", settings(view), s.ListCities)
	api.POST("/cities", settings(manage), s.CreateCity)
	api.GET("/cities/:id", settings(view), s.GetCity)
	api.PUT("/cities/:id", settings(manage), s.UpdateCity)
	api.PATCH("/cities/:id", settings(manage), s.PatchCity)
	api.DELETE("/cities/:id", settings(manage), s.DeleteCity)

	api.GET("/stores", settings(view), s.ListStores)
	api.POST("/stores", settings(manage), s.CreateStore)
	api.GET("/stores/:id", settings(view), s.GetStore)
	api.PUT("/stores/:id", settings(manage), s.UpdateStore)
	api.PATCH("/stores/:id", settings(manage), s.PatchStore)
	api.DELETE("/stores/:id", settings(manage), s.DeleteStore)

	api.GET("/shipping-companies", settings(view), s.ListShippingCompanies)
	api.POST("/shipping-companies", settings(manage), s.CreateShippingCompany)
	api.GET("/shipping-companies/:id", settings(view), s.GetShippingCompany)
	api.PUT("/shipping-companies/:id", settings(manage), s.UpdateShippingCompany)
	api.PATCH("/shipping-companies/:id", settings(manage), s.PatchShippingCompany)
	api.DELETE("/shipping-companies/:id", settings(manage), s.DeleteShippingCompany)

	// -------- Clients --------
	clients := func(action string) gin.HandlerFunc { return s.authorize(authorization.ObjectClient, action) }
	api.GET("/clients", clients(view), s.ListClients)
	api.POST("/clients", clients(manage), s.CreateClient)
	api.GET("/clients/:id", clients(view), s.GetClient)
	api.PUT("/clients/:id", clients(manage), s.UpdateClient)
	api.PATCH("/clients/:id", clients(manage), s.PatchClient)
	api.DELETE("/clients/:id", clients(manage), s.DeleteClient)

	// -------- Users --------
	users := func(action string) gin.HandlerFunc { return s.authorize(authorization.ObjectUser, action) }
	api.GET("/users", users(view), s.ListUsers)
	api.POST("/users", users(manage), s.CreateUser)
	api.GET("/users/:id", users(view), s.GetUser)
	api.PUT("/users/:id", users(manage), s.UpdateUser)
	api.DELETE("/users/:id", users(manage), s.DeleteUser)
	api.POST("/users/:id/password", s.ChangePassword)

	// -------- Orders --------
	orders := func(action string) gin.HandlerFunc { return s.authorize(authorization.ObjectOrder, action) }
	api.GET("/orders", orders(view), s.ListOrders)
	api.POST("/orders", orders(manage), s.CreateOrder)
	api.GET("/orders/:id", orders(view), s.GetOrder)
	api.POST("/orders/:id/status", orders(manage), s.UpdateOrderStatus)
	api.DELETE("/orders/:id", orders(manage), s.DeleteOrder)
	api.GET("/orders/:id/whatsapp", orders(view), s.OrderWhatsApp)

	// -------- Activity --------
	api.GET("/activity-logs", s.authorize(authorization.ObjectActivityLog, view), s.ListActivityLogs)
	api.DELETE("/activity-logs", s.authorize(authorization.ObjectActivityLog, manage), s.ClearActivityLogs)

	// -------- Transfer --------
	api.GET("/export/:entity", s.authorize(authorization.ObjectExport, view), s.Export)
	api.POST("/import/:entity", s.authorize(authorization.ObjectImport, manage), s.Import)

	// -------- Demo --------
	api.POST("/demo/generate", s.authorize(authorization.ObjectDemo, manage), s.GenerateDemo)
	api.DELETE("/demo", s.authorize(authorization.ObjectDemo, manage), s.PurgeDemo)
}

// Recovery routes accept the recovery passcode instead of a session so they
// keep working when every admin account is locked out.
func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin")

	admin.GET("/recovery", s.AuthRequired(), s.authorize(authorization.ObjectCache, authorization.ActionView), s.RecoveryStatus)
	admin.POST("/cache/clear", s.ClearCache)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
