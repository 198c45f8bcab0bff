package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmfresh/farmfresh-backend/api/controllers"
	authcontrollers "github.com/farmfresh/farmfresh-backend/api/controllers/auth"
	ordercontrollers "github.com/farmfresh/farmfresh-backend/api/controllers/orders"
	"github.com/farmfresh/farmfresh-backend/api/middleware"
	"github.com/farmfresh/farmfresh-backend/internal/address"
	"github.com/farmfresh/farmfresh-backend/internal/auth"
	"github.com/farmfresh/farmfresh-backend/internal/cart"
	"github.com/farmfresh/farmfresh-backend/internal/farmers"
	"github.com/farmfresh/farmfresh-backend/internal/orders"
	product "github.com/farmfresh/farmfresh-backend/internal/products"
	"github.com/farmfresh/farmfresh-backend/internal/uploads"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
	pkgredis "github.com/farmfresh/farmfresh-backend/pkg/redis"
)

// Deps is everything the router mounts. Nil services answer with an error
// envelope instead of panicking.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	Sessions    session.AccessSessionChecker
	Idempotency pkgredis.IdempotencyStore
	RateLimits  pkgredis.RateLimiter
	Ready       map[string]controllers.Pinger

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth     auth.Service
	Products product.Service
	Farmers  farmers.Service
	Cart     cart.Service
	Address  address.Service
	Orders   orders.Service
	Uploads  uploads.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
		middleware.Metrics(d.HTTPMetrics),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Ready, logg))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	idempotent := middleware.Idempotency(d.Idempotency, cfg.Orders.IdempotencyTTL, logg)
	farmerOrAdmin := middleware.RequireRole(logg, enums.RoleFarmer, enums.RoleAdmin)
	placeOrder := middleware.RateLimit(middleware.PlaceOrderThrottle(cfg.Orders), d.RateLimits, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(middleware.RegisterThrottle(cfg.AuthRateLimit), d.RateLimits, logg)).
				Post("/register", authcontrollers.Register(d.Auth, logg))
			r.With(middleware.RateLimit(middleware.LoginThrottle(cfg.AuthRateLimit), d.RateLimits, logg)).
				Post("/login", authcontrollers.Login(d.Auth, logg))
			r.Post("/refresh", authcontrollers.Refresh(d.Auth, logg))
			r.With(authenticated).Post("/logout", authcontrollers.Logout(d.Auth, logg))
			r.With(authenticated).Get("/me", authcontrollers.Me(d.Auth, logg))
		})

		r.Get("/categories", controllers.ListCategories(d.Products, logg))
		r.Get("/products", controllers.ListProducts(d.Products, logg))
		r.Get("/products/{productID}", controllers.GetProduct(d.Products, logg))
		r.Get("/farmers", controllers.ListFarmers(d.Farmers, logg))
		r.Get("/farmers/{farmerID}", controllers.GetFarmer(d.Farmers, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Patch("/items/{itemID}", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(d.Cart, logg))
				r.Post("/select-all", controllers.SelectAllCartItems(d.Cart, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(d.Address, logg))
				r.Post("/", controllers.CreateAddress(d.Address, logg))
				r.Get("/{addressID}", controllers.GetAddress(d.Address, logg))
				r.Put("/{addressID}", controllers.UpdateAddress(d.Address, logg))
				r.Delete("/{addressID}", controllers.DeleteAddress(d.Address, logg))
			})

			r.Post("/uploads", controllers.Upload(d.Uploads, cfg.Upload.MaxBytes(), logg))

			r.Route("/orders", func(r chi.Router) {
				r.With(placeOrder, idempotent).Post("/", ordercontrollers.Create(d.Orders, logg))
				r.Get("/", ordercontrollers.List(d.Orders, logg))
				r.Route("/{orderID}", func(r chi.Router) {
					r.Get("/", ordercontrollers.Detail(d.Orders, logg))
					r.Patch("/status", ordercontrollers.UpdateStatus(d.Orders, logg))
					r.Post("/cancel", ordercontrollers.Cancel(d.Orders, logg))
					r.Post("/confirm-receipt", ordercontrollers.ConfirmReceipt(d.Orders, logg))
					r.Put("/logistics", ordercontrollers.SetLogistics(d.Orders, logg))
					r.Post("/logistics/checkpoints", ordercontrollers.AppendCheckpoint(d.Orders, logg))
					r.With(idempotent).Post("/after-sale", ordercontrollers.ApplyAfterSale(d.Orders, logg))
					r.Patch("/after-sale", ordercontrollers.UpdateAfterSale(d.Orders, logg))
				})
			})

			r.Route("/farmer", func(r chi.Router) {
				r.Use(farmerOrAdmin)
				r.Get("/products", controllers.FarmerListProducts(d.Products, logg))
				r.Post("/products", controllers.FarmerCreateProduct(d.Products, logg))
				r.Patch("/products/{productID}", controllers.FarmerUpdateProduct(d.Products, logg))
				r.Delete("/products/{productID}", controllers.FarmerDeleteProduct(d.Products, logg))
				r.Patch("/products/{productID}/status", controllers.FarmerSetProductStatus(d.Products, logg))
				r.Patch("/products/{productID}/stock", controllers.FarmerAdjustProductStock(d.Products, logg))
				r.Put("/profile", controllers.UpdateFarmerProfile(d.Farmers, logg))
			})
		})
	})

	return r
}
