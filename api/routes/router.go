package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/construpro/construpro-backend/api/controllers"
	"github.com/construpro/construpro-backend/api/middleware"
	cartsvc "github.com/construpro/construpro-backend/internal/cart"
	cepsvc "github.com/construpro/construpro-backend/internal/cep"
	checkoutsvc "github.com/construpro/construpro-backend/internal/checkout"
	couponsvc "github.com/construpro/construpro-backend/internal/coupons"
	ordersvc "github.com/construpro/construpro-backend/internal/orders"
	pointsvc "github.com/construpro/construpro-backend/internal/points"
	productsvc "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/pkg/config"
	"github.com/construpro/construpro-backend/pkg/db"
	"github.com/construpro/construpro-backend/pkg/logger"
	pkgredis "github.com/construpro/construpro-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Nil services make
// the corresponding constructors fail fast at boot, not at request time.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisPinger pkgredis.Pinger
	Idempotency pkgredis.IdempotencyStore

	Cep      cepsvc.Service
	Products productsvc.Service
	Cart     cartsvc.Service
	Coupons  couponsvc.Service
	Checkout checkoutsvc.Service
	Points   pointsvc.Service
	Orders   *ordersvc.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/cep/{code}", controllers.CepLookup(deps.Cep, logg))
		r.Get("/cep/{code}/diagnostic", controllers.CepDiagnostic(deps.Cep, logg))

		r.Get("/products/{productID}", controllers.ProductGet(deps.Products, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Post("/items/adjust", controllers.CartAdjustItems(deps.Cart, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateQuantity(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Post("/coupon", controllers.CouponApply(deps.Coupons, logg))
			r.Delete("/coupon", controllers.CouponRemove(deps.Coupons, logg))
		})

		r.Post("/checkout/validate-stock", controllers.CheckoutValidateStock(deps.Checkout, logg))
		r.Post("/checkout/auto-fix", controllers.CheckoutAutoFix(deps.Checkout, logg))
		r.Post("/checkout", controllers.CheckoutExecute(deps.Checkout, logg))

		r.Post("/points/tokens", controllers.PointsNewToken(deps.Points, logg))
		r.Post("/points/submissions", controllers.PointsSubmit(deps.Points, logg))

		r.Get("/orders", controllers.OrdersList(deps.Orders, logg))
		r.Get("/orders/{orderID}", controllers.OrderGet(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireVendor(logg))
			r.Get("/vendor/products", controllers.VendorCatalog(deps.Products, logg))
			r.Post("/vendor/products", controllers.VendorProductSave(deps.Products, logg))
		})
	})

	return r
}
