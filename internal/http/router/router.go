package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/rogerio-castellano/storefront/docs"
	"github.com/rogerio-castellano/storefront/internal/auth"
	"github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/models"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter wires every route. Uploaded images under storageDir are served
// at /storage/products/.
func NewRouter(tokens *auth.Tokens, limiter *rl.Limiter, storageDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle(handlers.ImagePublicPath+"*",
		http.StripPrefix(handlers.ImagePublicPath, http.FileServer(http.Dir(storageDir))))

	r.Post("/register", handlers.RegisterHandler)
	r.Post("/login", handlers.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.Identity(tokens))

		r.Get("/", handlers.CatalogHandler)
		r.Get("/product/{id}", handlers.ShowProductHandler)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handlers.GetCartHandler)
			r.Get("/count", handlers.CartCountHandler)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimit(limiter))
				r.Post("/add", handlers.AddToCartHandler)
				r.Post("/checkout", handlers.CheckoutHandler)
				r.Put("/{cartItemId}", handlers.UpdateCartItemHandler)
				r.Delete("/{cartItemId}", handlers.RemoveCartItemHandler)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(models.RoleAdmin))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", handlers.FilterProductsHandler)
				r.Post("/", handlers.CreateProductHandler)
				r.Post("/import", handlers.ImportProductsHandler)
				r.Get("/{id}", handlers.GetProductByIDHandler)
				r.Put("/{id}", handlers.UpdateProductHandler)
				r.Delete("/{id}", handlers.DeleteProductHandler)
				r.Post("/{id}/restore", handlers.RestoreProductHandler)
				r.Post("/{id}/adjust", handlers.AdjustQuantityHandler)
				r.Post("/{id}/image", handlers.UploadProductImageHandler)
				r.Get("/{id}/movements", handlers.GetMovementsHandler)
				r.Get("/{id}/movements/export", handlers.ExportMovementsHandler)
			})

			r.Get("/dashboard", handlers.GetDashboardMetricsHandler)
			r.Get("/orders/{id}", handlers.GetOrderHandler)
			r.Post("/admin/users", handlers.RegisterAsAdminHandler)
			r.Post("/admin/reports/daily", handlers.SendDailyReportHandler)
		})
	})

	return r
}
