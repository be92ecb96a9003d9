package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jasirilabs/lats-backend/api/controllers"
	"github.com/jasirilabs/lats-backend/api/middleware"
	analyticssvc "github.com/jasirilabs/lats-backend/internal/analytics"
	authsvc "github.com/jasirilabs/lats-backend/internal/auth"
	products "github.com/jasirilabs/lats-backend/internal/products"
	"github.com/jasirilabs/lats-backend/internal/purchase"
	"github.com/jasirilabs/lats-backend/internal/sales"
	"github.com/jasirilabs/lats-backend/internal/shipping"
	"github.com/jasirilabs/lats-backend/internal/storage"
	"github.com/jasirilabs/lats-backend/internal/suppliers"
	"github.com/jasirilabs/lats-backend/internal/users"
	"github.com/jasirilabs/lats-backend/internal/whatsapp"
	"github.com/jasirilabs/lats-backend/pkg/auth/session"
	"github.com/jasirilabs/lats-backend/pkg/config"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	"github.com/jasirilabs/lats-backend/pkg/logger"
	pkgredis "github.com/jasirilabs/lats-backend/pkg/redis"
)

// Deps bundles everything the router mounts. Analytics may be nil when the
// deployment runs without BigQuery; its routes then answer 503.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	Pingers          map[string]controllers.Pinger
	SessionChecker   session.AccessSessionChecker
	IdempotencyStore pkgredis.IdempotencyStore

	Auth      authsvc.Service
	Users     users.Service
	Products  products.Service
	Suppliers suppliers.Service
	Storage   storage.Service
	Purchase  purchase.Service
	Shipping  shipping.Service
	WhatsApp  whatsapp.Service
	Sales     sales.Service
	Analytics analyticssvc.Service
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, deps.Pingers))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(deps.Auth, logg))
		r.Post("/refresh", controllers.RefreshToken(deps.Auth, logg))
		r.Post("/logout", controllers.Logout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, deps.SessionChecker, logg),
			middleware.Idempotency(deps.IdempotencyStore, logg),
		)

		adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
		managerOrAdmin := middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleManager)

		r.Route("/users", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.CreateUser(deps.Users, logg))
			r.Get("/", controllers.ListUsers(deps.Users, logg))
			r.Get("/{userID}", controllers.GetUser(deps.Users, logg))
			r.Put("/{userID}", controllers.UpdateUser(deps.Users, logg))
			r.Delete("/{userID}", controllers.DeactivateUser(deps.Users, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/low-stock", controllers.ListLowStock(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
			r.With(managerOrAdmin).Post("/", controllers.CreateProduct(deps.Products, logg))
			r.With(managerOrAdmin).Put("/{productID}", controllers.UpdateProduct(deps.Products, logg))
			r.With(managerOrAdmin).Delete("/{productID}", controllers.DeleteProduct(deps.Products, logg))
			r.With(managerOrAdmin).Post("/{productID}/variants", controllers.AddVariant(deps.Products, logg))
		})
		r.Route("/variants", func(r chi.Router) {
			r.Use(managerOrAdmin)
			r.Put("/{variantID}", controllers.UpdateVariant(deps.Products, logg))
			r.Delete("/{variantID}", controllers.DeleteVariant(deps.Products, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.Products, logg))
			r.With(managerOrAdmin).Post("/", controllers.CreateCategory(deps.Products, logg))
			r.With(managerOrAdmin).Delete("/{categoryID}", controllers.DeleteCategory(deps.Products, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.ListSuppliers(deps.Suppliers, logg))
			r.Get("/{supplierID}", controllers.GetSupplier(deps.Suppliers, logg))
			r.With(managerOrAdmin).Post("/", controllers.CreateSupplier(deps.Suppliers, logg))
			r.With(managerOrAdmin).Put("/{supplierID}", controllers.UpdateSupplier(deps.Suppliers, logg))
			r.With(managerOrAdmin).Delete("/{supplierID}", controllers.DeleteSupplier(deps.Suppliers, logg))
		})

		r.Route("/storage/rooms", func(r chi.Router) {
			r.Get("/", controllers.ListRooms(deps.Storage, logg))
			r.Get("/{roomID}", controllers.GetRoom(deps.Storage, logg))
			r.With(managerOrAdmin).Post("/", controllers.CreateRoom(deps.Storage, logg))
			r.With(managerOrAdmin).Put("/{roomID}", controllers.UpdateRoom(deps.Storage, logg))
			r.With(managerOrAdmin).Delete("/{roomID}", controllers.DeleteRoom(deps.Storage, logg))
			r.With(managerOrAdmin).Post("/{roomID}/shelves", controllers.AddShelf(deps.Storage, logg))
		})
		r.Route("/storage/shelves", func(r chi.Router) {
			r.Use(managerOrAdmin)
			r.Put("/{shelfID}", controllers.UpdateShelf(deps.Storage, logg))
			r.Delete("/{shelfID}", controllers.DeleteShelf(deps.Storage, logg))
		})
		r.With(managerOrAdmin).Post("/storage/move-stock", controllers.MoveStock(deps.Storage, logg))

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.ListPurchaseOrders(deps.Purchase, logg))
			r.Get("/{orderID}", controllers.GetPurchaseOrder(deps.Purchase, logg))
			r.Get("/{orderID}/shipments", controllers.ListOrderShipments(deps.Shipping, logg))
			r.Post("/", controllers.CreatePurchaseOrder(deps.Purchase, logg))
			r.Put("/{orderID}", controllers.UpdatePurchaseOrder(deps.Purchase, logg))
			r.Post("/{orderID}/actions", controllers.ApplyPurchaseOrderActions(deps.Purchase, logg))
			r.With(managerOrAdmin).Post("/{orderID}/submit", controllers.SubmitPurchaseOrder(deps.Purchase, logg))
			r.With(managerOrAdmin).Post("/{orderID}/confirm", controllers.ConfirmPurchaseOrder(deps.Purchase, logg))
			r.With(managerOrAdmin).Post("/{orderID}/receive", controllers.ReceivePurchaseOrder(deps.Purchase, logg))
			r.With(managerOrAdmin).Post("/{orderID}/cancel", controllers.CancelPurchaseOrder(deps.Purchase, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Get("/{shipmentID}", controllers.GetShipment(deps.Shipping, logg))
			r.Post("/", controllers.CreateShipment(deps.Shipping, logg))
			r.Post("/{shipmentID}/status", controllers.UpdateShipmentStatus(deps.Shipping, logg))
		})

		r.Route("/whatsapp", func(r chi.Router) {
			r.Route("/instances", func(r chi.Router) {
				r.Use(managerOrAdmin)
				r.Post("/", controllers.CreateWhatsAppInstance(deps.WhatsApp, logg))
				r.Get("/", controllers.ListWhatsAppInstances(deps.WhatsApp, logg))
				r.Get("/{instanceID}", controllers.GetWhatsAppInstance(deps.WhatsApp, logg))
				r.Put("/{instanceID}", controllers.UpdateWhatsAppInstance(deps.WhatsApp, logg))
				r.Delete("/{instanceID}", controllers.DeleteWhatsAppInstance(deps.WhatsApp, logg))
				r.Post("/{instanceID}/refresh-status", controllers.RefreshWhatsAppInstanceStatus(deps.WhatsApp, logg))
			})
			r.Route("/messages", func(r chi.Router) {
				r.Post("/", controllers.EnqueueWhatsAppMessage(deps.WhatsApp, logg))
				r.Get("/", controllers.ListWhatsAppMessages(deps.WhatsApp, logg))
				r.Get("/{messageID}", controllers.GetWhatsAppMessage(deps.WhatsApp, logg))
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.RecordSale(deps.Sales, logg))
			r.Get("/", controllers.ListSales(deps.Sales, logg))
			r.Get("/{saleID}", controllers.GetSale(deps.Sales, logg))
		})

		r.With(managerOrAdmin).Get("/analytics/dashboard", controllers.AnalyticsDashboard(deps.Analytics, logg))
	})

	return r
}
