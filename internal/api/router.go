package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"

	"github.com/erazemk/drazba/internal/model"
)

// NewRouter creates the API router with all endpoints registered. When
// allowedOrigins is non-empty, browsers from those origins may call the API.
func NewRouter(db *sqlx.DB, jwtSecret string, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	categoriesHandler := &CategoriesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	bidsHandler := &BidsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireSeller := RequireRole(model.RoleSeller)
	requireBidder := RequireRole(model.RoleBidder)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Categories: read (public), write (admin).
	mux.HandleFunc("GET /api/categories", categoriesHandler.List)
	mux.HandleFunc("GET /api/categories/{id}", categoriesHandler.Get)
	mux.Handle("POST /api/categories", authMW(requireAdmin(http.HandlerFunc(categoriesHandler.Create))))
	mux.Handle("DELETE /api/categories/{id}", authMW(requireAdmin(http.HandlerFunc(categoriesHandler.Delete))))

	// Items: browsing is public.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/statuses/{status}/items", itemsHandler.ListByStatus)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/image", itemsHandler.GetImage)
	mux.HandleFunc("GET /api/sellers/{id}/items", itemsHandler.ListBySeller)

	// Items: sellers list, admins moderate.
	mux.Handle("POST /api/items", authMW(requireSeller(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireSeller(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("PUT /api/items/{id}/status", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UpdateStatus))))

	// Bids: anyone signed in may bid on items they do not sell.
	mux.HandleFunc("GET /api/items/{id}/bids", bidsHandler.List)
	mux.Handle("POST /api/items/{id}/bids", authMW(requireBidder(http.HandlerFunc(bidsHandler.Place))))

	if len(allowedOrigins) == 0 {
		return mux
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	}).Handler(mux)
}
