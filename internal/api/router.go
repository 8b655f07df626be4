package api

import (
	"database/sql"
	"net/http"

	"github.com/campusfound/campusfound/internal/blobstore"
	"github.com/campusfound/campusfound/internal/registry"
	"github.com/campusfound/campusfound/internal/workflow"
)

// NewRouter creates the router with all endpoints registered.
func NewRouter(db *sql.DB, blobs *blobstore.Store, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{
		DB:       db,
		Registry: registry.New(db),
		Workflow: &workflow.Workflow{DB: db, Blobs: blobs},
	}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: sign-up, sign-in, and stored item photos.
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /images/", http.StripPrefix("/images/", blobs))

	// Authenticated session routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Found items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(itemsHandler.Mine)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/status", authMW(http.HandlerFunc(itemsHandler.Transition)))

	return mux
}
