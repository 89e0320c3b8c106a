package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Portfolio: viewing it triggers the revaluation pass
	api.HandleFunc("/portfolio", handler.GetPortfolio).Methods("GET")

	// Position routes
	api.HandleFunc("/positions", handler.CreatePosition).Methods("POST")
	api.HandleFunc("/positions/{id:[0-9]+}", handler.UpdatePosition).Methods("PUT")
	api.HandleFunc("/positions/{id:[0-9]+}", handler.DeletePosition).Methods("DELETE")
	api.HandleFunc("/positions/{id:[0-9]+}/chart", handler.GetPositionChart).Methods("GET")

	// Watchlist routes
	api.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", handler.AddToWatchlist).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", handler.RemoveFromWatchlist).Methods("DELETE")

	return r
}
