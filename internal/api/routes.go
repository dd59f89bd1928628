package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", handler.Root).Methods("GET")
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/portfolio", handler.GetPortfolio).Methods("GET")
	r.HandleFunc("/trades", handler.GetTrades).Methods("GET")
	r.HandleFunc("/trades", handler.PostTrade).Methods("POST")

	return r
}
