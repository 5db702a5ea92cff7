package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	documentHandler *DocumentHandler,
	viewerHandler *ViewerHandler,
	blobHandler *BlobHandler,
	middlewares ...mux.MiddlewareFunc,
) http.Handler {
	router := mux.NewRouter()
	for _, m := range middlewares {
		router.Use(m)
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"pdf-tile-renderer"}`))
	}).Methods("GET")

	// Tile images
	router.HandleFunc(blobRoute+"{id}", blobHandler.GetBlob).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Document routes
	api.HandleFunc("/document", documentHandler.OpenDocument).Methods("POST")
	api.HandleFunc("/document", documentHandler.GetDocument).Methods("GET")
	api.HandleFunc("/document", documentHandler.CloseDocument).Methods("DELETE")

	// Viewer routes
	api.HandleFunc("/zoom", viewerHandler.GetZoom).Methods("GET")
	api.HandleFunc("/zoom", viewerHandler.SetZoom).Methods("PUT")
	api.HandleFunc("/zoom/in", viewerHandler.ZoomIn).Methods("POST")
	api.HandleFunc("/zoom/out", viewerHandler.ZoomOut).Methods("POST")
	api.HandleFunc("/pages/{index}", viewerHandler.GetPage).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:4173", // Vite preview
			"http://localhost:3000", // Alternative dev port
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
