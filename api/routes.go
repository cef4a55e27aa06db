package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"anivault/handlers"
	"anivault/services/profiles"
)

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	titlesHandler *handlers.TitlesHandler,
	episodesHandler *handlers.EpisodesHandler,
	profilesHandler *handlers.ProfilesHandler,
	watchlistHandler *handlers.WatchlistHandler,
	progressHandler *handlers.ProgressHandler,
	reviewsHandler *handlers.ReviewsHandler,
	discoverHandler *handlers.DiscoverHandler,
	profilesSvc *profiles.Service,
	logger *logrus.Logger,
	requestTimeout time.Duration,
) {
	api := r.PathPrefix("/api").Subrouter()

	api.Use(corsMiddleware)
	api.Use(loggingMiddleware(logger))
	api.Use(timeoutMiddleware(requestTimeout))
	api.Use(IdentityMiddleware(profilesSvc))

	api.Handle("/health", handlers.NewHealthHandler()).Methods(http.MethodGet)

	// Catalog reads (public). Shelf routes go before /titles/{id} so the
	// literal segments are not swallowed by the id pattern.
	api.HandleFunc("/titles/featured", discoverHandler.Featured).Methods(http.MethodGet)
	api.HandleFunc("/titles/trending", discoverHandler.Trending).Methods(http.MethodGet)
	api.HandleFunc("/titles/series/{seriesName}", discoverHandler.BySeries).Methods(http.MethodGet)
	api.HandleFunc("/titles", titlesHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/titles", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/titles/{id}", titlesHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/titles/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/titles/{id}/reviews", reviewsHandler.ListByTitle).Methods(http.MethodGet)
	api.HandleFunc("/titles/{id}/reviews", reviewsHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/titles/{id}/reviews", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/episodes/title/{titleID}", episodesHandler.ListByTitle).Methods(http.MethodGet)
	api.HandleFunc("/episodes/{id}", episodesHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/episodes/{id}", handleOptions).Methods(http.MethodOptions)

	// Catalog writes (admin only)
	admin := api.PathPrefix("").Subrouter()
	admin.Use(AdminOnlyMiddleware())
	admin.HandleFunc("/titles", titlesHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/titles/{id}", titlesHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/titles/{id}", titlesHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/episodes", episodesHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/episodes", handleOptions).Methods(http.MethodOptions)
	admin.HandleFunc("/episodes/{id}", episodesHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/episodes/{id}", episodesHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/profiles", profilesHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/profiles/{id}/role", profilesHandler.UpdateRole).Methods(http.MethodPut)
	admin.HandleFunc("/profiles/{id}/role", handleOptions).Methods(http.MethodOptions)

	// Profiles
	api.HandleFunc("/profiles", profilesHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/profiles", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/profiles/{id}", profilesHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", handleOptions).Methods(http.MethodOptions)

	profileOwned := api.PathPrefix("/profiles").Subrouter()
	profileOwned.Use(OwnerOrAdminMiddleware("id"))
	profileOwned.HandleFunc("/{id}", profilesHandler.Update).Methods(http.MethodPut)
	profileOwned.HandleFunc("/{id}", profilesHandler.Delete).Methods(http.MethodDelete)

	// Per-user state (owner or admin)
	userRoutes := api.PathPrefix("/users").Subrouter()
	userRoutes.Use(OwnerOrAdminMiddleware("userID"))
	userRoutes.HandleFunc("/{userID}/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{userID}/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	userRoutes.HandleFunc("/{userID}/watchlist", handleOptions).Methods(http.MethodOptions)
	userRoutes.HandleFunc("/{userID}/watchlist/{titleID}", watchlistHandler.Get).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{userID}/watchlist/{titleID}", watchlistHandler.Remove).Methods(http.MethodDelete)
	userRoutes.HandleFunc("/{userID}/watchlist/{titleID}", handleOptions).Methods(http.MethodOptions)

	userRoutes.HandleFunc("/{userID}/progress", progressHandler.List).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{userID}/progress", progressHandler.Create).Methods(http.MethodPost)
	userRoutes.HandleFunc("/{userID}/progress", handleOptions).Methods(http.MethodOptions)
	userRoutes.HandleFunc("/{userID}/progress/{episodeID}", progressHandler.Get).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{userID}/progress/{episodeID}", progressHandler.Update).Methods(http.MethodPut)
	userRoutes.HandleFunc("/{userID}/progress/{episodeID}", progressHandler.Delete).Methods(http.MethodDelete)
	userRoutes.HandleFunc("/{userID}/progress/{episodeID}", handleOptions).Methods(http.MethodOptions)

	userRoutes.HandleFunc("/{userID}/reviews/{titleID}", reviewsHandler.GetUserReview).Methods(http.MethodGet)
	userRoutes.HandleFunc("/{userID}/completion/{titleID}", discoverHandler.Completion).Methods(http.MethodGet)

	// Review edits check ownership in the handler since the author is only
	// known once the record is loaded.
	api.HandleFunc("/reviews/{id}", reviewsHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/reviews/{id}", reviewsHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/reviews/{id}", handleOptions).Methods(http.MethodOptions)
}
