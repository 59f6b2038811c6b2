package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RegisterRoutes sets up all the API endpoints and middleware for the application.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	// --- Global Middleware (Applied to ALL routes) ---
	r.Use(middleware.Logger)    // Logs incoming requests
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error

	r.Use(cors.Handler(cors.Options{
		// In production, you would tighten this to your frontend's domain.
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", s.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Spotify-Token"},
		AllowCredentials: true,
		MaxAge:           300, // How long the browser can cache preflight results
	}))

	// Every request passes through attachUser; protected groups additionally
	// pass through requireAuth, which turns "no identity" into a 401.
	r.Use(s.attachUser)

	// --- Static File Server ---
	// Serves uploaded profile pictures directly.
	r.Handle("/profile_pictures/*", http.StripPrefix("/profile_pictures/", http.FileServer(http.Dir(s.config.PicturePath))))

	// --- Auth Routes (public, rate limited by IP) ---
	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(20, time.Minute))

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		// Spotify link flow
		r.Get("/spotify/authorize", s.handleSpotifyAuthorize)
		r.Get("/spotify/redirect", s.handleSpotifyRedirect)
		r.Get("/spotify/callback", s.handleSpotifyCallback)
	})

	// --- Authenticated Routes ---
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		// Notification stream
		r.Get("/notifications/stream", s.handleSSE)

		// User Routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleGetAllUsers)
			r.Get("/{userID}", s.handleGetUser)
			r.Put("/{userID}", s.handleUpdateUser)
			r.Delete("/{userID}", s.handleDeleteUser)
			r.Post("/upload/{userID}", s.handleUploadProfilePicture)
		})

		// Group Routes
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleGetAllGroups)
			r.Post("/", s.handleCreateGroup)
			r.Post("/inviteUsers", s.handleInviteUserToGroup)
			r.Get("/findGroup/{userID}", s.handleGetGroupsByCreator)
			r.Get("/getGroup/{userID}", s.handleGetGroupsOfUser)
			r.Get("/getUserFromGroup/{groupID}", s.handleGetGroupMembers)
			r.Get("/getGroupAndCheckIfUserInGroup/{ownUserID}/{userID}", s.handleGetInvitableGroups)
			r.Put("/removeUserFromGroup/{groupID}/{userID}", s.handleRemoveGroupMember)
			r.Get("/{groupID}", s.handleGetGroup)
			r.Put("/{groupID}", s.handleUpdateGroup)
			r.Delete("/{groupID}", s.handleDeleteGroup)
		})

		// Event Routes
		r.Route("/events", func(r chi.Router) {
			r.Get("/public", s.handleGetPublicEvents)
			r.Get("/", s.handleGetEventsOfUser)
			r.Post("/", s.handleCreateEvent)
			r.Post("/join/{eventID}", s.handleJoinEvent)
			r.Post("/invite/{eventID}", s.handleInviteToEvent)
			r.Post("/leave/{eventID}", s.handleLeaveEvent)
			r.Get("/{eventID}", s.handleGetEvent)
			r.Put("/{eventID}", s.handleUpdateEvent)
			r.Delete("/{eventID}", s.handleDeleteEvent)
		})

		// Match Routes
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", s.handleCreateMatch)
			r.Get("/", s.handleGetMutualMatch)
			r.Delete("/", s.handleDeleteMatch)
			r.Get("/checkMatch", s.handleCheckMatch)
			r.Get("/getMatchesOfAnUser", s.handleGetMatchesOfUser)
		})

		// Chat Routes
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", s.handleSendDirectMessage)
			r.Get("/message/{senderID}/{receiverID}", s.handleGetDirectMessages)
			r.Post("/groupMessage", s.handleSendGroupMessage)
			r.Get("/groupMessage/{senderID}/{groupID}", s.handleGetGroupMessages)
		})

		// Spotify Routes
		r.Route("/spotify", func(r chi.Router) {
			r.Get("/refresh", s.handleSpotifyRefresh)
			r.Get("/top-artists", s.handleSpotifyTopArtists)
			r.Get("/top-tracks", s.handleSpotifyTopTracks)
			r.Delete("/{userID}", s.handleSpotifyUnlink)
		})
	})
}
