// Package lobbyserver is the HTTP discovery service. Players register an
// account, game servers advertise themselves under a short join id, and
// clients resolve that id to a TCP address.
package lobbyserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/cambiogame/cambio/internal/db"
)

const refreshCookieName = "refresh_token"

// Store is the persistence the lobby service needs.
type Store interface {
	CreateUser(ctx context.Context, u db.User) error
	GetUser(ctx context.Context, name string) (*db.User, error)
	CreateGame(ctx context.Context, g db.Game) error
	GetGame(ctx context.Context, id string) (*db.Game, error)
	ListPublicGames(ctx context.Context) ([]db.Game, error)
}

// Server serves the discovery API.
type Server struct {
	store   Store
	tokens  *TokenIssuer
	limiter *Limiter
	log     *slog.Logger
	now     func() time.Time
}

func NewServer(store Store, tokens *TokenIssuer, limiter *Limiter, log *slog.Logger) *Server {
	return &Server{
		store:   store,
		tokens:  tokens,
		limiter: limiter,
		log:     log,
		now:     time.Now,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/register", s.handleRegister)
		r.Get("/login", s.handleLogin)
	})
	r.Get("/refresh", s.handleRefresh)
	r.Get("/list", s.handleList)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/create", s.handleCreate)
		r.Get("/join/{id}", s.handleJoin)
	})
	return r
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// CreateGameRequest is what a game server posts to advertise itself.
// Visibility is "public" or "private"; only public games appear in /list.
type CreateGameRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	ServerAddr string `json:"server_addr"`
}

// CreateGameResponse carries the join id assigned to a new game.
type CreateGameResponse struct {
	ID string `json:"id"`
}

// GameInfo is the public view of an advertised game.
type GameInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ServerAddr string `json:"server_addr"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	existing, err := s.store.GetUser(r.Context(), creds.Username)
	if err != nil {
		s.internalError(w, "looking up user", err)
		return
	}
	if existing != nil {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, "hashing password", err)
		return
	}
	if err := s.store.CreateUser(r.Context(), db.User{Name: creds.Username, Password: string(hash)}); err != nil {
		s.internalError(w, "creating user", err)
		return
	}

	s.log.Info("user registered", "username", creds.Username)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth required", http.StatusUnauthorized)
		return
	}

	user, err := s.store.GetUser(r.Context(), username)
	if err != nil {
		s.internalError(w, "looking up user", err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s.issueTokens(w, username)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		http.Error(w, "refresh token required", http.StatusUnauthorized)
		return
	}
	username, err := s.tokens.Verify(cookie.Value)
	if err != nil {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	s.issueTokens(w, username)
}

// issueTokens writes a fresh access token in the body and rotates the
// refresh token cookie.
func (s *Server) issueTokens(w http.ResponseWriter, username string) {
	now := s.now()
	access, err := s.tokens.AccessToken(username, now)
	if err != nil {
		s.internalError(w, "issuing access token", err)
		return
	}
	refresh, err := s.tokens.RefreshToken(username, now)
	if err != nil {
		s.internalError(w, "issuing refresh token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/",
		MaxAge:   int(refreshTokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ServerAddr == "" {
		http.Error(w, "name and server_addr required", http.StatusBadRequest)
		return
	}
	if req.Visibility != "public" && req.Visibility != "private" {
		http.Error(w, "visibility must be public or private", http.StatusBadRequest)
		return
	}

	id, err := NewGameID()
	if err != nil {
		s.internalError(w, "generating game id", err)
		return
	}
	game := db.Game{ID: id, Name: req.Name, ServerAddr: req.ServerAddr, Public: req.Visibility == "public"}
	if err := s.store.CreateGame(r.Context(), game); err != nil {
		s.internalError(w, "creating game", err)
		return
	}

	s.log.Info("game advertised", "id", id, "name", req.Name, "visibility", req.Visibility, "host", usernameFrom(r.Context()))
	s.writeJSON(w, http.StatusCreated, CreateGameResponse{ID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListPublicGames(r.Context())
	if err != nil {
		s.internalError(w, "listing games", err)
		return
	}

	infos := make([]GameInfo, 0, len(games))
	for _, g := range games {
		infos = append(infos, GameInfo{ID: g.ID, Name: g.Name, ServerAddr: g.ServerAddr})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := ParseGameID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	game, err := s.store.GetGame(r.Context(), id)
	if err != nil {
		s.internalError(w, "looking up game", err)
		return
	}
	if game == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, GameInfo{ID: game.ID, Name: game.Name, ServerAddr: game.ServerAddr})
}

// requireAuth rejects requests without a valid bearer access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			http.Error(w, "bearer token required", http.StatusUnauthorized)
			return
		}
		username, err := s.tokens.Verify(header[len(prefix):])
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type usernameKey struct{}

// usernameFrom returns the authenticated username stored by requireAuth.
func usernameFrom(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey{}).(string)
	return name
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
