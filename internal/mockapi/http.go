package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MockShop/internal/auth"
	"MockShop/internal/catalog"
	"MockShop/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	maxRating    = 5
)

type Server struct {
	Log      *zap.Logger
	Users    *auth.UserStore
	Tokens   *auth.TokenMaker
	Products *catalog.Store

	// Now stamps new comments. time.Now when nil.
	Now func() time.Time
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	u, err := s.Users.Verify(req.Username, req.Password)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	tok, err := s.Tokens.Issue(u.Username)
	if err != nil {
		s.log().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{Token: tok})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Products.Load(r.Context())
	if err != nil {
		s.log().Error("load products", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	p, found, err := s.Products.FindByID(r.Context(), id)
	if err != nil {
		s.log().Error("find product", zap.Int("id", id), zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	_, found, err := s.Products.FindByID(r.Context(), id)
	if err != nil {
		s.log().Error("find product", zap.Int("id", id), zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var c catalog.Comment
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if c.Rating < 0 || c.Rating > maxRating {
		kit.WriteError(w, r, http.StatusBadRequest, "rating must be between 0 and 5", map[string]any{"rating": c.Rating})
		return
	}

	s.fillCommentDefaults(r, &c)

	p, err := s.Products.AppendComment(r.Context(), id, c)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
			return
		}
		s.log().Error("append comment", zap.Int("id", id), zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, p.Comments[0])
}

func (s *Server) fillCommentDefaults(r *http.Request, c *catalog.Comment) {
	now := s.now()

	if c.Username == "" {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			c.Username = claims.Username
		}
	}
	if c.Date == "" {
		c.Date = now.UTC().Format(time.RFC3339)
	}
}

type whoAmIResp struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	resp := whoAmIResp{Username: claims.Username}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	kit.WriteJSON(w, http.StatusOK, resp)
}

// productID accepts plain decimal digits only, no sign.
func productID(r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" || strings.IndexFunc(raw, func(c rune) bool { return c < '0' || c > '9' }) >= 0 {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
