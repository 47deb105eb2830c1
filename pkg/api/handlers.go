package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"card-hunter/pkg/models"

	scalargo "github.com/bdpiprava/scalar-go"
	"go.uber.org/zap"
)

// Searcher is the part of the search service the HTTP layer needs.
type Searcher interface {
	Search(ctx context.Context, query string, order models.SortOrder) ([]models.CardInfo, error)
	Shops() []models.Shop
	Shop(id string) (models.Shop, bool)
}

type Server struct {
	search  Searcher
	log     *zap.Logger
	specDir string
}

func NewServer(search Searcher, log *zap.Logger, specDir string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{search: search, log: log.Named("api"), specDir: specDir}
}

// Handler returns the routes wrapped in request id and access log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.searchHandler)
	mux.HandleFunc("/shops", s.shopsHandler)
	mux.HandleFunc("/shops/", s.shopHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/", s.rootHandler)
	return WithRequestID(WithLogging(s.log)(mux))
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteNotFound(w, r, fmt.Sprintf("No route for %s. See / for the API reference.", r.URL.Path))
		return
	}

	// Serve Scalar docs on root path
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir(s.specDir),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Card Hunter API"),
		),
	)
	if err != nil {
		WriteInternalServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	query := r.URL.Query().Get("q")
	order, err := models.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}

	cards, err := s.search.Search(r.Context(), query, order)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyQuery):
			WriteBadRequest(w, r, "Query parameter q is required.")
		case errors.Is(err, context.DeadlineExceeded):
			WriteError(w, r, http.StatusGatewayTimeout, "Search did not finish in time. Results will be cached when it does.")
		case errors.Is(err, context.Canceled):
			// client went away
		default:
			WriteInternalServerError(w, r, err)
		}
		return
	}

	s.writeJSON(w, r, cards)
}

func (s *Server) shopsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, r, http.MethodGet)
		return
	}
	s.writeJSON(w, r, s.search.Shops())
}

func (s *Server) shopHandler(w http.ResponseWriter, r *http.Request) {
	// Path expected: /shops/{id}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/shops/"), "/")
	if id == "" || strings.Contains(id, "/") {
		WriteBadRequest(w, r, "Invalid path. Expected /shops/{id}")
		return
	}
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	shop, ok := s.search.Shop(id)
	if !ok {
		WriteNotFound(w, r, fmt.Sprintf("Shop %q not found", id))
		return
	}
	s.writeJSON(w, r, shop)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encoding response", zap.Error(err))
		WriteInternalServerError(w, r, fmt.Errorf("failed to encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
