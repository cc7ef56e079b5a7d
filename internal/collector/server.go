package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"github.com/raysh454/hoarder-capture/internal/logging"
)

// PageRequest is the body of POST /job-collection/page.
type PageRequest struct {
	URL      *string `json:"url"`
	PageHTML *string `json:"page_html"`
}

// PageResponse confirms a stored or looked-up page.
type PageResponse struct {
	PageID  int64  `json:"page_id"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// PageItem is one entry of the page listing.
type PageItem struct {
	PageID int64  `json:"page_id"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
}

// PageListResponse lists every stored page.
type PageListResponse struct {
	Total int        `json:"total"`
	Pages []PageItem `json:"pages"`
}

// Server exposes a Store over HTTP.
type Server struct {
	cfg    Config
	store  Store
	router chi.Router
	logger logging.Logger
}

func NewServer(cfg Config, store Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("collector: store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Collector")
	}
	s := &Server{cfg: cfg, store: store, router: chi.NewRouter(), logger: logger}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(corsMiddleware)

	r.Get("/", s.handleRoot)
	r.Post("/job-collection/page", s.handleCreatePage)
	r.Get("/job-collection/page/{pageID}", s.handleGetPage)
	r.Get("/job-collection/pages", s.handleListPages)
}

// corsMiddleware admits any origin, browser extensions included.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path},
		logging.Field{Key: "elapsed_ms", Value: time.Since(start).Milliseconds()},
	)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s,
		ReadTimeout: 30 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Job Scraper API is running",
	})
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var body PageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding page body", logging.Err(err))
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	var missing []string
	if body.URL == nil {
		missing = append(missing, "url")
	}
	if body.PageHTML == nil {
		missing = append(missing, "page_html")
	}
	if len(missing) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "field required: "+strings.Join(missing, ", "))
		return
	}

	page, err := s.store.Create(r.Context(), *body.URL, *body.PageHTML)
	if err != nil {
		s.logger.Error("saving job page", logging.Err(err))
		writeDetail(w, http.StatusInternalServerError, "Error saving job page: "+err.Error())
		return
	}
	s.logger.Info("saved job page",
		logging.Field{Key: "page_id", Value: page.ID},
		logging.Field{Key: "url", Value: page.URL},
		logging.Field{Key: "bytes", Value: len(page.HTML)},
	)
	writeJSON(w, http.StatusOK, PageResponse{PageID: page.ID, URL: page.URL, Message: "Job page saved successfully"})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "pageID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "page_id must be an integer")
		return
	}
	page, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrPageNotFound) {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Job page with ID %d not found", id))
		return
	}
	if err != nil {
		s.logger.Error("retrieving job page", logging.Err(err))
		writeDetail(w, http.StatusInternalServerError, "Error retrieving job page: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PageResponse{PageID: page.ID, URL: page.URL, Message: "Job page retrieved successfully"})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing job pages", logging.Err(err))
		writeDetail(w, http.StatusInternalServerError, "Error retrieving job pages: "+err.Error())
		return
	}
	resp := PageListResponse{Total: len(pages), Pages: make([]PageItem, 0, len(pages))}
	for _, p := range pages {
		resp.Pages = append(resp.Pages, PageItem{PageID: p.ID, URL: p.URL, Title: PageTitle(p.HTML)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// PageTitle returns the document's <title>, falling back to its first <h1>.
func PageTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.Join(strings.Fields(doc.Find("h1").First().Text()), " ")
}
