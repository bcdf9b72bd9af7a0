package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formblocks/components/uploads"
	"github.com/goliatone/go-formblocks/internal/config"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
	"github.com/goliatone/go-formblocks/pkg/logging"
	"github.com/goliatone/go-formblocks/pkg/orchestrator"
	"github.com/goliatone/go-formblocks/pkg/render"
	"github.com/goliatone/go-formblocks/pkg/renderers/vanilla"
)

var formExtensions = []string{".yaml", ".yml", ".json"}

func newRouter(cfg config.Config, logger *zap.Logger, st store.Store) (http.Handler, error) {
	constraints, err := cfg.Uploads.Constraints()
	if err != nil {
		return nil, err
	}
	requestLimit, err := cfg.Uploads.RequestLimit()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	uploadOpts := uploads.NewOptions(
		uploads.WithRoutePath(cfg.Uploads.RoutePath),
		uploads.WithFieldName(cfg.Uploads.FieldName),
		uploads.WithKeyPrefix(cfg.Uploads.KeyPrefix),
		uploads.WithMaxRequestSize(requestLimit),
		uploads.WithConstraints(constraints),
		uploads.WithStore(st),
		uploads.WithLogger(logger.Named("uploads")),
	)
	pattern, err := uploads.RegisterRoutesWithOptions(mux, "", uploadOpts)
	if err != nil {
		return nil, err
	}

	assetsPath := "/" + strings.Trim(cfg.Server.AssetsPath, "/")
	mux.Handle(assetsPath+"/", http.StripPrefix(assetsPath, http.FileServerFS(vanilla.AssetsFS())))

	if local, ok := st.(*store.LocalStore); ok && strings.HasPrefix(local.BaseURL, "/") {
		base := strings.TrimRight(local.BaseURL, "/")
		mux.Handle("GET "+base+"/", http.StripPrefix(base, storedFiles(http.FileServer(http.Dir(local.Dir)))))
	}

	if cfg.Server.FormsDir != "" {
		forms, err := newFormsHandler(cfg, logger, assetsPath)
		if err != nil {
			return nil, err
		}
		mux.Handle("GET /forms/{name}", forms)
	}

	logger.Debug("routes mounted", zap.String("uploads", pattern), zap.String("assets", assetsPath))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !containsWildcard(cfg.Server.CORSOrigins),
	})
	return logging.Middleware(logger, c.Handler(mux)), nil
}

// storedFiles serves uploads as downloads. Uploaded markup or scripts are
// never rendered or run on the server's origin.
func storedFiles(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Disposition", "attachment")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "sandbox; default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// formsHandler renders definitions from the forms directory as HTML.
type formsHandler struct {
	dir    string
	locale string
	gen    *orchestrator.Orchestrator
	logger *zap.Logger
}

func newFormsHandler(cfg config.Config, logger *zap.Logger, assetsPath string) (*formsHandler, error) {
	renderer, err := vanilla.New(vanilla.WithTheme(&theme.RendererConfig{
		AssetURL: func(name string) string { return assetsPath + "/" + name },
	}))
	if err != nil {
		return nil, fmt.Errorf("forms: vanilla renderer: %w", err)
	}
	registry := render.NewRegistry()
	if err := registry.Register(renderer); err != nil {
		return nil, err
	}
	return &formsHandler{
		dir:    cfg.Server.FormsDir,
		locale: cfg.Submit.Locale,
		gen: orchestrator.New(
			orchestrator.WithRegistry(registry),
			orchestrator.WithLogger(logger.Named("orchestrator")),
		),
		logger: logger,
	}, nil
}

func (h *formsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := h.lookup(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	locale := query.Get("locale")
	if locale == "" {
		locale = h.locale
	}
	html, err := h.gen.Generate(r.Context(), orchestrator.Request{
		Path:          path,
		Subset:        render.ParseFieldSubset(query.Get("fields"), query.Get("types")),
		RenderOptions: render.RenderOptions{Locale: locale},
	})
	if err != nil {
		h.logger.Error("render form", zap.String("path", path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

var errFormNotFound = errors.New("form not found")

func (h *formsHandler) lookup(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", errFormNotFound
	}
	for _, ext := range formExtensions {
		path := filepath.Join(h.dir, name+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", errFormNotFound
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
