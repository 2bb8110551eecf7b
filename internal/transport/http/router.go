package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// API serves the REST side of the quiz: settings, history and flag images.
type API struct {
	service *app.QuizService
	logger  *zap.Logger
}

func NewAPI(service *app.QuizService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{service: service, logger: logger}
}

// NewRouter mounts the health check, websocket, REST routes and, when images is
// not nil, the flag image tree under /flags/.
func NewRouter(api *API, ws *WSHandler, images fs.FS) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	if images != nil {
		r.Handle("/flags/*", http.StripPrefix("/flags/", http.FileServer(http.FS(images))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", api.listRegions)
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/preferences", api.getPreferences)
			r.Put("/preferences", api.putPreferences)
			r.Get("/quiz", api.currentQuiz)
			r.Get("/results", api.listResults)
		})
	})
	return r
}

func (a *API) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := a.service.Regions(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (a *API) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := a.service.Preferences(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *API) putPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid preferences payload"})
		return
	}
	updated, substituted, err := a.service.UpdatePreferences(r.Context(), chi.URLParam(r, "playerID"), prefs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preferencesPayload{Preferences: updated, DefaultRegionApplied: substituted})
}

func (a *API) currentQuiz(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Current(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) listResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := a.service.Results(r.Context(), chi.URLParam(r, "playerID"), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidChoiceCount), errors.Is(err, domain.ErrNoRegions):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientCandidates):
		status = http.StatusUnprocessableEntity
	default:
		a.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
