package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/core/validate"
	"github.com/colonyops/techtrack/internal/enrich/github"
	"github.com/colonyops/techtrack/internal/enrich/jobs"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

const maxBodyBytes = 10 << 20

var errExploreDisabled = errors.New("exploration is not configured")

type handlers struct {
	tracker  *techtrack.Tracker
	explorer *techtrack.Explorer
	log      zerolog.Logger
	now      func() time.Time
}

func (h *handlers) routes(pprof bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/technologies", func(r chi.Router) {
			r.Get("/", h.listItems)
			r.Post("/", h.addItem)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.requireItem)
				r.Get("/", h.getItem)
				r.Patch("/", h.updateItem)
				r.Delete("/", h.removeItem)
				r.Post("/cycle", h.cycleStatus)
				r.Put("/status", h.setStatus)

				r.Post("/notes", h.addNote)
				r.Route("/notes/{noteID}", func(r chi.Router) {
					r.Use(h.requireNote)
					r.Patch("/", h.editNote)
					r.Delete("/", h.removeNote)
					r.Post("/toggle", h.toggleNote)
				})
			})
		})

		r.Post("/actions/complete-all", h.completeAll)
		r.Post("/actions/reset-all", h.resetAll)
		r.Post("/actions/clear", h.clear)

		r.Get("/export", h.export)
		r.Post("/import", h.importDocument)
		r.Get("/stats", h.stats)
		r.Get("/categories", h.categories)

		r.Get("/explore/repos", h.exploreRepos)
		r.Get("/explore/jobs", h.exploreJobs)
	})

	if pprof {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string, data map[string]any) {
	writeJSON(w, status, iojson.Error{Message: msg, Data: data})
}

// writeError maps err to a status code and an iojson.Error body.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tech.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error(), map[string]any{"fields": validate.Fields(err)})
	case errors.Is(err, tech.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, github.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, err.Error(), nil)
	case errors.Is(err, errExploreDisabled):
		writeMessage(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		h.log.Error().Ctx(r.Context()).Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decode(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", tech.ErrValidation, err)
	}
	return nil
}

type ctxKey int

const itemKey ctxKey = iota

// requireItem answers 404 for unknown item ids and stashes the item for the
// handlers below it.
func (h *handlers) requireItem(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := tech.ID(chi.URLParam(r, "id"))
		it, err := h.tracker.ByID(id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := logging.WithItemID(r.Context(), id.String())
		ctx = contextWithItem(ctx, it)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handlers) requireNote(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		it := itemFrom(r)
		if _, ok := it.Note(tech.ID(chi.URLParam(r, "noteID"))); !ok {
			h.writeError(w, r, fmt.Errorf("note %q: %w", chi.URLParam(r, "noteID"), tech.ErrNotFound))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respondItem re-reads the item after a mutation.
func (h *handlers) respondItem(w http.ResponseWriter, r *http.Request, status int) {
	it, err := h.tracker.ByID(itemFrom(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, it)
}

func (h *handlers) listItems(w http.ResponseWriter, r *http.Request) {
	items := h.tracker.Search(r.URL.Query().Get("q"))

	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filtered := []tech.Item{}
		for _, it := range items {
			if it.CategoryLabel() == category {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) addItem(w http.ResponseWriter, r *http.Request) {
	var fields tech.NewItem
	if err := decode(r, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}

	it, err := h.tracker.Add(r.Context(), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *handlers) getItem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemFrom(r))
}

func (h *handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch tech.Patch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.tracker.Update(r.Context(), itemFrom(r).ID, patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

func (h *handlers) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Remove(r.Context(), itemFrom(r).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) cycleStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.CycleStatus(r.Context(), itemFrom(r).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

func (h *handlers) setStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status tech.Status `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.tracker.SetStatus(r.Context(), itemFrom(r).ID, body.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

type noteBody struct {
	Text string `json:"text"`
}

func (h *handlers) addNote(w http.ResponseWriter, r *http.Request) {
	var body noteBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	note, err := h.tracker.AddNote(r.Context(), itemFrom(r).ID, body.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *handlers) editNote(w http.ResponseWriter, r *http.Request) {
	var body noteBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	noteID := tech.ID(chi.URLParam(r, "noteID"))
	if err := h.tracker.EditNote(r.Context(), itemFrom(r).ID, noteID, body.Text); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

func (h *handlers) removeNote(w http.ResponseWriter, r *http.Request) {
	noteID := tech.ID(chi.URLParam(r, "noteID"))
	if err := h.tracker.RemoveNote(r.Context(), itemFrom(r).ID, noteID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

func (h *handlers) toggleNote(w http.ResponseWriter, r *http.Request) {
	noteID := tech.ID(chi.URLParam(r, "noteID"))
	if err := h.tracker.ToggleNote(r.Context(), itemFrom(r).ID, noteID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondItem(w, r, http.StatusOK)
}

func (h *handlers) completeAll(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.MarkAllCompleted(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *handlers) resetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.ResetAll(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *handlers) export(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, techtrack.ExportFileName(now)))
	writeJSON(w, http.StatusOK, h.tracker.Export(now))
}

func (h *handlers) importDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("read body: %w", err))
		return
	}

	n, err := h.tracker.ImportDocument(r.Context(), data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *handlers) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *handlers) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Categories())
}

func (h *handlers) exploreRepos(w http.ResponseWriter, r *http.Request) {
	if h.explorer == nil {
		h.writeError(w, r, errExploreDisabled)
		return
	}

	q := r.URL.Query()
	items, err := h.explorer.Repos(r.Context(), q.Get("q"), q.Get("language"))
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) exploreJobs(w http.ResponseWriter, r *http.Request) {
	if h.explorer == nil {
		h.writeError(w, r, errExploreDisabled)
		return
	}

	q := r.URL.Query()
	query := jobs.Query{
		Technology: strings.TrimSpace(q.Get("tech")),
		Location:   q.Get("location"),
		Level:      q.Get("level"),
	}
	if query.Technology == "" {
		writeMessage(w, http.StatusBadRequest, "tech is required", nil)
		return
	}
	if !jobs.ValidLevel(query.Level) {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unknown level %q", query.Level), map[string]any{"levels": jobs.Levels})
		return
	}

	found, err := h.explorer.Jobs(r.Context(), query)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// writeUpstreamError reports a failed enrichment lookup. These never touch
// tracker state, so they are surfaced as a gateway failure.
func (h *handlers) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, github.ErrRateLimited) {
		h.writeError(w, r, err)
		return
	}
	h.log.Warn().Ctx(r.Context()).Err(err).Msg("enrichment lookup failed")
	writeMessage(w, http.StatusBadGateway, err.Error(), nil)
}
