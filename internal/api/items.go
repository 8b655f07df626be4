package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/registry"
	"github.com/campusfound/campusfound/internal/store"
	"github.com/campusfound/campusfound/internal/workflow"
)

// ItemsHandler handles found-item endpoints.
type ItemsHandler struct {
	DB       *sql.DB
	Registry *registry.Registry
	Workflow *workflow.Workflow
}

// maxUploadForm bounds the multipart request body: the 5 MiB image plus some
// slack for the text fields.
const maxUploadForm = workflow.MaxImageBytes + 1<<20

type listResponse struct {
	Items  []model.FoundItem `json:"items"`
	Counts registry.Counts   `json:"counts"`
	Stale  bool              `json:"stale,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// actorFromClaims builds the acting profile from the verified token claims.
func actorFromClaims(r *http.Request) *model.Profile {
	claims := GetClaims(r.Context())
	if claims == nil {
		return nil
	}
	return &model.Profile{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
}

// List handles GET /api/items?q=...&status=... The registry is reloaded from
// the store, then filtered; on a load failure the prior snapshot is served
// with a stale marker instead of dropping the listing entirely.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Registry.Load(r.Context())
	if err != nil {
		if items == nil {
			slog.Error("failed to load items", "error", err)
			jsonError(w, http.StatusServiceUnavailable, "failed to load items")
			return
		}
		slog.Warn("serving stale item listing", "error", err)
	}

	query := r.URL.Query().Get("q")
	status := registry.ParseStatusFilter(r.URL.Query().Get("status"))

	filtered := registry.Filter(items, query, status)
	if filtered == nil {
		filtered = []model.FoundItem{}
	}

	resp := listResponse{
		Items:  filtered,
		Counts: registry.CountByStatus(items),
	}
	if err != nil {
		resp.Stale = true
		resp.Error = "listing may be out of date"
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Mine handles GET /api/items/mine, listing the caller's own reports.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	items, err := store.ListFoundItemsByReporter(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if items == nil {
		items = []model.FoundItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. The body is either a JSON draft or a
// multipart form with an optional "image" file part.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	item, err := h.Workflow.Submit(r.Context(), draft, actorFromClaims(r))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// decodeDraft reads a report draft from a JSON or multipart request. On
// failure it writes the error response and returns ok=false.
func (h *ItemsHandler) decodeDraft(w http.ResponseWriter, r *http.Request) (*workflow.Draft, bool) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var draft workflow.Draft
		if err := decodeJSON(r, &draft); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return nil, false
		}
		return &draft, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, false
	}

	draft := &workflow.Draft{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		FoundLocation:   r.FormValue("found_location"),
		DepositLocation: r.FormValue("deposit_location"),
		FoundDate:       r.FormValue("found_date"),
		FoundTime:       r.FormValue("found_time"),
	}

	file, _, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to read image")
			return nil, false
		}
		draft.Image = data
	} else if err != http.ErrMissingFile {
		jsonError(w, http.StatusBadRequest, "invalid image upload")
		return nil, false
	}

	return draft, true
}

// writeWorkflowError maps workflow failures to HTTP responses.
func writeWorkflowError(w http.ResponseWriter, err error) {
	var verr *workflow.ValidationError
	var tooLarge *workflow.ImageTooLargeError
	var uploadErr *workflow.UploadError

	switch {
	case errors.Is(err, workflow.ErrAuthRequired):
		jsonError(w, http.StatusUnauthorized, "sign in required")
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &tooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image must be 5 MiB or smaller")
	case errors.As(err, &uploadErr):
		slog.Error("image upload failed", "error", err)
		jsonError(w, http.StatusBadRequest, "could not process the attached image")
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, "you may only modify your own reports")
	default:
		slog.Error("report workflow failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save report")
	}
}

// Get handles GET /api/items/{id}, returning the item and its status history.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	history, err := store.GetStatusHistory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get status history")
		return
	}
	if history == nil {
		history = []model.StatusEvent{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":    item,
		"history": history,
	})
}

// Delete handles DELETE /api/items/{id}. Ownership is enforced by the store;
// on success the registry snapshot drops the record immediately.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Workflow.Delete(r.Context(), id, actorFromClaims(r)); err != nil {
		writeWorkflowError(w, err)
		return
	}

	h.Registry.Drop(id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "report deleted"})
}

type transitionRequest struct {
	Status string `json:"status"`
}

// Transition handles POST /api/items/{id}/status, advancing the lifecycle
// one step. The guard runs against the stored status, so a stale or
// malicious client cannot skip or reverse steps.
func (h *ItemsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.StatusKnown(req.Status) {
		jsonError(w, http.StatusBadRequest, "unknown status")
		return
	}

	actor := actorFromClaims(r)
	if actor == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	err = store.TransitionStatus(r.Context(), h.DB, id, req.Status, actor)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, "only the reporter or staff may update the status")
		return
	default:
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	item, err := store.GetFoundItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
