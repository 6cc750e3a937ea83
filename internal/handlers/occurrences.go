package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/services"
	"github.com/AnshRaj112/inframonitor-backend/pkg/clientip"
)

// ListOccurrences handles GET /api/occurrences?type&status&severity&priority&bbox&page&limit
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Occurrences.List(r.Context(), services.ListQuery{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
		Priority: q.Get("priority"),
		BBox:     q.Get("bbox"),
		Page:     services.NewPageRequest(q.Get("page"), q.Get("limit"), services.DefaultPageSize),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"data":       page.Occurrences,
		"pagination": page.Pagination,
	})
}

func (h *Handler) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	view, err := h.Occurrences.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", view)
}

// CreateOccurrence accepts anonymous reporters when the service allows it.
func (h *Handler) CreateOccurrence(w http.ResponseWriter, r *http.Request) {
	var in models.OccurrenceInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.Occurrences.Create(r.Context(), in, middleware.UserFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Occurrence reported successfully", view)
}

func (h *Handler) UpdateOccurrence(w http.ResponseWriter, r *http.Request) {
	var in models.OccurrenceInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.Occurrences.Update(r.Context(), chi.URLParam(r, "id"), in, middleware.UserFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Occurrence updated successfully", view)
}

func (h *Handler) DeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	if err := h.Occurrences.Delete(r.Context(), chi.URLParam(r, "id"), middleware.UserFromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Occurrence deleted successfully"})
}

// ConfirmOccurrence handles PUT /api/occurrences/{id}/confirm. The body is optional.
func (h *Handler) ConfirmOccurrence(w http.ResponseWriter, r *http.Request) {
	var in models.ConfirmationInput
	if err := decodeOptional(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	actor := middleware.UserFromContext(r.Context())
	clientKey := ""
	if actor == nil {
		clientKey = clientip.AnonymousKey(r)
	}
	view, err := h.Confirmations.Confirm(r.Context(), chi.URLParam(r, "id"), actor, clientKey, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Occurrence confirmed successfully", view)
}

func (h *Handler) ListConfirmations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Confirmations.ListForOccurrence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.ConfirmationView{}
	}
	writeData(w, http.StatusOK, "", list)
}

// UploadOccurrenceImage handles multipart POST /api/occurrences/{id}/images with an "image" field.
func (h *Handler) UploadOccurrenceImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		h.writeError(w, r, apperr.Validation("Failed to parse form", apperr.FieldError{Field: "image", Message: "image must be a multipart upload of at most 10MB"}))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, apperr.Validation("No image provided", apperr.FieldError{Field: "image", Message: "image is required"}))
		return
	}
	defer file.Close()

	meta, err := h.Occurrences.AttachImage(r.Context(), chi.URLParam(r, "id"), middleware.UserFromContext(r.Context()), file, header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Image uploaded successfully", meta)
}
