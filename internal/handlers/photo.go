package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"contact-photos/internal/database"
	"contact-photos/internal/logging"
	"contact-photos/internal/photocache"
)

// GetPhoto serves a contact photo.
// GET /api/addressbooks/{book}/cards/{card}/photo?size=N
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	book, uri, ok := cardVars(r)
	if !ok {
		writeJSONError(w, "Invalid address book or card", http.StatusBadRequest)
		return
	}

	size := photocache.Original
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "Invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}
	if size > h.maxPhotoSize {
		size = h.maxPhotoSize
	}

	card, err := h.db.GetCard(r.Context(), book, uri)
	if errors.Is(err, database.ErrCardNotFound) {
		writeJSONError(w, "Card not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Photo: failed to load card %d/%s: %v", book, uri, err)
		writeJSONError(w, "Failed to load card", http.StatusInternalServerError)
		return
	}

	blob, err := h.cache.Get(photocache.NewContactKey(book, uri), size, card)
	switch {
	case errors.Is(err, photocache.ErrNotFound):
		writeJSONError(w, "Photo not found", http.StatusNotFound)
		return
	case errors.Is(err, photocache.ErrUnsupportedContentType):
		writeJSONError(w, "Unsupported photo type", http.StatusUnsupportedMediaType)
		return
	case err != nil:
		logging.Error("Photo: failed to serve %d/%s at size %d: %v", book, uri, size, err)
		writeJSONError(w, "Failed to load photo", http.StatusInternalServerError)
		return
	}

	logging.Debug("Photo: served %s for %d/%s (%d bytes, cached=%v)", blob.Name, book, uri, len(blob.Data), blob.Cached)

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	if blob.Cached {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	if _, err := w.Write(blob.Data); err != nil {
		logging.Debug("Photo: failed to write response: %v", err)
	}
}

// InvalidatePhoto drops the cached photos of one card.
// DELETE /api/addressbooks/{book}/cards/{card}/photo
func (h *Handlers) InvalidatePhoto(w http.ResponseWriter, r *http.Request) {
	book, uri, ok := cardVars(r)
	if !ok {
		writeJSONError(w, "Invalid address book or card", http.StatusBadRequest)
		return
	}

	if err := h.cache.Delete(photocache.NewContactKey(book, uri)); err != nil {
		logging.Error("Photo: failed to invalidate %d/%s: %v", book, uri, err)
		writeJSONError(w, "Failed to invalidate photo", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}
