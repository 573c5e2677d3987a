package handlers

import (
	"errors"
	"io"
	"net/http"

	"contact-photos/internal/database"
	"contact-photos/internal/logging"
	"contact-photos/internal/photocache"
	"contact-photos/internal/vcardphoto"
)

// maxCardSize bounds a PUT body; embedded photos make cards large.
const maxCardSize = 10 << 20

// ListCards returns the card URIs of an address book.
// GET /api/addressbooks/{book}/cards
func (h *Handlers) ListCards(w http.ResponseWriter, r *http.Request) {
	book, ok := bookVar(r)
	if !ok {
		writeJSONError(w, "Invalid address book", http.StatusBadRequest)
		return
	}

	uris, err := h.db.ListCards(r.Context(), book)
	if err != nil {
		logging.Error("Cards: failed to list address book %d: %v", book, err)
		writeJSONError(w, "Failed to list cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, uris)
}

// GetCard returns the stored vCard text.
// GET /api/addressbooks/{book}/cards/{card}
func (h *Handlers) GetCard(w http.ResponseWriter, r *http.Request) {
	book, uri, ok := cardVars(r)
	if !ok {
		writeJSONError(w, "Invalid address book or card", http.StatusBadRequest)
		return
	}

	card, err := h.db.GetCard(r.Context(), book, uri)
	if errors.Is(err, database.ErrCardNotFound) {
		writeJSONError(w, "Card not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Cards: failed to load %d/%s: %v", book, uri, err)
		writeJSONError(w, "Failed to load card", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("ETag", card.ETag)
	if _, err := w.Write(card.Data); err != nil {
		logging.Debug("Cards: failed to write response: %v", err)
	}
}

// PutCard stores a vCard and invalidates its cached photos.
// PUT /api/addressbooks/{book}/cards/{card}
func (h *Handlers) PutCard(w http.ResponseWriter, r *http.Request) {
	book, uri, ok := cardVars(r)
	if !ok {
		writeJSONError(w, "Invalid address book or card", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCardSize))
	if err != nil {
		writeJSONError(w, "Card too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	if _, err := vcardphoto.ParseCard(data); err != nil {
		writeJSONError(w, "Invalid vCard: "+err.Error(), http.StatusBadRequest)
		return
	}

	obj, created, err := h.db.PutCard(r.Context(), book, uri, data)
	if err != nil {
		logging.Error("Cards: failed to store %d/%s: %v", book, uri, err)
		writeJSONError(w, "Failed to store card", http.StatusInternalServerError)
		return
	}

	// The stored photo may have changed with the card
	if err := h.cache.Delete(photocache.NewContactKey(book, uri)); err != nil {
		logging.Warn("Cards: stored %d/%s but failed to invalidate photo: %v", book, uri, err)
	}

	w.Header().Set("ETag", obj.ETag)
	if created {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteCard removes a vCard and its cached photos.
// DELETE /api/addressbooks/{book}/cards/{card}
func (h *Handlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	book, uri, ok := cardVars(r)
	if !ok {
		writeJSONError(w, "Invalid address book or card", http.StatusBadRequest)
		return
	}

	err := h.db.DeleteCard(r.Context(), book, uri)
	if errors.Is(err, database.ErrCardNotFound) {
		writeJSONError(w, "Card not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Cards: failed to delete %d/%s: %v", book, uri, err)
		writeJSONError(w, "Failed to delete card", http.StatusInternalServerError)
		return
	}

	if err := h.cache.Delete(photocache.NewContactKey(book, uri)); err != nil {
		logging.Warn("Cards: deleted %d/%s but failed to invalidate photo: %v", book, uri, err)
	}

	w.WriteHeader(http.StatusNoContent)
}
