package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/eugenenazirov/box-packer/internal/importer"
	"github.com/eugenenazirov/box-packer/internal/packing"
	"github.com/eugenenazirov/box-packer/internal/storage"
)

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storage.CreateSession()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storage.GetSession(r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteSession(r.PathValue("id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storage.GetSession(r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: sess.Items, Count: len(sess.Items)})
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var item packing.ItemSpec
	if !decodeJSON(w, r, &item) {
		return
	}

	sess, err := h.storage.AddItem(r.PathValue("id"), item)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storage.RemoveItem(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleClearItems(w http.ResponseWriter, r *http.Request) {
	sess, err := h.storage.ClearItems(r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleImportItems adds every valid row of an uploaded file to the session.
// Rows that fail to parse or to be added are reported, not fatal.
func (h *Handler) handleImportItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.storage.GetSession(id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	format, err := importer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error(), "Use format=csv, xlsx or yaml")
		return
	}

	result, err := importer.Import(format, http.MaxBytesReader(w, r.Body, maxUploadBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	resp := importResponse{Errors: result.Errors, Warnings: result.Warnings}
	for _, item := range result.Items {
		sess, err := h.storage.AddItem(id, item)
		if err != nil {
			if packing.IsValidation(err) {
				resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", item.Name, err))
				continue
			}
			if errors.Is(err, storage.ErrSessionFull) {
				resp.Errors = append(resp.Errors, err.Error())
				break
			}
			h.writeDomainError(w, r, err)
			return
		}
		resp.Imported++
		resp.Session = sess
	}

	if resp.Imported == 0 {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type itemsResponse struct {
	Items []packing.ItemSpec `json:"items"`
	Count int                `json:"count"`
}

type importResponse struct {
	Session  storage.Session `json:"session"`
	Imported int             `json:"imported"`
	Errors   []string        `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}
