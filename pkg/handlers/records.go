package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"scanteate/pkg/record"
)

// RecordHandler serves the CRUD routes of one user-owned record type.
// Access is limited to the owner and admins.
type RecordHandler[T any, PT interface {
	*T
	record.Model
}] struct {
	Store  record.Store[T]
	Name   string
	Logger *zap.Logger
}

func NewRecordHandler[T any, PT interface {
	*T
	record.Model
}](store record.Store[T], name string, logger *zap.Logger) *RecordHandler[T, PT] {
	return &RecordHandler[T, PT]{Store: store, Name: name, Logger: logger}
}

func (h *RecordHandler[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.List(r.Context())
	if err != nil {
		internalError(w, h.Logger, "list "+h.Name, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, recs)
}

// ListByUser lists the records owned by the user in the path.
func (h *RecordHandler[T, PT]) ListByUser(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !c.CanAccess(userID) {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return
	}

	recs, err := h.Store.ListByUser(r.Context(), userID)
	if err != nil {
		internalError(w, h.Logger, "list "+h.Name+" by user", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, recs)
}

func (h *RecordHandler[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, rec)
}

// Create stores a record for the caller. Admins may name another owner
// through userId.
func (h *RecordHandler[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}

	var rec T
	if ok := DecodeJSONBody(w, r, &rec); !ok {
		return
	}

	m := PT(&rec)
	owner := m.OwnerID()
	if owner == 0 || !c.IsAdmin() {
		owner = c.Principal.ID
	}
	m.ClearKeys()
	m.SetOwner(owner)

	if err := h.Store.Create(r.Context(), &rec); err != nil {
		internalError(w, h.Logger, "create "+h.Name, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusCreated, map[string]string{typeMessage: msgSuccess})
}

// Update applies the non-empty fields of the body. Owner and id never change.
func (h *RecordHandler[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.owned(w, r); !ok {
		return
	}
	id, _ := pathID(w, r, "id")

	var patch T
	if ok := DecodeJSONBody(w, r, &patch); !ok {
		return
	}
	m := PT(&patch)
	m.ClearKeys()

	if !m.Empty() {
		err := h.Store.Update(r.Context(), id, &patch)
		if errors.Is(err, record.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgNotFound)
			return
		}
		if err != nil {
			internalError(w, h.Logger, "update "+h.Name, err)
			return
		}
	}
	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: msgSuccess})
}

func (h *RecordHandler[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.owned(w, r); !ok {
		return
	}
	id, _ := pathID(w, r, "id")

	err := h.Store.Delete(r.Context(), id)
	if errors.Is(err, record.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		internalError(w, h.Logger, "delete "+h.Name, err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: h.Name + " deleted"})
}

// owned loads the record in the path and checks the caller may touch it.
func (h *RecordHandler[T, PT]) owned(w http.ResponseWriter, r *http.Request) (*T, bool) {
	c, ok := getClaims(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	rec, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, record.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return nil, false
	}
	if err != nil {
		internalError(w, h.Logger, "get "+h.Name, err)
		return nil, false
	}
	if !c.CanAccess(PT(rec).OwnerID()) {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return nil, false
	}
	return rec, true
}
