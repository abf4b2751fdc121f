package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"scanteate/pkg/claims"
)

const (
	typeError   string = "error"
	typeMessage string = "message"

	msgSuccess      = "success"
	msgUnauthorized = "No autorizado"
	msgForbidden    = "No tiene permisos"
	msgNotFound     = "Not found"
	msgInternal     = "internal error"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) bool {
	resp, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to serialize JSON response", zap.Error(err))
		writeError(w, http.StatusInternalServerError, typeError, "failed json marshal")
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		logger.Error("failed to write response to client", zap.Error(err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, field, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{field: msg}); err != nil {
		return
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeError(w, status, typeMessage, msg)
}

// internalError logs err once and hides it from the client.
func internalError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Error(op, zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}

// DecodeJSONBody decodes and validates a JSON request body, answering 400 on
// failure.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusBadRequest, typeError, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, typeError, "bad json")
		return false
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, typeError, validationMessage(verrs[0]))
			return false
		}
		writeError(w, http.StatusBadRequest, typeError, err.Error())
		return false
	}

	return true
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	if fe.Param() != "" {
		return field + ": failed " + fe.Tag() + "=" + fe.Param()
	}
	return field + ": failed " + fe.Tag()
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid "+name)
		return 0, false
	}
	return id, true
}

func getClaims(w http.ResponseWriter, r *http.Request) (*claims.Claims, bool) {
	c, ok := claims.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return nil, false
	}
	return c, true
}
