package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Detail  string       `json:"detail,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// WriteError escribe la respuesta JSON del error. Los 5xx se loguean con
// la causa original, que nunca llega al cliente.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.Layer("http"),
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
		Fields:  appErr.Fields,
	})
}
