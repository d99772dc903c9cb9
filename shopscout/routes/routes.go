package routes

import (
	"errors"
	"net/http"
	"shopscout/shopscout/controllers"
	httputils "shopscout/shopscout/utils/http"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			httputils.WriteError(w, status, err)
			return
		}
		httputils.WriteJSON(w, status, res)
	}
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, controllers.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, controllers.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
