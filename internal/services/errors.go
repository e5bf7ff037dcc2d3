package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"google.golang.org/grpc/codes"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// errorResponse is the JSON body returned for failed requests
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// httpStatus maps an error's status code to the HTTP status returned to clients
func httpStatus(err error) int {
	switch errors.Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorw(ctx, "Failed to write response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Errorw(ctx, "Request failed", "error", err, "status", status)
	}
	writeJSON(ctx, w, status, errorResponse{Error: err.Error(), Code: errors.Code(err).String()})
}

// validatePoint rejects coordinates outside the WGS84 range. The core never
// validates, so every point arriving over the wire passes through here.
func validatePoint(name string, p geo.Point) error {
	if !geo.IsValid(p) {
		return errors.NewC(name+": latitude must be in [-90, 90] and longitude in [-180, 180]", codes.InvalidArgument)
	}
	return nil
}
