package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"roadtrip-meal-service/internal/api/dto"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"

	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; selection events carry the largest payloads.
const maxBodyBytes = 1 << 20

// statusClientClosedRequest reports a request the client abandoned. nginx
// uses the same non-standard code.
const statusClientClosedRequest = 499

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind domain.ErrorKind, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg, Kind: string(kind)})
}

// writeDomainError maps err to the error envelope. Internal failures are
// logged with their cause and reported without it.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind, err)
	if status == statusClientClosedRequest {
		zap.L().Debug("request canceled by client",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
		)
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, status, domain.KindInternal, "internal server error")
		return
	}
	writeError(w, r, status, kind, err.Error())
}

func statusFor(kind domain.ErrorKind, err error) int {
	switch kind {
	case domain.KindInvalidRequest, domain.KindAddressNotFound, domain.KindAmbiguousAddress, domain.KindNoRouteFound:
		return http.StatusBadRequest
	case domain.KindProviderUnavailable:
		if domain.IsTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case domain.KindCanceled:
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON reads exactly one JSON object into dst and runs struct validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidRequest, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid json body: %v", domain.ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: body must contain only one JSON object", domain.ErrInvalidRequest)
	}
	return dto.Validate(dst)
}
