package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/value"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Input   *bool  `json:"input,omitempty"`
	Output  *bool  `json:"output,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var sentinelKinds = []struct {
	err    error
	kind   string
	status int
}{
	{core.ErrGraphNotFound, "GraphNotFound", http.StatusNotFound},
	{core.ErrNodeNotFound, "NodeNotFound", http.StatusNotFound},
	{core.ErrPackageNotFound, "PackageNotFound", http.StatusNotFound},
	{core.ErrSchemaNotFound, "SchemaNotFound", http.StatusNotFound},
	{core.ErrPortNotFound, "PortNotFound", http.StatusNotFound},
	{node.ErrTypeMismatch, "TypeMismatch", http.StatusUnprocessableEntity},
	{value.ErrKindMismatch, "TypeMismatch", http.StatusUnprocessableEntity},
	{core.ErrLastGraph, "LastGraph", http.StatusConflict},
	{core.ErrUnknownRequest, "UnknownRequest", http.StatusBadRequest},
	{errBadRequest, "BadRequest", http.StatusBadRequest},
	{errInvalid, "Invalid", http.StatusBadRequest},
	{core.ErrStopped, "Unavailable", http.StatusServiceUnavailable},
	{context.DeadlineExceeded, "Timeout", http.StatusGatewayTimeout},
}

// classify maps err to its wire kind and status code.
func classify(err error) (errorBody, int) {
	body := errorBody{Kind: "Internal", Message: err.Error()}

	var nodesErr *core.InvalidNodesError
	if errors.As(err, &nodesErr) {
		body.Kind = "InvalidNodes"
		body.Input, body.Output = &nodesErr.Input, &nodesErr.Output
		return body, http.StatusUnprocessableEntity
	}
	var ioErr *core.InvalidIOError
	if errors.As(err, &ioErr) {
		body.Kind = "InvalidIO"
		body.Input, body.Output = &ioErr.Input, &ioErr.Output
		return body, http.StatusUnprocessableEntity
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			body.Kind = s.kind
			return body, s.status
		}
	}
	return body, http.StatusInternalServerError
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body, status := classify(err)
	level := s.logger.Debug
	if status >= http.StatusInternalServerError {
		level = s.logger.Warn
	}
	level("Request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"kind", body.Kind,
		"error", err,
	)
	writeJSON(w, s.logger, status, errorResponse{Error: body})
}
