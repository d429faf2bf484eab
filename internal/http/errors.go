package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/deploy"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/version"
)

// decodeBody tolerates empty request bodies; handlers treat all fields
// as optional and apply defaults.
func decodeBody(req *http.Request, dst any) {
	if req.Body == nil {
		return
	}
	defer req.Body.Close()
	_ = json.NewDecoder(req.Body).Decode(dst)
}

func actorID(ctx context.Context) string {
	info, _ := authInfoFromContext(ctx)
	return info.UserID
}

// writeServiceError maps service sentinels onto HTTP status codes.
func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, version.ErrNoPageRevisions),
		errors.Is(err, version.ErrVersionMismatch),
		errors.Is(err, version.ErrInvalidInput),
		errors.Is(err, deploy.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, deploy.ErrAlreadyTerminal),
		errors.Is(err, repository.ErrTerminalState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		r.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
