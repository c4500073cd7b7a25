package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/short-link/internal/api/controller"
	"github.com/mylxsw/short-link/internal/link"
)

// Redirect sends the visitor to the original url and counts the click
type Redirect struct {
	svc *link.Service
}

func (r Redirect) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	shortID := mux.Vars(req)["short_id"]

	l, err := r.svc.Resolve(req.Context(), shortID)
	if err != nil {
		code := controller.ErrorStatus(err)
		if !errors.Is(err, link.ErrNotFound) {
			log.Errorf("resolve %s failed: %v", shortID, err)
		}

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(code)
		_ = json.NewEncoder(writer).Encode(map[string]string{"error": err.Error()})
		return
	}

	http.Redirect(writer, req, l.OriginalURL, http.StatusTemporaryRedirect)
}
