package api

import (
	"encoding/json"
	"io"
	"net/http"

	"text2phenotype.com/corpora/types"
)

// Parser decodes and parses one legacy-encoded annotation document.
type Parser interface {
	ParseDocument(name string, raw []byte) (types.Document, error)
}

type Documents struct {
	Parser Parser
}

// ParseDocument answers POST requests carrying one annotation document with its JSON record.
// The optional "name" query parameter names the document in errors.
func (h *Documents) ParseDocument(w http.ResponseWriter, r *http.Request) {
	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Error().Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "request body"
	}
	doc, err := h.Parser.ParseDocument(name, raw)
	if err != nil {
		logger.Err(err).Int("status", http.StatusUnprocessableEntity).Msg("Could not parse document")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		logger.Err(err).Msg("Could not write response")
		return
	}
	logger.Info().Int("status", http.StatusOK).Str("document", doc.ID).Msg("Finished processing request")
}

// NewMux routes the service endpoints.
func NewMux(parser Parser) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/documents", (&Documents{Parser: parser}).ParseDocument)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
