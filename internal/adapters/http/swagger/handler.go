// Package swagger serves the OpenAPI document of the palmares API, as YAML
// and JSON, and a ReDoc page rendering it.
package swagger

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
)

// OpenAPI contains the embedded OpenAPI YAML document of the HTTP API.
//
//go:embed openapi.yaml
var OpenAPI []byte

var (
	jsonOnce sync.Once
	jsonDoc  []byte
	jsonErr  error
)

// openAPIJSON converts the embedded document once.
func openAPIJSON() ([]byte, error) {
	jsonOnce.Do(func() {
		doc, err := yaml.Parser().Unmarshal(OpenAPI)
		if err != nil {
			jsonErr = err
			return
		}
		jsonDoc, jsonErr = json.Marshal(doc)
	})
	return jsonDoc, jsonErr
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> Embedded OpenAPI document
//	GET /openapi.json  -> The same document as JSON
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := openAPIJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(doc)
	})
}

// ReDoc is loaded from its CDN and pointed at the JSON document.
const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>palmares API</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
  </head>
  <body style="margin:0">
    <div id="docs"></div>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
    <script>Redoc.init('/openapi.json', { hideDownloadButton: false }, document.getElementById('docs'));</script>
  </body>
</html>`
