package middleware

import (
	"net/http"
	"strings"

	"github.com/Ishwarya142/plantiq/internal/api/response"
)

// writeError answers function routes with their flat {"error"} body and
// everything else with the API envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if strings.HasPrefix(r.URL.Path, "/functions/") {
		response.FunctionError(w, status, message)
		return
	}
	response.Error(w, status, code, message, nil)
}
