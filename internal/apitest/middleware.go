package apitest

import (
	"fmt"
	"net/http"
)

// recovery turns a panicking test handler into a 500 with the server's
// error envelope so the client sees an ordinary API failure
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"detail": fmt.Sprintf("handler panicked: %v", err),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
