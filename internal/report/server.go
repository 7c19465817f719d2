package report

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Serve exposes a generated report directory over HTTP. It blocks
// until the listener fails.
func Serve(addr, dir string) error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Handle("/*", http.FileServer(http.Dir(dir)))

	server := &http.Server{Addr: addr, Handler: r}
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("serving %s on %s: %w", dir, addr, err)
	}
	return nil
}
