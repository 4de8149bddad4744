package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Server exposes the websocket result stream and a status endpoint for
// monitoring UIs.
type Server struct {
	Hub *Hub

	// StatusFunc, when set, supplies the payload for /api/status.
	StatusFunc func() interface{}
}

func NewServer() *Server {
	return &Server{Hub: NewHub()}
}

func (s *Server) Start(port int, distDir string) {
	go s.Hub.Run()

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.Hub, w, r)
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var payload interface{}
		if s.StatusFunc != nil {
			payload = s.StatusFunc()
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("web: status encode failed: %v", err)
		}
	})

	if distDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(distDir)))
	}

	addr := fmt.Sprintf(":%d", port)
	log.Printf("HTTP server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
