package api

import (
	"net/http"
	"strings"
)

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleListCatalog(w, r)
	})

	mux.HandleFunc("/catalog/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleRefreshCatalog(w, r)
	})

	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleCreateSession(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
		// /sessions/{id}/state | /restart | /advance | /snapshot |
		// /restore | /events | /start | /end | /agent-token
		path := strings.TrimSuffix(r.URL.Path, "/")
		const prefix = "/sessions/"
		rest := strings.TrimPrefix(path, prefix)
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		tail := ""
		if len(parts) > 1 {
			tail = parts[1]
		}

		post := func(fn func(http.ResponseWriter, *http.Request, string)) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			fn(w, r, id)
		}

		switch tail {
		case "state":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleGetState(w, r, id)
		case "restart":
			post(h.HandleRestart)
		case "advance":
			post(h.HandleAdvance)
		case "snapshot":
			post(h.HandleSnapshot)
		case "restore":
			post(h.HandleRestore)
		case "events":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleListEvents(w, r, id)
		case "start":
			post(h.HandleStartAgent)
		case "end":
			post(h.HandleEndAgent)
		case "agent-token":
			post(h.HandleMintAgentToken)
		default:
			http.NotFound(w, r)
		}
	})

	return mux
}
