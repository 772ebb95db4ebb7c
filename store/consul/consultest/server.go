// Package consultest provides an in-process fake of the Consul HTTP API
// subset used by the consul store: KV get/put/cas/delete, key listing with
// a separator, and the status leader endpoint.
package consultest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
)

// Server is a fake Consul agent backed by an in-memory key space.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	pairs   map[string]*api.KVPair
	index   uint64
	writes  int
	offline bool
}

// NewServer starts a fake agent that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		pairs: make(map[string]*api.KVPair),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/status/leader", s.handleLeader)
	mux.HandleFunc("/v1/kv/", s.handleKV)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// Address returns the host:port of the fake agent.
func (s *Server) Address() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// Keys returns every stored key in order.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.pairs))
	for key := range s.pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Writes returns the number of mutating requests served.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

// SetOffline makes every request fail with 503 until reset.
func (s *Server) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offline = offline
}

func (s *Server) handleLeader(w http.ResponseWriter, r *http.Request) {
	if s.isOffline(w) {
		return
	}

	_ = json.NewEncoder(w).Encode("127.0.0.1:8300")
}

func (s *Server) isOffline(w http.ResponseWriter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.offline {
		http.Error(w, "agent offline", http.StatusServiceUnavailable)
	}

	return s.offline
}

func (s *Server) handleKV(w http.ResponseWriter, r *http.Request) {
	if s.isOffline(w) {
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
	query := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if query.Has("keys") {
			s.listKeys(w, key, query.Get("separator"))
			return
		}

		pair, exists := s.pairs[key]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("X-Consul-Index", strconv.FormatUint(s.index, 10))
		_ = json.NewEncoder(w).Encode([]*api.KVPair{pair})

	case http.MethodPut:
		value, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		existing, exists := s.pairs[key]
		if query.Has("cas") {
			cas, err := strconv.ParseUint(query.Get("cas"), 10, 64)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if (cas == 0 && exists) || (cas != 0 && (!exists || existing.ModifyIndex != cas)) {
				_, _ = io.WriteString(w, "false")
				return
			}
		}

		s.index++
		s.writes++
		pair := &api.KVPair{Key: key, Value: value, CreateIndex: s.index, ModifyIndex: s.index}
		if exists {
			pair.CreateIndex = existing.CreateIndex
		}
		s.pairs[key] = pair

		_, _ = io.WriteString(w, "true")

	case http.MethodDelete:
		s.writes++
		if query.Has("recurse") {
			for existing := range s.pairs {
				if strings.HasPrefix(existing, key) {
					delete(s.pairs, existing)
				}
			}
		} else {
			delete(s.pairs, key)
		}

		_, _ = io.WriteString(w, "true")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listKeys mirrors Consul's folding of keys below the first separator
// following the prefix. Must be called with lock held.
func (s *Server) listKeys(w http.ResponseWriter, prefix, separator string) {
	seen := make(map[string]struct{})
	for key := range s.pairs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if separator != "" {
			rest := key[len(prefix):]
			if idx := strings.Index(rest, separator); idx >= 0 {
				key = prefix + rest[:idx+len(separator)]
			}
		}
		seen[key] = struct{}{}
	}

	if len(seen) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	_ = json.NewEncoder(w).Encode(keys)
}
