package rtdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeDB emula a API REST do Realtime Database sobre uma árvore JSON em memória.
type fakeDB struct {
	mu       sync.Mutex
	root     any
	pushSeq  int
	failNext int
	requests []*http.Request
}

func newFakeDB(t *testing.T) (*fakeDB, *httptest.Server) {
	t.Helper()
	f := &fakeDB{root: map[string]any{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeDB) seed(t *testing.T, path, raw string) {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.root = set(f.root, splitPath(path), v)
}

func (f *fakeDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if f.failNext > 0 {
		f.failNext--
		http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	segs := splitPath(strings.TrimSuffix(r.URL.Path, ".json"))
	switch r.Method {
	case http.MethodGet:
		v := get(f.root, segs)
		if r.URL.Query().Get("shallow") == "true" {
			if m, ok := v.(map[string]any); ok {
				keys := make(map[string]bool, len(m))
				for k := range m {
					keys[k] = true
				}
				v = keys
			}
		}
		_ = json.NewEncoder(w).Encode(v)
	case http.MethodPut:
		var v any
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.root = set(f.root, segs, v)
		if r.URL.Query().Get("print") == "silent" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	case http.MethodPost:
		var v any
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.pushSeq++
		key := fmt.Sprintf("-N%06d", f.pushSeq)
		f.root = set(f.root, append(segs, key), v)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": key})
	case http.MethodDelete:
		f.root = set(f.root, segs, nil)
		_, _ = w.Write([]byte("null"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func get(node any, segs []string) any {
	for _, s := range segs {
		switch n := node.(type) {
		case map[string]any:
			node = n[s]
		case []any:
			i, err := strconv.Atoi(s)
			if err != nil || i < 0 || i >= len(n) {
				return nil
			}
			node = n[i]
		default:
			return nil
		}
	}
	return node
}

func set(node any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	child := set(m[segs[0]], segs[1:], v)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	return m
}
