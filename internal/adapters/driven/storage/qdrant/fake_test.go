package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
)

// fakeQdrant implements the subset of the Qdrant REST API the client uses.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	apiKeys     []string
}

type fakeCollection struct {
	size   int
	points map[string]point
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{collections: make(map[string]*fakeCollection)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/{name}", f.getCollection)
	mux.HandleFunc("PUT /collections/{name}", f.createCollection)
	mux.HandleFunc("DELETE /collections/{name}", f.deleteCollection)
	mux.HandleFunc("PUT /collections/{name}/index", f.withCollection(func(w http.ResponseWriter, _ *http.Request, _ *fakeCollection) {
		writeResult(w, map[string]any{"status": "completed"})
	}))
	mux.HandleFunc("PUT /collections/{name}/points", f.withCollection(f.upsert))
	mux.HandleFunc("POST /collections/{name}/points/search", f.withCollection(f.search))
	mux.HandleFunc("POST /collections/{name}/points/scroll", f.withCollection(f.scroll))
	mux.HandleFunc("POST /collections/{name}/points/count", f.withCollection(f.count))
	mux.HandleFunc("POST /collections/{name}/points/delete", f.withCollection(f.delete))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok", "time": 0.001})
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"status":{"error":"Not found: Collection doesn't exist!"}}`))
}

func (f *fakeQdrant) withCollection(
	h func(http.ResponseWriter, *http.Request, *fakeCollection),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.collections[r.PathValue("name")]
		if !ok {
			notFound(w)
			return
		}
		h(w, r, c)
	}
}

func (f *fakeQdrant) getCollection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[r.PathValue("name")]
	if !ok {
		notFound(w)
		return
	}
	writeResult(w, map[string]any{
		"status":       "green",
		"points_count": len(c.points),
		"config": map[string]any{
			"params": map[string]any{"vectors": map[string]any{"size": c.size, "distance": "Cosine"}},
		},
	})
}

func (f *fakeQdrant) createCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vectors struct {
			Size int `json:"size"`
		} `json:"vectors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[r.PathValue("name")] = &fakeCollection{size: req.Vectors.Size, points: make(map[string]point)}
	writeResult(w, true)
}

func (f *fakeQdrant) deleteCollection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.PathValue("name")
	if _, ok := f.collections[name]; !ok {
		notFound(w)
		return
	}
	delete(f.collections, name)
	writeResult(w, true)
}

func (f *fakeQdrant) upsert(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Points []point `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, p := range req.Points {
		if len(p.Vector) != c.size {
			http.Error(w, `{"status":{"error":"Wrong input: Vector dimension error"}}`, http.StatusBadRequest)
			return
		}
	}
	for _, p := range req.Points {
		c.points[p.ID] = p
	}
	writeResult(w, map[string]any{"operation_id": 1, "status": "completed"})
}

func (f *fakeQdrant) search(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Vector []float32 `json:"vector"`
		Limit  int       `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qm := vectors.Magnitude(req.Vector)
	hits := make([]map[string]any, 0, len(c.points))
	for id, p := range c.points {
		score := 1 - vectors.CosineDistance(req.Vector, p.Vector, qm, vectors.Magnitude(p.Vector))
		hits = append(hits, map[string]any{"id": id, "version": 0, "score": score, "payload": p.Payload})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i]["score"].(float64) > hits[j]["score"].(float64) })
	if len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}
	writeResult(w, hits)
}

func (f *fakeQdrant) scroll(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Limit  int    `json:"limit"`
		Offset string `json:"offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ids := make([]string, 0, len(c.points))
	for id := range c.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if req.Offset != "" {
		start = sort.SearchStrings(ids, req.Offset)
	}
	end := min(start+req.Limit, len(ids))

	points := make([]map[string]any, 0, end-start)
	for _, id := range ids[start:end] {
		points = append(points, map[string]any{"id": id, "payload": c.points[id].Payload})
	}
	var next any
	if end < len(ids) {
		next = ids[end]
	}
	writeResult(w, map[string]any{"points": points, "next_page_offset": next})
}

type fakeFilter struct {
	Must []struct {
		Key   string `json:"key"`
		Match struct {
			Value string `json:"value"`
		} `json:"match"`
	} `json:"must"`
}

func (ff *fakeFilter) matches(p point) bool {
	if ff == nil {
		return true
	}
	for _, cond := range ff.Must {
		if v, _ := p.Payload[cond.Key].(string); v != cond.Match.Value {
			return false
		}
	}
	return true
}

func (f *fakeQdrant) count(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Filter *fakeFilter `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n := 0
	for _, p := range c.points {
		if req.Filter.matches(p) {
			n++
		}
	}
	writeResult(w, map[string]any{"count": n})
}

func (f *fakeQdrant) delete(w http.ResponseWriter, r *http.Request, c *fakeCollection) {
	var req struct {
		Filter *fakeFilter `json:"filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for id, p := range c.points {
		if req.Filter.matches(p) {
			delete(c.points, id)
		}
	}
	writeResult(w, map[string]any{"operation_id": strconv.Itoa(2), "status": "completed"})
}
