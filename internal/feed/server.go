package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// IndexLoader returns the index to serve for one request.
type IndexLoader func() (*Index, error)

// Handler serves an index with the routes HTTPClient expects.
func Handler(load IndexLoader) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		idx, err := load()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		skip, _ := strconv.Atoi(q.Get("skip"))
		take, _ := strconv.Atoi(q.Get("take"))
		writeList(w, idx.Search(q.Get("q"), filterFromQuery(r), skip, take))
	})
	mux.HandleFunc("GET /packages/{id}/versions", func(w http.ResponseWriter, r *http.Request) {
		idx, err := load()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		list := idx.Versions(r.PathValue("id"), filterFromQuery(r))
		if len(list) == 0 {
			http.NotFound(w, r)
			return
		}
		writeList(w, list)
	})
	return mux
}

// DirIndexLoader loads dir/index.json on every request.
func DirIndexLoader(dir string) IndexLoader {
	client := NewDirClient(dir)
	return func() (*Index, error) {
		return client.load(context.Background())
	}
}

func filterFromQuery(r *http.Request) SearchFilter {
	q := r.URL.Query()
	return SearchFilter{
		IncludePrerelease: strings.EqualFold(q.Get("prerelease"), "true"),
		IncludeDelisted:   strings.EqualFold(q.Get("delisted"), "true"),
		TargetFrameworks:  q["framework"],
	}
}

func writeList(w http.ResponseWriter, list []Metadata) {
	payload := listResponse{Data: make([]metadataJSON, 0, len(list))}
	for _, m := range list {
		payload.Data = append(payload.Data, fromMetadata(m))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
