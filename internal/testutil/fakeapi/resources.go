package fakeapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// singular maps a collection name to the envelope key of a single item.
func singular(kind string) string {
	return strings.TrimSuffix(kind, "s")
}

func (s *Server) listResource(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userIDFromContext(r.Context())
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{kind: nonNil(s.resources[uid][kind])})
	}
}

func (s *Server) addResource(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item map[string]any
		if !decodeBody(r, &item) || len(item) == 0 {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if t, ok := item["title"]; ok && t == "" {
			writeError(w, http.StatusBadRequest, "Title is required")
			return
		}
		delete(item, "_id")

		uid := userIDFromContext(r.Context())
		s.mu.Lock()
		defer s.mu.Unlock()
		created := s.appendLocked(uid, kind, item)
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Created", singular(kind): created})
	}
}

func (s *Server) updateResource(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch map[string]any
		if !decodeBody(r, &patch) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		uid := userIDFromContext(r.Context())
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, item := range s.resources[uid][kind] {
			if item["_id"] != id {
				continue
			}
			for k, v := range patch {
				if k == "_id" || k == "userId" {
					continue
				}
				item[k] = v
			}
			writeJSON(w, http.StatusOK, map[string]any{singular(kind): item})
			return
		}
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) deleteResource(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		uid := userIDFromContext(r.Context())
		s.mu.Lock()
		defer s.mu.Unlock()
		items := s.resources[uid][kind]
		for i, item := range items {
			if item["_id"] == id {
				s.resources[uid][kind] = append(items[:i:i], items[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
				return
			}
		}
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// getLinks answers with an array under "links", like the real backend.
func (s *Server) getLinks(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make([]map[string]any, 0, 1)
	if l, ok := s.links[uid]; ok {
		links = append(links, l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

func (s *Server) upsertLinks(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeBody(r, &patch) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	uid := userIDFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[uid]
	if !ok {
		l = map[string]any{"_id": uid + "-links", "userId": uid}
		s.links[uid] = l
	}
	for _, k := range []string{"github", "linkedin", "X", "portfolio"} {
		if v, ok := patch[k]; ok {
			l[k] = v
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Links updated", "links": l})
}
