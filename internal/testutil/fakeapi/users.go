package fakeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SeedTalents adds n verified users named "Talent 01", "Talent 02", ...
// each with one skill and one project, and returns their ids in order.
func (s *Server) SeedTalents(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		u := &user{
			FullName: fmt.Sprintf("Talent %02d", i),
			Email:    fmt.Sprintf("talent%02d@example.com", i),
			ProfRole: "Engineer",
			Verified: true,
		}
		id := s.addUserLocked(u)
		s.appendLocked(id, "skills", map[string]any{"title": "Go"})
		s.appendLocked(id, "projects", map[string]any{"title": fmt.Sprintf("Project %02d", i), "projectImg": "", "date": "2024", "desc": ""})
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) appendLocked(userID, kind string, item map[string]any) map[string]any {
	item["_id"] = uuid.NewString()
	item["userId"] = userID
	if s.resources[userID] == nil {
		s.resources[userID] = make(map[string][]map[string]any)
	}
	s.resources[userID][kind] = append(s.resources[userID][kind], item)
	return item
}

// Resource returns a copy of the items of kind owned by userID.
func (s *Server) Resource(userID, kind string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.resources[userID][kind]...)
}

// talentLocked renders u the way the directory endpoints do: skills and
// experiences populated, projects as bare ids.
func (s *Server) talentLocked(u *user) map[string]any {
	res := s.resources[u.ID]

	projects := make([]string, 0, len(res["projects"]))
	for _, p := range res["projects"] {
		projects = append(projects, p["_id"].(string))
	}
	links := make([]map[string]any, 0, 1)
	if l, ok := s.links[u.ID]; ok {
		links = append(links, l)
	}

	return map[string]any{
		"_id":         u.ID,
		"fullName":    u.FullName,
		"email":       u.Email,
		"profRole":    u.ProfRole,
		"bio":         u.Bio,
		"location":    u.Location,
		"avatar":      u.Avatar,
		"role":        "user",
		"isVerified":  u.Verified,
		"skills":      nonNil(res["skills"]),
		"experiences": nonNil(res["experiences"]),
		"projects":    projects,
		"links":       links,
	}
}

func nonNil(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return items
}

func (s *Server) verifiedLocked() []*user {
	out := make([]*user, 0, len(s.order))
	for _, id := range s.order {
		if u := s.users[id]; u.Verified {
			out = append(out, u)
		}
	}
	return out
}

func (s *Server) saveIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		ClerkID  string `json:"clerkId"`
	}
	if !decodeBody(r, &req) || req.ClerkID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "fullName, email and clerkId are required")
		return
	}

	email := normalizeEmail(req.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		s.users[id].ProviderID = req.ClerkID
		writeJSON(w, http.StatusOK, map[string]any{"message": "User already exists"})
		return
	}
	s.addUserLocked(&user{FullName: req.FullName, Email: email, ProviderID: req.ClerkID, Verified: true})
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User saved"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.verifiedLocked()
	totalPage := (len(all) + limit - 1) / limit
	if totalPage == 0 {
		totalPage = 1
	}

	items := make([]map[string]any, 0, limit)
	for i := (page - 1) * limit; i < len(all) && i < page*limit; i++ {
		items = append(items, s.talentLocked(all[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": items, "totalPage": totalPage, "page": page})
}

// searchUsers answers with a bare array.
func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]map[string]any, 0)
	for _, u := range s.verifiedLocked() {
		hay := strings.ToLower(u.FullName + " " + u.Email + " " + u.ProfRole)
		if q != "" && strings.Contains(hay, q) {
			items = append(items, s.talentLocked(u))
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.talentLocked(u)})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != userIDFromContext(r.Context()) {
		writeError(w, http.StatusForbidden, "You can only update your own profile")
		return
	}
	var req struct {
		FullName *string `json:"fullName"`
		ProfRole *string `json:"profRole"`
		Location *string `json:"location"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
	}
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FullName, req.FullName)
	set(&u.ProfRole, req.ProfRole)
	set(&u.Location, req.Location)
	set(&u.Bio, req.Bio)
	set(&u.Avatar, req.Avatar)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated",
		"user": map[string]any{
			"id":       u.ID,
			"fullName": u.FullName,
			"email":    u.Email,
			"profRole": u.ProfRole,
			"location": u.Location,
			"bio":      u.Bio,
			"avatar":   u.Avatar,
		},
	})
}

// getOwnProfile answers with the bare talent record of the caller.
func (s *Server) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userIDFromContext(r.Context())]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, s.talentLocked(u))
}

// reviewProfile scores a profile by the sections it fills in. A profile
// with nothing filled in gets null data.
func (s *Server) reviewProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !decodeBody(r, &req) || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.UserID]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	res := s.resources[u.ID]
	sections := []struct {
		name   string
		filled bool
	}{
		{"bio", u.Bio != ""},
		{"role", u.ProfRole != ""},
		{"skills", len(res["skills"]) > 0},
		{"experience", len(res["experiences"]) > 0},
		{"projects", len(res["projects"]) > 0},
	}

	score := 0
	strengths, missing, recs := []string{}, []string{}, []string{}
	for _, sec := range sections {
		if sec.filled {
			score += 100 / len(sections)
			strengths = append(strengths, sec.name)
			continue
		}
		missing = append(missing, sec.name)
		recs = append(recs, "Add "+sec.name)
	}

	if score == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Not enough profile data", "data": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile reviewed",
		"data": map[string]any{
			"score":           score,
			"strengths":       strengths,
			"missing":         missing,
			"recommendations": recs,
		},
	})
}
