package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"elearn-platform/internal/domain"
	"elearn-platform/internal/forum"
	"github.com/rs/zerolog"
)

// ForumHandler exposes the forum data layer as a small JSON API.
type ForumHandler struct {
	repo *forum.Repository
	log  zerolog.Logger
}

func NewForumHandler(repo *forum.Repository, log zerolog.Logger) *ForumHandler {
	return &ForumHandler{repo: repo, log: log}
}

// Register mounts the forum routes on a mux.
func (h *ForumHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/threads", h.listThreads)
	mux.HandleFunc("POST /api/threads", h.createThread)
	mux.HandleFunc("GET /api/threads/{id}", h.getThread)
	mux.HandleFunc("DELETE /api/threads/{id}", h.deleteThread)
	mux.HandleFunc("POST /api/threads/{id}/posts", h.addPost)
	mux.HandleFunc("POST /api/threads/{id}/save", h.toggleSave)
}

func (h *ForumHandler) listThreads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	threads, err := h.repo.QueryThreads(r.Context(), forum.Filters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Author:   q.Get("author"),
		SavedBy:  q.Get("savedBy"),
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *ForumHandler) createThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Category string `json:"category"`
		Author   string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Body == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}
	id, err := h.repo.CreateThread(r.Context(), req.Title, req.Body, req.Category, req.Author)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *ForumHandler) getThread(w http.ResponseWriter, r *http.Request) {
	id, ok := threadID(w, r)
	if !ok {
		return
	}
	thread, err := h.repo.GetThread(r.Context(), id)
	if err == domain.ErrThreadNotFound {
		http.Error(w, "thread not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	posts, err := h.repo.ListPosts(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread": thread,
		"posts":  posts,
	})
}

func (h *ForumHandler) deleteThread(w http.ResponseWriter, r *http.Request) {
	id, ok := threadID(w, r)
	if !ok {
		return
	}
	err := h.repo.DeleteThread(r.Context(), id)
	if err == domain.ErrThreadNotFound {
		http.Error(w, "thread not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ForumHandler) addPost(w http.ResponseWriter, r *http.Request) {
	id, ok := threadID(w, r)
	if !ok {
		return
	}
	var req struct {
		Body   string `json:"body"`
		Author string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		http.Error(w, "post body is required", http.StatusBadRequest)
		return
	}
	postID, err := h.repo.AddPost(r.Context(), id, req.Body, req.Author)
	if err == domain.ErrThreadNotFound {
		http.Error(w, "thread not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": postID})
}

func (h *ForumHandler) toggleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := threadID(w, r)
	if !ok {
		return
	}
	var req struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}
	saved, err := h.repo.ToggleSave(r.Context(), req.User, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (h *ForumHandler) fail(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("forum request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func threadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid thread id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
