package handlers

import (
	"net/http"

	"github.com/tasknest/tasknest/internal/store"
)

type TodoHandler struct {
	todos *store.TodoStore
}

func NewTodoHandler(todos *store.TodoStore) *TodoHandler {
	return &TodoHandler{todos: todos}
}

type createTodoRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
	Done        bool   `json:"done"`
}

type updateTodoRequest struct {
	Description *string `json:"description,omitempty"`
	Done        *bool   `json:"done,omitempty"`
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	todo, err := h.todos.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}

	todo, err := h.todos.Create(r.Context(), req.UserID, req.Description, req.Done)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	var req updateTodoRequest
	if err := decodeValid(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Description == nil && req.Done == nil {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	todo, err := h.todos.Update(r.Context(), id, store.TodoUpdate{
		Description: req.Description,
		Done:        req.Done,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid todo ID")
		return
	}

	if err := h.todos.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
}
