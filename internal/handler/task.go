package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/model"
	"github.com/BuzzLyutic/serverless-todo/internal/service"
	"github.com/BuzzLyutic/serverless-todo/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTask
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.Create(r.Context(), OwnerFromContext(r.Context()), req)
	if err != nil {
		h.handleErrors(w, r, err, "")
		return
	}

	respond.JSON(w, r, http.StatusCreated, map[string]interface{}{
		"message": "Todo created successfully",
		"todo":    task,
	})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := service.ParseLimit(q.Get("limit"))
	if err != nil {
		h.handleErrors(w, r, err, "")
		return
	}

	params := model.ListParams{
		Limit:  limit,
		SortBy: model.SortBy(q.Get("sortBy")),
		Cursor: q.Get("cursor"),
	}
	if status := q.Get("status"); status != "" {
		s := model.Status(status)
		params.Filter.Status = &s
	}

	page, err := h.service.List(r.Context(), OwnerFromContext(r.Context()), params)
	if err != nil {
		h.handleErrors(w, r, err, "")
		return
	}
	respond.JSON(w, r, http.StatusOK, page)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	var cs model.ChangeSet
	if !h.decode(w, r, &cs) {
		return
	}

	task, err := h.service.Update(r.Context(), OwnerFromContext(r.Context()), taskID, cs)
	if err != nil {
		h.handleErrors(w, r, err, taskID)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	if err := h.service.Delete(r.Context(), OwnerFromContext(r.Context()), taskID); err != nil {
		h.handleErrors(w, r, err, taskID)
		return
	}

	respond.JSON(w, r, http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
		"taskId":  taskID,
	})
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF):
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
	default:
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
	}
	return false
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error, taskID string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respond.ErrorWith(w, r, http.StatusNotFound, "Task not found", map[string]string{"taskId": taskID})
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
