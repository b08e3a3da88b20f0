package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "todoapi/internal/adapter/http/helper"
	"todoapi/internal/adapter/http/middleware"
	"todoapi/internal/adapter/http/validation"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/request"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"
	"todoapi/pkg/config"
	. "todoapi/pkg/tracing"
)

type TodoHandler struct {
	svc    port.TodoService
	Logger *config.LokiLogger
}

func NewTodoHandler(svc port.TodoService, logger *config.LokiLogger) *TodoHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &TodoHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (t *TodoHandler) Create(c *gin.Context) {
	var params request.CreateTodoRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	todo, err := t.svc.Create(c.Request.Context(), middleware.UserID(c), params.ToNewTodo())

	if err != nil {
		SendError(c, err)
		return
	}

	SendCreated(c, todo, "Todo created successfully")
}

func (t *TodoHandler) List(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.List", []attribute.KeyValue{
		attribute.String("handler.operation", "List"),
		attribute.String("handler.path", c.FullPath()),
	})

	defer span.End()

	var query request.ListTodosQuery

	if err := bindQuery(c, &query); err != nil {
		SendError(c, err)
		return
	}

	filter := query.ToFilter()

	span.SetAttributes(
		attribute.Int("todo.page", filter.Page),
		attribute.Int("todo.limit", filter.Limit),
		attribute.String("todo.sort_by", filter.SortBy),
	)

	todos, page, err := t.svc.List(ctx, middleware.UserID(c), filter)

	if err != nil {
		AddSpanError(span, err)

		t.Logger.Error(ctx, "Failed to list todos",
			zap.Error(err),
			zap.String("user_id", middleware.UserID(c)),
		)

		SendError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("todo.total", page.Total))

	SendOK(c, response.TodoListResponse{Items: todos, Pagination: page})
}

func (t *TodoHandler) Get(c *gin.Context) {
	id, err := pathID(c)

	if err != nil {
		SendError(c, err)
		return
	}

	todo, err := t.svc.GetByID(c.Request.Context(), id, middleware.UserID(c))

	if err != nil {
		SendError(c, err)
		return
	}

	if todo == nil {
		SendError(c, domain.NewNotFoundError("Todo"))
		return
	}

	SendOK(c, todo)
}

func (t *TodoHandler) Update(c *gin.Context) {
	id, err := pathID(c)

	if err != nil {
		SendError(c, err)
		return
	}

	var params request.UpdateTodoRequest

	if err := bindJSON(c, &params); err != nil {
		SendError(c, err)
		return
	}

	if err := validation.NullFieldsError(params.NullNotAllowed()); err != nil {
		SendError(c, err)
		return
	}

	todo, err := t.svc.Update(c.Request.Context(), id, middleware.UserID(c), params.ToChanges())

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, todo, "Todo updated successfully")
}

func (t *TodoHandler) Delete(c *gin.Context) {
	id, err := pathID(c)

	if err != nil {
		SendError(c, err)
		return
	}

	if err := t.svc.SoftDelete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, nil, "Todo deleted successfully")
}

func (t *TodoHandler) Stats(c *gin.Context) {
	stats, err := t.svc.Stats(c.Request.Context(), middleware.UserID(c))

	if err != nil {
		SendError(c, err)
		return
	}

	SendOK(c, stats)
}
