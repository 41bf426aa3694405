package handler

import (
	"errors"
	"net/http"

	"event-server/internal/service"
	"event-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler - HTTP-граница сервиса событий.
type Handler struct {
	events  service.EventService
	ledger  service.Ledger
	users   service.UserService
	subs    service.SubscriptionService
	tickets service.TicketService
	logger  *zap.Logger
}

func NewHandler(
	events service.EventService,
	ledger service.Ledger,
	users service.UserService,
	subs service.SubscriptionService,
	tickets service.TicketService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		events:  events,
		ledger:  ledger,
		users:   users,
		subs:    subs,
		tickets: tickets,
		logger:  logger.Named("Handler"),
	}
}

// RegisterRoutes вешает маршруты /api/v1. registerLimiter применяется только к записи на событие.
func (h *Handler) RegisterRoutes(router *gin.Engine, registerLimiter gin.HandlerFunc) {
	api := router.Group("/api/v1")

	events := api.Group("/events")
	{
		events.POST("", h.createEvent)
		events.GET("/:id", h.getEvent)
		events.PUT("/:id", h.updateEvent)
		events.DELETE("/:id", h.deleteEvent)
		events.GET("/:id/assignees", h.listAssignees)
		if registerLimiter != nil {
			events.POST("/:id/register", registerLimiter, h.register)
		} else {
			events.POST("/:id/register", h.register)
		}
	}

	users := api.Group("/users")
	{
		users.POST("", h.createUser)
		users.GET("/:id", h.getUser)
		users.GET("/:id/events", h.listUserEvents)
	}

	api.POST("/push-tokens", h.savePushToken)
	api.DELETE("/push-tokens/:token", h.removePushToken)
	api.GET("/tickets/:id", h.getTicket)
}

// pathUUID читает UUID из параметра пути и сам отвечает 400 при ошибке.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		abortBadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса. Недопустимая категория отдается как ErrInvalidCategory, остальное как 400.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, models.ErrInvalidCategory) {
			handleServiceError(c, err)
		} else {
			abortBadRequest(c, "Invalid request data: "+err.Error())
		}
		return false
	}
	return true
}

// --- events ---

func (h *Handler) createEvent(c *gin.Context) {
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.CreateEvent(c.Request.Context(), req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handler) getEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) updateEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.events.UpdateEvent(c.Request.Context(), id, req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) deleteEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) register(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.ledger.Register(c.Request.Context(), eventID, req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listAssignees(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	users, err := h.ledger.ListAssignees(c.Request.Context(), eventID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(users))
}

// --- users ---

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listUserEvents(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	events, err := h.ledger.ListEventsForUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(events))
}

// --- push tokens & tickets ---

func (h *Handler) savePushToken(c *gin.Context) {
	var req savePushTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subs.SaveToken(c.Request.Context(), req.UserID, req.ExpoPushToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) removePushToken(c *gin.Context) {
	if err := h.subs.RemoveToken(c.Request.Context(), c.Param("token")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getTicket(c *gin.Context) {
	ticket, err := h.tickets.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
