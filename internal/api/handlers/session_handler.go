package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
	"auction-explorer/internal/services"
	"auction-explorer/pkg/logger"
)

type SessionHandler struct {
	manager *services.SessionManager
	log     logger.Logger
}

func NewSessionHandler(manager *services.SessionManager, log logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		log:     log,
	}
}

func (h *SessionHandler) Register(g *echo.Group) {
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.CloseSession)
	g.GET("/sessions/:id/view", h.GetView)
	g.POST("/sessions/:id/refresh", h.Refresh)
	g.POST("/sessions/:id/connect", h.Connect)
	g.POST("/sessions/:id/bid", h.PlaceBid)
	g.POST("/sessions/:id/withdraw", h.Withdraw)
	g.POST("/sessions/:id/end", h.EndAuction)
	g.GET("/sessions/:id/auctions", h.ListAuctions)
}

type CreateSessionRequest struct {
	Page    string `json:"page"`
	Address string `json:"address"`
	Name    string `json:"name"`
}

type BidRequest struct {
	Amount string `json:"amount"`
}

type AuctionListResponse struct {
	Auctions []domain.AuctionSummary `json:"auctions"`
	Message  string                  `json:"message,omitempty"`
}

func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Falha ao interpretar requisição", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Corpo da requisição inválido."})
	}

	switch req.Page {
	case services.PageExplorer:
		descriptor := h.manager.CreateExplorerSession(c.Request().Context())
		return c.JSON(http.StatusCreated, descriptor)
	case services.PageDetail:
		descriptor := h.manager.CreateDetailSession(c.Request().Context(), req.Address, req.Name)
		return c.JSON(http.StatusCreated, descriptor)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Tipo de página desconhecido. Utilize 'explorer' ou 'detail'.",
		})
	}
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	descriptor, err := h.manager.Describe(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, descriptor)
}

func (h *SessionHandler) CloseSession(c echo.Context) error {
	if err := h.manager.Close(c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) GetView(c echo.Context) error {
	view, err := h.manager.View(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) Refresh(c echo.Context) error {
	if err := h.manager.Refresh(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SessionHandler) Connect(c echo.Context) error {
	descriptor, err := h.manager.Connect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, descriptor)
}

func (h *SessionHandler) PlaceBid(c echo.Context) error {
	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Corpo da requisição inválido."})
	}

	if err := h.manager.PlaceBid(c.Request().Context(), c.Param("id"), req.Amount); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *SessionHandler) Withdraw(c echo.Context) error {
	if err := h.manager.Withdraw(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *SessionHandler) EndAuction(c echo.Context) error {
	if err := h.manager.EndAuction(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *SessionHandler) ListAuctions(c echo.Context) error {
	auctions, message, err := h.manager.ListAuctions(c.Param("id"), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, AuctionListResponse{Auctions: auctions, Message: message})
}

// fail maps the service error taxonomy onto HTTP statuses: blocked and
// misused sessions are client errors, in-flight actions are conflicts, and
// everything reaching the ledger is an upstream failure.
func (h *SessionHandler) fail(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrActionInFlight):
		status = http.StatusConflict
	case errors.Is(err, services.ErrSessionBlocked),
		errors.Is(err, services.ErrPageMismatch),
		errors.Is(err, chain.ErrNoSigner):
		status = http.StatusBadRequest
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
