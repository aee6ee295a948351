package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/middleware"
	"studyplan/internal/repositories"
)

// LinkIssuer hands out Telegram link codes.
type LinkIssuer interface {
	RequestLink(ctx context.Context, ownerID string) (*repositories.TelegramLink, error)
}

type IntegrationsHandler struct {
	links LinkIssuer
}

// NewIntegrationsHandler takes a nil issuer when Telegram is not configured.
func NewIntegrationsHandler(links LinkIssuer) *IntegrationsHandler {
	return &IntegrationsHandler{links: links}
}

type telegramLinkResponse struct {
	Success bool                       `json:"success"`
	Link    *repositories.TelegramLink `json:"link"`
	Hint    string                     `json:"hint"`
}

// @Summary      Request a Telegram link code
// @Description  Issues a one-time code; sending "/link <code>" to the bot routes notifications to that chat
// @Tags         Integrations
// @Produce      json
// @Success      200  {object}  telegramLinkResponse
// @Failure      503  {object}  services.Result
// @Router       /integrations/telegram/link [post]
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	if h.links == nil {
		fail(c, http.StatusServiceUnavailable, "telegram is not configured")
		return
	}
	owner := middleware.OwnerID(c)
	link, err := h.links.RequestLink(c.Request.Context(), owner)
	if err != nil {
		log.Printf("[tg][request-link][err] owner=%s: %v", owner, err)
		fail(c, statusFor(err), "cannot create link code")
		return
	}
	c.JSON(http.StatusOK, telegramLinkResponse{
		Success: true,
		Link:    link,
		Hint:    "Open the bot chat and send: /link " + link.Code,
	})
}
