package handlers

import (
	"net/http"

	"DF-PROPOSAL/internal/placeholder"
	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req services.ClientInput
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clients.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

type PlaceholderResponse struct {
	Placeholders []string `json:"placeholders"`
}

// GetPlaceholders lists the tokens section content may use.
func GetPlaceholders(c *gin.Context) {
	c.JSON(http.StatusOK, PlaceholderResponse{Placeholders: placeholder.Vocabulary()})
}
