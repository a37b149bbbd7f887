package http

import (
	"net/http"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
)

type tvPasswordRequest struct {
	TVPassword string `json:"tvPassword"`
}

func (h *handlers) createRoom(c *gin.Context) {
	user := userPrincipal(c)
	if user == nil {
		writeError(c, domain.ErrUnauthorized)
		return
	}
	var req tvPasswordRequest
	if !bindBody(c, &req) {
		return
	}
	code, err := h.Orch.CreateRoom(c.Request.Context(), user, req.TVPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomCode": code})
}

func (h *handlers) tvLogin(c *gin.Context) {
	var req tvPasswordRequest
	if !bindBody(c, &req) {
		return
	}
	code := roomCode(c)
	token, err := h.Orch.TVLogin(c.Request.Context(), code, req.TVPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tvToken": token, "roomCode": code})
}

func (h *handlers) ownerAccess(c *gin.Context) {
	code := roomCode(c)
	token, err := h.Orch.OwnerAccess(c.Request.Context(), userPrincipal(c), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tvToken": token, "roomCode": code})
}

func (h *handlers) roomExists(c *gin.Context) {
	code := roomCode(c)
	exists, err := h.Orch.RoomExists(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	if !exists {
		writeError(c, domain.ErrRoomNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "roomCode": code})
}

func (h *handlers) myRooms(c *gin.Context) {
	rooms, err := h.Orch.MyRooms(c.Request.Context(), userPrincipal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
