package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

func (h *handlers) state(c *gin.Context) {
	snap, err := h.Orch.State(c.Request.Context(), roomCode(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) participants(c *gin.Context) {
	list, err := h.Orch.Participants(c.Request.Context(), roomCode(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": list})
}

type enqueueRequest struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	RequestedBy string `json:"requestedBy"`
	Partner     string `json:"partner"`
	UserID      string `json:"userId"`
	PartnerID   string `json:"partnerId"`
}

func (h *handlers) enqueue(c *gin.Context) {
	var req enqueueRequest
	if !bindBody(c, &req) {
		return
	}
	item, err := h.Orch.Enqueue(c.Request.Context(), roomCode(c), app.EnqueueRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "itemId": item.ID})
}

func (h *handlers) next(c *gin.Context) {
	if _, err := h.Orch.Next(c.Request.Context(), roomCode(c)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

type itemRequest struct {
	ItemID    string `json:"itemId"`
	Direction string `json:"direction"`
}

func (h *handlers) removeItem(c *gin.Context) {
	var req itemRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.Orch.RemoveItem(c.Request.Context(), roomCode(c), strings.TrimSpace(req.ItemID)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *handlers) moveItem(c *gin.Context) {
	var req itemRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.Orch.MoveItem(c.Request.Context(), roomCode(c), strings.TrimSpace(req.ItemID), req.Direction); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *handlers) moveToTop(c *gin.Context) {
	var req itemRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.Orch.MoveToTop(c.Request.Context(), roomCode(c), strings.TrimSpace(req.ItemID)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *handlers) finalize(c *gin.Context) {
	var req struct {
		Requester string `json:"requester"`
	}
	if !bindBody(c, &req) {
		return
	}
	res, err := h.Orch.Finalize(c.Request.Context(), roomCode(c), req.Requester)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "score": res.Score})
}

func (h *handlers) updateName(c *gin.Context) {
	var req struct {
		UserID  string `json:"userId"`
		NewName string `json:"newName"`
	}
	if !bindBody(c, &req) {
		return
	}
	if err := h.Orch.Rename(c.Request.Context(), roomCode(c), req.UserID, req.NewName); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *handlers) scoreDone(c *gin.Context) {
	if err := h.Orch.ScoreDone(c.Request.Context(), roomCode(c)); err != nil {
		writeError(c, err)
		return
	}
	ok(c)
}

func (h *handlers) player(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	if !bindBody(c, &req) {
		return
	}
	if err := h.Orch.Player(c.Request.Context(), roomCode(c), req.Action); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "action": req.Action})
}
