package http

import (
	"net/http"
	"time"

	"github.com/dkeye/Karaoke/internal/app/account"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
)

type userView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	CanHost    bool   `json:"canHost"`
	IsComplete bool   `json:"isComplete"`
}

type profileView struct {
	userView
	BirthDate *string `json:"birthDate"`
	Gender    string  `json:"gender"`
	CreatedAt string  `json:"createdAt"`
}

func viewOf(u *domain.User) userView {
	return userView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		City:       u.City,
		CanHost:    u.CanHost,
		IsComplete: u.IsComplete(),
	}
}

func writeSession(c *gin.Context, s *account.Session, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.Token, "user": viewOf(s.User)})
}

func (h *handlers) registerGuest(c *gin.Context) {
	var in account.GuestInput
	if !bindBody(c, &in) {
		return
	}
	s, err := h.Accounts.RegisterGuest(c.Request.Context(), in)
	writeSession(c, s, err)
}

func (h *handlers) registerHost(c *gin.Context) {
	var in account.HostInput
	if !bindBody(c, &in) {
		return
	}
	s, err := h.Accounts.RegisterHost(c.Request.Context(), in)
	writeSession(c, s, err)
}

func (h *handlers) completeRegistration(c *gin.Context) {
	var in account.ProfileInput
	if !bindBody(c, &in) {
		return
	}
	s, err := h.Accounts.CompleteRegistration(c.Request.Context(), userPrincipal(c), in)
	writeSession(c, s, err)
}

func (h *handlers) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindBody(c, &in) {
		return
	}
	s, err := h.Accounts.Login(c.Request.Context(), in.Email, in.Password)
	writeSession(c, s, err)
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.Accounts.Me(c.Request.Context(), userPrincipal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	view := profileView{
		userView:  viewOf(u),
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if u.BirthDate != nil {
		b := u.BirthDate.UTC().Format(time.DateOnly)
		view.BirthDate = &b
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}
