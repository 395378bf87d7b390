package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steemit/agora/internal/auth"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Wallet   string `json:"wallet_address"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// userView is a user as seen by others
type userView struct {
	*models.User
	Wallet string `json:"wallet_address,omitempty"`
}

func newUserView(u *models.User) userView {
	return userView{User: u, Wallet: u.Wallet()}
}

type sessionView struct {
	*auth.Pair
	User userView `json:"user"`
}

func (r *Router) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	user, err := r.svc.Users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Wallet:   req.Wallet,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	pair, user, err := r.svc.Users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView{Pair: pair, User: newUserView(user)})
}

func (r *Router) refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	pair, err := r.svc.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (r *Router) logout(c *gin.Context) {
	if err := r.svc.Users.Logout(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) me(c *gin.Context) {
	user, err := r.svc.Users.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

func (r *Router) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := r.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

func (r *Router) updateProfile(c *gin.Context) {
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	user, err := r.svc.Users.UpdateProfile(c.Request.Context(), currentUser(c), service.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}
