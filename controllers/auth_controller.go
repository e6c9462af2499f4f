package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middleware"
	"storefront/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func (ctl *Controller) Register(c *gin.Context) {
	var input registerRequest
	if !ctl.bind(c, &input) {
		return
	}

	session, err := ctl.Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		ctl.fail(c, err)
		return
	}

	ok(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   session.Token,
		"user":    session.User.Summary(),
	})
}

func (ctl *Controller) Login(c *gin.Context) {
	var input loginRequest
	if !ctl.bind(c, &input) {
		return
	}

	session, err := ctl.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		ctl.fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{
		"token": session.Token,
		"user":  session.User.Summary(),
	})
}

func (ctl *Controller) Logout(c *gin.Context) {
	if err := ctl.Auth.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ctl *Controller) Me(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	user, err := ctl.Auth.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

func (ctl *Controller) UpdateProfile(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var input profileRequest
	if !ctl.bind(c, &input) {
		return
	}

	user, err := ctl.Auth.UpdateProfile(c.Request.Context(), actor.UserID, input.Name, input.Email)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (ctl *Controller) UpdatePassword(c *gin.Context) {
	actor, found := ctl.actor(c)
	if !found {
		return
	}
	var input passwordRequest
	if !ctl.bind(c, &input) {
		return
	}

	session, err := ctl.Auth.UpdatePassword(c.Request.Context(), actor.UserID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		ctl.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "Password updated successfully", "token": session.Token})
}
