package controller

import (
	"errors"
	"net/http"

	"github.com/consentlens/backend/models"
	service "github.com/consentlens/backend/service"

	"github.com/gin-gonic/gin"
)

// ProfileController manages HTTP requests for user profiles
type ProfileController struct {
	service *service.ProfileService
}

// NewProfileController initializes the controller with the service
func NewProfileController(service *service.ProfileService) *ProfileController {
	return &ProfileController{service}
}

// CreateProfile inserts a new user profile
func (c *ProfileController) CreateProfile(ctx *gin.Context) {
	var profile models.UserProfile
	if err := ctx.ShouldBindJSON(&profile); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.service.CreateProfile(&profile); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, profile)
}

// GetProfile fetches one profile by id
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	profile, err := c.service.GetProfile(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// DeleteProfile removes a profile row
func (c *ProfileController) DeleteProfile(ctx *gin.Context) {
	if err := c.service.DeleteProfile(ctx.Param("id")); err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Profile deleted successfully"})
}
