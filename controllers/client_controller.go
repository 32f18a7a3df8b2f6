package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"` // optional; derived from the name when omitted
}

// CreateClient handles POST /api/v1/admin/clients - registers a portal client
func CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A client name is required",
				"details": err.Error(),
			},
		})
		return
	}

	slug := utils.Slugify(req.Slug)
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SLUG",
				"message": "Could not derive a portal slug from the client name",
			},
		})
		return
	}

	client := models.Client{
		Name: strings.TrimSpace(req.Name),
		Slug: slug,
	}

	db := config.GetDB()
	if err := db.Create(&client).Error; err != nil {
		// Check for duplicate slug (works with both PostgreSQL and SQLite)
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SLUG_EXISTS",
					"message": "A client with this portal slug already exists",
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create client",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    client,
	})
}

// ListClients handles GET /api/v1/admin/clients
func ListClients(c *gin.Context) {
	db := config.GetDB()
	var clients []models.Client
	if err := db.Order("name ASC").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load clients",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    clients,
	})
}

// DeleteClient handles DELETE /api/v1/admin/clients/:id. The client's work
// logs go with it.
func DeleteClient(c *gin.Context) {
	db := config.GetDB()
	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	if err := db.Where("client_id = ?", client.ID).Delete(&models.WorkLog{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete the client's work logs",
			},
		})
		return
	}

	if err := db.Delete(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete client",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"deleted": client.ID,
		},
	})
}
