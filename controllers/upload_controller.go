package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/services"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// UploadTuneFile handles POST /api/v1/uploads/tune - accepts the customer's
// ECU file during step 2 of the order wizard and returns its public URL
func UploadTuneFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A file must be provided in the 'file' form field",
			},
		})
		return
	}

	fileService := services.GetFileService()
	fileURL, err := fileService.UploadTune(fileHeader)
	if err != nil {
		// Validation failures carry their own code; storage failures are generic
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		log.Printf("Tune file upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the uploaded file",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"file_url": fileURL,
		},
	})
}
