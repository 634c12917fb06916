package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/scheduler"
	"gorm.io/datatypes"
)

// TriggerReminderScan runs one reminder pass immediately instead of
// waiting for the next scheduled tick.
func TriggerReminderScan(ctx *gin.Context) {
	if err := scheduler.TriggerScan(ctx.Request.Context()); err != nil {
		log.Printf("Manual reminder scan failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Reminder scan failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Reminder scan completed",
		"timestamp": time.Now(),
	})
}

// ResetWarningFlags clears the reminder state on every assignment so the
// next scan re-sends warnings. Recovery tool for botched reminder runs.
func ResetWarningFlags(ctx *gin.Context) {
	result := db.DB.Model(&models.Assignment{}).
		Where("warning_email_sent = ?", true).
		Updates(map[string]interface{}{
			"warning_email_sent":  false,
			"sent_warning_emails": datatypes.NewJSONType([]models.WarningRecipient(nil)),
		})

	if result.Error != nil {
		log.Printf("Failed to reset warning flags: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Warning flags reset",
		"modified":  result.RowsAffected,
		"timestamp": time.Now(),
	})
}
