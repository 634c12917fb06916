package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/utils"
	"gorm.io/gorm"
)

type OverturnRequest struct {
	Decision string `json:"decision" binding:"required"`
	Feedback string `json:"feedback"`
}

type AppealDecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Feedback string `json:"feedback"`
}

// ListSubmissions gives the head the full review queue across all admins.
func ListSubmissions(ctx *gin.Context) {
	var submissions []models.Submission

	if err := db.DB.Order("created_at DESC").Find(&submissions).Error; err != nil {
		log.Printf("Failed to fetch submissions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// OverturnDecision lets the head replace an admin's verdict with their own.
// The student is notified of the new outcome.
func OverturnDecision(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var body OverturnRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision is required"})
		return
	}

	if body.Decision != models.StatusAccepted && body.Decision != models.StatusRejected {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be Accepted or Rejected"})
		return
	}

	var submission models.Submission

	if err := db.DB.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		log.Printf("Failed to fetch submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{
		"status":        body.Decision,
		"head_decision": body.Decision,
		"head_id":       currentUser.ID,
	}

	if body.Feedback != "" {
		updates["head_feedback"] = body.Feedback
	}

	if submission.AppealStatus != nil {
		overturned := models.DecisionOverturned
		updates["appeal_status"] = &overturned
	}

	if err := db.DB.Model(&submission).Updates(updates).Error; err != nil {
		log.Printf("Failed to overturn submission %d: %v", submission.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyStudent(ctx, &submission,
		fmt.Sprintf("Decision Updated: %s", submission.Title),
		fmt.Sprintf("the decision on your submission %q has been reviewed and is now %s.", submission.Title, strings.ToLower(body.Decision)))

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Decision overturned successfully",
		"submission": submission,
	})
}

// GetAppeals lists submissions with a pending appeal.
func GetAppeals(ctx *gin.Context) {
	var submissions []models.Submission

	if err := db.DB.Where("appeal_status = ?", models.StatusPending).Order("created_at ASC").Find(&submissions).Error; err != nil {
		log.Printf("Failed to fetch appeals: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appeals": submissions})
}

// HandleAppealDecision resolves a pending appeal. Accepting the appeal
// overturns the rejection; the student always hears the outcome, and the
// reviewing admin is told when their verdict is reversed.
func HandleAppealDecision(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var body AppealDecisionRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision is required"})
		return
	}

	if body.Decision != models.StatusAccepted && body.Decision != models.StatusRejected {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be Accepted or Rejected"})
		return
	}

	var submission models.Submission

	if err := db.DB.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		log.Printf("Failed to fetch submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if submission.AppealStatus == nil || *submission.AppealStatus != models.StatusPending {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No pending appeal on this submission"})
		return
	}

	appealStatus := body.Decision
	updates := map[string]interface{}{
		"appeal_status": &appealStatus,
		"head_id":       currentUser.ID,
	}

	if body.Feedback != "" {
		updates["head_feedback"] = body.Feedback
	}

	// An accepted appeal reverses the rejection.
	if body.Decision == models.StatusAccepted {
		updates["status"] = models.StatusAccepted
		updates["head_decision"] = models.DecisionOverturned
	}

	if err := db.DB.Model(&submission).Updates(updates).Error; err != nil {
		log.Printf("Failed to resolve appeal on submission %d: %v", submission.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyStudent(ctx, &submission,
		fmt.Sprintf("Appeal %s: %s", body.Decision, submission.Title),
		fmt.Sprintf("your appeal on submission %q has been %s.", submission.Title, strings.ToLower(body.Decision)))

	if body.Decision == models.StatusAccepted {
		notifyAdminOfOverturn(ctx, &submission)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Appeal resolved successfully"})
}

// ListAllContent gives the head a combined view of every content type.
func ListAllContent(ctx *gin.Context) {
	var (
		assignments []models.Assignment
		tests       []models.Test
		notes       []models.Note
		lectures    []models.Lecture
	)

	for _, q := range []struct {
		dest interface{}
		name string
	}{
		{&assignments, "assignments"},
		{&tests, "tests"},
		{&notes, "notes"},
		{&lectures, "lectures"},
	} {
		if err := db.DB.Order("created_at DESC").Find(q.dest).Error; err != nil {
			log.Printf("Failed to fetch %s: %v", q.name, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"assignments": assignments,
		"tests":       tests,
		"notes":       notes,
		"lectures":    lectures,
	})
}

func notifyAdminOfOverturn(ctx *gin.Context, submission *models.Submission) {
	var admin models.User

	err := db.DB.Where("name = ? AND role = ?", submission.Admin, models.RoleAdmin).First(&admin).Error

	if err != nil {
		log.Printf("Failed to fetch admin %q for overturn notice: %v", submission.Admin, err)
		return
	}

	text := fmt.Sprintf("Hello %s,\n\nYour rejection of submission %q by %s has been overturned on appeal.\n\nBest regards,\nWorkQueue Team",
		admin.Name, submission.Title, submission.UserName)

	if err := mailer.Send(ctx.Request.Context(), admin.Email, "Decision Overturned on Appeal", text, ""); err != nil {
		log.Printf("Overturn notice to %s failed: %v", admin.Email, err)
	}
}
