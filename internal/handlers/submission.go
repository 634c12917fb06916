package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/labels"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppealRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// UploadSubmission stores an assignment upload addressed to a specific
// admin. The student's current labels are stamped onto the submission so
// later reviews do not depend on the profile changing underneath.
func UploadSubmission(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title := ctx.PostForm("title")
	admin := ctx.PostForm("admin")

	if title == "" || admin == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and admin are required"})
		return
	}

	fh, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	path, url, err := files.Save(fh)

	if err != nil {
		log.Printf("Failed to store submission file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx.Request.Context(), currentUser.ID, currentUser.Labels)

	if err != nil {
		log.Printf("Failed to resolve labels for user %d: %v", currentUser.ID, err)
		labelSet = currentUser.Labels
	}

	submission := models.Submission{
		UserID:   currentUser.ID,
		UserName: currentUser.Name,
		Admin:    admin,
		Title:    title,
		FilePath: path,
		FileURL:  url,
		Labels:   labelSet,
	}

	if err := db.DB.Create(&submission).Error; err != nil {
		log.Printf("Failed to create submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Submission uploaded successfully",
		"submission": submission,
	})
}

// UploadTestResponse stores a response to a scheduled test. Uploads after
// the test deadline are refused.
func UploadTestResponse(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	testID, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid test ID"})
		return
	}

	var test models.Test

	if err := db.DB.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Test not found"})
			return
		}
		log.Printf("Failed to fetch test: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if time.Now().After(test.Deadline) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Test deadline has passed"})
		return
	}

	fh, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	path, url, err := files.Save(fh)

	if err != nil {
		log.Printf("Failed to store test response file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx.Request.Context(), currentUser.ID, currentUser.Labels)

	if err != nil {
		log.Printf("Failed to resolve labels for user %d: %v", currentUser.ID, err)
		labelSet = currentUser.Labels
	}

	submission := models.Submission{
		UserID:   currentUser.ID,
		UserName: currentUser.Name,
		Admin:    test.Admin,
		Title:    "Test: " + test.Title,
		FilePath: path,
		FileURL:  url,
		Labels:   labelSet,
	}

	if err := db.DB.Create(&submission).Error; err != nil {
		log.Printf("Failed to create test response: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Test response uploaded successfully",
		"submission": submission,
	})
}

// GetMySubmissions lists the student's own uploads, split by type:
// "submissions" for assignment work, "test-responses" for test uploads.
func GetMySubmissions(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Where("user_id = ?", currentUser.ID).Order("created_at DESC")

	switch ctx.Param("type") {
	case "submissions":
		query = query.Where("title NOT LIKE ?", "Test:%")
	case "test-responses":
		query = query.Where("title LIKE ?", "Test:%")
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown submission type"})
		return
	}

	var submissions []models.Submission

	if err := query.Find(&submissions).Error; err != nil {
		log.Printf("Failed to fetch submissions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// GetAdminSubmissions lists submissions addressed to the requesting admin.
func GetAdminSubmissions(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var submissions []models.Submission

	if err := db.DB.Where("admin = ?", currentUser.Name).Order("created_at DESC").Find(&submissions).Error; err != nil {
		log.Printf("Failed to fetch submissions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

func AcceptSubmission(ctx *gin.Context) {
	decideSubmission(ctx, models.StatusAccepted)
}

func RejectSubmission(ctx *gin.Context) {
	decideSubmission(ctx, models.StatusRejected)
}

func decideSubmission(ctx *gin.Context, decision string) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	submission, ok := adminSubmission(ctx, currentUser.Name)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"status":         decision,
		"admin_decision": decision,
	}

	if err := db.DB.Model(submission).Updates(updates).Error; err != nil {
		log.Printf("Failed to update submission %d: %v", submission.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyStudent(ctx, submission,
		fmt.Sprintf("Submission %s: %s", decision, submission.Title),
		fmt.Sprintf("your submission %q has been %s by %s.", submission.Title, strings.ToLower(decision), currentUser.Name))

	ctx.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Submission %s", strings.ToLower(decision)),
		"submission": submission,
	})
}

// SubmitAppeal files an appeal against a rejected submission. Only the
// owning student may appeal, and only while no appeal is pending.
func SubmitAppeal(ctx *gin.Context) {
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

	var body AppealRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Subject and description are required"})
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

	if submission.UserID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not your submission"})
		return
	}

	if submission.Status != models.StatusRejected {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only rejected submissions can be appealed"})
		return
	}

	if submission.AppealStatus != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Appeal already submitted"})
		return
	}

	pending := models.StatusPending
	updates := map[string]interface{}{
		"appeal_status": &pending,
		"appeal_details": datatypes.NewJSONType(models.AppealDetails{
			Subject:     body.Subject,
			Description: body.Description,
		}),
	}

	if err := db.DB.Model(&submission).Updates(updates).Error; err != nil {
		log.Printf("Failed to file appeal for submission %d: %v", submission.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Appeal submitted successfully"})
}

// GetFeedback returns the feedback left on a submission the student owns.
func GetFeedback(ctx *gin.Context) {
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

	if submission.UserID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not your submission"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"admin_feedback": submission.AdminFeedback,
		"head_feedback":  submission.HeadFeedback,
		"status":         submission.Status,
	})
}

// ProvideFeedback records feedback on a submission. Admins write to their
// own queue's submissions; heads may annotate any submission.
func ProvideFeedback(ctx *gin.Context) {
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

	var body FeedbackRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is required"})
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

	var column string

	switch currentUser.Role {
	case models.RoleAdmin:
		if submission.Admin != currentUser.Name {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Submission not in your queue"})
			return
		}
		column = "admin_feedback"
	case models.RoleHead:
		column = "head_feedback"
	default:
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	if err := db.DB.Model(&submission).Update(column, body.Feedback).Error; err != nil {
		log.Printf("Failed to record feedback on submission %d: %v", submission.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyStudent(ctx, &submission,
		fmt.Sprintf("Feedback on: %s", submission.Title),
		fmt.Sprintf("new feedback has been left on your submission %q:\n\n%s", submission.Title, body.Feedback))

	ctx.JSON(http.StatusOK, gin.H{"message": "Feedback recorded successfully"})
}

// adminSubmission loads the submission named by the :id param and checks
// it belongs to the given admin's queue. Responds on failure.
func adminSubmission(ctx *gin.Context, adminName string) (*models.Submission, bool) {
	id, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return nil, false
	}

	var submission models.Submission

	if err := db.DB.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return nil, false
		}
		log.Printf("Failed to fetch submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	if submission.Admin != adminName {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Submission not in your queue"})
		return nil, false
	}

	return &submission, true
}

// notifyStudent emails the owner of a submission. Best effort.
func notifyStudent(ctx *gin.Context, submission *models.Submission, subject, event string) {
	var student models.User

	if err := db.DB.First(&student, submission.UserID).Error; err != nil {
		log.Printf("Failed to fetch student %d for notification: %v", submission.UserID, err)
		return
	}

	text := fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\nWorkQueue Team", student.Name, strings.ToUpper(event[:1])+event[1:])

	if err := mailer.Send(ctx.Request.Context(), student.Email, subject, text, ""); err != nil {
		log.Printf("Notification email to %s failed: %v", student.Email, err)
	}
}
