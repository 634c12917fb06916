package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/deadlines"
	"github.com/workqueue-dev/workqueue/internal/labels"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/utils"
)

type CreateAssignmentRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Label        string `json:"label" binding:"required"`
	Deadline     string `json:"deadline" binding:"required"`
	DeadlineTime string `json:"deadline_time"`
}

type CreateTestRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Label        string `json:"label" binding:"required"`
	TestURL      string `json:"test_url" binding:"required"`
	Deadline     string `json:"deadline" binding:"required"`
	DeadlineTime string `json:"deadline_time"`
}

// parseDeadline interprets the submitted deadline. A separate time field or
// a timestamp with a time part mark the deadline as time-specific; a bare
// date lands on end of day and is treated as date-only.
func parseDeadline(deadline, deadlineTime string) (time.Time, bool, error) {
	deadline = strings.TrimSpace(deadline)

	if deadlineTime != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04", deadline+" "+deadlineTime, time.Local)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}

	if strings.Contains(deadline, "T") {
		if t, err := time.Parse(time.RFC3339, deadline); err == nil {
			return t, true, nil
		}
		t, err := time.ParseInLocation("2006-01-02T15:04", deadline, time.Local)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}

	day, err := time.ParseInLocation("2006-01-02", deadline, time.Local)
	if err != nil {
		return time.Time{}, false, err
	}
	return day.Add(23*time.Hour + 59*time.Minute + 59*time.Second), false, nil
}

func CreateAssignment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateAssignmentRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	deadline, hasTime, err := parseDeadline(body.Deadline, body.DeadlineTime)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format"})
		return
	}

	if !deadline.After(time.Now()) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Deadline must be in the future"})
		return
	}

	assignment := models.Assignment{
		Admin:            currentUser.Name,
		Title:            body.Title,
		Description:      body.Description,
		Label:            body.Label,
		Deadline:         deadline,
		HasTimeComponent: &hasTime,
	}

	if err := db.DB.Create(&assignment).Error; err != nil {
		log.Printf("Failed to create assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notified := notifyAudience(ctx.Request.Context(), body.Label,
		fmt.Sprintf("New Assignment: %s", body.Title),
		func(u *models.User) string {
			return fmt.Sprintf("Hello %s,\n\nA new assignment has been posted.\n\nTitle: %s\nDescription: %s\nDeadline: %s\n\nBest regards,\nWorkQueue Team",
				u.Name, body.Title, body.Description, deadlines.FormatDeadline(deadline, hasTime))
		})

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Assignment created successfully",
		"assignment": assignment,
		"notified":   notified,
	})
}

func CreateTest(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTestRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	deadline, hasTime, err := parseDeadlineWithDefault(body.Deadline, body.DeadlineTime)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format"})
		return
	}

	if !deadline.After(time.Now()) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Deadline must be in the future"})
		return
	}

	test := models.Test{
		Admin:            currentUser.Name,
		Title:            body.Title,
		Description:      body.Description,
		Label:            body.Label,
		TestURL:          body.TestURL,
		Deadline:         deadline,
		HasTimeComponent: &hasTime,
	}

	if err := db.DB.Create(&test).Error; err != nil {
		log.Printf("Failed to create test: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notified := notifyAudience(ctx.Request.Context(), body.Label,
		fmt.Sprintf("New Test: %s", body.Title),
		func(u *models.User) string {
			return fmt.Sprintf("Hello %s,\n\nA new test has been scheduled.\n\nTitle: %s\nTest link: %s\nDeadline: %s\n\nBest regards,\nWorkQueue Team",
				u.Name, body.Title, body.TestURL, deadlines.FormatDeadline(deadline, hasTime))
		})

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Test created successfully",
		"test":     test,
		"notified": notified,
	})
}

// parseDeadlineWithDefault is parseDeadline, except a bare date means a
// timed deadline at end of day. Tests default to timed deadlines.
func parseDeadlineWithDefault(deadline, deadlineTime string) (time.Time, bool, error) {
	t, hasTime, err := parseDeadline(deadline, deadlineTime)
	if err != nil {
		return t, hasTime, err
	}
	return t, true, nil
}

func CreateNote(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title := ctx.PostForm("title")
	description := ctx.PostForm("description")
	label := ctx.PostForm("label")

	if title == "" || label == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and label are required"})
		return
	}

	fh, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	path, url, err := files.Save(fh)

	if err != nil {
		log.Printf("Failed to store note file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	note := models.Note{
		Admin:       currentUser.Name,
		Title:       title,
		Description: description,
		Label:       label,
		FileURL:     url,
		FilePath:    path,
	}

	if err := db.DB.Create(&note).Error; err != nil {
		log.Printf("Failed to create note: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Note uploaded successfully",
		"note":    note,
	})
}

func CreateLecture(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title := ctx.PostForm("title")
	description := ctx.PostForm("description")
	label := ctx.PostForm("label")

	if title == "" || label == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and label are required"})
		return
	}

	fh, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	path, url, err := files.Save(fh)

	if err != nil {
		log.Printf("Failed to store lecture file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	lecture := models.Lecture{
		Admin:       currentUser.Name,
		Title:       title,
		Description: description,
		Label:       label,
		FileURL:     url,
		FilePath:    path,
	}

	if err := db.DB.Create(&lecture).Error; err != nil {
		log.Printf("Failed to create lecture: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Lecture uploaded successfully",
		"lecture": lecture,
	})
}

// GetAdminContent lists the requesting admin's own content of the given
// type, newest first.
func GetAdminContent(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	switch ctx.Param("type") {
	case "assignments":
		var out []models.Assignment
		err = db.DB.Where("admin = ?", currentUser.Name).Order("created_at DESC").Find(&out).Error
		respondContent(ctx, err, "assignments", out)
	case "tests":
		var out []models.Test
		err = db.DB.Where("admin = ?", currentUser.Name).Order("created_at DESC").Find(&out).Error
		respondContent(ctx, err, "tests", out)
	case "notes":
		var out []models.Note
		err = db.DB.Where("admin = ?", currentUser.Name).Order("created_at DESC").Find(&out).Error
		respondContent(ctx, err, "notes", out)
	case "lectures":
		var out []models.Lecture
		err = db.DB.Where("admin = ?", currentUser.Name).Order("created_at DESC").Find(&out).Error
		respondContent(ctx, err, "lectures", out)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content type"})
	}
}

// GetStudentContent lists content matching the student's labels.
// Deadline-bearing content sorts by deadline; the rest newest first.
func GetStudentContent(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx.Request.Context(), currentUser.ID, currentUser.Labels)

	if err != nil {
		log.Printf("Failed to resolve labels for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	reqCtx := ctx.Request.Context()

	switch ctx.Param("type") {
	case "assignments":
		var out []models.Assignment
		err = labels.MatchContent(reqCtx, db.DB, labelSet, &out, "deadline ASC")
		if err == nil {
			flags := deadlines.NewFlagStore(db.DB)
			for i := range out {
				deadlines.EnsureTimeFlag(reqCtx, flags, &out[i])
			}
		}
		respondContent(ctx, err, "assignments", out)
	case "tests":
		var out []models.Test
		err = labels.MatchContent(reqCtx, db.DB, labelSet, &out, "deadline ASC")
		respondContent(ctx, err, "tests", out)
	case "notes":
		var out []models.Note
		err = labels.MatchContent(reqCtx, db.DB, labelSet, &out, "created_at DESC")
		respondContent(ctx, err, "notes", out)
	case "lectures":
		var out []models.Lecture
		err = labels.MatchContent(reqCtx, db.DB, labelSet, &out, "created_at DESC")
		respondContent(ctx, err, "lectures", out)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content type"})
	}
}

func respondContent(ctx *gin.Context, err error, key string, payload interface{}) {
	if err != nil {
		if errors.Is(err, labels.ErrNoLabels) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "No labels configured for user"})
			return
		}
		log.Printf("Failed to fetch %s: %v", key, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{key: payload})
}

// notifyAudience emails everyone carrying the label. Failures are logged
// and do not affect the caller; the return value is how many sends were
// attempted.
func notifyAudience(ctx context.Context, label, subject string, bodyFor func(*models.User) string) int {
	audience, err := labels.FindUsersByLabel(ctx, db.DB, label)

	if err != nil {
		log.Printf("Failed to resolve audience for label %q: %v", label, err)
		return 0
	}

	var wg sync.WaitGroup
	for i := range audience {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			if err := mailer.Send(ctx, u.Email, subject, bodyFor(u), ""); err != nil {
				log.Printf("Notification email to %s failed: %v", u.Email, err)
			}
		}(&audience[i])
	}
	wg.Wait()

	return len(audience)
}
