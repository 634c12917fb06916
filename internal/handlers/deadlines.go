package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/deadlines"
	"github.com/workqueue-dev/workqueue/internal/labels"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/types"
	"github.com/workqueue-dev/workqueue/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChangeDeadlineRequest struct {
	Deadline     string `json:"deadline" binding:"required"`
	DeadlineTime string `json:"deadline_time"`
	Reason       string `json:"reason"`
}

// ChangeDeadline moves an assignment's deadline. The old value is appended
// to the assignment's deadline history, the reminder flag is re-armed so
// the scheduler warns again against the new deadline, and the audience is
// notified of the change.
func ChangeDeadline(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var body ChangeDeadlineRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Deadline is required"})
		return
	}

	newDeadline, newHasTime, err := parseDeadline(body.Deadline, body.DeadlineTime)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format"})
		return
	}

	if !newDeadline.After(time.Now()) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Deadline must be in the future"})
		return
	}

	var assignment models.Assignment

	if err := db.DB.First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
			return
		}
		log.Printf("Failed to fetch assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Settle the flag before we record the old state.
	deadlines.EnsureTimeFlag(ctx.Request.Context(), deadlines.NewFlagStore(db.DB), &assignment)

	oldHasTime := false
	if assignment.HasTimeComponent != nil {
		oldHasTime = *assignment.HasTimeComponent
	}

	history := assignment.DeadlineHistory.Data()
	history = append(history, models.DeadlineChange{
		OldDeadline: assignment.Deadline,
		NewDeadline: newDeadline,
		OldHasTime:  oldHasTime,
		NewHasTime:  newHasTime,
		ChangedBy:   currentUser.Name,
		ChangedAt:   time.Now(),
		Reason:      body.Reason,
	})

	// Moving the deadline re-arms the reminder so the scheduler warns
	// again against the new date.
	updates := map[string]interface{}{
		"deadline":            newDeadline,
		"has_time_component":  newHasTime,
		"deadline_history":    datatypes.NewJSONType(history),
		"warning_email_sent":  false,
		"sent_warning_emails": datatypes.NewJSONType([]models.WarningRecipient(nil)),
	}

	if err := db.DB.Model(&assignment).Updates(updates).Error; err != nil {
		log.Printf("Failed to change deadline on assignment %d: %v", assignment.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notified := notifyAudience(ctx.Request.Context(), assignment.Label,
		fmt.Sprintf("Deadline Changed: %s", assignment.Title),
		func(u *models.User) string {
			return fmt.Sprintf("Hello %s,\n\nThe deadline for %q has changed.\n\nNew deadline: %s\n\nBest regards,\nWorkQueue Team",
				u.Name, assignment.Title, deadlines.FormatDeadline(newDeadline, newHasTime))
		})

	BroadcastDeadlineRefresh()

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Deadline changed successfully",
		"deadline": newDeadline,
		"notified": notified,
	})
}

// DeadlineHistory returns the recorded deadline changes for an assignment.
func DeadlineHistory(ctx *gin.Context) {
	id, err := utils.IDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var assignment models.Assignment

	if err := db.DB.First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
			return
		}
		log.Printf("Failed to fetch assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	deadlines.EnsureTimeFlag(ctx.Request.Context(), deadlines.NewFlagStore(db.DB), &assignment)

	history := assignment.DeadlineHistory.Data()
	if history == nil {
		history = []models.DeadlineChange{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"assignment": assignment.Title,
		"deadline":   assignment.Deadline,
		"history":    history,
	})
}

// UpcomingDeadlines lists the student's assignments due within the next 48
// hours, each with a remaining-time breakdown.
func UpcomingDeadlines(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	now := time.Now()
	until := now.Add(48 * time.Hour)

	items, err := upcomingForLabels(ctx.Request.Context(), currentUser.Labels, currentUser.ID, now, until)

	if err != nil {
		log.Printf("Failed to fetch upcoming deadlines: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":         len(items),
		"deadlines":     items,
		"search_period": types.SearchPeriod{From: now, To: until},
	})
}

// UpcomingDeadlinesOverview lists every assignment due within the next 48
// hours across all cohorts. Ops view for admins and heads; the
// label-scoped student view is UpcomingDeadlines.
func UpcomingDeadlinesOverview(ctx *gin.Context) {
	now := time.Now()
	until := now.Add(48 * time.Hour)

	items, err := deadlines.Upcoming(ctx.Request.Context(),
		deadlines.NewAssignmentSource(db.DB), deadlines.NewFlagStore(db.DB), now, until)

	if err != nil {
		log.Printf("Failed to build deadline overview: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":         len(items),
		"deadlines":     items,
		"search_period": types.SearchPeriod{From: now, To: until},
	})
}

// upcomingForLabels resolves the user's labels and returns their matching
// assignments due in [from, to], deadline order, with remaining time
// attached. Also serves the websocket deadline feed.
func upcomingForLabels(ctx context.Context, cached []string, userID uint, from, to time.Time) ([]gin.H, error) {
	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx, userID, cached)

	if err != nil {
		return nil, err
	}

	matched, err := labels.MatchLabels(ctx, labelSet, labels.NewCollection(db.DB, &models.Assignment{}))

	if err != nil {
		if errors.Is(err, labels.ErrNoLabels) {
			return []gin.H{}, nil
		}
		return nil, err
	}

	var assignments []models.Assignment

	err = db.DB.WithContext(ctx).
		Where("label IN ?", matched).
		Where("deadline >= ? AND deadline <= ?", from, to).
		Order("deadline ASC").
		Find(&assignments).Error

	if err != nil {
		return nil, err
	}

	flags := deadlines.NewFlagStore(db.DB)
	items := make([]gin.H, 0, len(assignments))

	for i := range assignments {
		a := deadlines.EnsureTimeFlag(ctx, flags, &assignments[i])
		hasTime := a.HasTimeComponent != nil && *a.HasTimeComponent

		items = append(items, gin.H{
			"id":                 a.ID,
			"title":              a.Title,
			"admin":              a.Admin,
			"label":              a.Label,
			"deadline":           a.Deadline,
			"deadline_formatted": deadlines.FormatDeadline(a.Deadline, hasTime),
			"time_remaining":     deadlines.Remaining(a.Deadline, from),
		})
	}

	return items, nil
}
