package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/auth"
	"github.com/workqueue-dev/workqueue/internal/labels"
	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/types"
	"github.com/workqueue-dev/workqueue/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username"`
	Label    string `json:"label"`
	Role     string `json:"role"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type LabelRequest struct {
	Label string `json:"label" binding:"required"`
}

func CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	role := body.Role
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleAdmin, models.RoleHead:
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var existingUser models.User

	err := db.DB.Where("email = ?", body.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	username, err := uniqueUsername(body.Username, body.Email)

	if err != nil {
		log.Printf("Failed to derive username: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var labelSet pq.StringArray
	if strings.TrimSpace(body.Label) != "" {
		labelSet = pq.StringArray{body.Label}
	}

	now := time.Now()
	newUser := models.User{
		Name:         body.Name,
		Username:     username,
		Email:        body.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Labels:       labelSet,
		LastLogin:    &now,
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateJWT(newUser.ID, newUser.Role, newUser.Labels)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  userResponse(&newUser),
		"token": token,
	})
}

func LoginUser(ctx *gin.Context) {
	var body LoginUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	err := db.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
		return
	}

	// Fold any legacy label in before issuing the credential so the token
	// carries the current label set.
	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx.Request.Context(), user.ID, nil)

	if err != nil {
		log.Printf("Failed to resolve labels for user %d: %v", user.ID, err)
		labelSet = user.Labels
	}

	now := time.Now()
	if err := db.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		log.Printf("Failed to update last login for user %d: %v", user.ID, err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, labelSet)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user.Labels = labelSet

	ctx.JSON(http.StatusOK, gin.H{
		"user":  userResponse(&user),
		"token": token,
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:     currentUser.ID,
			Name:   currentUser.Name,
			Email:  currentUser.Email,
			Role:   currentUser.Role,
			Labels: currentUser.Labels,
		},
	})
}

// GetProfile returns the full profile, folding a legacy label in first so
// clients always see the array form.
func GetProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.Resolve(ctx.Request.Context(), currentUser.ID, currentUser.Labels)

	if err != nil {
		if errors.Is(err, labels.ErrUserNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("Failed to resolve labels for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"profile": gin.H{
			"id":              user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"username":        user.Username,
			"labels":          labelSet,
			"role":            user.Role,
			"created_at":      user.CreatedAt,
			"last_login":      user.LastLogin,
			"profile_picture": user.ProfilePicture,
		},
	})
}

func UpdateProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProfileRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if body.Name != "" {
		updates["name"] = strings.TrimSpace(body.Name)
	}

	if body.Username != "" {
		var existing models.User
		err := db.DB.Where("username = ? AND id != ?", body.Username, currentUser.ID).First(&existing).Error
		if err == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Database error when checking username: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		updates["username"] = body.Username
	}

	if body.ProfilePicture != "" {
		updates["profile_picture"] = body.ProfilePicture
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, user.Labels)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(&user),
		"token":   token,
	})
}

func ChangePassword(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body ChangePasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash new password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Model(&user).Update("password_hash", string(passwordHash)).Error; err != nil {
		log.Printf("Failed to update password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Confirmation email is best effort.
	text := fmt.Sprintf("Hello %s,\n\nYour password has been successfully changed.\n\nIf you did not make this change, please contact support immediately.\n\nBest regards,\nWorkQueue Team", user.Name)
	if err := mailer.Send(ctx.Request.Context(), user.Email, "Password Changed Successfully", text, ""); err != nil {
		log.Printf("Password change confirmation email failed: %v", err)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func AddLabel(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body LabelRequest

	if err := ctx.BindJSON(&body); err != nil || strings.TrimSpace(body.Label) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Label is required"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	labelSet, err := resolver.AddLabel(ctx.Request.Context(), currentUser.ID, currentUser.Labels, body.Label)

	if err != nil {
		switch {
		case errors.Is(err, labels.ErrLabelExists):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Label already exists"})
		case errors.Is(err, labels.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			log.Printf("Failed to add label for user %d: %v", currentUser.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	token, err := auth.GenerateJWT(currentUser.ID, currentUser.Role, labelSet)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Label added successfully",
		"labels":  labelSet,
		"token":   token,
	})
}

func RemoveLabel(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body LabelRequest

	if err := ctx.BindJSON(&body); err != nil || body.Label == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Label is required"})
		return
	}

	resolver := labels.NewResolver(labels.NewUserStore(db.DB))
	kept, err := resolver.RemoveLabel(ctx.Request.Context(), currentUser.ID, currentUser.Labels, body.Label)

	if err != nil {
		switch {
		case errors.Is(err, labels.ErrLabelMissing):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Label not found"})
		case errors.Is(err, labels.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			log.Printf("Failed to remove label for user %d: %v", currentUser.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	token, err := auth.GenerateJWT(currentUser.ID, currentUser.Role, kept)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Label removed successfully",
		"labels":  kept,
		"token":   token,
	})
}

// ListAdmins returns name and email of every admin, for the submission
// upload form.
func ListAdmins(ctx *gin.Context) {
	var admins []models.User

	if err := db.DB.Select("id", "name", "email").Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		log.Printf("Failed to list admins: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]gin.H, 0, len(admins))
	for _, a := range admins {
		out = append(out, gin.H{"id": a.ID, "name": a.Name, "email": a.Email})
	}

	ctx.JSON(http.StatusOK, out)
}

func userResponse(u *models.User) types.UserResponse {
	return types.UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Labels:   u.Labels,
	}
}

// uniqueUsername derives a username from the requested value or the email
// local part, suffixing a counter until it is free.
func uniqueUsername(requested, email string) (string, error) {
	base := requested
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}
	if base == "" {
		return "", errors.New("cannot derive username")
	}

	candidate := base
	for counter := 1; ; counter++ {
		var existing models.User
		err := db.DB.Where("username = ?", candidate).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, counter)
	}
}
