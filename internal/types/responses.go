package types

import "time"

type UserResponse struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Labels   []string `json:"labels"`
}

// TimeRemaining is the computed countdown attached to upcoming-deadline
// listings.
type TimeRemaining struct {
	Hours     int    `json:"hours"`
	Minutes   int    `json:"minutes"`
	Formatted string `json:"formatted"`
}

type SearchPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
