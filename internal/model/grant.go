package model

import "time"

// Grant is a project record drawn as one row on the timeline.
// StartDate, EndDate and ProgressDate are UTC calendar days.
type Grant struct {
	ID            string    `json:"id"`
	BoardID       string    `json:"board_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	ProgressDate  time.Time `json:"progress_date"`
	Color         string    `json:"color"`
	AssignedUsers []string  `json:"assigned_users"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAssigned returns true if userID is among the grant's assigned users
func (g *Grant) IsAssigned(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range g.AssignedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// IsActive returns true if now falls inside the grant's span
func (g *Grant) IsActive(now time.Time) bool {
	return !now.Before(g.StartDate) && !now.After(g.EndDate)
}

// IsCompleted returns true if the grant ended before now
func (g *Grant) IsCompleted(now time.Time) bool {
	return now.After(g.EndDate)
}

// Milestone is a dated sub-target of a grant, ordered by Number
type Milestone struct {
	ID         string    `json:"id"`
	GrantID    string    `json:"grant_id"`
	Number     int       `json:"number"`
	TargetDate time.Time `json:"target_date"`
	Label      string    `json:"label,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
