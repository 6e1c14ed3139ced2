package types

import "time"

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ProjectResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedBy uint      `json:"last_updated_by"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// MemberResponse is a membership row enriched with the member's name and
// email for display.
type MemberResponse struct {
	ID        uint      `json:"id"`
	ProjectID uint      `json:"project_id"`
	UserID    uint      `json:"user_id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joined_at"`
}

type TaskResponse struct {
	ID            uint      `json:"id"`
	ProjectID     uint      `json:"project_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Summary       *string   `json:"summary"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedBy uint      `json:"last_updated_by"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type CommentResponse struct {
	ID            uint      `json:"id"`
	TaskID        uint      `json:"task_id"`
	Comment       string    `json:"comment"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedBy uint      `json:"last_updated_by"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

type ActivityResponse struct {
	ID        uint      `json:"id"`
	ProjectID uint      `json:"project_id"`
	ActorID   uint      `json:"actor_id"`
	Action    string    `json:"action"`
	Details   any       `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
