package domain

import (
	"fmt"
	"time"
)

// AwardReason names the trigger that granted points.
type AwardReason string

const (
	AwardTaskCompleted AwardReason = "task_completed"
	AwardFocusSession  AwardReason = "focus_session"
)

// Award is a journaled grant of points. Key identifies the triggering event and is unique per user.
type Award struct {
	Key       string      `json:"key"`
	UserID    string      `json:"user_id"`
	Subject   string      `json:"subject"`
	Reason    AwardReason `json:"reason"`
	Points    int         `json:"points"`
	CreatedAt time.Time   `json:"created_at"`
}

// CompletionAwardKey identifies the one-time completion reward of a task.
func CompletionAwardKey(taskID string) string {
	return fmt.Sprintf("task:%s:completed", taskID)
}

// SessionAwardKey identifies the reward of one focus session on a task. sessionID is
// allocated when the session starts, so the key never depends on the task's session count.
func SessionAwardKey(taskID, sessionID string) string {
	return fmt.Sprintf("task:%s:session:%s", taskID, sessionID)
}
