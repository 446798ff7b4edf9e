package transport

import (
	"strings"

	"github.com/fastygo/taskflow/domain"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (r TaskCreateRequest) Draft() domain.TaskDraft {
	return domain.TaskDraft{
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(strings.TrimSpace(r.Category)),
	}
}

// TaskUpdateRequest carries only the fields to change. Completion is changed through the toggle endpoint.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

func (r TaskUpdateRequest) Patch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Category != nil {
		c := domain.Category(strings.TrimSpace(*r.Category))
		patch.Category = &c
	}
	return patch
}
