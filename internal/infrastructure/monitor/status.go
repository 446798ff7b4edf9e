package monitor

import "time"

type Status struct {
	Driver       string    `json:"driver"`
	Database     bool      `json:"database"`
	RedisEnabled bool      `json:"redis_enabled"`
	Redis        bool      `json:"redis"`
	Journal      bool      `json:"journal"`
	JournalSize  int       `json:"journal_size"`
	Workspaces   int       `json:"workspaces"`
	LastCheck    time.Time `json:"last_check"`
}

// Healthy ignores the journal: awards still flow without it.
func (s Status) Healthy() bool {
	return s.Database && (!s.RedisEnabled || s.Redis)
}
