package learning

import "time"

// BusinessContext is the read-only snapshot returned by the context supplier.
// It is never persisted by this service and may be stale.
type BusinessContext struct {
	Projects       []ProjectContext `json:"projects"`
	LastBackupAt   *time.Time       `json:"last_backup_at,omitempty"`
	RecentActivity []string         `json:"recent_activity,omitempty"`
	FetchedAt      time.Time        `json:"fetched_at"`
}

type ProjectContext struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Status            string     `json:"status,omitempty"`
	LastActivityAt    *time.Time `json:"last_activity_at,omitempty"`
	LastPostAt        *time.Time `json:"last_post_at,omitempty"`
	HasActiveWorkflow bool       `json:"has_active_workflow"`
}

// Project returns the project with the given id, or nil.
func (c *BusinessContext) Project(id string) *ProjectContext {
	if c == nil || id == "" {
		return nil
	}
	for i := range c.Projects {
		if c.Projects[i].ID == id {
			return &c.Projects[i]
		}
	}
	return nil
}
