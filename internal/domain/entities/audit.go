package entities

import "time"

// Audit actions recorded for network mutations.
const (
	AuditCreateNetwork      = "create_network"
	AuditImportNetwork      = "import_network"
	AuditAddCharacter       = "add_character"
	AuditRemoveCharacter    = "remove_character"
	AuditSetProfile         = "set_profile"
	AuditAddRelationship    = "add_relationship"
	AuditRemoveRelationship = "remove_relationship"
	AuditSetStrength        = "set_strength"
	AuditAddConflict        = "add_conflict"
	AuditRemoveConflict     = "remove_conflict"
	AuditSetPhase           = "set_phase"
	AuditTouchConflict      = "touch_conflict"
	AuditLink               = "link_relationship"
	AuditUnlink             = "unlink_relationship"
	AuditSnapshot           = "create_snapshot"
	AuditRestoreSnapshot    = "restore_snapshot"
	AuditInvolve            = "involve_character"
	AuditRelease            = "release_character"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Network    string         `json:"network"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
