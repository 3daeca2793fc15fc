package board

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Collaborator roles. VIEWER may read, EDITOR and ADMIN may mutate elements,
// ADMIN may also manage collaborators.
const (
	RoleViewer = "VIEWER"
	RoleEditor = "EDITOR"
	RoleAdmin  = "ADMIN"
)

// Element kinds form a closed set; anything else is rejected by the
// mutation pipeline.
const (
	TypeRectangle  = "RECTANGLE"
	TypeCircle     = "CIRCLE"
	TypeLine       = "LINE"
	TypeText       = "TEXT"
	TypeStickyNote = "STICKY_NOTE"
	TypeImage      = "IMAGE"
	TypeArrow      = "ARROW"
)

var elementTypes = map[string]struct{}{
	TypeRectangle:  {},
	TypeCircle:     {},
	TypeLine:       {},
	TypeText:       {},
	TypeStickyNote: {},
	TypeImage:      {},
	TypeArrow:      {},
}

// ValidElementType reports whether t is a known element kind.
func ValidElementType(t string) bool {
	_, ok := elementTypes[t]
	return ok
}

// Properties is the open property bag of an element, stored as jsonb.
type Properties map[string]any

func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Properties) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*p = Properties{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported properties column type %T", value)
	}
}

// Merge returns a shallow union of p and partial: keys from partial are
// added or overwritten, untouched keys of p are preserved. Neither input
// is modified.
func (p Properties) Merge(partial Properties) Properties {
	merged := make(Properties, len(p)+len(partial))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

// Board is a shared canvas document
type Board struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string `json:"title"`
	OwnerID       string `gorm:"type:uuid;index" json:"ownerId"`
	IsPublic      bool   `json:"isPublic"`
	Collaborators []BoardCollaborator `json:"collaborators,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// BoardCollaborator grants a user a role on a board
type BoardCollaborator struct {
	ID      uint      `gorm:"primaryKey" json:"-"`
	BoardID string    `gorm:"type:uuid;uniqueIndex:idx_board_user" json:"boardId"`
	UserID  string    `gorm:"type:uuid;uniqueIndex:idx_board_user" json:"userId"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// Element is one shape/object placed on a board
type Element struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID    string     `gorm:"type:uuid;index" json:"boardId"`
	Type       string     `json:"type"`
	Properties Properties `gorm:"type:jsonb" json:"properties"`
	ZIndex     int        `json:"zIndex"`
	CreatedBy  string     `gorm:"type:uuid" json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
