package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Priority orders todos; higher values are more urgent.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

// Priorities lists every valid priority from least to most urgent.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// ParsePriority converts a form value into a Priority. Matching is case-insensitive.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range priorityNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	if n, ok := priorityNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

type Todo struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"id"`
	Text      string     `gorm:"type:varchar(500);not null" bson:"text" json:"text"`
	DueDate   *time.Time `gorm:"index:idx_todos_owner_due,priority:2" bson:"dueDate,omitempty" json:"due_date"`
	Priority  Priority   `gorm:"not null;default:2" bson:"priority" json:"priority"`
	Completed bool       `gorm:"not null;default:false" bson:"completed" json:"completed"`
	OwnerID   string     `gorm:"type:varchar(36);not null;index:idx_todos_owner_due,priority:1" bson:"ownerId" json:"owner_id"`
	CreatedAt time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updated_at"`

	// Relations
	Owner User `gorm:"foreignKey:OwnerID" bson:"-" json:"-"`
}

// BeforeCreate assigns an ID when the caller did not set one.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}
