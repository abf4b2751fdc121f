package activity

import (
	"time"

	"gorm.io/gorm"

	"scanteate/pkg/record"
)

// Activity is a timed physical activity of a user.
type Activity struct {
	ID       int64      `gorm:"primaryKey" json:"id"`
	Type     *string    `gorm:"size:255" json:"type" validate:"omitempty,max=255"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Duration *int       `json:"duration" validate:"omitempty,min=0"`
	UserID   int64      `gorm:"not null" json:"userId" validate:"omitempty,min=1"`
}

func (Activity) TableName() string { return "activities" }

var _ record.Model = (*Activity)(nil)

func (a *Activity) OwnerID() int64        { return a.UserID }
func (a *Activity) SetOwner(userID int64) { a.UserID = userID }
func (a *Activity) ClearKeys()            { a.ID, a.UserID = 0, 0 }

func (a *Activity) Empty() bool {
	return a.Type == nil && a.Start == nil && a.End == nil && a.Duration == nil
}

func NewRepo(db *gorm.DB) *record.Repo[Activity] {
	return record.NewRepo[Activity](db)
}
