package emotion

import (
	"time"

	"gorm.io/gorm"

	"scanteate/pkg/record"
)

type Emotion struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      *string   `gorm:"size:255" json:"name" validate:"omitempty,max=255"`
	Color     *string   `gorm:"size:255" json:"color" validate:"omitempty,max=255"`
	URI       *string   `gorm:"column:uri;size:255" json:"uri" validate:"omitempty,max=255"`
	UserID    int64     `gorm:"not null" json:"userId" validate:"omitempty,min=1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Emotion) TableName() string { return "emotions" }

var _ record.Model = (*Emotion)(nil)

func (e *Emotion) OwnerID() int64        { return e.UserID }
func (e *Emotion) SetOwner(userID int64) { e.UserID = userID }

func (e *Emotion) ClearKeys() {
	e.ID, e.UserID = 0, 0
	e.CreatedAt, e.UpdatedAt = time.Time{}, time.Time{}
}

func (e *Emotion) Empty() bool {
	return e.Name == nil && e.Color == nil && e.URI == nil
}

func NewRepo(db *gorm.DB) *record.Repo[Emotion] {
	return record.NewRepo[Emotion](db)
}
