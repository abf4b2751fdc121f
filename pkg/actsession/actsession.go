package actsession

import (
	"time"

	"gorm.io/gorm"

	"scanteate/pkg/record"
)

// ActSession is a span of device use by a user.
type ActSession struct {
	ID       int64      `gorm:"primaryKey" json:"id"`
	Device   *string    `gorm:"size:255" json:"device" validate:"omitempty,max=255"`
	Start    *time.Time `json:"start"`
	End      *time.Time `json:"end"`
	Duration *int       `json:"duration" validate:"omitempty,min=0"`
	UserID   int64      `gorm:"not null" json:"userId" validate:"omitempty,min=1"`
}

func (ActSession) TableName() string { return "act_sessions" }

var _ record.Model = (*ActSession)(nil)

func (s *ActSession) OwnerID() int64        { return s.UserID }
func (s *ActSession) SetOwner(userID int64) { s.UserID = userID }
func (s *ActSession) ClearKeys()            { s.ID, s.UserID = 0, 0 }

func (s *ActSession) Empty() bool {
	return s.Device == nil && s.Start == nil && s.End == nil && s.Duration == nil
}

func NewRepo(db *gorm.DB) *record.Repo[ActSession] {
	return record.NewRepo[ActSession](db)
}
