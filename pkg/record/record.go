// Package record stores the user-owned domain records (activities, activity
// sessions and emotions) through gorm.
package record

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Model is implemented by the pointer type of every record.
type Model interface {
	OwnerID() int64
	SetOwner(userID int64)
	// ClearKeys zeroes the id and owner so a decoded body can be used as a
	// partial update without moving the row.
	ClearKeys()
	// Empty reports whether no updatable field is set.
	Empty() bool
}

type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	ListByUser(ctx context.Context, userID int64) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id int64, patch *T) error
	Delete(ctx context.Context, id int64) error
}

type Repo[T any] struct {
	DB *gorm.DB
}

func NewRepo[T any](db *gorm.DB) *Repo[T] {
	return &Repo[T]{DB: db}
}

func (r *Repo[T]) List(ctx context.Context) ([]T, error) {
	recs := []T{}
	if err := r.DB.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

func (r *Repo[T]) ListByUser(ctx context.Context, userID int64) ([]T, error) {
	recs := []T{}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list records of user %d: %w", userID, err)
	}
	return recs, nil
}

func (r *Repo[T]) Get(ctx context.Context, id int64) (*T, error) {
	var rec T
	err := r.DB.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &rec, nil
}

func (r *Repo[T]) Create(ctx context.Context, rec *T) error {
	if err := r.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// Update writes the non-zero fields of patch to row id.
func (r *Repo[T]) Update(ctx context.Context, id int64, patch *T) error {
	res := r.DB.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return fmt.Errorf("update record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo[T]) Delete(ctx context.Context, id int64) error {
	res := r.DB.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
