package courses

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoCapacity   = errors.New("not enough spots left")
)

// Date is a calendar day with no timezone attached. The zero Date means
// today in the course's timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

func (d Date) IsZero() bool { return d == Date{} }

// --- course ---
type Course struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name" validate:"required,max=200"`
	Timezone       string    `json:"timezone" validate:"required,timezone"`
	ForeUpCourseID *string   `json:"foreupCourseId,omitempty"`
	ImageAssetID   *string   `json:"imageAssetId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// --- tee time ---
// Price is in minor units per player.
type TeeTime struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"courseId" validate:"required"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	Price       int64     `json:"price" validate:"gte=0"`
	Currency    string    `json:"currency" validate:"required,iso4217"`
	Capacity    int       `json:"capacity" validate:"min=1,max=4"`
	Booked      int       `json:"booked"`
	ProviderRef *string   `json:"providerRef,omitempty"`
}

func (t *TeeTime) Available() int {
	return max(t.Capacity-t.Booked, 0)
}

type Repo interface {
	// courses
	CreateCourse(ctx context.Context, c *Course) error
	UpdateCourse(ctx context.Context, c *Course) error
	DeleteCourse(ctx context.Context, id int64) error
	GetCourse(ctx context.Context, id int64) (*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)
	SetCourseImage(ctx context.Context, id int64, assetID string) error

	// tee times
	CreateTeeTime(ctx context.Context, t *TeeTime) error
	DeleteTeeTime(ctx context.Context, id int64) error
	GetTeeTime(ctx context.Context, id int64) (*TeeTime, error)
	ListTeeTimes(ctx context.Context, courseID int64, from, to time.Time) ([]*TeeTime, error)

	// availability
	Reserve(ctx context.Context, id int64, spots int) (bool, error)
	Release(ctx context.Context, id int64, spots int) error
	AdjustByProviderRef(ctx context.Context, ref string, delta int) (*TeeTime, error)
}

type Service interface {
	CreateCourse(ctx context.Context, c *Course) error
	UpdateCourse(ctx context.Context, c *Course) error
	DeleteCourse(ctx context.Context, id int64) error
	GetCourse(ctx context.Context, id int64) (*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)
	AttachImage(ctx context.Context, courseID int64, assetID string) (*Course, error)

	CreateTeeTime(ctx context.Context, t *TeeTime) error
	DeleteTeeTime(ctx context.Context, id int64) error
	GetTeeTime(ctx context.Context, id int64) (*TeeTime, error)
	ListTeeTimes(ctx context.Context, courseID int64, date Date) ([]*TeeTime, error)

	Reserve(ctx context.Context, teeTimeID int64, players int) error
	Release(ctx context.Context, teeTimeID int64, players int) error
	ApplyProviderEvent(ctx context.Context, providerRef string, delta int) error
}
