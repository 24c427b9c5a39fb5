package domain

import (
	"context"
	"time"

	"reservas/internal/models"
)

type ReservationRepository interface {
	List(ctx context.Context, filter models.ReservationFilter) []models.Reservation
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	Create(ctx context.Context, fields models.Fields) models.Reservation
	Update(ctx context.Context, id int64, fields models.Fields) (*models.Reservation, error)
	Delete(ctx context.Context, id int64) (*models.Reservation, error)
	Count() int
}

// RateLimitRepository counts requests per client key in fixed windows.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

type ReservationService interface {
	ListReservations(ctx context.Context, filter models.ReservationFilter) []models.Reservation
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	CreateReservation(ctx context.Context, fields models.Fields) models.Reservation
	UpdateReservation(ctx context.Context, id int64, fields models.Fields) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, id int64) error
	CountReservations() int
}
