package service

import (
	"context"
	"errors"

	"reservas/internal/domain"
	"reservas/internal/events"
	"reservas/internal/metrics"
	"reservas/internal/models"
	"reservas/internal/repository"

	"github.com/rs/zerolog"
)

const (
	resultOK       = "ok"
	resultNotFound = "not_found"
)

type requestIDKey struct{}

// WithRequestID attaches the HTTP request id so published events carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type ReservationService struct {
	repo     domain.ReservationRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReservationService(repo domain.ReservationRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReservationService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &ReservationService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
	metrics.SetReservations(repo.Count())
	return s
}

func (s *ReservationService) ListReservations(ctx context.Context, filter models.ReservationFilter) []models.Reservation {
	out := s.repo.List(ctx, filter)
	metrics.IncReservationOp("list", resultOK)
	s.logger.Debug().
		Str("hotel", filter.Hotel).
		Str("fecha_inicio", filter.FechaInicio).
		Str("fecha_fin", filter.FechaFin).
		Str("tipo_habitacion", filter.TipoHabitacion).
		Str("estado", filter.Estado).
		Str("num_huespedes", filter.NumHuespedes).
		Int("matched", len(out)).
		Msg("list reservations")
	return out
}

func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	rec, err := s.repo.Get(ctx, id)
	metrics.IncReservationOp("get", result(err))
	return rec, err
}

func (s *ReservationService) CreateReservation(ctx context.Context, fields models.Fields) models.Reservation {
	rec := s.repo.Create(ctx, fields)
	metrics.IncReservationOp("create", resultOK)
	metrics.SetReservations(s.repo.Count())

	s.logger.Info().Int64("reservation_id", rec.ID).Str("hotel", rec.Hotel).Msg("reservation created")
	s.publishEvent(ctx, events.EventReservationCreated, rec)
	return rec
}

func (s *ReservationService) UpdateReservation(ctx context.Context, id int64, fields models.Fields) (*models.Reservation, error) {
	rec, err := s.repo.Update(ctx, id, fields)
	metrics.IncReservationOp("update", result(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", rec.ID).Str("estado", rec.Estado).Msg("reservation updated")
	s.publishEvent(ctx, events.EventReservationUpdated, *rec)
	return rec, nil
}

func (s *ReservationService) DeleteReservation(ctx context.Context, id int64) error {
	rec, err := s.repo.Delete(ctx, id)
	metrics.IncReservationOp("delete", result(err))
	if err != nil {
		return err
	}
	metrics.SetReservations(s.repo.Count())

	s.logger.Info().Int64("reservation_id", id).Msg("reservation deleted")
	s.publishEvent(ctx, events.EventReservationDeleted, *rec)
	return nil
}

func (s *ReservationService) CountReservations() int {
	return s.repo.Count()
}

func (s *ReservationService) publishEvent(ctx context.Context, eventType string, rec models.Reservation) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID:  rec.ID,
		Hotel:          rec.Hotel,
		FechaReserva:   rec.FechaReserva,
		TipoHabitacion: rec.TipoHabitacion,
		NumHuespedes:   rec.NumHuespedes,
		Estado:         rec.Estado,
		RequestID:      requestIDFrom(ctx),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", rec.ID).Msg("publish event error")
	}
}

func result(err error) string {
	if errors.Is(err, repository.ErrNotFound) {
		return resultNotFound
	}
	return resultOK
}
