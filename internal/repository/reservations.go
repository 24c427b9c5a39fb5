package repository

import (
	"context"
	"errors"
	"sync"

	"reservas/internal/models"
)

var ErrNotFound = errors.New("reservation not found")

// MemoryReservationRepository owns the reservation collection. Records
// keep insertion order; every access goes through the mutex.
type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations []models.Reservation
	idStrategy   string
	lastID       int64
}

func NewMemoryReservationRepository(idStrategy string) *MemoryReservationRepository {
	if idStrategy != models.IDStrategyLength {
		idStrategy = models.IDStrategySequence
	}
	return &MemoryReservationRepository{idStrategy: idStrategy}
}

// Seed replaces the collection with records, keeping their ids.
func (r *MemoryReservationRepository) Seed(records []models.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reservations = make([]models.Reservation, len(records))
	copy(r.reservations, records)

	r.lastID = 0
	for _, rec := range r.reservations {
		if rec.ID > r.lastID {
			r.lastID = rec.ID
		}
	}
}

func (r *MemoryReservationRepository) List(ctx context.Context, filter models.ReservationFilter) []models.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filter.Apply(r.reservations)
}

func (r *MemoryReservationRepository) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	rec := r.reservations[idx]
	return &rec, nil
}

// Create appends a new pending reservation. Missing fields keep their zero value.
func (r *MemoryReservationRepository) Create(ctx context.Context, fields models.Fields) models.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.Reservation{
		ID:             r.nextID(),
		Hotel:          fields.String(models.FieldHotel),
		FechaReserva:   fields.String(models.FieldFechaReserva),
		TipoHabitacion: fields.String(models.FieldTipoHabitacion),
		NumHuespedes:   fields.Int(models.FieldNumHuespedes),
		Estado:         models.StatusPending,
	}
	r.reservations = append(r.reservations, rec)
	return rec
}

// Update overwrites only the fields whose coerced value is non-empty or
// non-zero. Anything else leaves the stored value untouched.
func (r *MemoryReservationRepository) Update(ctx context.Context, id int64, fields models.Fields) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	rec := &r.reservations[idx]
	if fields.HasString(models.FieldHotel) {
		rec.Hotel = fields.String(models.FieldHotel)
	}
	if fields.HasString(models.FieldFechaReserva) {
		rec.FechaReserva = fields.String(models.FieldFechaReserva)
	}
	if fields.HasString(models.FieldTipoHabitacion) {
		rec.TipoHabitacion = fields.String(models.FieldTipoHabitacion)
	}
	if fields.HasInt(models.FieldNumHuespedes) {
		rec.NumHuespedes = fields.Int(models.FieldNumHuespedes)
	}
	if fields.HasString(models.FieldEstado) {
		rec.Estado = fields.String(models.FieldEstado)
	}

	out := *rec
	return &out, nil
}

// Delete removes the first record with id and returns it.
func (r *MemoryReservationRepository) Delete(ctx context.Context, id int64) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	removed := r.reservations[idx]
	r.reservations = append(r.reservations[:idx], r.reservations[idx+1:]...)
	return &removed, nil
}

func (r *MemoryReservationRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reservations)
}

// indexOf returns the first record with id, or -1. Caller holds the lock.
func (r *MemoryReservationRepository) indexOf(id int64) int {
	for i := range r.reservations {
		if r.reservations[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID must be called with the write lock held.
func (r *MemoryReservationRepository) nextID() int64 {
	if r.idStrategy == models.IDStrategyLength {
		return int64(len(r.reservations)) + 1
	}
	r.lastID++
	return r.lastID
}
