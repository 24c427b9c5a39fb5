package models

import (
	"strconv"
	"strings"
)

// ReservationFilter narrows a reservation list. Empty fields are inactive.
type ReservationFilter struct {
	Hotel          string
	FechaInicio    string
	FechaFin       string
	TipoHabitacion string
	Estado         string
	NumHuespedes   string
}

// FilterFromFields reads filter values from untyped request input.
func FilterFromFields(f Fields) ReservationFilter {
	return ReservationFilter{
		Hotel:          f.String(FieldHotel),
		FechaInicio:    f.String(FieldFechaInicio),
		FechaFin:       f.String(FieldFechaFin),
		TipoHabitacion: f.String(FieldTipoHabitacion),
		Estado:         f.String(FieldEstado),
		NumHuespedes:   f.String(FieldNumHuespedes),
	}
}

func (f ReservationFilter) IsEmpty() bool {
	return f.Hotel == "" && !f.hasDateRange() && f.TipoHabitacion == "" &&
		f.Estado == "" && f.NumHuespedes == ""
}

// hasDateRange is true only when both bounds are present.
func (f ReservationFilter) hasDateRange() bool {
	return f.FechaInicio != "" && f.FechaFin != ""
}

// Apply runs each active filter as a narrowing pass over the candidates
// and returns a new slice. Stored order is preserved.
func (f ReservationFilter) Apply(reservations []Reservation) []Reservation {
	out := make([]Reservation, len(reservations))
	copy(out, reservations)

	if f.Hotel != "" {
		out = narrow(out, func(r Reservation) bool {
			return strings.EqualFold(r.Hotel, f.Hotel)
		})
	}

	if f.hasDateRange() {
		out = narrow(out, func(r Reservation) bool {
			return r.FechaReserva >= f.FechaInicio && r.FechaReserva <= f.FechaFin
		})
	}

	if f.TipoHabitacion != "" {
		out = narrow(out, func(r Reservation) bool {
			return strings.EqualFold(r.TipoHabitacion, f.TipoHabitacion)
		})
	}

	if f.Estado != "" {
		out = narrow(out, func(r Reservation) bool {
			return strings.EqualFold(r.Estado, f.Estado)
		})
	}

	if f.NumHuespedes != "" {
		want, err := strconv.ParseFloat(strings.TrimSpace(f.NumHuespedes), 64)
		out = narrow(out, func(r Reservation) bool {
			return err == nil && float64(r.NumHuespedes) == want
		})
	}

	return out
}

func narrow(in []Reservation, keep func(Reservation) bool) []Reservation {
	out := in[:0]
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
