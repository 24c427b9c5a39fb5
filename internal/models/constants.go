package models

const (
	StatusPending   = "pendiente"
	StatusConfirmed = "confirmada"
)

// Field names accepted in request bodies and query strings.
const (
	FieldHotel          = "hotel"
	FieldFechaReserva   = "fecha_reserva"
	FieldTipoHabitacion = "tipo_habitacion"
	FieldNumHuespedes   = "num_huespedes"
	FieldEstado         = "estado"
	FieldFechaInicio    = "fecha_inicio"
	FieldFechaFin       = "fecha_fin"
)

const (
	// IDStrategySequence hands out monotonically increasing ids
	IDStrategySequence = "sequence"

	// IDStrategyLength hands out len(collection)+1; ids may repeat after a delete
	IDStrategyLength = "length"
)
