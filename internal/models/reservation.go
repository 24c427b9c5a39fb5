package models

type Reservation struct {
	ID             int64  `json:"id" yaml:"id"`
	Hotel          string `json:"hotel" yaml:"hotel"`
	FechaReserva   string `json:"fecha_reserva" yaml:"fecha_reserva"`
	TipoHabitacion string `json:"tipo_habitacion" yaml:"tipo_habitacion"`
	NumHuespedes   int    `json:"num_huespedes" yaml:"num_huespedes"`
	Estado         string `json:"estado" yaml:"estado"` // pendiente, confirmada
}
