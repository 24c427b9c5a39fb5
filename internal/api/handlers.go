package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"reservas/internal/models"
	"reservas/internal/repository"

	"github.com/go-chi/chi/v5"
)

const (
	msgList             = "Lista de reservas"
	msgFound            = "Reserva encontrada"
	msgNotFound         = "Reserva no encontrada"
	msgCreated          = "Reserva creada con éxito"
	msgUpdated          = "Reserva actualizada con éxito"
	msgDeleted          = "Reserva eliminada con éxito"
	msgInvalidBody      = "Cuerpo de solicitud inválido"
	msgRouteNotFound    = "Ruta no encontrada"
	msgMethodNotAllowed = "Método no permitido"
	msgTooManyRequests  = "Demasiadas solicitudes"
	msgExportFailed     = "No se pudo generar la exportación"
	msgInternalError    = "Error interno del servidor"

	maxBodyBytes = 1 << 20
)

type messageResponse struct {
	Message string `json:"message"`
}

type dataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type createdResponse struct {
	Message string             `json:"message"`
	Reserva models.Reservation `json:"reserva"`
}

var errInvalidBody = errors.New("invalid request body")

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	filter := models.FilterFromFields(valuesToFields(r.URL.Query()))
	reservations := s.svc.ListReservations(r.Context(), filter)
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Message: msgList, Data: reservations})
}

func (s *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	rec, err := s.svc.GetReservation(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Message: msgFound, Data: rec})
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	rec := s.svc.CreateReservation(r.Context(), fields)
	writeJSON(w, http.StatusCreated, createdResponse{Message: msgCreated, Reserva: rec})
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	rec, err := s.svc.UpdateReservation(r.Context(), id, fields)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Message: msgUpdated, Data: rec})
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := reservationID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := s.svc.DeleteReservation(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msgDeleted)
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	s.logger.Error().Err(err).Msg("reservation service error")
	writeMessage(w, http.StatusInternalServerError, msgInternalError)
}

// reservationID reads the leading integer of the {id} URL parameter, so
// "2abc" and "2.5" both address reservation 2. No leading digits means no
// reservation can match.
func reservationID(r *http.Request) (int64, bool) {
	return leadingInt(chi.URLParam(r, "id"))
}

func leadingInt(raw string) (int64, bool) {
	raw = strings.TrimLeft(raw, " \t\n\r")
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	id, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeFields reads a JSON object or urlencoded form body. An empty body
// yields no fields.
func decodeFields(r *http.Request) (models.Fields, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, errInvalidBody
		}
		return valuesToFields(r.PostForm), nil
	}

	fields := models.Fields{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Fields{}, nil
		}
		return nil, errInvalidBody
	}
	if fields == nil {
		return models.Fields{}, nil
	}
	return fields, nil
}

func valuesToFields(values url.Values) models.Fields {
	fields := make(models.Fields, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return fields
}
