package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"reservas/internal/config"
	"reservas/internal/domain"
	"reservas/internal/events"
	"reservas/internal/models"
	"reservas/internal/repository"
	"reservas/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Reserva json.RawMessage `json:"reserva"`
}

func seedReservations() []models.Reservation {
	return []models.Reservation{
		{ID: 1, Hotel: "Hotel ChinaTown", FechaReserva: "2024-09-15", TipoHabitacion: "doble", NumHuespedes: 2, Estado: models.StatusConfirmed},
		{ID: 2, Hotel: "Hotel UDD", FechaReserva: "2024-12-25", TipoHabitacion: "suite", NumHuespedes: 4, Estado: models.StatusPending},
		{ID: 3, Hotel: "Hotel Boric", FechaReserva: "2023-06-07", TipoHabitacion: "suite", NumHuespedes: 4, Estado: models.StatusPending},
		{ID: 4, Hotel: "Hotel Full Stack", FechaReserva: "2024-05-12", TipoHabitacion: "single", NumHuespedes: 6, Estado: models.StatusConfirmed},
	}
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.API.HTTP.Port = 5001
	cfg.Exports.SheetName = "Reservas"
	return cfg
}

func newTestServer(t *testing.T, strategy string, limiter RateLimiter) *httptest.Server {
	t.Helper()
	repo := repository.NewMemoryReservationRepository(strategy)
	repo.Seed(seedReservations())

	logger := zerolog.New(io.Discard)
	svc := service.NewReservationService(repo, events.NewEventBus(), &logger)
	srv := NewHTTPServer(newTestConfig(), svc, limiter, &logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, rawURL, contentType, body string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, rawURL, reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func decodeList(t *testing.T, raw json.RawMessage) []models.Reservation {
	t.Helper()
	var out []models.Reservation
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func decodeOne(t *testing.T, raw json.RawMessage) models.Reservation {
	t.Helper()
	var out models.Reservation
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func listIDs(rs []models.Reservation) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestListReservations(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	tests := []struct {
		name  string
		query url.Values
		want  []int64
	}{
		{name: "all", query: url.Values{}, want: []int64{1, 2, 3, 4}},
		{name: "hotel upper case", query: url.Values{"hotel": {"HOTEL CHINATOWN"}}, want: []int64{1}},
		{name: "date range", query: url.Values{"fecha_inicio": {"2024-01-01"}, "fecha_fin": {"2024-12-31"}}, want: []int64{1, 2, 4}},
		{name: "half date range ignored", query: url.Values{"fecha_inicio": {"2025-01-01"}}, want: []int64{1, 2, 3, 4}},
		{name: "room type", query: url.Values{"tipo_habitacion": {"SUITE"}}, want: []int64{2, 3}},
		{name: "status", query: url.Values{"estado": {"pendiente"}}, want: []int64{2, 3}},
		{name: "guests", query: url.Values{"num_huespedes": {"4"}}, want: []int64{2, 3}},
		{name: "no match", query: url.Values{"hotel": {"Hotel Inexistente"}}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doRequest(t, http.MethodGet, ts.URL+"/api/reservas?"+tt.query.Encode(), "", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, msgList, env.Message)
			assert.Equal(t, tt.want, listIDs(decodeList(t, env.Data)))
		})
	}
}

func TestListReservationsEmptyIsArray(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	_, env := doRequest(t, http.MethodGet, ts.URL+"/api/reservas?estado=cancelada", "", "")
	assert.Equal(t, "[]", string(env.Data))
}

func TestGetReservation(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, env := doRequest(t, http.MethodGet, ts.URL+"/api/reservas/2", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgFound, env.Message)
	assert.Equal(t, seedReservations()[1], decodeOne(t, env.Data))

	for _, path := range []string{"/api/reservas/99", "/api/reservas/abc"} {
		resp, env = doRequest(t, http.MethodGet, ts.URL+path, "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, msgNotFound, env.Message)
		assert.Nil(t, env.Data)
	}

	t.Run("LeadingDigits", func(t *testing.T) {
		for _, path := range []string{"/api/reservas/2abc", "/api/reservas/2.5"} {
			resp, env := doRequest(t, http.MethodGet, ts.URL+path, "", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
			assert.Equal(t, int64(2), decodeOne(t, env.Data).ID, path)
		}
	})
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{raw: "2", want: 2, ok: true},
		{raw: "2abc", want: 2, ok: true},
		{raw: "2.5", want: 2, ok: true},
		{raw: "  7", want: 7, ok: true},
		{raw: "+4", want: 4, ok: true},
		{raw: "-3", want: -3, ok: true},
		{raw: "abc", ok: false},
		{raw: "", ok: false},
		{raw: "-", ok: false},
		{raw: "99999999999999999999", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := leadingInt(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateReservation(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	t.Run("JSONBody", func(t *testing.T) {
		body := `{"hotel":"Hotel Nuevo","fecha_reserva":"2025-02-14","tipo_habitacion":"doble","num_huespedes":2,"estado":"confirmada"}`
		resp, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/json", body)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, msgCreated, env.Message)
		assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

		created := decodeOne(t, env.Reserva)
		assert.Equal(t, models.Reservation{
			ID: 5, Hotel: "Hotel Nuevo", FechaReserva: "2025-02-14",
			TipoHabitacion: "doble", NumHuespedes: 2, Estado: models.StatusPending,
		}, created)

		_, env = doRequest(t, http.MethodGet, ts.URL+"/api/reservas/5", "", "")
		assert.Equal(t, created, decodeOne(t, env.Data))
	})

	t.Run("FormBody", func(t *testing.T) {
		form := url.Values{"hotel": {"Hotel Form"}, "num_huespedes": {"3"}}
		resp, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		created := decodeOne(t, env.Reserva)
		assert.Equal(t, "Hotel Form", created.Hotel)
		assert.Equal(t, 3, created.NumHuespedes)
		assert.Equal(t, models.StatusPending, created.Estado)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		resp, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/json", "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeOne(t, env.Reserva)
		assert.Equal(t, "", created.Hotel)
		assert.Equal(t, models.StatusPending, created.Estado)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		resp, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/json", `{"hotel":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, msgInvalidBody, env.Message)
	})
}

func TestUpdateReservation(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, env := doRequest(t, http.MethodPut, ts.URL+"/api/reservas/2", "application/json", `{"estado":"confirmada","hotel":""}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgUpdated, env.Message)

	updated := decodeOne(t, env.Data)
	assert.Equal(t, models.StatusConfirmed, updated.Estado)
	assert.Equal(t, "Hotel UDD", updated.Hotel)

	t.Run("EmptyBodyLeavesRecordUnchanged", func(t *testing.T) {
		_, before := doRequest(t, http.MethodGet, ts.URL+"/api/reservas/3", "", "")
		_, env := doRequest(t, http.MethodPut, ts.URL+"/api/reservas/3", "application/json", `{}`)
		assert.Equal(t, string(before.Data), string(env.Data))
	})

	t.Run("UncoercibleValuesAreSkipped", func(t *testing.T) {
		_, before := doRequest(t, http.MethodGet, ts.URL+"/api/reservas/4", "", "")
		body := `{"estado":true,"hotel":{"a":1},"tipo_habitacion":["x"],"num_huespedes":"abc"}`
		resp, env := doRequest(t, http.MethodPut, ts.URL+"/api/reservas/4", "application/json", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, decodeOne(t, before.Data), decodeOne(t, env.Data))
	})

	t.Run("NotFound", func(t *testing.T) {
		resp, env := doRequest(t, http.MethodPut, ts.URL+"/api/reservas/99", "application/json", `{"estado":"confirmada"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, msgNotFound, env.Message)
	})
}

func TestDeleteReservation(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, env := doRequest(t, http.MethodDelete, ts.URL+"/api/reservas/1", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgDeleted, env.Message)

	resp, _ = doRequest(t, http.MethodGet, ts.URL+"/api/reservas/1", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = doRequest(t, http.MethodDelete, ts.URL+"/api/reservas/1", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgNotFound, env.Message)
}

func TestIDReuseWithLengthStrategy(t *testing.T) {
	ts := newTestServer(t, models.IDStrategyLength, nil)

	resp, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/reservas/2", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/json", `{"hotel":"Hotel Nuevo"}`)
	assert.Equal(t, int64(4), decodeOne(t, env.Reserva).ID)

	_, env = doRequest(t, http.MethodGet, ts.URL+"/api/reservas", "", "")
	assert.Equal(t, []int64{1, 3, 4, 4}, listIDs(decodeList(t, env.Data)))
}

func TestIDSequenceStrategy(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/reservas/2", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := doRequest(t, http.MethodPost, ts.URL+"/api/reservas", "application/json", `{"hotel":"Hotel Nuevo"}`)
	assert.Equal(t, int64(5), decodeOne(t, env.Reserva).ID)
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status       string `json:"status"`
		Reservations int    `json:"reservations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, 4, body.Reservations)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	resp, env := doRequest(t, http.MethodGet, ts.URL+"/api/otra-cosa", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgRouteNotFound, env.Message)

	resp, env = doRequest(t, http.MethodPatch, ts.URL+"/api/reservas/1", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, msgMethodNotAllowed, env.Message)
}

func TestRequestIDIsPropagated(t *testing.T) {
	ts := newTestServer(t, models.IDStrategySequence, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestRateLimitedRequests(t *testing.T) {
	limiter := NewRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 2, Backend: config.RateLimitBackendMemory}, nil, nil)
	ts := newTestServer(t, models.IDStrategySequence, limiter)

	for i := 0; i < 2; i++ {
		resp, _ := doRequest(t, http.MethodGet, ts.URL+"/api/reservas", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, env := doRequest(t, http.MethodGet, ts.URL+"/api/reservas", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, msgTooManyRequests, env.Message)
}

type failingService struct {
	domain.ReservationService
	err error
}

func (s failingService) GetReservation(context.Context, int64) (*models.Reservation, error) {
	return nil, s.err
}

func TestServiceErrorIsNotExposed(t *testing.T) {
	logger := zerolog.New(io.Discard)
	svc := failingService{err: errors.New("store exploded at 0xdeadbeef")}
	srv := NewHTTPServer(newTestConfig(), svc, nil, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, env := doRequest(t, http.MethodGet, ts.URL+"/api/reservas/1", "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, msgInternalError, env.Message)
	assert.NotContains(t, env.Message, "exploded")
}
