package api

import (
	"fmt"
	"net/http"
	"time"

	"reservas/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheetName = "Reservas"
)

var exportHeaders = []any{"ID", "Hotel", "Fecha", "Tipo de habitación", "Huéspedes", "Estado"}

// handleExport streams the filtered reservations as an .xlsx workbook.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := models.FilterFromFields(valuesToFields(r.URL.Query()))
	reservations := s.svc.ListReservations(r.Context(), filter)

	f, err := buildWorkbook(s.cfg.Exports.SheetName, reservations)
	if err != nil {
		s.logger.Error().Err(err).Msg("build export workbook")
		writeMessage(w, http.StatusInternalServerError, msgExportFailed)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error().Err(err).Msg("write export workbook")
		writeMessage(w, http.StatusInternalServerError, msgExportFailed)
		return
	}

	fileName := fmt.Sprintf("reservas_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	s.logger.Info().Int("rows", len(reservations)).Msg("reservations exported")
}

func buildWorkbook(sheetName string, reservations []models.Reservation) (*excelize.File, error) {
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &exportHeaders); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "F1", headerStyle)
	}

	for i, rec := range reservations {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{rec.ID, rec.Hotel, rec.FechaReserva, rec.TipoHabitacion, rec.NumHuespedes, rec.Estado}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", rec.ID, err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "F", 18)

	return f, nil
}
