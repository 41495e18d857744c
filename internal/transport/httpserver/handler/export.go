package handler

import (
	"fmt"
	"net/http"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"carbon-tracker-go/internal/metrics"
	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/dustin/go-humanize"
)

const (
	exportSheet       = "Consumption"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportHeaderStyle = `{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"fill": {"type": "pattern", "pattern": 1, "color": ["#96b753"]},
		"font": {"bold": true},
		"alignment": {"horizontal": "center"}
	}`
	exportDataStyle = `{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		]
	}`
)

var exportColumns = []string{"Date", "Activity", "Amount", "Unit", "CO2 (kg)", "CO2"}

func (h *Handlers) ExportUserConsumption(w http.ResponseWriter, r *http.Request) {
	params, ok := h.userQueryParams(w, r, "consumption.export")
	if !ok {
		return
	}

	result, err := h.Consumption.ExportUserConsumption(r.Context(), params)
	if err != nil {
		h.writeConsumptionError(w, "consumption.export", err, "user_id", params.UserID)
		return
	}

	f, err := buildConsumptionWorkbook(result.Data)
	if err != nil {
		h.log.InternalError("consumption.export: build workbook failed", err, "user_id", params.UserID)
		internalError(w)
		return
	}
	metrics.RecordExportRows(len(result.Data))

	fileName := fmt.Sprintf("consumption_%d_%s.xlsx", params.UserID, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment;filename=\""+fileName+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := f.WriteTo(w); err != nil {
		h.log.InternalError("consumption.export: write workbook failed", err, "user_id", params.UserID)
	}
}

// buildConsumptionWorkbook writes one row per record plus a closing total
// row. The last column is a human readable rendering of the CO2 figure.
func buildConsumptionWorkbook(items []consumptiondomain.Consumption) (*excelize.File, error) {
	f := excelize.NewFile()
	f.NewSheet(exportSheet)
	f.DeleteSheet("Sheet1")

	if err := f.SetColWidth(exportSheet, "A", "F", 20); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(exportHeaderStyle)
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(exportDataStyle)
	if err != nil {
		return nil, err
	}

	streamWriter, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, err
	}

	header := make([]interface{}, 0, len(exportColumns))
	for _, column := range exportColumns {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: column})
	}
	if err := streamWriter.SetRow("A1", header); err != nil {
		return nil, err
	}

	var total float64
	for n, item := range items {
		activity, unit := "", ""
		if item.Activity != nil {
			activity = item.Activity.Name
		}
		if item.Unit != nil {
			unit = item.Unit.Name
		}
		total += item.CO2Equivalent

		row := []interface{}{
			excelize.Cell{StyleID: dataStyle, Value: item.Date.Format(time.DateOnly)},
			excelize.Cell{StyleID: dataStyle, Value: activity},
			excelize.Cell{StyleID: dataStyle, Value: item.Amount},
			excelize.Cell{StyleID: dataStyle, Value: unit},
			excelize.Cell{StyleID: dataStyle, Value: item.CO2Equivalent},
			excelize.Cell{StyleID: dataStyle, Value: formatCO2(item.CO2Equivalent)},
		}
		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err := streamWriter.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	cell, _ := excelize.CoordinatesToCellName(1, len(items)+2)
	if err := streamWriter.SetRow(cell, []interface{}{
		excelize.Cell{StyleID: headerStyle, Value: "Total"},
		excelize.Cell{StyleID: headerStyle, Value: humanize.Comma(int64(len(items))) + " records"},
		excelize.Cell{StyleID: headerStyle, Value: ""},
		excelize.Cell{StyleID: headerStyle, Value: ""},
		excelize.Cell{StyleID: headerStyle, Value: total},
		excelize.Cell{StyleID: headerStyle, Value: formatCO2(total)},
	}); err != nil {
		return nil, err
	}

	if err := streamWriter.Flush(); err != nil {
		return nil, err
	}
	return f, nil
}

// formatCO2 renders kilograms with thousands separators, switching to tonnes
// from 1000 kg.
func formatCO2(kg float64) string {
	if kg >= 1000 {
		return humanize.FormatFloat("#,###.##", kg/1000) + " t CO2e"
	}
	return humanize.FormatFloat("#,###.##", kg) + " kg CO2e"
}
