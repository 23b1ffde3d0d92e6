package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	cw "controlling_window"
	"controlling_window/internal/models"
	"controlling_window/internal/service"

	"github.com/gin-gonic/gin"
)

var sampleCSVHeader = []string{"time", "phase", "humidity_pct", "temperature_c", "valid"}

func (h *Handler) listSamples(c *gin.Context) ([]models.SensorSample, service.SampleFilter, bool) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return nil, service.SampleFilter{}, false
	}
	f := service.SampleFilter{From: from, To: to}
	samples, err := h.services.SampleLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load samples", "samples_list_failed", err, "from", from, "to", to)
		return nil, f, false
	}
	return samples, f, true
}

// @Summary      List sensor samples
// @Description  One sample per monitor cycle. Same 'from'/'to' formats as /logs.
// @Tags         samples
// @Produce      json
// @Param        from  query     string  false  "Start of range"
// @Param        to    query     string  false  "End of range"
// @Success      200   {object}  controlling_window.SamplesResponse
// @Failure      400   {object}  controlling_window.ErrorResponse
// @Failure      401   {object}  controlling_window.ErrorResponse
// @Failure      500   {object}  controlling_window.ErrorResponse
// @Router       /api/v1/samples [get]
// @Security     BearerAuth
func (h *Handler) getSamples(c *gin.Context) {
	samples, f, ok := h.listSamples(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cw.SamplesResponse{
		Count:   len(samples),
		From:    f.From,
		To:      f.To,
		Samples: samples,
	})
}

// @Summary      Export sensor samples as CSV
// @Tags         samples
// @Produce      text/csv
// @Param        from  query     string  false  "Start of range"
// @Param        to    query     string  false  "End of range"
// @Success      200   {string}  string  "time,phase,humidity_pct,temperature_c,valid"
// @Failure      400   {object}  controlling_window.ErrorResponse
// @Router       /api/v1/samples.csv [get]
// @Security     BearerAuth
func (h *Handler) exportSamplesCSV(c *gin.Context) {
	samples, _, ok := h.listSamples(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="samples.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(sampleCSVHeader)
	for _, s := range samples {
		_ = w.Write(sampleRecord(s))
	}
	w.Flush()
	if err := w.Error(); err != nil && h.log != nil {
		h.log.Warnw("samples_csv_write_failed", "err", err)
	}
}

func sampleRecord(s models.SensorSample) []string {
	return []string{
		s.Time.UTC().Format(time.RFC3339),
		s.Phase,
		strconv.FormatFloat(s.Humidity, 'f', 1, 64),
		strconv.FormatFloat(s.Temperature, 'f', 1, 64),
		strconv.FormatBool(s.Valid),
	}
}
