package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/celtab/benchmark-metrics/config"
	"github.com/celtab/benchmark-metrics/logutil"
	"github.com/celtab/benchmark-metrics/metrics"
	"github.com/celtab/benchmark-metrics/summary"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RowResponse is one summary row; speedup and efficiency are null until computed
type RowResponse struct {
	AmountProcessor int      `json:"amount_processor"`
	TimeMax         float64  `json:"time_max"`
	Speedup         *float64 `json:"speedup"`
	Efficiency      *float64 `json:"efficiency"`
}

// SummaryResponse is the body of GET /summary
type SummaryResponse struct {
	Mesh string        `json:"mesh"`
	Rows []RowResponse `json:"rows"`
}

// NewRouter serves the report files produced for cfg
func NewRouter(cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handler{cfg: cfg}
	r.GET("/healthz", h.healthz)
	r.GET("/summary", h.getSummary)
	r.GET("/summary.csv", h.getSummaryCSV)
	r.GET("/charts/:name", h.getChart)
	return r
}

type handler struct {
	cfg config.Config
}

// GET /healthz
func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /summary
func (h *handler) getSummary(c *gin.Context) {
	rows, err := summary.Read(h.cfg.SummaryPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not generated yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read summary: " + err.Error()})
		return
	}

	resp := SummaryResponse{Mesh: h.cfg.Mesh, Rows: make([]RowResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, toResponse(row))
	}
	c.JSON(http.StatusOK, resp)
}

// GET /summary.csv
func (h *handler) getSummaryCSV(c *gin.Context) {
	h.serveFile(c, h.cfg.SummaryPath, "text/csv")
}

// GET /charts/:name
func (h *handler) getChart(c *gin.Context) {
	charts := map[string]string{
		"benchmark":  h.cfg.ExecutionTimeChart(),
		"speedup":    h.cfg.SpeedupChart(),
		"efficiency": h.cfg.EfficiencyChart(),
	}
	path, ok := charts[c.Param("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + c.Param("name")})
		return
	}
	h.serveFile(c, path, "image/png")
}

func (h *handler) serveFile(c *gin.Context, path, contentType string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not generated yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func toResponse(row metrics.Row) RowResponse {
	resp := RowResponse{AmountProcessor: row.AmountProcessor, TimeMax: row.TimeMax}
	if row.HasSpeedup() {
		v := row.Speedup
		resp.Speedup = &v
	}
	if row.HasEfficiency() {
		v := row.Efficiency
		resp.Efficiency = &v
	}
	return resp
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logutil.GetLogger().Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
