package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/searchingforj/insiders/app/cfg"
	"github.com/searchingforj/insiders/app/database"
	"github.com/searchingforj/insiders/app/watch"
)

const (
	defaultFilingsLimit = 50
	maxFilingsLimit     = 500
)

func NewHandler(filingRepo database.FilingRepository, watchCache *watch.Cache) *Handler {
	return &Handler{
		filingRepo: filingRepo,
		watchCache: watchCache,
	}
}

func (h *Handler) GetFilings(c *gin.Context) {
	limit := defaultFilingsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
		if limit > maxFilingsLimit {
			limit = maxFilingsLimit
		}
	}

	filings, err := h.filingRepo.GetRecentFilings(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_filings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"filings": filingsResponse(filings),
		"total":   len(filings),
	})
}

func (h *Handler) GetFiling(c *gin.Context) {
	filingID := c.Param("id")
	if filingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing filing id parameter"})
		return
	}

	filing, err := h.filingRepo.GetFiling(filingID)
	if err != nil {
		slog.Error("Database error", "operation", "get_filing", "filing", filingID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if filing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Filing not found"})
		return
	}

	c.JSON(http.StatusOK, filingResponse(*filing))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if filingCount, err := h.filingRepo.GetFilingCount(); err == nil {
		health["filings"] = filingCount
	}

	health["loaded_watch_configurations"] = h.watchCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"version":      cfg.GetVersion(),
		"target_codes": h.watchCache.ActiveCodes(),
	}

	if filingCount, err := h.filingRepo.GetFilingCount(); err == nil {
		stats["filing_count"] = filingCount
	}

	if latest, err := h.filingRepo.GetLatestFilingDate(); err == nil && latest != nil {
		stats["latest_filing_date"] = latest.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

func filingsResponse(filings []database.Filing) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(filings))
	for _, filing := range filings {
		out = append(out, filingResponse(filing))
	}
	return out
}

func filingResponse(filing database.Filing) map[string]interface{} {
	resp := map[string]interface{}{
		"filing_id":    filing.FilingID,
		"ticker":       filing.Ticker,
		"company_name": filing.CompanyName,
		"filing_date":  filing.FilingDate.Format(time.RFC3339),
		"filing_url":   filing.FilingURL,
		"created_at":   filing.CreatedAt.Format(time.RFC3339),
		"updated_at":   filing.UpdatedAt.Format(time.RFC3339),
	}

	if filing.TransactionDate != nil {
		resp["transaction_date"] = filing.TransactionDate.Format("2006-01-02")
	} else {
		resp["transaction_date"] = nil
	}

	return resp
}
