package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/pkg/clock"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
)

// asOfFromQuery resolves the effective date for an operation. Query parameter
// asOf=YYYY-MM-DD wins; otherwise the injected clock supplies today.
func asOfFromQuery(c *gin.Context, clk clock.Provider) (time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return clk.Today(), nil
	}
	return dates.Parse(raw)
}
