package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/pkg/clock"
)

func testContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestAsOfFromQueryExplicitDate(t *testing.T) {
	c := testContext(t, "/enrollments/enr-1/schedule?asOf=2024-03-15")
	clk := clock.Fixed{Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)}

	asOf, err := asOfFromQuery(c, clk)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), asOf)
}

func TestAsOfFromQueryFallsBackToClock(t *testing.T) {
	c := testContext(t, "/enrollments/enr-1/schedule")
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.Fixed{Date: today}

	asOf, err := asOfFromQuery(c, clk)
	require.NoError(t, err)
	assert.True(t, asOf.Equal(today))
}

func TestAsOfFromQueryRejectsGarbage(t *testing.T) {
	c := testContext(t, "/enrollments/enr-1/schedule?asOf=15.03.2024")
	_, err := asOfFromQuery(c, clock.System{})
	require.Error(t, err)
}
