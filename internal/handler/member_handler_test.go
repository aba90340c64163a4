package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

type stubMembers struct {
	members map[string]models.Member
}

func (s *stubMembers) List(context.Context, models.MemberFilter) ([]models.Member, int, error) {
	var out []models.Member
	for _, m := range s.members {
		out = append(out, m)
	}
	return out, len(out), nil
}

func (s *stubMembers) FindByID(_ context.Context, id string) (*models.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (s *stubMembers) Create(_ context.Context, member *models.Member) error {
	member.ID = "mem-new"
	return nil
}

func (s *stubMembers) Update(context.Context, *models.Member) error { return nil }

func (s *stubMembers) UpdateStatus(context.Context, string, models.MemberStatus) error { return nil }

type stubEnrollments struct{}

func (stubEnrollments) ListActiveByMember(context.Context, string) ([]models.Enrollment, error) {
	return nil, nil
}

func (stubEnrollments) Deactivate(context.Context, string, time.Time) error { return nil }

type stubFreezes struct{}

func (stubFreezes) UnfreezeMember(context.Context, string, time.Time) (int, error) { return 0, nil }

type stubAudits struct{}

func (stubAudits) Append(context.Context, *models.AuditLog) error { return nil }

func (stubAudits) ListByMember(context.Context, string, int) ([]models.AuditLog, error) {
	return nil, nil
}

func memberHandlerUnderTest(members *stubMembers) *MemberHandler {
	svc := service.NewMemberService(members, stubEnrollments{}, stubFreezes{}, stubAudits{}, nil, nil)
	clk := clock.Fixed{Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)}
	return NewMemberHandler(svc, nil, nil, clk)
}

func TestMemberHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := memberHandlerUnderTest(&stubMembers{members: map[string]models.Member{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/members/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemberHandlerGetSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := memberHandlerUnderTest(&stubMembers{members: map[string]models.Member{
		"mem-1": {ID: "mem-1", FullName: "Ana Ruiz", Status: models.MemberStatusActive},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/members/mem-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "mem-1"}}

	h.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestMemberHandlerArchiveInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := memberHandlerUnderTest(&stubMembers{members: map[string]models.Member{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/members/mem-1/archive?asOf=01.06.2024", nil)
	c.Params = gin.Params{{Key: "id", Value: "mem-1"}}

	h.Archive(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
