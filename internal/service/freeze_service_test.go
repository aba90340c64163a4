package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type fakeFreezeStore struct {
	intervals map[string]models.FreezeInterval
	created   []models.FreezeInterval
	closed    map[string]int
	deleted   []string
	nextID    int
}

func newFakeFreezeStore(intervals ...models.FreezeInterval) *fakeFreezeStore {
	store := &fakeFreezeStore{
		intervals: make(map[string]models.FreezeInterval),
		closed:    make(map[string]int),
	}
	for _, iv := range intervals {
		store.intervals[iv.ID] = iv
	}
	return store
}

func (f *fakeFreezeStore) FindByID(_ context.Context, id string) (*models.FreezeInterval, error) {
	iv, ok := f.intervals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &iv, nil
}

func (f *fakeFreezeStore) ListOpenByMember(_ context.Context, memberID string) ([]models.FreezeInterval, error) {
	var out []models.FreezeInterval
	for _, iv := range f.intervals {
		if iv.MemberID == memberID && iv.Open() {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *fakeFreezeStore) Create(_ context.Context, interval *models.FreezeInterval) error {
	f.nextID++
	interval.ID = fmt.Sprintf("frz-%d", f.nextID)
	f.intervals[interval.ID] = *interval
	f.created = append(f.created, *interval)
	return nil
}

func (f *fakeFreezeStore) Close(_ context.Context, id string, endDate time.Time, daysCount int) error {
	iv := f.intervals[id]
	iv.EndDate = &endDate
	iv.DaysCount = &daysCount
	f.intervals[id] = iv
	f.closed[id] = daysCount
	return nil
}

func (f *fakeFreezeStore) Delete(_ context.Context, id string) error {
	delete(f.intervals, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeFreezeEnrollments struct {
	enrollments map[string]models.Enrollment
	shifts      map[string]int
}

func newFakeFreezeEnrollments(enrollments ...models.Enrollment) *fakeFreezeEnrollments {
	store := &fakeFreezeEnrollments{
		enrollments: make(map[string]models.Enrollment),
		shifts:      make(map[string]int),
	}
	for _, e := range enrollments {
		store.enrollments[e.ID] = e
	}
	return store
}

func (f *fakeFreezeEnrollments) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (f *fakeFreezeEnrollments) ListActiveByMember(_ context.Context, memberID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.MemberID == memberID && e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFreezeEnrollments) ShiftNextPaymentDue(_ context.Context, id string, days int) error {
	f.shifts[id] += days
	return nil
}

type fakeAuditSink struct {
	entries []models.AuditLog
}

func (f *fakeAuditSink) Append(_ context.Context, entry *models.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeStatusRecomputer struct {
	calls int
}

func (f *fakeStatusRecomputer) RecomputeMemberStatus(context.Context, string, time.Time) error {
	f.calls++
	return nil
}

func newFreezeService(freezes *fakeFreezeStore, enrollments *fakeFreezeEnrollments, members *fakeMemberStore, audits *fakeAuditSink, status *fakeStatusRecomputer) *FreezeService {
	return NewFreezeService(freezes, enrollments, members, audits, status, nil, nil, nil)
}

func TestFreezeAllActiveEnrollments(t *testing.T) {
	members := newFakeMemberStore(models.Member{ID: "mem-1", Status: models.MemberStatusActive})
	enrollments := newFakeFreezeEnrollments(
		models.Enrollment{ID: "enr-1", MemberID: "mem-1", Active: true},
		models.Enrollment{ID: "enr-2", MemberID: "mem-1", Active: true},
		models.Enrollment{ID: "enr-3", MemberID: "mem-1", Active: false},
	)
	freezes := newFakeFreezeStore()
	audits := &fakeAuditSink{}
	status := &fakeStatusRecomputer{}
	svc := newFreezeService(freezes, enrollments, members, audits, status)

	created, err := svc.Freeze(context.Background(), FreezeRequest{
		MemberID:  "mem-1",
		StartDate: svcDay(2024, time.March, 1),
	}, svcDay(2024, time.March, 1))
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Len(t, audits.entries, 2)
	assert.Equal(t, 1, status.calls)
}

func TestFreezeRejectsForeignEnrollment(t *testing.T) {
	members := newFakeMemberStore(models.Member{ID: "mem-1", Status: models.MemberStatusActive})
	enrollments := newFakeFreezeEnrollments(
		models.Enrollment{ID: "enr-1", MemberID: "other", Active: true},
	)
	svc := newFreezeService(newFakeFreezeStore(), enrollments, members, &fakeAuditSink{}, &fakeStatusRecomputer{})

	_, err := svc.Freeze(context.Background(), FreezeRequest{
		MemberID:      "mem-1",
		EnrollmentIDs: []string{"enr-1"},
		StartDate:     svcDay(2024, time.March, 1),
	}, svcDay(2024, time.March, 1))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestCloseIntervalShiftsNextPaymentDue(t *testing.T) {
	freezes := newFakeFreezeStore(models.FreezeInterval{
		ID:           "frz-1",
		EnrollmentID: "enr-1",
		MemberID:     "mem-1",
		StartDate:    svcDay(2024, time.March, 1),
	})
	enrollments := newFakeFreezeEnrollments(models.Enrollment{ID: "enr-1", MemberID: "mem-1", Active: true})
	members := newFakeMemberStore(models.Member{ID: "mem-1", Status: models.MemberStatusFrozen})
	svc := newFreezeService(freezes, enrollments, members, &fakeAuditSink{}, &fakeStatusRecomputer{})

	interval, err := svc.CloseInterval(context.Background(), "frz-1", svcDay(2024, time.March, 15))
	require.NoError(t, err)
	require.NotNil(t, interval.DaysCount)
	assert.Equal(t, 14, *interval.DaysCount)
	assert.Equal(t, 14, enrollments.shifts["enr-1"])
	assert.Equal(t, models.MemberStatusActive, members.statusWrites["mem-1"])
}

func TestCloseIntervalBeforeStartHasNoEffectiveDays(t *testing.T) {
	start := svcDay(2024, time.April, 1)
	freezes := newFakeFreezeStore(models.FreezeInterval{
		ID:           "frz-1",
		EnrollmentID: "enr-1",
		MemberID:     "mem-1",
		StartDate:    start,
	})
	enrollments := newFakeFreezeEnrollments(models.Enrollment{ID: "enr-1", MemberID: "mem-1", Active: true})
	members := newFakeMemberStore(models.Member{ID: "mem-1", Status: models.MemberStatusActive})
	svc := newFreezeService(freezes, enrollments, members, &fakeAuditSink{}, &fakeStatusRecomputer{})

	interval, err := svc.CloseInterval(context.Background(), "frz-1", svcDay(2024, time.March, 20))
	require.NoError(t, err)
	require.NotNil(t, interval.DaysCount)
	assert.Zero(t, *interval.DaysCount)
	assert.Zero(t, enrollments.shifts["enr-1"])
	// End pinned to start so the interval never runs backwards.
	assert.True(t, interval.EndDate.Equal(start))
}

func TestCloseIntervalTwiceRejected(t *testing.T) {
	end := svcDay(2024, time.March, 10)
	freezes := newFakeFreezeStore(models.FreezeInterval{
		ID:           "frz-1",
		EnrollmentID: "enr-1",
		MemberID:     "mem-1",
		StartDate:    svcDay(2024, time.March, 1),
		EndDate:      &end,
	})
	svc := newFreezeService(freezes, newFakeFreezeEnrollments(), newFakeMemberStore(), &fakeAuditSink{}, &fakeStatusRecomputer{})

	_, err := svc.CloseInterval(context.Background(), "frz-1", svcDay(2024, time.March, 20))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestUnfreezeMemberClosesAllOpenIntervals(t *testing.T) {
	freezes := newFakeFreezeStore(
		models.FreezeInterval{ID: "frz-1", EnrollmentID: "enr-1", MemberID: "mem-1", StartDate: svcDay(2024, time.March, 1)},
		models.FreezeInterval{ID: "frz-2", EnrollmentID: "enr-2", MemberID: "mem-1", StartDate: svcDay(2024, time.March, 5)},
	)
	enrollments := newFakeFreezeEnrollments(
		models.Enrollment{ID: "enr-1", MemberID: "mem-1", Active: true},
		models.Enrollment{ID: "enr-2", MemberID: "mem-1", Active: true},
	)
	members := newFakeMemberStore(models.Member{ID: "mem-1", Status: models.MemberStatusFrozen})
	svc := newFreezeService(freezes, enrollments, members, &fakeAuditSink{}, &fakeStatusRecomputer{})

	closed, err := svc.UnfreezeMember(context.Background(), "mem-1", svcDay(2024, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	assert.Len(t, freezes.closed, 2)
	assert.Equal(t, models.MemberStatusActive, members.statusWrites["mem-1"])
}

func TestCancelFutureFreeze(t *testing.T) {
	freezes := newFakeFreezeStore(models.FreezeInterval{
		ID:           "frz-1",
		EnrollmentID: "enr-1",
		MemberID:     "mem-1",
		StartDate:    svcDay(2024, time.April, 1),
	})
	audits := &fakeAuditSink{}
	svc := newFreezeService(freezes, newFakeFreezeEnrollments(), newFakeMemberStore(), audits, &fakeStatusRecomputer{})

	err := svc.CancelScheduled(context.Background(), "frz-1", svcDay(2024, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"frz-1"}, freezes.deleted)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionFreezeCancel, audits.entries[0].Action)
}

func TestCancelRejectedOnceStarted(t *testing.T) {
	freezes := newFakeFreezeStore(models.FreezeInterval{
		ID:           "frz-1",
		EnrollmentID: "enr-1",
		MemberID:     "mem-1",
		StartDate:    svcDay(2024, time.March, 20),
	})
	svc := newFreezeService(freezes, newFakeFreezeEnrollments(), newFakeMemberStore(), &fakeAuditSink{}, &fakeStatusRecomputer{})

	// Start date equal to the reference date counts as started.
	err := svc.CancelScheduled(context.Background(), "frz-1", svcDay(2024, time.March, 20))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, freezes.deleted)
}
