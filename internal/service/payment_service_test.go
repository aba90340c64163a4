package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzhaus/backoffice-api/internal/models"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
)

type fakePaymentStore struct {
	payments map[string]models.Payment
	created  []models.Payment
	nextID   int
}

func newFakePaymentStore(payments ...models.Payment) *fakePaymentStore {
	store := &fakePaymentStore{payments: make(map[string]models.Payment)}
	for _, p := range payments {
		store.payments[p.ID] = p
	}
	return store
}

func (f *fakePaymentStore) List(context.Context, models.PaymentFilter) ([]models.Payment, int, error) {
	return nil, 0, nil
}

func (f *fakePaymentStore) FindByID(_ context.Context, id string) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakePaymentStore) Create(_ context.Context, payment *models.Payment) error {
	f.nextID++
	payment.ID = "pay-new"
	f.created = append(f.created, *payment)
	return nil
}

type fakeClassReader struct {
	classes map[string]models.DanceClass
}

func (f *fakeClassReader) FindByID(_ context.Context, id string) (*models.DanceClass, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func TestRecordPaymentDefaultsToListPrice(t *testing.T) {
	enrollments := newFakeFreezeEnrollments(models.Enrollment{
		ID:        "enr-1",
		MemberID:  "mem-1",
		ClassID:   "class-1",
		CreatedAt: svcDay(2024, time.January, 1),
		Active:    true,
	})
	classes := &fakeClassReader{classes: map[string]models.DanceClass{
		"class-1": {ID: "class-1", ListPrice: 45, Active: true},
	}}
	payments := newFakePaymentStore()
	svc := NewPaymentService(payments, enrollments, classes, nil, nil, nil, nil)

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		PeriodStart:  svcDay(2024, time.January, 1),
	}, svcDay(2024, time.January, 3))
	require.NoError(t, err)
	assert.Equal(t, 45.0, payment.Amount)
	assert.Equal(t, models.PaymentTypeMonthly, payment.Type)
	assert.True(t, payment.PeriodEnd.Equal(svcDay(2024, time.February, 1)))
}

func TestRecordPaymentPrefersCustomPrice(t *testing.T) {
	custom := 30.0
	enrollments := newFakeFreezeEnrollments(models.Enrollment{
		ID:          "enr-1",
		MemberID:    "mem-1",
		ClassID:     "class-1",
		CreatedAt:   svcDay(2024, time.January, 1),
		Active:      true,
		CustomPrice: &custom,
	})
	svc := NewPaymentService(newFakePaymentStore(), enrollments, &fakeClassReader{}, nil, nil, nil, nil)

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		PeriodStart:  svcDay(2024, time.January, 1),
	}, svcDay(2024, time.January, 3))
	require.NoError(t, err)
	assert.Equal(t, 30.0, payment.Amount)
}

func TestRecordPaymentQuarterlyPeriodEnd(t *testing.T) {
	enrollments := newFakeFreezeEnrollments(models.Enrollment{
		ID:                    "enr-1",
		MemberID:              "mem-1",
		ClassID:               "class-1",
		CreatedAt:             svcDay(2024, time.January, 31),
		Active:                true,
		PaymentIntervalMonths: 3,
	})
	classes := &fakeClassReader{classes: map[string]models.DanceClass{
		"class-1": {ID: "class-1", ListPrice: 120, Active: true},
	}}
	svc := NewPaymentService(newFakePaymentStore(), enrollments, classes, nil, nil, nil, nil)

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		PeriodStart:  svcDay(2024, time.January, 31),
	}, svcDay(2024, time.February, 1))
	require.NoError(t, err)
	assert.True(t, payment.PeriodEnd.Equal(svcDay(2024, time.April, 30)))
}

func TestRefundMirrorsPayment(t *testing.T) {
	enrollmentID := "enr-1"
	payments := newFakePaymentStore(models.Payment{
		ID:           "pay-1",
		MemberID:     "mem-1",
		EnrollmentID: &enrollmentID,
		ClassID:      "class-1",
		Amount:       45,
		PeriodStart:  svcDay(2024, time.January, 1),
		PeriodEnd:    svcDay(2024, time.February, 1),
		Type:         models.PaymentTypeMonthly,
	})
	svc := NewPaymentService(payments, newFakeFreezeEnrollments(), &fakeClassReader{}, nil, nil, nil, nil)

	refund, err := svc.Refund(context.Background(), "pay-1", svcDay(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeRefund, refund.Type)
	assert.Equal(t, -45.0, refund.Amount)
	assert.True(t, refund.PeriodStart.Equal(svcDay(2024, time.January, 1)))
}

func TestRefundOfRefundRejected(t *testing.T) {
	payments := newFakePaymentStore(models.Payment{
		ID:   "pay-1",
		Type: models.PaymentTypeRefund,
	})
	svc := NewPaymentService(payments, newFakeFreezeEnrollments(), &fakeClassReader{}, nil, nil, nil, nil)

	_, err := svc.Refund(context.Background(), "pay-1", svcDay(2024, time.January, 10))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
