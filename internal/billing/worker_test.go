package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

const dueRx = `(?s)SELECT.+FROM\s+subscriptions.+status IN \(\?, \?\).+current_period_end < \?`

func TestSweepSuspendsLapsedSites(t *testing.T) {
	db, mock := newMockDB(t)
	lapsed := time.Now().Add(-96 * time.Hour)

	mock.ExpectQuery(dueRx).
		WithArgs(StatusTrialing, StatusActive, sqlmock.AnyArg()).
		WillReturnRows(subRow(5, 12, PlanStarter, StatusActive, lapsed))
	mock.ExpectExec(`UPDATE subscriptions SET status = \? WHERE id = \?`).
		WithArgs(StatusPastDue, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE sites.+suspended_at = CURRENT_TIMESTAMP.+suspended_at IS NULL`).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := NewWorker(db, zap.NewNop().Sugar(), time.Hour, 72*time.Hour)
	w.sweep(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepStopsOnQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(dueRx).
		WithArgs(StatusTrialing, StatusActive, sqlmock.AnyArg()).
		WillReturnError(errors.New("server has gone away"))

	w := NewWorker(db, zap.NewNop().Sugar(), time.Hour, 72*time.Hour)
	w.sweep(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReactivateRenewsAndUnsuspends(t *testing.T) {
	db, mock := newMockDB(t)
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	mock.ExpectQuery(bySiteRx).WithArgs(int64(12)).
		WillReturnRows(subRow(5, 12, PlanStarter, StatusPastDue, time.Now().Add(-time.Hour)))
	mock.ExpectExec(`(?s)UPDATE subscriptions.+SET\s+status = \?, current_period_end = \?`).
		WithArgs(StatusActive, periodEnd, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sites SET suspended_at = NULL WHERE id = \?`).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := Reactivate(context.Background(), db, 12, periodEnd); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	db, _ := newMockDB(t)
	w := NewWorker(db, zap.NewNop().Sugar(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
