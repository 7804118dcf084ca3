package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkravets/satzwerk/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInsertSetWritesAllRowsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assignments := []models.DailyAssignment{
		{UserID: 42, SessionID: 111, SentenceID: 1, Seq: 1, AssignedOn: day},
		{UserID: 42, SessionID: 111, SentenceID: 2, Seq: 2, AssignedOn: day},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO daily_assignments").
		WithArgs(int64(42), int64(111), int64(1), 1, day).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO daily_assignments").
		WithArgs(int64(42), int64(111), int64(2), 2, day).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertSet(context.Background(), assignments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSetRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assignments := []models.DailyAssignment{
		{UserID: 42, SessionID: 111, SentenceID: 1, Seq: 1, AssignedOn: day},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO daily_assignments").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assert.Error(t, repo.InsertSet(context.Background(), assignments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSetNoAssignmentsIsNoop(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	require.NoError(t, repo.InsertSet(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForDayJoinsSentenceText(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "session_id", "sentence_id", "seq", "assigned_on", "text"}).
		AddRow(int64(1), int64(42), int64(111), int64(5), 1, day, "Он работает в банке.").
		AddRow(int64(2), int64(42), int64(111), int64(6), 2, day, "Мы идём в кино.")
	mock.ExpectQuery("SELECT da.id, da.user_id, da.session_id").
		WithArgs(int64(42), day).
		WillReturnRows(rows)

	got, err := repo.ListForDay(context.Background(), 42, day)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Он работает в банке.", got[0].Text)
	assert.Equal(t, 2, got[1].Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySeqReturnsNilWhenMissing(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT da.id, da.user_id, da.session_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_id", "sentence_id", "seq", "assigned_on", "text"}))

	got, err := repo.GetBySeq(context.Background(), 42, time.Now(), 9)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
