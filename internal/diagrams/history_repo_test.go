package diagrams

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepoAppendManualSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diagram_snapshots")).
		WithArgs("snap-1", "diag-1", "flowchart TD\n  A-->B", "dagre", "default", "TB", ManualSavePrompt, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	r := NewHistoryRepo(db)
	s := &Snapshot{
		ID:         "snap-1",
		DiagramID:  "diag-1",
		Source:     "flowchart TD\n  A-->B",
		Layout:     "dagre",
		Theme:      "default",
		Direction:  "TB",
		UserPrompt: ManualSavePrompt,
	}
	require.NoError(t, r.Append(context.Background(), s))
	require.Equal(t, created, s.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoAppendAIEdit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	summary := "flowchart TD A-->B B-->C"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diagram_snapshots")).
		WithArgs("snap-2", "diag-1", "flowchart TD\n  A-->B\n  B-->C", "dagre", "default", "TB", "add a step C", &summary).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	r := NewHistoryRepo(db)
	s := &Snapshot{
		ID:         "snap-2",
		DiagramID:  "diag-1",
		Source:     "flowchart TD\n  A-->B\n  B-->C",
		Layout:     "dagre",
		Theme:      "default",
		Direction:  "TB",
		UserPrompt: "add a step C",
		AIResponse: &summary,
	}
	require.NoError(t, r.Append(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoAppendFailureIsPersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO diagram_snapshots")).
		WillReturnError(errors.New("connection refused"))

	r := NewHistoryRepo(db)
	err = r.Append(context.Background(), &Snapshot{ID: "snap-1", DiagramID: "diag-1"})
	require.ErrorIs(t, err, ErrPersistence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoListNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "diagram_id", "source", "layout", "theme", "direction", "user_prompt", "ai_response", "created_at"}
	now := time.Now()
	summary := "flowchart LR A-->B"
	rows := sqlmock.NewRows(cols).
		AddRow("snap-2", "diag-1", "flowchart LR", "dagre", "default", "LR", "make it horizontal", &summary, now).
		AddRow("snap-1", "diag-1", "flowchart TD", "dagre", "default", "TB", ManualSavePrompt, nil, now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM diagram_snapshots")).
		WithArgs("diag-1", HistoryLimit).
		WillReturnRows(rows)

	r := NewHistoryRepo(db)
	snaps, err := r.List(context.Background(), "diag-1", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, "snap-2", snaps[0].ID)
	require.Equal(t, "make it horizontal", snaps[0].UserPrompt)
	require.NotNil(t, snaps[0].AIResponse)
	require.Equal(t, "flowchart LR A-->B", *snaps[0].AIResponse)
	require.Equal(t, ManualSavePrompt, snaps[1].UserPrompt)
	require.Nil(t, snaps[1].AIResponse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoListLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "diagram_id", "source", "layout", "theme", "direction", "user_prompt", "ai_response", "created_at"}

	// caller-supplied limit is passed through
	mock.ExpectQuery(regexp.QuoteMeta("FROM diagram_snapshots")).
		WithArgs("diag-1", 5).
		WillReturnRows(sqlmock.NewRows(cols))

	// oversized limit clamps to the cap
	mock.ExpectQuery(regexp.QuoteMeta("FROM diagram_snapshots")).
		WithArgs("diag-1", HistoryLimit).
		WillReturnRows(sqlmock.NewRows(cols))

	r := NewHistoryRepo(db)
	_, err = r.List(context.Background(), "diag-1", 5)
	require.NoError(t, err)
	_, err = r.List(context.Background(), "diag-1", 500)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM diagram_snapshots")).
		WithArgs("missing", "diag-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := NewHistoryRepo(db)
	_, err = r.Get(context.Background(), "diag-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
