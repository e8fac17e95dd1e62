package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
)

func sampleRecord() *model.Record {
	return &model.Record{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   uuid.Must(uuid.NewV4()),
		Type:      model.RecordLabReport,
		Title:     "blood panel",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func recordRows(recs ...*model.Record) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "owner_id", "record_type", "title", "revoked", "created_at"})
	for _, r := range recs {
		rows.AddRow(r.ID, r.OwnerID, string(r.Type), r.Title, r.Revoked, r.CreatedAt)
	}
	return rows
}

func TestRecordRepo_CreateAndGet(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)
	ctx := context.Background()
	rec := sampleRecord()

	mock.ExpectExec(`INSERT INTO records`).
		WithArgs(rec.ID, rec.OwnerID, string(rec.Type), rec.Title, rec.Revoked, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, rec))

	mock.ExpectQuery(`FROM records WHERE id=\$1`).
		WithArgs(rec.ID).
		WillReturnRows(recordRows(rec))
	got, err := r.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.OwnerID, got.OwnerID)
	require.Equal(t, model.RecordLabReport, got.Type)
}

func TestRecordRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`FROM records WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestRecordRepo_SetRevoked(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE records SET revoked=true WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetRevoked(context.Background(), id))

	mock.ExpectExec(`UPDATE records SET revoked=true WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetRevoked(context.Background(), id), errs.ErrRecordNotFound)
}

func TestRecordRepo_ListByOwner(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)

	rec := sampleRecord()
	mock.ExpectQuery(`FROM records WHERE owner_id=\$1 ORDER BY created_at DESC`).
		WithArgs(rec.OwnerID).
		WillReturnRows(recordRows(rec))

	out, err := r.ListByOwner(context.Background(), rec.OwnerID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, rec.ID, out[0].ID)
}
