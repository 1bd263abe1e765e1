package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"lodging-backoffice/internal/domain/point"
)

var pointColumnNames = []string{"id", "operator_id", "balance", "version", "created_at", "updated_at"}

func TestPointRepository_FindByOperatorID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
		wantAny   bool
	}{
		{
			name: "正常系: ポイントを取得",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM points WHERE operator_id = \?`).
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows(pointColumnNames).AddRow(int64(1), int64(42), int64(50000), 3, now, now))
			},
		},
		{
			name: "異常系: ポイントが存在しない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM points WHERE operator_id = \?`).
					WithArgs(int64(42)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: point.ErrPointNotFound,
		},
		{
			name: "異常系: 負の残高は復元できない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM points WHERE operator_id = \?`).
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows(pointColumnNames).AddRow(int64(1), int64(42), int64(-1), 3, now, now))
			},
			wantErr: point.ErrBalanceOutOfRange,
		},
		{
			name: "異常系: データベースエラー",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM points`).
					WillReturnError(errors.New("database error"))
			},
			wantAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}
			tt.setupMock(mock)

			p, err := repo.FindByOperatorID(context.Background(), 42)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(1), p.ID())
				assert.Equal(t, int64(42), p.OperatorID())
				assert.Equal(t, int64(50000), p.Balance())
				assert.Equal(t, 3, p.Version())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPointRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM points WHERE id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(pointColumnNames).AddRow(int64(1), int64(42), int64(0), 0, now, now))

	p, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.OperatorID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_FindForUpdate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		query string
		arg   int64
		find  func(r *PointRepository, ctx context.Context) (*point.Point, error)
	}{
		{
			name:  "正常系: 事業者IDで行ロック付き取得",
			query: `SELECT .* FROM points WHERE operator_id = \? FOR UPDATE`,
			arg:   42,
			find: func(r *PointRepository, ctx context.Context) (*point.Point, error) {
				return r.FindByOperatorIDForUpdate(ctx, 42)
			},
		},
		{
			name:  "正常系: ポイントIDで行ロック付き取得",
			query: `SELECT .* FROM points WHERE id = \? FOR UPDATE`,
			arg:   1,
			find: func(r *PointRepository, ctx context.Context) (*point.Point, error) {
				return r.FindByIDForUpdate(ctx, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}
			tm := NewTransactionManager(repo.db)

			mock.ExpectBegin()
			mock.ExpectQuery(tt.query).
				WithArgs(tt.arg).
				WillReturnRows(sqlmock.NewRows(pointColumnNames).AddRow(int64(1), int64(42), int64(50000), 3, now, now))
			mock.ExpectCommit()

			err = tm.WithTransaction(context.Background(), func(ctx context.Context) error {
				p, err := tt.find(repo, ctx)
				if err != nil {
					return err
				}
				assert.Equal(t, int64(50000), p.Balance())
				return nil
			})
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("異常系: 存在しない", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}
		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)

		_, err = repo.FindByOperatorIDForUpdate(context.Background(), 42)
		assert.ErrorIs(t, err, point.ErrPointNotFound)
	})
}

func TestPointRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}

	p, err := point.NewPoint(42)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO points \(operator_id, balance, version\)`).
		WithArgs(int64(42), int64(0), int64(0)).
		WillReturnResult(sqlmock.NewResult(5, 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(5), p.ID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointRepository_Save(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(mock sqlmock.Sqlmock)
		wantErr     error
		wantAny     bool
		wantVersion int
	}{
		{
			name: "正常系: 残高を保存してバージョンを進める",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE points\s+SET balance = \?, version = version \+ 1`).
					WithArgs(int64(20000), int64(1), int64(2)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 3,
		},
		{
			name: "異常系: バージョン不一致",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE points`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:     point.ErrConcurrentModification,
			wantVersion: 2,
		},
		{
			name: "異常系: データベースエラー",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE points`).
					WillReturnError(errors.New("database error"))
			},
			wantAny:     true,
			wantVersion: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := &PointRepository{db: &DB{DB: db}, tracer: otel.Tracer("test")}
			tt.setupMock(mock)

			p := point.MustReconstructPoint(1, 42, 50000, 2)
			require.NoError(t, p.Debit(30000))

			err = repo.Save(context.Background(), p)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantVersion, p.Version())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
