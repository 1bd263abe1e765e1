package coupon_purchase

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	couponapp "lodging-backoffice/internal/application/coupon"
	pointapp "lodging-backoffice/internal/application/point"
	"lodging-backoffice/internal/domain/discount"
	"lodging-backoffice/internal/domain/point"
	otelinfra "lodging-backoffice/internal/infrastructure/observability/otel"
	"lodging-backoffice/internal/infrastructure/persistence/mysql"
)

var (
	mysqlCouponColumns = []string{"id", "room_id", "discount_type", "discount_value", "stock", "status", "coupon_type", "day_limit", "end_date", "version", "created_at", "updated_at"}
	mysqlPointColumns  = []string{"id", "operator_id", "balance", "version", "created_at", "updated_at"}
	mysqlRoomColumns   = []string{"id", "accommodation_id", "accommodation_name", "name", "price"}
)

// newMySQLPurchaseService 実際のサービス・リポジトリ・トランザクションマネージャーをsqlmockで組み立てる
func newMySQLPurchaseService(t *testing.T) (*CouponPurchaseApplicationService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &mysql.DB{DB: sqlDB}
	txManager := mysql.NewTransactionManager(db)

	logger := otelinfra.NewLogger(otel.Tracer("test"), otelinfra.WithOutput(io.Discard))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	coupons := couponapp.NewCouponApplicationService(
		mysql.NewCouponRepository(db),
		mysql.NewRoomRepository(db),
		txManager,
		discount.DefaultPolicy(),
		logger,
		metrics,
	)
	points := pointapp.NewPointApplicationService(
		mysql.NewPointRepository(db),
		mysql.NewPointChargeRepository(db),
		mysql.NewPointUsageRepository(db),
		mysql.NewPointRefundRepository(db),
		nil,
		txManager,
		"",
		logger,
		metrics,
	)

	s := NewCouponPurchaseApplicationService(coupons, points, txManager, logger, metrics)
	s.sleep = func(time.Duration) {}
	return s, mock
}

func expectPurchasePrelude(mock sqlmock.Sqlmock, now time.Time) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM points WHERE operator_id = \?$`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(mysqlPointColumns).AddRow(int64(1), int64(42), int64(50000), 3, now, now))
	mock.ExpectQuery(`FROM rooms r`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(mysqlRoomColumns).AddRow(int64(10), int64(1), "바다 호텔", "디럭스", int64(100000)))
}

func TestCouponPurchaseApplicationService_Purchase_MySQL(t *testing.T) {
	now := time.Now()
	req := &PurchaseRequest{
		OperatorID: 42,
		TotalCost:  30000,
		Items:      []LineItem{flatItem()},
	}

	t.Run("正常系: 新規発行と引き落としを1つのトランザクションでコミット", func(t *testing.T) {
		s, mock := newMySQLPurchaseService(t)

		expectPurchasePrelude(mock, now)
		mock.ExpectQuery(`FROM coupons\s+WHERE room_id = \? AND discount_type = \? AND discount_value = \?`).
			WithArgs(int64(10), "FLAT", int64(5000)).
			WillReturnRows(sqlmock.NewRows(mysqlCouponColumns))
		mock.ExpectExec(`INSERT INTO coupons`).
			WithArgs(int64(10), "FLAT", int64(5000), int64(10), "ENABLE",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(77, 1))
		mock.ExpectQuery(`FROM points WHERE operator_id = \? FOR UPDATE$`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(mysqlPointColumns).AddRow(int64(1), int64(42), int64(50000), 3, now, now))
		mock.ExpectExec(`INSERT INTO point_usages`).
			WithArgs(int64(1), sqlmock.AnyArg(), PurchaseDescription, sqlmock.AnyArg(), int64(30000)).
			WillReturnResult(sqlmock.NewResult(5, 1))
		// 50000 - 30000
		mock.ExpectExec(`UPDATE points\s+SET balance = \?`).
			WithArgs(int64(20000), int64(1), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		coupons, err := s.Purchase(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, coupons, 1)
		assert.Equal(t, int64(77), coupons[0].ID())
		assert.Equal(t, 10, coupons[0].Stock())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: 引き落としに失敗すると在庫追加も取り消す", func(t *testing.T) {
		s, mock := newMySQLPurchaseService(t)

		expectPurchasePrelude(mock, now)
		mock.ExpectQuery(`FROM coupons\s+WHERE room_id = \? AND discount_type = \? AND discount_value = \?`).
			WithArgs(int64(10), "FLAT", int64(5000)).
			WillReturnRows(sqlmock.NewRows(mysqlCouponColumns).
				AddRow(int64(7), int64(10), "FLAT", int64(5000), 5, "ENABLE", "ALL_DAYS", -1, endDate, 2, now, now))
		mock.ExpectExec(`UPDATE coupons`).
			WithArgs("FLAT", int64(5000), int64(15), "ENABLE", "ALL_DAYS", int64(-1), sqlmock.AnyArg(), int64(7), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// 残高確認の後に別の消費が先にコミットされている
		mock.ExpectQuery(`FROM points WHERE operator_id = \? FOR UPDATE$`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(mysqlPointColumns).AddRow(int64(1), int64(42), int64(10000), 4, now, now))
		mock.ExpectRollback()

		coupons, err := s.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, point.ErrInsufficientPoints)
		assert.Nil(t, coupons)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("異常系: 使用履歴の記録に失敗するとロールバック", func(t *testing.T) {
		s, mock := newMySQLPurchaseService(t)

		expectPurchasePrelude(mock, now)
		mock.ExpectQuery(`FROM coupons\s+WHERE room_id = \?`).
			WithArgs(int64(10), "FLAT", int64(5000)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(`INSERT INTO coupons`).
			WillReturnResult(sqlmock.NewResult(77, 1))
		mock.ExpectQuery(`FOR UPDATE$`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(mysqlPointColumns).AddRow(int64(1), int64(42), int64(50000), 3, now, now))
		mock.ExpectExec(`INSERT INTO point_usages`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := s.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
