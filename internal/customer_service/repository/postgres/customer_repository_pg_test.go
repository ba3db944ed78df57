package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/customer_service/domain"
)

func setupCustomerRepoTest(t *testing.T) (domain.CustomerRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgCustomerRepository(mockPool, logger)
	return repo, mockPool
}

var customerColumnList = []string{
	"id", "business_id", "first_name", "last_name", "ani_hash", "email", "segment",
	"visit_count", "total_spend_cents", "no_show_count", "last_interaction", "created_at", "updated_at",
}

func TestPgCustomerRepository_List(t *testing.T) {
	repo, mockPool := setupCustomerRepoTest(t)
	defer mockPool.Close()

	businessID := "biz-1"
	now := time.Now()

	t.Run("DefaultFilter", func(t *testing.T) {
		filter := domain.ListFilter{}
		require.NoError(t, filter.Normalize())

		mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE business_id = \$1`).
			WithArgs(businessID).
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(1)))

		rows := mockPool.NewRows(customerColumnList).
			AddRow("cust-1", businessID, "Ada", "Lovelace", "h:abc", "ada@example.com", "vip",
				12, int64(84000), 0, &now, now, now)
		mockPool.ExpectQuery(`SELECT .+ FROM customers WHERE business_id = \$1 ORDER BY last_interaction DESC NULLS LAST LIMIT \$2 OFFSET \$3`).
			WithArgs(businessID, 10, 0).
			WillReturnRows(rows)

		page, err := repo.List(context.Background(), businessID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Customers, 1)
		assert.Equal(t, "vip", page.Customers[0].Segment)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("SearchAndSegment", func(t *testing.T) {
		filter := domain.ListFilter{Search: "Ada", Segment: "vip", SortBy: "spend", SortOrder: "asc", Page: 2, PageSize: 5}
		require.NoError(t, filter.Normalize())

		mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE business_id = \$1 AND \(first_name ILIKE \$2 OR last_name ILIKE \$2 OR ani_hash ILIKE \$2\) AND segment = \$3`).
			WithArgs(businessID, "%ada%", "vip").
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(0)))

		mockPool.ExpectQuery(`SELECT .+ FROM customers .+ ORDER BY total_spend_cents ASC NULLS LAST LIMIT \$4 OFFSET \$5`).
			WithArgs(businessID, "%ada%", "vip", 5, 5).
			WillReturnRows(mockPool.NewRows(customerColumnList))

		page, err := repo.List(context.Background(), businessID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
		assert.Empty(t, page.Customers)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		filter := domain.ListFilter{}
		require.NoError(t, filter.Normalize())

		mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM customers WHERE business_id = \$1`).
			WithArgs(businessID).
			WillReturnError(errors.New("database error"))

		page, err := repo.List(context.Background(), businessID, filter)
		require.Error(t, err)
		assert.Nil(t, page)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgCustomerRepository_GetByID(t *testing.T) {
	repo, mockPool := setupCustomerRepoTest(t)
	defer mockPool.Close()

	businessID := "biz-1"
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		rows := mockPool.NewRows(customerColumnList).
			AddRow("cust-1", businessID, "Ada", "Lovelace", "h:abc", "", "regular",
				3, int64(12000), 1, &now, now, now)
		mockPool.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1 AND business_id = \$2`).
			WithArgs("cust-1", businessID).
			WillReturnRows(rows)

		customer, err := repo.GetByID(context.Background(), "cust-1", businessID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", customer.FirstName)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("WrongBusinessReadsAsNotFound", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1 AND business_id = \$2`).
			WithArgs("cust-1", "biz-other").
			WillReturnError(pgx.ErrNoRows)

		customer, err := repo.GetByID(context.Background(), "cust-1", "biz-other")
		require.ErrorIs(t, err, domain.ErrCustomerNotFound)
		assert.Nil(t, customer)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgCustomerRepository_SegmentCounts(t *testing.T) {
	repo, mockPool := setupCustomerRepoTest(t)
	defer mockPool.Close()

	businessID := "biz-1"

	t.Run("GroupsInOnePass", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"segment", "count"}).
			AddRow("vip", int64(2)).
			AddRow("regular", int64(5)).
			AddRow("dormant", int64(1))
		mockPool.ExpectQuery(`SELECT segment, COUNT\(\*\) FROM customers WHERE business_id = \$1 GROUP BY segment`).
			WithArgs(businessID).
			WillReturnRows(rows)

		counts, err := repo.SegmentCounts(context.Background(), businessID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(8), counts.All)
		assert.Equal(t, int64(2), counts.VIP)
		assert.Equal(t, int64(5), counts.Regular)
		assert.Equal(t, int64(1), counts.Dormant)
		assert.Equal(t, int64(0), counts.AtRisk)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("SearchNarrows", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT segment, COUNT\(\*\) FROM customers WHERE business_id = \$1 AND \(first_name ILIKE \$2 OR last_name ILIKE \$2 OR ani_hash ILIKE \$2\) GROUP BY segment`).
			WithArgs(businessID, "%ada%").
			WillReturnRows(mockPool.NewRows([]string{"segment", "count"}).AddRow("vip", int64(1)))

		counts, err := repo.SegmentCounts(context.Background(), businessID, "Ada")
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.All)
		assert.Equal(t, int64(1), counts.VIP)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
