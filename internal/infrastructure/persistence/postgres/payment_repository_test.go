package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application/services/testhelpers"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type PaymentRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDatabase
	repo   *postgres.PaymentRepository
	audit  *postgres.AuditRepository
}

func TestPaymentRepositorySuite(t *testing.T) {
	suite.Run(t, new(PaymentRepositoryTestSuite))
}

func (suite *PaymentRepositoryTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.repo = postgres.NewPaymentRepository(suite.testDB.DB)
	suite.audit = postgres.NewAuditRepository(suite.testDB.DB)
}

func (suite *PaymentRepositoryTestSuite) TearDownSuite() {
	if suite.testDB != nil {
		suite.testDB.Cleanup(suite.T())
	}
}

func (suite *PaymentRepositoryTestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())
}

func (suite *PaymentRepositoryTestSuite) Test_CreateAndFind() {
	ctx := context.Background()

	p, err := domain.NewPayment("ORD-1", "goal-1", domain.MustParseAmount("10.00"), "985",
		domain.Donor{Name: "Ada", Email: "ada@example.com", Message: "good luck"}, time.Now().UTC().Truncate(time.Microsecond))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Create(ctx, p))

	got, err := suite.repo.FindByOrderID(ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(p.OrderID, got.OrderID)
	suite.Equal(int64(1000), got.AmountCents)
	suite.Equal(domain.StatusPending, got.Status)
	suite.Equal("ada@example.com", got.DonorEmail)
	suite.True(p.CreatedAt.Equal(got.CreatedAt))
	suite.Nil(got.TerminalAt)

	err = suite.repo.Create(ctx, p)
	suite.ErrorIs(err, domain.ErrDuplicateOrder)

	_, err = suite.repo.FindByOrderID(ctx, "ORD-999")
	suite.ErrorIs(err, domain.ErrPaymentNotFound)
}

func (suite *PaymentRepositoryTestSuite) Test_ApplyTerminal_Success() {
	ctx := context.Background()
	testhelpers.CreatePendingPayment(suite.T(), suite.repo, "ORD-1", "10.00")

	at := time.Now().UTC().Truncate(time.Microsecond)
	p, err := suite.repo.ApplyTerminal(ctx, "ORD-1", domain.Outcome{
		Status:         domain.StatusCompleted,
		TransactionRef: "84512",
		ApprovalCode:   "Y:123456",
		VendorStatus:   "APPROVED",
		At:             at,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, p.Status)

	stored, err := suite.repo.FindByOrderID(ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, stored.Status)
	suite.Require().NotNil(stored.TransactionRef)
	suite.Equal("84512", *stored.TransactionRef)
	suite.Require().NotNil(stored.TerminalAt)
	suite.True(at.Equal(*stored.TerminalAt))

	seen, err := suite.repo.LedgerContains(ctx, "ORD-1", "84512")
	suite.Require().NoError(err)
	suite.True(seen)
}

func (suite *PaymentRepositoryTestSuite) Test_ApplyTerminal_Duplicate() {
	ctx := context.Background()
	testhelpers.CreatePendingPayment(suite.T(), suite.repo, "ORD-1", "10.00")

	outcome := domain.Outcome{Status: domain.StatusCompleted, TransactionRef: "84512", At: time.Now()}
	_, err := suite.repo.ApplyTerminal(ctx, "ORD-1", outcome)
	suite.Require().NoError(err)

	_, err = suite.repo.ApplyTerminal(ctx, "ORD-1", outcome)
	suite.ErrorIs(err, domain.ErrAlreadyReconciled)
}

func (suite *PaymentRepositoryTestSuite) Test_ApplyTerminal_AlreadyTerminalRollsBackLedger() {
	ctx := context.Background()
	testhelpers.CreatePendingPayment(suite.T(), suite.repo, "ORD-1", "10.00")

	_, err := suite.repo.ApplyTerminal(ctx, "ORD-1", domain.Outcome{Status: domain.StatusFailed, TransactionRef: "a", At: time.Now()})
	suite.Require().NoError(err)

	_, err = suite.repo.ApplyTerminal(ctx, "ORD-1", domain.Outcome{Status: domain.StatusCompleted, TransactionRef: "b", At: time.Now()})
	suite.ErrorIs(err, domain.ErrAlreadyTerminal)

	seen, err := suite.repo.LedgerContains(ctx, "ORD-1", "b")
	suite.Require().NoError(err)
	suite.False(seen)

	stored, err := suite.repo.FindByOrderID(ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusFailed, stored.Status)
}

func (suite *PaymentRepositoryTestSuite) Test_ApplyTerminal_UnknownOrder() {
	_, err := suite.repo.ApplyTerminal(context.Background(), "ORD-999",
		domain.Outcome{Status: domain.StatusCompleted, At: time.Now()})
	suite.ErrorIs(err, domain.ErrPaymentNotFound)
}

func (suite *PaymentRepositoryTestSuite) Test_ApplyTerminal_ConcurrentOutcomesKeepOne() {
	ctx := context.Background()
	testhelpers.CreatePendingPayment(suite.T(), suite.repo, "ORD-1", "10.00")

	statuses := []domain.PaymentStatus{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled}
	const workers = 12

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []domain.PaymentStatus
	)
	start := make(chan struct{})

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			status := statuses[i%len(statuses)]
			_, err := suite.repo.ApplyTerminal(ctx, "ORD-1", domain.Outcome{
				Status:         status,
				TransactionRef: fmt.Sprintf("ref-%d", i),
				At:             time.Now(),
			})
			if err == nil {
				mu.Lock()
				winners = append(winners, status)
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	suite.Require().Len(winners, 1)

	stored, err := suite.repo.FindByOrderID(ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(winners[0], stored.Status)

	var ledgerRows int
	err = suite.testDB.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_ledger WHERE order_id = 'ORD-1'`).Scan(&ledgerRows)
	suite.Require().NoError(err)
	suite.Equal(1, ledgerRows)
}

func (suite *PaymentRepositoryTestSuite) Test_StatsAndStale() {
	ctx := context.Background()
	t := suite.T()

	testhelpers.CreatePendingPayment(t, suite.repo, "ORD-1", "10.00")
	testhelpers.CreatePendingPayment(t, suite.repo, "ORD-2", "15.50")
	testhelpers.CreatePendingPayment(t, suite.repo, "ORD-3", "5.00")

	_, err := suite.repo.ApplyTerminal(ctx, "ORD-1", domain.Outcome{Status: domain.StatusCompleted, At: time.Now()})
	suite.Require().NoError(err)
	_, err = suite.repo.ApplyTerminal(ctx, "ORD-2", domain.Outcome{Status: domain.StatusCompleted, At: time.Now()})
	suite.Require().NoError(err)

	stats, err := suite.repo.Stats(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(2), stats.Counts[domain.StatusCompleted])
	suite.Equal(int64(1), stats.Counts[domain.StatusPending])
	suite.Equal(int64(2550), stats.CompletedTotalCents)

	stale, err := suite.repo.FindStalePending(ctx, time.Now().Add(time.Minute), 10)
	suite.Require().NoError(err)
	suite.Require().Len(stale, 1)
	suite.Equal("ORD-3", stale[0].OrderID)

	stale, err = suite.repo.FindStalePending(ctx, time.Now().Add(-time.Hour), 10)
	suite.Require().NoError(err)
	suite.Empty(stale)
}

func (suite *PaymentRepositoryTestSuite) Test_AuditTrail() {
	ctx := context.Background()

	rec := domain.AuditRecord{
		ID:         uuid.NewString(),
		OrderID:    "ORD-1",
		Outcome:    "INVALID_SIGNATURE",
		SourceIP:   "203.0.113.10",
		Fields:     domain.Fields{"oid": "ORD-1", "status": "APPROVED"},
		ReceivedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	suite.Require().NoError(suite.audit.Record(ctx, rec))

	recs, err := suite.audit.ListByOrderID(ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Require().Len(recs, 1)
	suite.Equal(rec.ID, recs[0].ID)
	suite.Equal("INVALID_SIGNATURE", recs[0].Outcome)
	suite.Equal(rec.Fields, recs[0].Fields)
}

func (suite *PaymentRepositoryTestSuite) Test_MigrateIsIdempotent() {
	suite.NoError(postgres.Migrate(context.Background(), suite.testDB.DB))
}
