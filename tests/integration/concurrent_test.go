package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/adapter/repository/postgres"
	"github.com/iho/bankcore/internal/usecase"
	"github.com/iho/bankcore/tests/testutil"
)

func newTestEngine(pool *testutil.TestDB) (*usecase.TransferEngine, *postgres.AccountStore, *postgres.TransferLog) {
	accountStore := postgres.NewAccountStore(pool.Pool)
	transferLog := postgres.NewTransferLog(pool.Pool)
	idGen := postgres.NewULIDGenerator()

	engine := usecase.NewTransferEngine(accountStore, transferLog, idGen, zerolog.Nop(), nil, usecase.EngineConfig{
		MaxAttempts: 50,
		RetryDelay:  time.Millisecond,
	})

	return engine, accountStore, transferLog
}

func TestConcurrentTransfers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	engine, accountStore, _ := newTestEngine(testDB)

	t.Run("100 concurrent transfers from same account no overdraft", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestAccount(ctx, "source", decimal.NewFromInt(1000))
		dest := testDB.CreateTestAccount(ctx, "dest", decimal.Zero)

		numTransfers := 100
		transferAmount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numTransfers)

		for range numTransfers {
			go func() {
				defer wg.Done()

				_, err := engine.Transfer(ctx, source.ID, dest.ID, transferAmount)
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		// All 100 should succeed (1000 / 10 = 100)
		if successCount.Load() != int32(numTransfers) {
			t.Errorf("expected %d successful transfers, got %d (errors: %d)", numTransfers, successCount.Load(), errorCount.Load())
		}

		sourceAcc, _ := accountStore.Get(ctx, source.ID)
		destAcc, _ := accountStore.Get(ctx, dest.ID)

		if !sourceAcc.Balance.Equal(decimal.Zero) {
			t.Errorf("expected source balance 0, got %s", sourceAcc.Balance)
		}

		if !destAcc.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected dest balance 1000, got %s", destAcc.Balance)
		}
	})

	t.Run("concurrent transfers reject overdraft", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := testDB.CreateTestAccount(ctx, "source", decimal.NewFromInt(100))
		dest := testDB.CreateTestAccount(ctx, "dest", decimal.Zero)

		numTransfers := 20
		transferAmount := decimal.NewFromInt(10) // 20 * 10 = 200 > 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numTransfers)

		for range numTransfers {
			go func() {
				defer wg.Done()

				if _, err := engine.Transfer(ctx, source.ID, dest.ID, transferAmount); err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		// Exactly 10 can succeed before the balance runs out.
		if successCount.Load() != 10 {
			t.Errorf("expected 10 successful transfers, got %d", successCount.Load())
		}

		sourceAcc, _ := accountStore.Get(ctx, source.ID)
		destAcc, _ := accountStore.Get(ctx, dest.ID)

		if sourceAcc.Balance.IsNegative() {
			t.Errorf("source balance went negative: %s", sourceAcc.Balance)
		}

		total := sourceAcc.Balance.Add(destAcc.Balance)
		if !total.Equal(decimal.NewFromInt(100)) {
			t.Errorf("total balance not conserved: %s", total)
		}
	})

	t.Run("opposing transfers between two accounts conserve funds", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		a := testDB.CreateTestAccount(ctx, "acc-a", decimal.NewFromInt(500))
		b := testDB.CreateTestAccount(ctx, "acc-b", decimal.NewFromInt(500))

		var wg sync.WaitGroup
		wg.Add(40)

		for i := range 40 {
			go func(i int) {
				defer wg.Done()

				if i%2 == 0 {
					_, _ = engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(5))
				} else {
					_, _ = engine.Transfer(ctx, b.ID, a.ID, decimal.NewFromInt(5))
				}
			}(i)
		}

		wg.Wait()

		accA, _ := accountStore.Get(ctx, a.ID)
		accB, _ := accountStore.Get(ctx, b.ID)

		total := accA.Balance.Add(accB.Balance)
		if !total.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("total balance not conserved: %s", total)
		}
	})
}

func TestConservationCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	testDB.TruncateAll(ctx)

	engine, _, _ := newTestEngine(testDB)
	ledgerUC := usecase.NewLedgerUseCase(postgres.NewLedgerRepository(testDB.Pool))

	a := testDB.CreateTestAccount(ctx, "acc-a", decimal.NewFromInt(100))
	b := testDB.CreateTestAccount(ctx, "acc-b", decimal.NewFromInt(50))

	if _, err := engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(30)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if _, err := engine.Deposit(ctx, b.ID, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	if _, err := engine.Withdraw(ctx, a.ID, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	report, err := ledgerUC.CheckConservation(ctx)
	if err != nil {
		t.Fatalf("conservation check failed: %v", err)
	}

	if !report.Conserved {
		t.Errorf("ledger should be conserved: %+v", report)
	}

	if !report.TotalBalance.Equal(decimal.NewFromInt(340)) {
		t.Errorf("expected total balance 340, got %s", report.TotalBalance)
	}
}
