// Package scheduler drives the core's two periodic sweeps: interest
// accrual across savings/loan accounts, and audit hash-chain
// verification. Both run on cron schedules rather than a fixed ticker so
// operators can phase them against off-peak windows.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nexum-core/nexum/domain/audit"
	"github.com/nexum-core/nexum/domain/ledger"
	"github.com/nexum-core/nexum/domain/transaction"
	"github.com/nexum-core/nexum/pkg/money"
)

// Rates holds the daily nominal interest rates applied by the accrual
// sweep. SavingsCredit is paid to the customer; LoanDebit is charged to
// the customer — resolving an Open Question spec.md leaves open (it
// never names a concrete rate or schedule).
type Rates struct {
	SavingsCredit decimal.Decimal
	LoanDebit     decimal.Decimal
}

// DefaultRates matches original_source's flat placeholder rates
// (0.01%/day savings credit, 0.05%/day loan debit) absent any
// rate-card concept in the distillation.
func DefaultRates() Rates {
	return Rates{
		SavingsCredit: decimal.RequireFromString("0.0001"),
		LoanDebit:     decimal.RequireFromString("0.0005"),
	}
}

// Scheduler wraps a robfig/cron runner around the interest-accrual and
// chain-verification sweeps.
type Scheduler struct {
	cron      *cron.Cron
	ledger    *ledger.Ledger
	processor *transaction.Processor
	trail     *audit.Trail
	rates     Rates
	log       *logrus.Entry
}

// New constructs a Scheduler. The sweeps' schedules are given later to
// Start as standard five-field cron expressions.
func New(l *ledger.Ledger, processor *transaction.Processor, trail *audit.Trail, rates Rates, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{
		cron:      cron.New(),
		ledger:    l,
		processor: processor,
		trail:     trail,
		rates:     rates,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start registers both sweeps and starts the underlying cron runner.
func (s *Scheduler) Start(interestSpec, chainVerifySpec string) error {
	if _, err := s.cron.AddFunc(interestSpec, s.runInterestAccrual); err != nil {
		return fmt.Errorf("schedule interest accrual: %w", err)
	}
	if _, err := s.cron.AddFunc(chainVerifySpec, s.runChainVerify); err != nil {
		return fmt.Errorf("schedule chain verify: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runInterestAccrual() {
	ctx := context.Background()
	s.accrueProduct(ctx, ledger.ProductSavings, transaction.TypeInterestCredit, s.rates.SavingsCredit)
	s.accrueProduct(ctx, ledger.ProductLoan, transaction.TypeInterestDebit, s.rates.LoanDebit)
}

func (s *Scheduler) accrueProduct(ctx context.Context, product ledger.ProductType, txnType transaction.Type, rate decimal.Decimal) {
	accounts, err := s.ledger.ListAccounts(ctx, product)
	if err != nil {
		s.log.WithError(err).Error("list accounts for interest accrual")
		return
	}
	for _, acct := range accounts {
		bal, err := s.ledger.BookBalance(ctx, acct.ID)
		if err != nil {
			s.log.WithError(err).WithField("account_id", acct.ID).Warn("skip account, cannot read balance")
			continue
		}
		if !bal.IsPositive() {
			continue
		}
		interest := bal.Amount.Mul(rate).Round(2)
		if interest.IsZero() {
			continue
		}
		amount := money.New(interest, bal.Currency)

		in := transaction.CreateInput{
			Type:        txnType,
			Amount:      amount,
			Description: "scheduled interest accrual",
			Channel:     transaction.ChannelSystem,
		}
		if txnType == transaction.TypeInterestCredit {
			in.ToAccountID = acct.ID
		} else {
			in.FromAccountID = acct.ID
		}

		txn, err := s.processor.CreateTransaction(ctx, in)
		if err != nil {
			s.log.WithError(err).WithField("account_id", acct.ID).Error("create interest transaction")
			continue
		}
		if _, err := s.processor.ProcessTransaction(ctx, txn.ID); err != nil {
			s.log.WithError(err).WithField("account_id", acct.ID).Error("process interest transaction")
		}
	}
}

func (s *Scheduler) runChainVerify() {
	ok, err := s.trail.VerifyChain(context.Background())
	if err != nil {
		s.log.WithError(err).Error("audit chain verification failed to run")
		return
	}
	if !ok {
		s.log.Error("audit chain verification detected a broken hash chain")
		return
	}
	s.log.Debug("audit chain verification passed")
}
