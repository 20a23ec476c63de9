package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage"
)

// Ledger posts and reads journal entries against a storage.Store. Storage
// is the source of truth; the Ledger holds no balance state of its own.
type Ledger struct {
	store storage.Store
	log   *logrus.Entry
}

// New returns a Ledger backed by store.
func New(store storage.Store, log *logrus.Entry) *Ledger {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ledger{store: store, log: log.WithField("component", "ledger")}
}

// CreateAccount persists a new ledger account under a random id. Currency is
// immutable after creation; callers must not attempt to change it via Save.
func (l *Ledger) CreateAccount(ctx context.Context, customerID string, productType ProductType, currency money.Currency) (Account, error) {
	return l.CreateAccountWithID(ctx, uuid.NewString(), customerID, productType, currency)
}

// CreateAccountWithID persists a new ledger account under the caller-chosen
// id, failing with AlreadyExists if that id is already taken. Used by
// callers that need a deterministic, idempotent account id across restarts
// (system bookkeeping accounts, for example) instead of a fresh random one.
func (l *Ledger) CreateAccountWithID(ctx context.Context, id, customerID string, productType ProductType, currency money.Currency) (Account, error) {
	if _, err := l.GetAccount(ctx, id); err == nil {
		return Account{}, nexumerrors.AlreadyExists("account", id)
	} else if !nexumerrors.HasCode(err, nexumerrors.ErrCodeNotFound) {
		return Account{}, err
	}
	acct := Account{
		ID:          id,
		CustomerID:  customerID,
		ProductType: productType,
		Currency:    currency,
		State:       AccountActive,
		NormalSide:  NormalSideFor(productType),
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.saveAccount(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (l *Ledger) saveAccount(ctx context.Context, a Account) error {
	record := map[string]interface{}{
		"id":           a.ID,
		"customer_id":  a.CustomerID,
		"product_type": string(a.ProductType),
		"currency":     string(a.Currency),
		"state":        string(a.State),
		"normal_side":  string(a.NormalSide),
		"created_at":   a.CreatedAt,
	}
	if err := l.store.Save(ctx, storage.TableAccounts, a.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

// GetAccount loads an account by id.
func (l *Ledger) GetAccount(ctx context.Context, id string) (Account, error) {
	rec, err := l.store.Load(ctx, storage.TableAccounts, id)
	if err == storage.ErrNotFound {
		return Account{}, nexumerrors.NotFound("account", id)
	} else if err != nil {
		return Account{}, nexumerrors.StorageUnavailable(err)
	}
	return accountFromRecord(rec), nil
}

// ListAccounts returns every account with the given product type, or
// every account if productType is empty.
func (l *Ledger) ListAccounts(ctx context.Context, productType ProductType) ([]Account, error) {
	recs, err := l.store.LoadAll(ctx, storage.TableAccounts)
	if err != nil {
		return nil, nexumerrors.StorageUnavailable(err)
	}
	out := make([]Account, 0, len(recs))
	for _, rec := range recs {
		a := accountFromRecord(rec)
		if productType == "" || a.ProductType == productType {
			out = append(out, a)
		}
	}
	return out, nil
}

func accountFromRecord(rec map[string]interface{}) Account {
	a := Account{
		ID:          asString(rec["id"]),
		CustomerID:  asString(rec["customer_id"]),
		ProductType: ProductType(asString(rec["product_type"])),
		Currency:    money.Currency(asString(rec["currency"])),
		State:       AccountState(asString(rec["state"])),
		NormalSide:  NormalSide(asString(rec["normal_side"])),
	}
	if t, ok := rec["created_at"].(time.Time); ok {
		a.CreatedAt = t
	}
	return a
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// asLineSlice normalizes the "lines" field, which round-trips as
// []map[string]interface{} through the in-memory store but as
// []interface{} of map[string]interface{} through JSON-backed storage.
func asLineSlice(v interface{}) []map[string]interface{} {
	switch vv := v.(type) {
	case []map[string]interface{}:
		return vv
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(vv))
		for _, item := range vv {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// CreateJournalEntry validates that lines balance per currency and
// persists the entry unposted.
func (l *Ledger) CreateJournalEntry(ctx context.Context, reference, description string, lines []JournalEntryLine) (JournalEntry, error) {
	if len(lines) == 0 {
		return JournalEntry{}, nexumerrors.InvalidInput("lines", "journal entry must have at least one line")
	}

	var currency money.Currency
	var totalDebit, totalCredit money.Money
	for i, line := range lines {
		hasDebit := line.Debit.Amount.Sign() != 0
		hasCredit := line.Credit.Amount.Sign() != 0
		if hasDebit == hasCredit {
			return JournalEntry{}, nexumerrors.InvalidInput("lines", "each line must have exactly one non-zero side")
		}
		lineCurrency := line.Debit.Currency
		if hasCredit {
			lineCurrency = line.Credit.Currency
		}
		if i == 0 {
			currency = lineCurrency
			totalDebit = money.Zero(currency)
			totalCredit = money.Zero(currency)
		} else if lineCurrency != currency {
			return JournalEntry{}, nexumerrors.CurrencyMismatch(string(currency), string(lineCurrency))
		}
		var err error
		if hasDebit {
			totalDebit, err = totalDebit.Add(line.Debit)
		} else {
			totalCredit, err = totalCredit.Add(line.Credit)
		}
		if err != nil {
			return JournalEntry{}, err
		}
	}

	if totalDebit.IsZero() {
		return JournalEntry{}, nexumerrors.InvalidInput("lines", "journal entry amount must be non-zero")
	}
	cmp, err := totalDebit.Cmp(totalCredit)
	if err != nil {
		return JournalEntry{}, err
	}
	if cmp != 0 {
		return JournalEntry{}, nexumerrors.UnbalancedEntry(string(currency))
	}

	entry := JournalEntry{
		ID:          uuid.NewString(),
		Reference:   reference,
		Description: description,
		Lines:       lines,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.saveEntry(ctx, entry); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// PostJournalEntry marks the entry posted and makes it visible to balance
// queries. Posting an already-posted or non-existent entry fails.
func (l *Ledger) PostJournalEntry(ctx context.Context, id string) (JournalEntry, error) {
	entry, err := l.GetJournalEntry(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	if entry.IsPosted() {
		return JournalEntry{}, nexumerrors.AlreadyPosted(id)
	}
	for _, line := range entry.Lines {
		if _, err := l.GetAccount(ctx, line.AccountID); err != nil {
			return JournalEntry{}, nexumerrors.UnknownAccount(line.AccountID)
		}
	}
	now := time.Now().UTC()
	entry.PostedAt = &now
	if err := l.saveEntry(ctx, entry); err != nil {
		return JournalEntry{}, err
	}
	for i, line := range entry.Lines {
		if err := l.saveLine(ctx, entry.ID, i, line); err != nil {
			return JournalEntry{}, err
		}
	}
	l.log.WithField("entry_id", entry.ID).Debug("journal entry posted")
	return entry, nil
}

func (l *Ledger) saveEntry(ctx context.Context, e JournalEntry) error {
	lines := make([]map[string]interface{}, len(e.Lines))
	for i, line := range e.Lines {
		lines[i] = map[string]interface{}{
			"account_id":  line.AccountID,
			"description": line.Description,
			"debit":       line.Debit.Amount.String(),
			"credit":      line.Credit.Amount.String(),
			"currency":    string(line.Debit.Currency),
		}
	}
	record := map[string]interface{}{
		"id":          e.ID,
		"reference":   e.Reference,
		"description": e.Description,
		"created_at":  e.CreatedAt,
		"lines":       lines,
	}
	if e.PostedAt != nil {
		record["posted_at"] = *e.PostedAt
	}
	if err := l.store.Save(ctx, storage.TableJournalEntries, e.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func (l *Ledger) saveLine(ctx context.Context, entryID string, index int, line JournalEntryLine) error {
	id := entryID + ":" + uuid.NewString()
	record := map[string]interface{}{
		"id":          id,
		"entry_id":    entryID,
		"index":       index,
		"account_id":  line.AccountID,
		"description": line.Description,
		"debit":       line.Debit.Amount.String(),
		"credit":      line.Credit.Amount.String(),
		"currency":    string(line.Debit.Currency),
	}
	if err := l.store.Save(ctx, storage.TableJournalEntryLines, id, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

// GetJournalEntry loads an entry by id.
func (l *Ledger) GetJournalEntry(ctx context.Context, id string) (JournalEntry, error) {
	rec, err := l.store.Load(ctx, storage.TableJournalEntries, id)
	if err == storage.ErrNotFound {
		return JournalEntry{}, nexumerrors.NotFound("journal_entry", id)
	} else if err != nil {
		return JournalEntry{}, nexumerrors.StorageUnavailable(err)
	}
	return entryFromRecord(rec)
}

func entryFromRecord(rec map[string]interface{}) (JournalEntry, error) {
	e := JournalEntry{
		ID:          asString(rec["id"]),
		Reference:   asString(rec["reference"]),
		Description: asString(rec["description"]),
	}
	if t, ok := rec["created_at"].(time.Time); ok {
		e.CreatedAt = t
	}
	if t, ok := rec["posted_at"].(time.Time); ok {
		e.PostedAt = &t
	}
	rawLines := asLineSlice(rec["lines"])
	for _, rl := range rawLines {
		currency := money.Currency(asString(rl["currency"]))
		debit, err := money.Parse(asString(rl["debit"]), currency)
		if err != nil {
			return JournalEntry{}, err
		}
		credit, err := money.Parse(asString(rl["credit"]), currency)
		if err != nil {
			return JournalEntry{}, err
		}
		e.Lines = append(e.Lines, JournalEntryLine{
			AccountID:   asString(rl["account_id"]),
			Description: asString(rl["description"]),
			Debit:       debit,
			Credit:      credit,
		})
	}
	return e, nil
}

// BookBalance returns the signed sum of posted lines referencing account,
// with sign convention determined by the account's normal side.
func (l *Ledger) BookBalance(ctx context.Context, accountID string) (money.Money, error) {
	acct, err := l.GetAccount(ctx, accountID)
	if err != nil {
		return money.Money{}, err
	}
	entries, err := l.store.LoadAll(ctx, storage.TableJournalEntries)
	if err != nil {
		return money.Money{}, nexumerrors.StorageUnavailable(err)
	}
	balance := money.Zero(acct.Currency)
	for _, rec := range entries {
		entry, err := entryFromRecord(rec)
		if err != nil {
			return money.Money{}, err
		}
		if !entry.IsPosted() {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountID != accountID {
				continue
			}
			var delta money.Money
			if acct.NormalSide == NormalDebit {
				delta, err = line.Debit.Sub(line.Credit)
			} else {
				delta, err = line.Credit.Sub(line.Debit)
			}
			if err != nil {
				return money.Money{}, err
			}
			balance, err = balance.Add(delta)
			if err != nil {
				return money.Money{}, err
			}
		}
	}
	return balance, nil
}

// AvailableBalance is the book balance minus holds. This core does not yet
// model holds as a distinct entity, so it currently equals BookBalance;
// the signature is kept separate so a future hold ledger can change only
// this method.
func (l *Ledger) AvailableBalance(ctx context.Context, accountID string) (money.Money, error) {
	return l.BookBalance(ctx, accountID)
}
