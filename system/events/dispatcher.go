// Package events implements the in-process domain-event dispatcher:
// thread-safe pub/sub keyed by event kind, with catch-all handlers and
// per-handler failure isolation. Adapted from the teacher's contract
// event dispatcher (system/events/dispatcher.go), which routed blockchain
// notifications to registered handlers behind a worker-pool queue — the
// same shape, generalized from ContractEvent/EventName/contract-hash
// filtering to banking DomainEvent/Kind filtering, per spec §6's
// in-process domain event kinds list.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexum-core/nexum/pkg/logger"
	"github.com/nexum-core/nexum/pkg/metrics"
)

// Kind is a closed label for an in-process domain event.
type Kind string

const (
	KindTransactionCreated  Kind = "TRANSACTION_CREATED"
	KindTransactionPosted   Kind = "TRANSACTION_POSTED"
	KindTransactionFailed   Kind = "TRANSACTION_FAILED"
	KindTransactionReversed Kind = "TRANSACTION_REVERSED"
	KindAccountCreated      Kind = "ACCOUNT_CREATED"
	KindAccountUpdated      Kind = "ACCOUNT_UPDATED"
	KindAccountClosed       Kind = "ACCOUNT_CLOSED"
	KindCustomerCreated     Kind = "CUSTOMER_CREATED"
	KindCustomerUpdated     Kind = "CUSTOMER_UPDATED"
	KindCustomerKYCChanged  Kind = "CUSTOMER_KYC_CHANGED"
	KindLoanOriginated      Kind = "LOAN_ORIGINATED"
	KindLoanDisbursed       Kind = "LOAN_DISBURSED"
	KindLoanPayment         Kind = "LOAN_PAYMENT"
	KindLoanPaidOff         Kind = "LOAN_PAID_OFF"
	KindLoanDefaulted       Kind = "LOAN_DEFAULTED"
	KindCreditStatement     Kind = "CREDIT_STATEMENT"
	KindCreditPayment       Kind = "CREDIT_PAYMENT"
	KindCollectionCreated   Kind = "COLLECTION_CASE_CREATED"
	KindCollectionEscalated Kind = "COLLECTION_CASE_ESCALATED"
	KindCollectionResolved  Kind = "COLLECTION_CASE_RESOLVED"
	KindComplianceAlert     Kind = "COMPLIANCE_ALERT"
	KindComplianceSuspicious Kind = "COMPLIANCE_SUSPICIOUS"
	KindWorkflowStepDone    Kind = "WORKFLOW_STEP_COMPLETED"
	KindWorkflowCompleted   Kind = "WORKFLOW_COMPLETED"
	KindWorkflowRejected    Kind = "WORKFLOW_REJECTED"
)

// DomainEvent is one in-process occurrence dispatched to registered
// handlers. EntityID keys external re-publication ordering (see
// system/bridge), so it is always set.
type DomainEvent struct {
	Kind       Kind
	EntityType string
	EntityID   string
	Data       map[string]interface{}
	Metadata   map[string]interface{}
	Timestamp  time.Time
}

// Handler processes a DomainEvent. An error is logged, never propagated —
// event delivery must never block or fail the business operation that
// raised it, per spec §7's propagation rule for handler exceptions.
type Handler interface {
	Handle(ctx context.Context, event DomainEvent) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event DomainEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event DomainEvent) error { return f(ctx, event) }

type registration struct {
	id      string
	handler Handler
	kinds   map[Kind]struct{} // nil/empty means "every kind"
}

func (r *registration) matches(k Kind) bool {
	if len(r.kinds) == 0 {
		return true
	}
	_, ok := r.kinds[k]
	return ok
}

// Dispatcher routes DomainEvents to registered handlers, synchronously
// within Publish. A single mutex protects the handler registry; Publish
// itself runs each matching handler in the caller's goroutine so a
// single publisher's events are delivered in order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]*registration
	log      *logger.Logger

	published int64
	failed    int64
}

// New constructs a Dispatcher.
func New(log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("events")
	}
	return &Dispatcher{handlers: make(map[string]*registration), log: log}
}

// Subscribe registers handler under id for the given kinds. An empty
// kinds list subscribes to every kind (a catch-all handler).
func (d *Dispatcher) Subscribe(id string, handler Handler, kinds ...Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	d.handlers[id] = &registration{id: id, handler: handler, kinds: set}
	metrics.SetDispatcherSubscriptions(len(d.handlers))
	d.log.WithField("handler_id", id).WithField("kinds", kinds).Info("event handler registered")
}

// Unsubscribe removes a handler.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, id)
	metrics.SetDispatcherSubscriptions(len(d.handlers))
}

// Publish delivers event to every matching handler synchronously,
// isolating each handler's failure from its siblings and from the
// caller: a handler error is logged and counted, never returned.
func (d *Dispatcher) Publish(ctx context.Context, event DomainEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	matching := make([]*registration, 0, len(d.handlers))
	for _, reg := range d.handlers {
		if reg.matches(event.Kind) {
			matching = append(matching, reg)
		}
	}
	d.mu.RUnlock()

	d.mu.Lock()
	d.published++
	d.mu.Unlock()

	for _, reg := range matching {
		if err := safeHandle(ctx, reg.handler, event); err != nil {
			d.mu.Lock()
			d.failed++
			d.mu.Unlock()
			d.log.WithField("handler_id", reg.id).WithField("kind", string(event.Kind)).
				WithField("entity_id", event.EntityID).WithError(err).Error("event handler failed")
		}
	}
}

func safeHandle(ctx context.Context, h Handler, event DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}

// Stats reports dispatcher counters.
type Stats struct {
	HandlersCount int
	Published     int64
	Failed        int64
}

func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{HandlersCount: len(d.handlers), Published: d.published, Failed: d.failed}
}
