// Package bridge implements the Event Bridge: it subscribes to the
// in-process dispatcher for a configured subset of domain events and
// re-publishes each as an external envelope on a named topic, and
// conversely consumes external decision/alert topics and translates them
// into storage updates and compliance alerts. Grounded on
// original_source/core_banking/fraud_events.py's FraudEventBridge, with
// one deliberate naming correction: that file publishes to the short
// topics "nexum.transactions"/"nexum.customers", but spec.md's own
// External Interfaces section names the dotted, verb-past-tense topics
// `nexum.transactions.posted` and `nexum.customers.kyc_changed` as the
// wire contract — this core follows spec.md's literal names since that
// is the authoritative contract, not the original's shorthand.
package bridge

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexum-core/nexum/domain/compliance"
	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/storage"
	"github.com/nexum-core/nexum/system/bus"
	"github.com/nexum-core/nexum/system/events"
)

const (
	TopicTransactionsPosted = "nexum.transactions.posted"
	TopicCustomersKYCChanged = "nexum.customers.kyc_changed"
	TopicFraudDecisions     = "bastion.fraud.decisions"
	TopicFraudAlerts        = "bastion.fraud.alerts"

	schemaVersion = "1"
	eventSource   = "nexum"
)

// Bridge wires the in-process Dispatcher to an external Bus in both
// directions.
type Bridge struct {
	dispatcher *events.Dispatcher
	bus        *bus.Bus
	store      storage.Store
	gate       compliance.Gate
	log        *logrus.Entry
}

// New constructs a Bridge. gate may be nil if compliance alert creation
// from external fraud events is not wanted (e.g. in tests).
func New(dispatcher *events.Dispatcher, b *bus.Bus, store storage.Store, gate compliance.Gate, log *logrus.Entry) *Bridge {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bridge{dispatcher: dispatcher, bus: b, store: store, gate: gate, log: log.WithField("component", "bridge")}
}

// Start subscribes to the outbound domain events and the inbound
// external topics. It does not block.
func (br *Bridge) Start(ctx context.Context) error {
	br.dispatcher.Subscribe("bridge-transaction-posted", events.HandlerFunc(br.onTransactionPosted), events.KindTransactionPosted)
	br.dispatcher.Subscribe("bridge-customer-kyc-changed", events.HandlerFunc(br.onCustomerKYCChanged), events.KindCustomerKYCChanged)

	if err := br.bus.Consume(ctx, TopicFraudDecisions, br.onFraudDecision); err != nil {
		return nexumerrors.ExternalUnavailable("broker", err)
	}
	if err := br.bus.Consume(ctx, TopicFraudAlerts, br.onFraudAlert); err != nil {
		return nexumerrors.ExternalUnavailable("broker", err)
	}
	br.log.Info("event bridge started")
	return nil
}

func (br *Bridge) onTransactionPosted(_ context.Context, event events.DomainEvent) error {
	env := bus.Envelope{
		EventID:       uuid.NewString(),
		EventType:     "transaction.processed",
		Timestamp:     event.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
		Source:        eventSource,
		SchemaVersion: schemaVersion,
		EntityType:    "transaction",
		EntityID:      event.EntityID,
		Data:          event.Data,
		Metadata:      event.Metadata,
	}
	return br.bus.Publish(TopicTransactionsPosted, event.EntityID, env)
}

func (br *Bridge) onCustomerKYCChanged(_ context.Context, event events.DomainEvent) error {
	env := bus.Envelope{
		EventID:       uuid.NewString(),
		EventType:     "customer.kyc_changed",
		Timestamp:     event.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
		Source:        eventSource,
		SchemaVersion: schemaVersion,
		EntityType:    "customer",
		EntityID:      event.EntityID,
		Data:          event.Data,
		Metadata:      event.Metadata,
	}
	return br.bus.Publish(TopicCustomersKYCChanged, event.EntityID, env)
}

// onFraudDecision handles an envelope from bastion.fraud.decisions:
// updates the transaction's fraud metadata in storage and, for REVIEW or
// BLOCK decisions, raises a compliance alert.
func (br *Bridge) onFraudDecision(ctx context.Context, env bus.Envelope) error {
	transactionID, _ := env.Data["transaction_id"].(string)
	if transactionID == "" {
		br.log.Warn("fraud decision missing transaction_id")
		return nil
	}
	decision, _ := env.Data["decision"].(string)
	riskLevel, _ := env.Data["risk_level"].(string)
	score := env.Data["score"]
	reasons := env.Data["reasons"]

	rec, err := br.store.Load(ctx, storage.TableTransactions, transactionID)
	if err == nil {
		metadata, _ := rec["metadata"].(map[string]interface{})
		if metadata == nil {
			metadata = make(map[string]interface{})
		}
		metadata["fraud_score"] = score
		metadata["fraud_decision"] = decision
		metadata["fraud_risk_level"] = riskLevel
		metadata["fraud_reasons"] = reasons
		rec["metadata"] = metadata
		if err := br.store.Save(ctx, storage.TableTransactions, transactionID, rec); err != nil {
			br.log.WithError(err).Error("failed to update transaction fraud metadata")
		}
	}

	if (decision == "REVIEW" || decision == "BLOCK") && br.gate != nil {
		severity := "MEDIUM"
		if decision == "BLOCK" {
			severity = "HIGH"
		}
		if _, err := br.gate.CreateAlert(ctx, "", transactionID, "fraud detection: "+decision, severity); err != nil {
			br.log.WithError(err).Error("failed to create compliance alert for fraud decision")
		}
	}
	return nil
}

// onFraudAlert handles an envelope from bastion.fraud.alerts: always
// raises a compliance alert, since a standalone fraud-pattern alert
// carries no transaction-level decision to act on otherwise.
func (br *Bridge) onFraudAlert(ctx context.Context, env bus.Envelope) error {
	if br.gate == nil {
		return nil
	}
	customerID, _ := env.Data["customer_id"].(string)
	alertType, _ := env.Data["alert_type"].(string)
	severity, _ := env.Data["severity"].(string)
	description, _ := env.Data["description"].(string)
	if severity == "" {
		severity = "MEDIUM"
	}
	_, err := br.gate.CreateAlert(ctx, customerID, "", "fraud pattern detected: "+alertType+" - "+description, severity)
	return err
}
