// internal/ledger/implementation.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// service implements the Service interface.
type service struct {
	store  Store
	policy ApprovalPolicy
	logger zerolog.Logger
}

// NewService creates a new ledger service instance. A nil policy falls back
// to DefaultApprovalPolicy.
func NewService(store Store, policy ApprovalPolicy, logger zerolog.Logger) Service {
	if policy == nil {
		policy = DefaultApprovalPolicy
	}
	return &service{
		store:  store,
		policy: policy,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// Prepare builds a fully stamped ledger entry for a pending mutation.
func (s *service) Prepare(partID uuid.UUID, typ TransactionType, quantity int, opts CreateOptions) (*Transaction, error) {
	if partID == uuid.Nil {
		return nil, fmt.Errorf("%w: part id is required", ErrInvalidTransaction)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidTransaction, typ)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTransaction, quantity)
	}

	now := time.Now().UTC()
	t := &Transaction{
		ID:              uuid.New(),
		PartID:          partID,
		Type:            typ,
		Quantity:        quantity,
		UnitCost:        opts.UnitCost,
		Reason:          opts.Reason,
		Vendor:          opts.Vendor,
		ReferenceNumber: opts.ReferenceNumber,
		Notes:           opts.Notes,
		ProjectID:       opts.ProjectID,
		TaskID:          opts.TaskID,
		PerformedBy:     opts.PerformedBy,
		TransactionDate: now,
		CreatedAt:       now,
	}
	if opts.UnitCost.Valid {
		t.TotalCost = decimal.NewNullDecimal(opts.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
	}
	t.IsApproved = !s.policy(t)
	return t, nil
}

func (s *service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Approve marks a single transaction as approved. Approval is one-way.
func (s *service) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*Transaction, error) {
	if approvedBy == "" {
		return nil, fmt.Errorf("%w: approver is required", ErrInvalidTransaction)
	}
	if err := s.store.MarkApproved(ctx, id, approvedBy, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("approve transaction %s: %w", id, err)
	}
	s.logger.Info().Stringer("transaction_id", id).Str("approved_by", approvedBy).Msg("transaction approved")
	return s.store.GetTransaction(ctx, id)
}

// BulkApprove approves each id independently. A failure on one id does not
// abort the rest; the result carries both the approved set and the failures.
func (s *service) BulkApprove(ctx context.Context, ids []uuid.UUID, approvedBy string) (*BulkApproveResult, error) {
	if approvedBy == "" {
		return nil, fmt.Errorf("%w: approver is required", ErrInvalidTransaction)
	}
	result := &BulkApproveResult{}
	now := time.Now().UTC()
	for _, id := range ids {
		if err := s.store.MarkApproved(ctx, id, approvedBy, now); err != nil {
			result.Failures = append(result.Failures, BulkApproveFailure{
				TransactionID: id,
				Reason:        err.Error(),
			})
			continue
		}
		result.Approved = append(result.Approved, id)
	}
	s.logger.Info().
		Int("requested", len(ids)).
		Int("approved", len(result.Approved)).
		Int("failed", len(result.Failures)).
		Msg("bulk approval finished")
	return result, nil
}

func (s *service) UnapprovedTransactions(ctx context.Context) ([]*Transaction, error) {
	return s.list(ctx, Filter{OnlyUnapproved: true})
}

func (s *service) CountUnapproved(ctx context.Context) (int64, error) {
	return s.store.CountUnapproved(ctx)
}

func (s *service) TransactionsByPart(ctx context.Context, partID uuid.UUID) ([]*Transaction, error) {
	return s.list(ctx, Filter{PartID: uuid.NullUUID{UUID: partID, Valid: true}})
}

func (s *service) TransactionsByPartInRange(ctx context.Context, partID uuid.UUID, from, to time.Time) ([]*Transaction, error) {
	return s.list(ctx, Filter{
		PartID: uuid.NullUUID{UUID: partID, Valid: true},
		From:   &from,
		To:     &to,
	})
}

func (s *service) TransactionsInRange(ctx context.Context, from, to time.Time) ([]*Transaction, error) {
	return s.list(ctx, Filter{From: &from, To: &to})
}

func (s *service) TransactionsByType(ctx context.Context, typ TransactionType) ([]*Transaction, error) {
	return s.list(ctx, Filter{Type: typ})
}

func (s *service) TransactionsByProject(ctx context.Context, projectID uuid.UUID) ([]*Transaction, error) {
	return s.list(ctx, Filter{ProjectID: uuid.NullUUID{UUID: projectID, Valid: true}})
}

func (s *service) TransactionsByTask(ctx context.Context, taskID uuid.UUID) ([]*Transaction, error) {
	return s.list(ctx, Filter{TaskID: uuid.NullUUID{UUID: taskID, Valid: true}})
}

func (s *service) TransactionsByPerformer(ctx context.Context, memberID uuid.UUID) ([]*Transaction, error) {
	return s.list(ctx, Filter{PerformedBy: uuid.NullUUID{UUID: memberID, Valid: true}})
}

func (s *service) HighValueTransactions(ctx context.Context, threshold decimal.Decimal) ([]*Transaction, error) {
	return s.list(ctx, Filter{MinTotalCost: decimal.NewNullDecimal(threshold)})
}

func (s *service) TransactionsByVendor(ctx context.Context, vendor string) ([]*Transaction, error) {
	return s.list(ctx, Filter{Vendor: vendor})
}

func (s *service) TransactionsByReference(ctx context.Context, reference string) ([]*Transaction, error) {
	return s.list(ctx, Filter{ReferenceNumber: reference})
}

func (s *service) SearchByReason(ctx context.Context, term string) ([]*Transaction, error) {
	return s.list(ctx, Filter{ReasonContains: term})
}

func (s *service) RecentTransactions(ctx context.Context, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, Filter{Limit: limit})
}

// TotalSpending sums the known cost of incoming movements in the range.
func (s *service) TotalSpending(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	transactions, err := s.store.ListTransactions(ctx, Filter{From: &from, To: &to})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions for spending: %w", err)
	}
	total := decimal.Zero
	for _, t := range transactions {
		if t.Type.Incoming() && t.TotalCost.Valid {
			total = total.Add(t.TotalCost.Decimal)
		}
	}
	return total, nil
}

// list is the shared query helper. Dashboard-style consumers expect empty
// results rather than errors when the store is unhealthy.
func (s *service) list(ctx context.Context, f Filter) ([]*Transaction, error) {
	transactions, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("ledger query failed")
		return []*Transaction{}, nil
	}
	return transactions, nil
}
