package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"api_pos/internal/apperr"
	"api_pos/internal/events"
)

var (
	ErrNoLines         = errors.New("la venta no tiene productos")
	ErrInvalidQuantity = errors.New("la cantidad debe ser mayor a cero")
	ErrInvalidPrice    = errors.New("el precio no puede ser negativo")
	ErrInvalidProduct  = errors.New("producto inválido")
)

// Invalidator drops cached reads that depend on stock or sale lines.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service provides sale registration and queries on a Storage backend.
type Service struct {
	storage     Storage
	invalidator Invalidator
	publisher   events.Publisher
	taxRate     float64
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new Service. invalidator and publisher may be nil.
func NewService(storage Storage, invalidator Invalidator, publisher events.Publisher, taxRate float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}

	return &Service{
		storage:     storage,
		invalidator: invalidator,
		publisher:   publisher,
		taxRate:     taxRate,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) TaxRate() float64 {
	return s.taxRate
}

// Totals computes the amounts of a set of lines with the configured rate.
func (s *Service) Totals(lines []Line) Totals {
	return ComputeTotals(lines, s.taxRate)
}

// LineAmounts computes the amounts of a single line with the configured rate.
func (s *Service) LineAmounts(unitPrice float64, qty int) Totals {
	return ComputeLineAmounts(unitPrice, qty, s.taxRate)
}

// Register validates the sale, computes its total and stores it. Either the
// whole sale is stored, stock included, or nothing is.
func (s *Service) Register(ctx context.Context, sale *Sale) (*Sale, error) {
	if err := validateLines(sale.Lines); err != nil {
		s.logger.Warn("rejected sale", zap.Int("lines", len(sale.Lines)), zap.Error(err))
		return nil, err
	}

	sale.Date = s.now().UTC()
	sale.Total = ComputeTotals(sale.Lines, s.taxRate).Total

	if err := s.storage.Save(ctx, sale); err != nil {
		if apperr.KindOf(err) == apperr.KindPersistence {
			s.logger.Error("failed to save sale", zap.Int("lines", len(sale.Lines)), zap.Error(err))
		}
		return nil, fmt.Errorf("registrar venta: %w", err)
	}

	s.changed(ctx, events.SaleRecorded, sale.ID, sale.Total)
	s.logger.Info("sale created", zap.Int64("sale_id", sale.ID), zap.Float64("total", sale.Total))
	return sale, nil
}

func (s *Service) List(ctx context.Context) ([]*Sale, error) {
	return s.storage.FindAll(ctx)
}

// ListByDay returns the sales of the calendar day (UTC) containing day.
func (s *Service) ListByDay(ctx context.Context, day time.Time) ([]*Sale, error) {
	return s.storage.FindByDay(ctx, day)
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.storage.FindByID(ctx, id)
}

// Delete removes a sale and returns its units to stock.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		if apperr.KindOf(err) == apperr.KindPersistence {
			s.logger.Error("failed to delete sale", zap.Int64("sale_id", id), zap.Error(err))
		}
		return fmt.Errorf("eliminar venta %d: %w", id, err)
	}

	s.changed(ctx, events.SaleDeleted, id, 0)
	s.logger.Info("sale deleted", zap.Int64("sale_id", id))
	return nil
}

// Receipt renders the receipt of a stored sale.
func (s *Service) Receipt(ctx context.Context, id int64) (*Receipt, error) {
	sale, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf, err := RenderReceipt(sale)
	if err != nil {
		s.logger.Error("failed to render receipt", zap.Int64("sale_id", id), zap.Error(err))
		return nil, err
	}

	number := ReceiptNumber(sale.ID)
	if sale.ReceiptNumber != nil {
		number = *sale.ReceiptNumber
	}
	return &Receipt{SaleID: sale.ID, Number: number, Total: sale.Total, PDF: pdf}, nil
}

// changed runs after a committed write. Failures here never undo the write.
func (s *Service) changed(ctx context.Context, eventType string, id int64, total float64) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	ev := events.Event{Type: eventType, ID: id, Total: total, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Int64("id", id), zap.Error(err))
	}
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return apperr.Validation(ErrNoLines)
	}
	for _, l := range lines {
		switch {
		case l.ProductID <= 0:
			return apperr.Validation(ErrInvalidProduct)
		case l.Quantity <= 0:
			return apperr.Validation(ErrInvalidQuantity)
		case l.UnitPrice < 0:
			return apperr.Validation(ErrInvalidPrice)
		}
	}
	return nil
}
