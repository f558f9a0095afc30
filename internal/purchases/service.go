package purchases

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
	ErrNoLines        = errors.New("la compra no tiene productos")
	ErrInvalidUnits   = errors.New("las unidades deben ser mayores a cero")
	ErrInvalidPrice   = errors.New("el precio no puede ser negativo")
	ErrInvalidProduct = errors.New("producto inválido")
	ErrInvalidLineID  = errors.New("id de detalle inválido")
	ErrTotalMismatch  = errors.New("el monto no coincide con el detalle")
)

// Invalidator drops cached reads that depend on stock.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	storage     Storage
	invalidator Invalidator
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new Service. invalidator and publisher may be nil.
func NewService(storage Storage, invalidator Invalidator, publisher events.Publisher, logger *zap.Logger) *Service {
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
		logger:      logger,
		now:         time.Now,
	}
}

// Register stores a purchase and adds its units to stock. declared is the
// amount the caller typed, if any; it must agree with the lines.
func (s *Service) Register(ctx context.Context, p *Purchase, declared *float64) (*Purchase, error) {
	if err := validateLines(p.Lines); err != nil {
		s.logger.Warn("rejected purchase", zap.Int("lines", len(p.Lines)), zap.Error(err))
		return nil, err
	}

	p.Total = Total(p.Lines)
	if declared != nil && !matchesTotal(*declared, p.Total) {
		err := apperr.Validation(fmt.Errorf("%w: %.2f, detalle %.2f", ErrTotalMismatch, *declared, p.Total))
		s.logger.Warn("rejected purchase", zap.Float64("monto", *declared), zap.Float64("total", p.Total))
		return nil, err
	}

	if err := s.storage.Save(ctx, p); err != nil {
		if apperr.KindOf(err) == apperr.KindPersistence {
			s.logger.Error("failed to save purchase", zap.Int("lines", len(p.Lines)), zap.Error(err))
		}
		return nil, fmt.Errorf("registrar compra: %w", err)
	}

	s.changed(ctx, events.PurchaseRecorded, p.ID, p.Total)
	s.logger.Info("purchase created", zap.Int64("purchase_id", p.ID), zap.Float64("total", p.Total))
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Purchase, error) {
	return s.storage.FindAll(ctx)
}

// Delete removes a purchase and takes its units back out of stock.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return s.failed("eliminar compra", id, err)
	}
	s.changed(ctx, events.PurchaseDeleted, id, 0)
	s.logger.Info("purchase deleted", zap.Int64("purchase_id", id))
	return nil
}

func (s *Service) DeleteLine(ctx context.Context, lineID int64) error {
	if err := s.storage.DeleteLine(ctx, lineID); err != nil {
		return s.failed("eliminar detalle de compra", lineID, err)
	}
	s.invalidate(ctx)
	s.logger.Info("purchase line deleted", zap.Int64("line_id", lineID))
	return nil
}

// EditLine sets the units and price of a line, moving stock by the
// difference in units.
func (s *Service) EditLine(ctx context.Context, lineID int64, units int, unitPrice float64) error {
	switch {
	case lineID <= 0:
		return apperr.Validation(ErrInvalidLineID)
	case units <= 0:
		return apperr.Validation(ErrInvalidUnits)
	case unitPrice < 0:
		return apperr.Validation(ErrInvalidPrice)
	}

	if err := s.storage.EditLine(ctx, lineID, units, unitPrice); err != nil {
		return s.failed("editar detalle de compra", lineID, err)
	}
	s.invalidate(ctx)
	s.logger.Info("purchase line updated", zap.Int64("line_id", lineID), zap.Int("unidades", units))
	return nil
}

func (s *Service) failed(op string, id int64, err error) error {
	if apperr.KindOf(err) == apperr.KindPersistence {
		s.logger.Error("purchase write failed", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
	}
	return fmt.Errorf("%s %d: %w", op, id, err)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

func (s *Service) changed(ctx context.Context, eventType string, id int64, total float64) {
	s.invalidate(ctx)

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
		case l.Units <= 0:
			return apperr.Validation(ErrInvalidUnits)
		case l.UnitPrice < 0:
			return apperr.Validation(ErrInvalidPrice)
		}
	}
	return nil
}
