package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"api_pos/internal/apperr"
	"api_pos/internal/cache"
	"api_pos/internal/database"
)

var (
	ErrNameRequired      = errors.New("el nombre es obligatorio")
	ErrInvalidPrice      = errors.New("los precios no pueden ser negativos")
	ErrInvalidQuantity   = errors.New("la cantidad no puede ser negativa")
	ErrInvalidID         = errors.New("id de producto inválido")
	ErrInvalidSearchType = errors.New("tipo de búsqueda inválido")
)

// Service provides product management on a Storage backend, with a
// read-through cache for the full list and the profit aggregate.
type Service struct {
	storage  Storage
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new Service. A nil cache disables caching.
func NewService(storage Storage, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Noop{ServiceName: "pos"}
	}
	return &Service{
		storage:  storage,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Add validates and stores a new product, creating its category if needed.
func (s *Service) Add(ctx context.Context, p *Product) error {
	normalize(p)
	if p.IntakeDate.IsZero() {
		p.IntakeDate = database.Day(s.now())
	}
	if err := validate(p); err != nil {
		s.logger.Warn("rejected product", zap.String("nombre", p.Name), zap.Error(err))
		return err
	}

	if err := s.storage.Save(ctx, p); err != nil {
		s.logger.Error("failed to save product", zap.String("nombre", p.Name), zap.Error(err))
		return fmt.Errorf("agregar producto: %w", err)
	}

	s.Invalidate(ctx)
	s.logger.Info("product created", zap.Int64("id", p.ID), zap.String("nombre", p.Name))
	return nil
}

// Edit overwrites an existing product. A zero IntakeDate keeps the stored one.
func (s *Service) Edit(ctx context.Context, p *Product) error {
	if p.ID <= 0 {
		return apperr.Validation(ErrInvalidID)
	}
	normalize(p)
	if err := validate(p); err != nil {
		s.logger.Warn("rejected product update", zap.Int64("id", p.ID), zap.Error(err))
		return err
	}

	if err := s.storage.Update(ctx, p); err != nil {
		s.logger.Error("failed to update product", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("editar producto: %w", err)
	}

	s.Invalidate(ctx)
	s.logger.Info("product updated", zap.Int64("id", p.ID))
	return nil
}

// Delete removes a product. Sale and purchase history keep its id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminar producto %d: %w", id, err)
	}
	s.Invalidate(ctx)
	s.logger.Info("product deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.storage.FindByID(ctx, id)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.storage.Exists(ctx, id)
}

// List returns every product, from cache when possible.
func (s *Service) List(ctx context.Context) ([]*Product, error) {
	key := s.cache.GenerateKey("products", s.generation(ctx))
	if raw := s.cached(ctx, key); raw != "" {
		var list []*Product
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list, nil
		}
	}

	list, err := s.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, list)
	return list, nil
}

// Search finds products by name substring or exact category.
func (s *Service) Search(ctx context.Context, criterio, tipo string) ([]*Product, error) {
	criterio = strings.TrimSpace(criterio)
	switch strings.ToLower(strings.TrimSpace(tipo)) {
	case "", SearchByName:
		return s.storage.FindByName(ctx, criterio)
	case SearchByCategory:
		return s.storage.FindByCategory(ctx, criterio)
	default:
		return nil, apperr.Validation(fmt.Errorf("%w: %q", ErrInvalidSearchType, tipo))
	}
}

// SearchByIDOrName treats a numeric criterion as an id and also matches it
// against names, so "7" finds product 7 and "Alfombra 7x5".
func (s *Service) SearchByIDOrName(ctx context.Context, criterio string) ([]*Product, error) {
	criterio = strings.TrimSpace(criterio)
	if criterio == "" {
		return []*Product{}, nil
	}

	result := make([]*Product, 0)
	if id, err := strconv.ParseInt(criterio, 10, 64); err == nil {
		p, err := s.storage.FindByID(ctx, id)
		switch {
		case err == nil:
			result = append(result, p)
		case apperr.KindOf(err) != apperr.KindNotFound:
			return nil, err
		}
	}

	byName, err := s.storage.FindByName(ctx, criterio)
	if err != nil {
		return nil, err
	}
	for _, p := range byName {
		if len(result) > 0 && result[0].ID == p.ID {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// CheckStock reports whether qty units of product id are on hand.
func (s *Service) CheckStock(ctx context.Context, id int64, qty int) (StockCheck, error) {
	if qty <= 0 {
		return StockCheck{}, apperr.Validation(ErrInvalidQuantity)
	}
	p, err := s.storage.FindByID(ctx, id)
	if err != nil {
		return StockCheck{}, err
	}
	return StockCheck{Available: p.Quantity >= qty, Stock: p.Quantity}, nil
}

// TotalProfit returns the profit over all recorded sale lines, from cache
// when possible.
func (s *Service) TotalProfit(ctx context.Context) (float64, error) {
	key := s.cache.GenerateKey("profit", s.generation(ctx))
	if raw := s.cached(ctx, key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v, nil
		}
	}

	total, err := s.storage.TotalProfit(ctx)
	if err != nil {
		s.logger.Error("failed to compute profit", zap.Error(err))
		return 0, err
	}
	s.store(ctx, key, total)
	return total, nil
}

// Invalidate drops cached reads. Sales and purchases call it after they
// change stock or sale lines.
//
// Cached values live under the current generation. Invalidate starts a new
// one, so a read that began before the write stores its snapshot under a key
// nobody reads again.
func (s *Service) Invalidate(ctx context.Context) {
	old := s.generation(ctx)
	if err := s.cache.Set(ctx, s.generationKey(), uuid.NewString(), 0); err != nil {
		s.logger.Warn("cache generation bump failed", zap.Error(err))
	}
	keys := []string{
		s.cache.GenerateKey("products", old),
		s.cache.GenerateKey("profit", old),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) generationKey() string {
	return s.cache.GenerateKey("generation", "products")
}

func (s *Service) generation(ctx context.Context) string {
	if gen := s.cached(ctx, s.generationKey()); gen != "" {
		return gen
	}
	return "0"
}

func (s *Service) cached(ctx context.Context, key string) string {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return raw
}

func (s *Service) store(ctx context.Context, key string, v any) {
	var value string
	switch t := v.(type) {
	case float64:
		value = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		value = string(b)
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func normalize(p *Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.CategoryName = strings.TrimSpace(p.CategoryName)
	if p.ImagePath != nil && strings.TrimSpace(*p.ImagePath) == "" {
		p.ImagePath = nil
	}
	if p.PromoPrice != nil && *p.PromoPrice <= 0 {
		p.PromoPrice = nil
	}
	if !p.IntakeDate.IsZero() {
		p.IntakeDate = database.Day(p.IntakeDate)
	}
}

func validate(p *Product) error {
	switch {
	case p.Name == "":
		return apperr.Validation(ErrNameRequired)
	case p.CategoryName == "":
		return apperr.Validation(ErrInvalidCategory)
	case p.PurchasePrice < 0 || p.SalePrice < 0:
		return apperr.Validation(ErrInvalidPrice)
	case p.Quantity < 0:
		return apperr.Validation(ErrInvalidQuantity)
	}
	return nil
}
