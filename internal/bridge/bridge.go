// Package bridge turns method-channel calls from the UI into service calls.
//
// A call is a channel, a method name and a list of positional arguments.
// Decode maps it to a typed Request, Dispatch runs it and always answers with
// a JSON-ready value: the command's view, or {status:"error", mensaje} when
// anything fails.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"api_pos/internal/apperr"
	"api_pos/internal/products"
	"api_pos/internal/purchases"
	"api_pos/internal/sales"
	"api_pos/internal/users"
)

const loginOK = "Login exitoso"

type Bridge struct {
	products  *products.Service
	sales     *sales.Service
	purchases *purchases.Service
	users     *users.Service
	logger    *zap.Logger
}

func New(p *products.Service, s *sales.Service, pu *purchases.Service, u *users.Service, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		products:  p,
		sales:     s,
		purchases: pu,
		users:     u,
		logger:    logger,
	}
}

// Dispatch runs method on channel. Unknown methods answer nil.
func (b *Bridge) Dispatch(ctx context.Context, channel Channel, method string, args []any) any {
	req, err := Decode(channel, method, args)
	if errors.Is(err, ErrUnknownCommand) {
		b.logger.Warn("unknown command", zap.String("channel", string(channel)), zap.String("method", method))
		return nil
	}
	if err != nil {
		return b.fail(method, err)
	}

	result, err := b.execute(ctx, req)
	if err != nil {
		return b.fail(method, err)
	}
	b.logger.Debug("command done", zap.String("channel", string(channel)), zap.String("method", method))
	return result
}

func (b *Bridge) fail(method string, err error) ErrorView {
	kind := apperr.KindOf(err)
	fields := []zap.Field{zap.String("method", method), zap.Stringer("kind", kind), zap.Error(err)}
	switch kind {
	case apperr.KindTranslation, apperr.KindValidation, apperr.KindNotFound:
		b.logger.Warn("command rejected", fields...)
	default:
		b.logger.Error("command failed", fields...)
	}
	return ErrorView{Status: StatusError, Mensaje: apperr.Message(err)}
}

func (b *Bridge) execute(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case LoginRequest:
		u, err := b.users.Login(ctx, r.DNI, r.Password)
		if err != nil {
			return nil, err
		}
		return LoginView{Status: StatusOK, Mensaje: loginOK, Usuario: u.Name, Rol: u.Role}, nil

	case ListProductsRequest:
		list, err := b.products.List(ctx)
		if err != nil {
			return nil, err
		}
		return productViews(list), nil
	case TotalProfitRequest:
		return b.products.TotalProfit(ctx)
	case AddProductRequest:
		if err := b.products.Add(ctx, r.Product); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case EditProductRequest:
		if err := b.products.Edit(ctx, r.Product); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case DeleteProductRequest:
		if err := b.products.Delete(ctx, r.ID); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case ProductExistsRequest:
		return b.products.Exists(ctx, r.ID)
	case SearchIDOrNameRequest:
		list, err := b.products.SearchByIDOrName(ctx, r.Criterio)
		if err != nil {
			return nil, err
		}
		return productViews(list), nil
	case GetProductRequest:
		p, err := b.products.Get(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		return productView(p), nil
	case SearchProductsRequest:
		list, err := b.products.Search(ctx, r.Criterio, r.Tipo)
		if err != nil {
			return nil, err
		}
		return productViews(list), nil
	case CheckStockRequest:
		check, err := b.products.CheckStock(ctx, r.ID, r.Quantity)
		if err != nil {
			return nil, err
		}
		return StockView{Status: StatusOK, Disponible: check.Available, Stock: check.Stock}, nil

	case ListSalesRequest:
		list, err := b.sales.List(ctx)
		if err != nil {
			return nil, err
		}
		return salesView(list), nil
	case RegisterSaleRequest:
		sale, err := b.sales.Register(ctx, r.Sale)
		if err != nil {
			return nil, err
		}
		return CreatedView{Status: StatusOK, ID: sale.ID}, nil
	case SalesByDayRequest:
		list, err := b.sales.ListByDay(ctx, r.Day)
		if err != nil {
			return nil, err
		}
		return salesView(list), nil
	case DeleteSaleRequest:
		if err := b.sales.Delete(ctx, r.ID); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case LineAmountsRequest:
		return amountsView(b.sales.LineAmounts(r.UnitPrice, r.Quantity)), nil
	case SaleAmountsRequest:
		return amountsView(b.sales.Totals(r.Lines)), nil
	case SaleTotalRequest:
		return b.sales.Totals(r.Lines).Total, nil
	case ReceiptRequest:
		receipt, err := b.sales.Receipt(ctx, r.SaleID)
		if err != nil {
			return nil, err
		}
		return receiptView(receipt), nil

	case ListPurchasesRequest:
		list, err := b.purchases.List(ctx)
		if err != nil {
			return nil, err
		}
		return purchaseViews(list), nil
	case RegisterPurchaseRequest:
		p, err := b.purchases.Register(ctx, r.Purchase, r.Declared)
		if err != nil {
			return nil, err
		}
		return CreatedView{Status: StatusOK, ID: p.ID}, nil
	case DeletePurchaseRequest:
		if err := b.purchases.Delete(ctx, r.ID); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case DeletePurchaseLineRequest:
		if err := b.purchases.DeleteLine(ctx, r.ID); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil
	case EditPurchaseLineRequest:
		if err := b.purchases.EditLine(ctx, r.ID, r.Units, r.UnitPrice); err != nil {
			return nil, err
		}
		return StatusView{Status: StatusOK}, nil

	default:
		return nil, fmt.Errorf("bridge: no handler for %T", req)
	}
}

// Receipt renders the receipt of sale id for direct download.
func (b *Bridge) Receipt(ctx context.Context, id int64) (*sales.Receipt, error) {
	return b.sales.Receipt(ctx, id)
}
