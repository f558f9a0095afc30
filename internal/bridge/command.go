package bridge

import (
	"errors"
	"strings"
	"time"

	"api_pos/internal/apperr"
	"api_pos/internal/products"
	"api_pos/internal/purchases"
	"api_pos/internal/sales"
)

// ErrUnknownCommand is returned by Decode for a method name the channel does
// not serve. The caller answers it with a null result.
var ErrUnknownCommand = errors.New("comando desconocido")

// Channel groups the commands of one area of the UI.
type Channel string

const (
	ChannelLogin     Channel = "Login"
	ChannelProducts  Channel = "Productos"
	ChannelSales     Channel = "Venta"
	ChannelPurchases Channel = "Compra"
)

// ParseChannel matches name case-insensitively against the known channels.
func ParseChannel(name string) (Channel, bool) {
	for _, ch := range []Channel{ChannelLogin, ChannelProducts, ChannelSales, ChannelPurchases} {
		if strings.EqualFold(name, string(ch)) {
			return ch, true
		}
	}
	return "", false
}

// Command is one operation of the command surface.
type Command int

const (
	CmdUnknown Command = iota
	CmdLogin
	CmdListProducts
	CmdTotalProfit
	CmdAddProduct
	CmdEditProduct
	CmdDeleteProduct
	CmdProductExists
	CmdSearchIDOrName
	CmdGetProduct
	CmdSearchProducts
	CmdCheckStock
	CmdListSales
	CmdRegisterSale
	CmdSalesByDay
	CmdDeleteSale
	CmdLineAmounts
	CmdSaleAmounts
	CmdSaleTotal
	CmdReceipt
	CmdListPurchases
	CmdRegisterPurchase
	CmdDeletePurchase
	CmdDeletePurchaseLine
	CmdEditPurchaseLine
)

// lookup resolves a wire method name. Names are case sensitive, as the UI
// sends them.
func lookup(name string) Command {
	switch name {
	case "login":
		return CmdLogin
	case "getProduct":
		return CmdListProducts
	case "SumGanancia":
		return CmdTotalProfit
	case "addProduct":
		return CmdAddProduct
	case "editProduct":
		return CmdEditProduct
	case "deleteProduct":
		return CmdDeleteProduct
	case "ProductoExists":
		return CmdProductExists
	case "SearchIdNombre":
		return CmdSearchIDOrName
	case "getProdID":
		return CmdGetProduct
	case "searchProducts":
		return CmdSearchProducts
	case "ValStock":
		return CmdCheckStock
	case "listVentas":
		return CmdListSales
	case "regVenta":
		return CmdRegisterSale
	case "getVentaPorDay":
		return CmdSalesByDay
	case "deleteVenta":
		return CmdDeleteSale
	case "calcMontos":
		return CmdLineAmounts
	case "calcMontVentCom":
		return CmdSaleAmounts
	case "calcTotVent":
		return CmdSaleTotal
	case "genBoletaVenta":
		return CmdReceipt
	case "listCompras":
		return CmdListPurchases
	case "RegCompra":
		return CmdRegisterPurchase
	case "deleteCompra":
		return CmdDeletePurchase
	case "deleteDetalleCompra":
		return CmdDeletePurchaseLine
	case "editDetalleCompra":
		return CmdEditPurchaseLine
	default:
		return CmdUnknown
	}
}

// Channel returns the channel serving c.
func (c Command) Channel() Channel {
	switch c {
	case CmdLogin:
		return ChannelLogin
	case CmdListProducts, CmdTotalProfit, CmdAddProduct, CmdEditProduct, CmdDeleteProduct,
		CmdProductExists, CmdSearchIDOrName, CmdGetProduct, CmdSearchProducts, CmdCheckStock:
		return ChannelProducts
	case CmdListSales, CmdRegisterSale, CmdSalesByDay, CmdDeleteSale, CmdLineAmounts,
		CmdSaleAmounts, CmdSaleTotal, CmdReceipt:
		return ChannelSales
	case CmdListPurchases, CmdRegisterPurchase, CmdDeletePurchase, CmdDeletePurchaseLine, CmdEditPurchaseLine:
		return ChannelPurchases
	default:
		return ""
	}
}

// Arity is the number of positional arguments c takes.
func (c Command) Arity() int {
	switch c {
	case CmdListProducts, CmdTotalProfit, CmdListSales, CmdListPurchases:
		return 0
	case CmdLogin, CmdSearchProducts, CmdCheckStock, CmdRegisterSale, CmdLineAmounts, CmdRegisterPurchase:
		return 2
	default:
		return 1
	}
}

// Request is the typed payload of one decoded command.
type Request interface {
	Command() Command
}

type (
	LoginRequest struct {
		DNI      string
		Password string
	}
	ListProductsRequest   struct{}
	TotalProfitRequest    struct{}
	AddProductRequest     struct{ Product *products.Product }
	EditProductRequest    struct{ Product *products.Product }
	DeleteProductRequest  struct{ ID int64 }
	ProductExistsRequest  struct{ ID int64 }
	SearchIDOrNameRequest struct{ Criterio string }
	GetProductRequest     struct{ ID int64 }
	SearchProductsRequest struct{ Criterio, Tipo string }
	CheckStockRequest     struct {
		ID       int64
		Quantity int
	}
	ListSalesRequest    struct{}
	RegisterSaleRequest struct{ Sale *sales.Sale }
	SalesByDayRequest   struct{ Day time.Time }
	DeleteSaleRequest   struct{ ID int64 }
	LineAmountsRequest  struct {
		UnitPrice float64
		Quantity  int
	}
	SaleAmountsRequest      struct{ Lines []sales.Line }
	SaleTotalRequest        struct{ Lines []sales.Line }
	ReceiptRequest          struct{ SaleID int64 }
	ListPurchasesRequest    struct{}
	RegisterPurchaseRequest struct {
		Purchase *purchases.Purchase
		// Declared is the header amount typed by the user, if any.
		Declared *float64
	}
	DeletePurchaseRequest     struct{ ID int64 }
	DeletePurchaseLineRequest struct{ ID int64 }
	EditPurchaseLineRequest   struct {
		ID        int64
		Units     int
		UnitPrice float64
	}
)

func (LoginRequest) Command() Command              { return CmdLogin }
func (ListProductsRequest) Command() Command       { return CmdListProducts }
func (TotalProfitRequest) Command() Command        { return CmdTotalProfit }
func (AddProductRequest) Command() Command         { return CmdAddProduct }
func (EditProductRequest) Command() Command        { return CmdEditProduct }
func (DeleteProductRequest) Command() Command      { return CmdDeleteProduct }
func (ProductExistsRequest) Command() Command      { return CmdProductExists }
func (SearchIDOrNameRequest) Command() Command     { return CmdSearchIDOrName }
func (GetProductRequest) Command() Command         { return CmdGetProduct }
func (SearchProductsRequest) Command() Command     { return CmdSearchProducts }
func (CheckStockRequest) Command() Command         { return CmdCheckStock }
func (ListSalesRequest) Command() Command          { return CmdListSales }
func (RegisterSaleRequest) Command() Command       { return CmdRegisterSale }
func (SalesByDayRequest) Command() Command         { return CmdSalesByDay }
func (DeleteSaleRequest) Command() Command         { return CmdDeleteSale }
func (LineAmountsRequest) Command() Command        { return CmdLineAmounts }
func (SaleAmountsRequest) Command() Command        { return CmdSaleAmounts }
func (SaleTotalRequest) Command() Command          { return CmdSaleTotal }
func (ReceiptRequest) Command() Command            { return CmdReceipt }
func (ListPurchasesRequest) Command() Command      { return CmdListPurchases }
func (RegisterPurchaseRequest) Command() Command   { return CmdRegisterPurchase }
func (DeletePurchaseRequest) Command() Command     { return CmdDeletePurchase }
func (DeletePurchaseLineRequest) Command() Command { return CmdDeletePurchaseLine }
func (EditPurchaseLineRequest) Command() Command   { return CmdEditPurchaseLine }

// Decode resolves method on channel and translates its positional arguments.
// It returns ErrUnknownCommand when the channel has no such method and a
// translation error when the arguments do not fit the command.
func Decode(channel Channel, method string, args []any) (Request, error) {
	cmd := lookup(method)
	if cmd == CmdUnknown || cmd.Channel() != channel {
		return nil, ErrUnknownCommand
	}
	if len(args) != cmd.Arity() {
		return nil, apperr.Translation("%s espera %d argumentos, recibió %d", method, cmd.Arity(), len(args))
	}

	switch cmd {
	case CmdLogin:
		dni, err := toString(args[0], "dni")
		if err != nil {
			return nil, err
		}
		password, err := toString(args[1], "password")
		if err != nil {
			return nil, err
		}
		return LoginRequest{DNI: dni, Password: password}, nil

	case CmdListProducts:
		return ListProductsRequest{}, nil
	case CmdTotalProfit:
		return TotalProfitRequest{}, nil
	case CmdAddProduct:
		p, err := decodeProduct(args[0], false)
		if err != nil {
			return nil, err
		}
		return AddProductRequest{Product: p}, nil
	case CmdEditProduct:
		p, err := decodeProduct(args[0], true)
		if err != nil {
			return nil, err
		}
		return EditProductRequest{Product: p}, nil
	case CmdDeleteProduct:
		id, err := toID(args[0], "id")
		return DeleteProductRequest{ID: id}, err
	case CmdProductExists:
		id, err := toID(args[0], "id")
		return ProductExistsRequest{ID: id}, err
	case CmdSearchIDOrName:
		criterio, err := toString(args[0], "criterio")
		return SearchIDOrNameRequest{Criterio: criterio}, err
	case CmdGetProduct:
		id, err := toID(args[0], "id")
		return GetProductRequest{ID: id}, err
	case CmdSearchProducts:
		criterio, err := toString(args[0], "criterio")
		if err != nil {
			return nil, err
		}
		tipo, err := toString(args[1], "tipo")
		return SearchProductsRequest{Criterio: criterio, Tipo: tipo}, err
	case CmdCheckStock:
		id, err := toID(args[0], "productoId")
		if err != nil {
			return nil, err
		}
		qty, err := toInt(args[1], "cantidad")
		return CheckStockRequest{ID: id, Quantity: qty}, err

	case CmdListSales:
		return ListSalesRequest{}, nil
	case CmdRegisterSale:
		sale, err := decodeSale(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return RegisterSaleRequest{Sale: sale}, nil
	case CmdSalesByDay:
		day, err := toDay(args[0], "fecha")
		return SalesByDayRequest{Day: day}, err
	case CmdDeleteSale:
		id, err := toID(args[0], "id")
		return DeleteSaleRequest{ID: id}, err
	case CmdLineAmounts:
		price, err := toFloat(args[0], "precioUnitario")
		if err != nil {
			return nil, err
		}
		qty, err := toInt(args[1], "cantidad")
		return LineAmountsRequest{UnitPrice: price, Quantity: qty}, err
	case CmdSaleAmounts:
		lines, err := decodeSaleLines(args[0], false)
		return SaleAmountsRequest{Lines: lines}, err
	case CmdSaleTotal:
		lines, err := decodeSaleLines(args[0], false)
		return SaleTotalRequest{Lines: lines}, err
	case CmdReceipt:
		id, err := toID(args[0], "ventaId")
		return ReceiptRequest{SaleID: id}, err

	case CmdListPurchases:
		return ListPurchasesRequest{}, nil
	case CmdRegisterPurchase:
		p, declared, err := decodePurchase(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return RegisterPurchaseRequest{Purchase: p, Declared: declared}, nil
	case CmdDeletePurchase:
		id, err := toID(args[0], "id")
		return DeletePurchaseRequest{ID: id}, err
	case CmdDeletePurchaseLine:
		id, err := toID(args[0], "id")
		return DeletePurchaseLineRequest{ID: id}, err
	case CmdEditPurchaseLine:
		return decodePurchaseLineEdit(args[0])

	default:
		return nil, ErrUnknownCommand
	}
}
