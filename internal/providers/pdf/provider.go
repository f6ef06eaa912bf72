package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type ReceiptData struct {
	StoreName string
	OrderID   string
	Customer  string
	Status    string
	IssuedAt  string

	Items    []ReceiptItem
	Total    string
	Timeline []ReceiptEvent
}

type ReceiptItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

type ReceiptEvent struct {
	At       string
	Status   string
	Location string
	Note     string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
