// Package report выгружает заказы, статьи с низким остатком и сводку в XLSX.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const (
	SheetOrders   = "Orders"
	SheetLowStock = "Low stock"
	SheetSummary  = "Summary"

	timeLayout = "2006-01-02 15:04"
)

// OrderSource: чтение заказов и агрегатов.
type OrderSource interface {
	ListAll(ctx context.Context) ([]domain.OrderView, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
}

// ArticleSource: чтение статей с низким остатком.
type ArticleSource interface {
	ListLowStock(ctx context.Context) ([]domain.Article, error)
}

// Data: снимок, из которого строится книга.
type Data struct {
	GeneratedAt time.Time
	Orders      []domain.OrderView
	LowStock    []domain.Article
	Stats       domain.OrderStats
}

// Collect читает всё необходимое для отчёта.
func Collect(ctx context.Context, orders OrderSource, articles ArticleSource, now time.Time) (Data, error) {
	views, err := orders.ListAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("list orders: %w", err)
	}
	low, err := articles.ListLowStock(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("list low stock: %w", err)
	}
	stats, err := orders.Stats(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("order stats: %w", err)
	}
	return Data{GeneratedAt: now, Orders: views, LowStock: low, Stats: stats}, nil
}

var (
	orderHeader    = []any{"Order", "Created", "Client", "Article", "Quantity", "Unit price", "Total", "Type", "Status", "Validated", "Notes"}
	lowStockHeader = []any{"Article", "Designation", "Category", "Stock", "Minimum"}
)

// Build собирает книгу из трёх листов. Вызывающий закрывает файл.
func Build(data Data) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetOrders); err != nil {
		return nil, closeOnError(f, err)
	}
	for _, name := range []string{SheetLowStock, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, closeOnError(f, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, closeOnError(f, err)
	}

	if err := writeOrders(f, data.Orders, bold); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeLowStock(f, data.LowStock, bold); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeSummary(f, data, bold); err != nil {
		return nil, closeOnError(f, err)
	}

	return f, nil
}

// Write строит книгу и пишет её в w.
func Write(w io.Writer, data Data) error {
	f, err := Build(data)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOrders(f *excelize.File, views []domain.OrderView, headerStyle int) error {
	if err := writeHeader(f, SheetOrders, orderHeader, headerStyle); err != nil {
		return err
	}
	for i, v := range views {
		validated := ""
		if v.ValidatedAt != nil {
			validated = v.ValidatedAt.Format(timeLayout)
		}
		row := []any{
			v.ID,
			v.CreatedAt.Format(timeLayout),
			fmt.Sprintf("%s %s", v.ClientFirstName, v.ClientName),
			v.ArticleDesignation,
			v.Quantity(),
			v.UnitPrice().InexactFloat64(),
			v.Total().InexactFloat64(),
			string(v.Type),
			string(v.Status),
			validated,
			v.Notes,
		}
		if err := setRow(f, SheetOrders, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetOrders, "A", "A", 38)
}

func writeLowStock(f *excelize.File, articles []domain.Article, headerStyle int) error {
	if err := writeHeader(f, SheetLowStock, lowStockHeader, headerStyle); err != nil {
		return err
	}
	for i, a := range articles {
		row := []any{a.ID, a.Designation, a.Category, a.Stock, a.StockMinimum}
		if err := setRow(f, SheetLowStock, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, data Data, headerStyle int) error {
	rows := [][]any{
		{"Generated", data.GeneratedAt.Format(timeLayout)},
		{"Pending", data.Stats.Pending},
		{"Processed", data.Stats.Processed},
		{"Delivered", data.Stats.Delivered},
		{"Cancelled", data.Stats.Cancelled},
		{"Validated amount", data.Stats.ValidatedAmount.InexactFloat64()},
		{"Low stock articles", len(data.LowStock)},
	}
	for i, row := range rows {
		if err := setRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColStyle(SheetSummary, "A", headerStyle)
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func closeOnError(f *excelize.File, err error) error {
	_ = f.Close()
	return err
}
