package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vladislavdragonenkov/orderdesk/internal/report"
)

func TestRun_WritesWorkbook(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	var stdout bytes.Buffer

	err := run(context.Background(), []string{"-driver=memory", "-out=" + out}, &stdout)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "orders=0")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.Equal(t, []string{report.SheetOrders, report.SheetLowStock, report.SheetSummary}, f.GetSheetList())
}

func TestRun_UnsupportedDriver(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-driver=oracle", "-out=" + filepath.Join(t.TempDir(), "x.xlsx")}, &stdout)
	require.ErrorContains(t, err, "unsupported storage driver")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout bytes.Buffer
	require.Error(t, run(context.Background(), []string{"-nope"}, &stdout))
}
