package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	grpcsvc "github.com/vladislavdragonenkov/orderdesk/internal/service/grpc"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

func newDesk(t *testing.T) *grpcsvc.Client {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	store := memory.NewStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logger.WithField("component", "loadtest-test")

	articleSvc := articles.NewService(store.Articles(), entry)
	clientSvc := clients.NewService(store.Clients(), entry)
	orderSvc := orders.NewService(store.Orders(), clientSvc, articleSvc, entry)

	server := grpc.NewServer()
	grpcsvc.RegisterOrderDeskServer(server, grpcsvc.NewServer(clientSvc, articleSvc, orderSvc, entry))
	go func() { _ = server.Serve(listener) }()

	//nolint:staticcheck // grpc.Dial is required for bufconn testing
	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return listener.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})
	return grpcsvc.NewClient(conn)
}

func testConfig(mode loadMode) config {
	return config{
		total:       20,
		concurrency: 8,
		connections: 1,
		timeout:     5 * time.Second,
		mode:        mode,
		quantity:    1,
		stock:       5,
	}
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode(" create-validate-cancel ")
	require.NoError(t, err)
	assert.Equal(t, modeCreateValidateCancel, mode)

	_, err = parseMode("pay")
	require.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"-total", "50", "-concurrency", "5", "-stock", "10", "-quantity", "2", "-mode", "create"})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.total)
	assert.Equal(t, 5, cfg.concurrency)
	assert.Equal(t, 10, cfg.stock)
	assert.Equal(t, 2, cfg.quantity)
	assert.Equal(t, modeCreate, cfg.mode)

	invalid := [][]string{
		{"-total", "0"},
		{"-concurrency", "0"},
		{"-connections", "0"},
		{"-timeout", "0s"},
		{"-quantity", "0"},
		{"-stock", "1", "-quantity", "2"},
		{"-mode", "unknown"},
	}
	for _, args := range invalid {
		_, err := parseConfig(args)
		assert.Error(t, err, args)
	}
}

func TestRunNeverOversells(t *testing.T) {
	for _, mode := range []loadMode{modeCreateValidate, modeCreateValidateCancel} {
		t.Run(string(mode), func(t *testing.T) {
			desk := newDesk(t)
			cfg := testConfig(mode)

			result, err := run(context.Background(), cfg, []deskClient{desk})
			require.NoError(t, err)

			assert.True(t, result.Consistent)
			assert.Equal(t, int64(5), result.Validated)
			assert.Equal(t, int64(15), result.StockRejections)
			assert.Equal(t, int64(0), result.FailedScenarios)
			assert.Equal(t, 5, result.InitialStock)
			assert.Equal(t, 0, result.FinalStock)
			assert.Equal(t, int64(20), result.TotalScenarios)
		})
	}
}

func TestRunCreateOnlyKeepsStock(t *testing.T) {
	desk := newDesk(t)
	cfg := testConfig(modeCreate)

	result, err := run(context.Background(), cfg, []deskClient{desk})
	require.NoError(t, err)

	assert.True(t, result.Consistent)
	assert.Equal(t, int64(0), result.Validated)
	assert.Equal(t, 5, result.FinalStock)
	assert.Equal(t, int64(20), result.Methods["CreateOrder"].Success)
}

func TestRunRequiresClients(t *testing.T) {
	_, err := run(context.Background(), testConfig(modeCreate), nil)
	require.Error(t, err)
}

type failingDesk struct {
	deskClient
}

func (failingDesk) CreateClient(context.Context, *grpcsvc.CreateClientRequest, ...grpc.CallOption) (*grpcsvc.ClientResponse, error) {
	return nil, status.Error(codes.Unavailable, "down")
}

func TestRunSeedFailure(t *testing.T) {
	_, err := run(context.Background(), testConfig(modeCreate), []deskClient{failingDesk{}})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))
}

func TestCollectorAndReport(t *testing.T) {
	col := newCollector()
	col.record("CreateOrder", 10*time.Millisecond, codes.OK)
	col.record("CreateOrder", 30*time.Millisecond, codes.FailedPrecondition)
	col.record("scenario", 40*time.Millisecond, codes.OK)
	col.outcome(true, false, false)
	col.outcome(false, true, false)
	col.outcome(false, false, true)

	result := col.buildReport(time.Now(), 2*time.Second)
	assert.Equal(t, int64(1), result.TotalScenarios)
	assert.Equal(t, int64(1), result.Validated)
	assert.Equal(t, int64(1), result.StockRejections)
	assert.Equal(t, int64(1), result.FailedScenarios)
	assert.InDelta(t, 0.5, result.RPS, 0.0001)

	create := result.Methods["CreateOrder"]
	assert.Equal(t, int64(2), create.Calls)
	assert.Equal(t, int64(1), create.Failed)
	assert.InDelta(t, 0.5, create.ErrorRate, 0.0001)
	assert.Equal(t, int64(1), create.Codes["FailedPrecondition"])
	assert.InDelta(t, 10.0, create.LatencyMs.Min, 0.0001)
	assert.InDelta(t, 30.0, create.LatencyMs.Max, 0.0001)
}

func TestLatencyHelpers(t *testing.T) {
	assert.Equal(t, latencySummary{}, buildLatencySummary(nil))
	assert.Equal(t, 0.0, percentile(nil, 50))
	assert.Equal(t, 7.0, percentile([]float64{7}, 99))
	assert.InDelta(t, 2.5, percentile([]float64{1, 2, 3, 4}, 50), 0.0001)
	assert.Equal(t, 0.0, ratio(1, 0))
	assert.InDelta(t, 0.25, ratio(1, 4), 0.0001)
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeJSONReport(path, report{Validated: 3, Consistent: true}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, int64(3), decoded.Validated)
	assert.True(t, decoded.Consistent)

	require.Error(t, writeJSONReport(".", report{}))
	require.Error(t, writeJSONReport("../outside.json", report{}))
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, report{
		TotalScenarios: 4,
		Validated:      2,
		InitialStock:   2,
		Consistent:     true,
		Methods: map[string]methodReport{
			"scenario":      {Calls: 4},
			"ValidateOrder": {Calls: 4, Success: 2, Failed: 2},
		},
	}, config{mode: modeCreateValidate})

	text := out.String()
	assert.Contains(t, text, "mode=create-validate")
	assert.Contains(t, text, "consistent=true")
	assert.Contains(t, text, "ValidateOrder: calls=4")
	assert.NotContains(t, text, "scenario:")
}
