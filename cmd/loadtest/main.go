// Команда loadtest создаёт конкурентную нагрузку на одну статью и проверяет,
// что проведённые заказы никогда не списывают больше исходного остатка.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	grpcsvc "github.com/vladislavdragonenkov/orderdesk/internal/service/grpc"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

type loadMode string

const (
	modeCreate               loadMode = "create"
	modeCreateValidate       loadMode = "create-validate"
	modeCreateValidateCancel loadMode = "create-validate-cancel"
)

type config struct {
	addr        string
	total       int
	concurrency int
	connections int
	timeout     time.Duration
	mode        loadMode
	quantity    int
	stock       int
	outputPath  string
}

// deskClient: часть API OrderDesk, которую использует нагрузка.
type deskClient interface {
	CreateClient(ctx context.Context, req *grpcsvc.CreateClientRequest, opts ...grpc.CallOption) (*grpcsvc.ClientResponse, error)
	CreateArticle(ctx context.Context, req *grpcsvc.CreateArticleRequest, opts ...grpc.CallOption) (*grpcsvc.ArticleResponse, error)
	GetArticle(ctx context.Context, req *grpcsvc.IDRequest, opts ...grpc.CallOption) (*grpcsvc.ArticleResponse, error)
	CreateOrder(ctx context.Context, req *grpcsvc.CreateOrderRequest, opts ...grpc.CallOption) (*grpcsvc.OrderResponse, error)
	ValidateOrder(ctx context.Context, req *grpcsvc.IDRequest, opts ...grpc.CallOption) (*grpcsvc.OrderResponse, error)
	CancelOrder(ctx context.Context, req *grpcsvc.IDRequest, opts ...grpc.CallOption) (*grpcsvc.OrderResponse, error)
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt       time.Time               `json:"started_at"`
	DurationSeconds float64                 `json:"duration_seconds"`
	TotalScenarios  int64                   `json:"total_scenarios"`
	FailedScenarios int64                   `json:"failed_scenarios"`
	RPS             float64                 `json:"rps"`
	InitialStock    int                     `json:"initial_stock"`
	FinalStock      int                     `json:"final_stock"`
	Validated       int64                   `json:"validated"`
	StockRejections int64                   `json:"stock_rejections"`
	Consistent      bool                    `json:"consistent"`
	Methods         map[string]methodReport `json:"methods"`
}

type methodStats struct {
	calls     int64
	success   int64
	failed    int64
	codes     map[string]int64
	latencies []float64
}

type collector struct {
	mu              sync.Mutex
	methods         map[string]*methodStats
	validated       int64
	stockRejections int64
	failedScenarios int64
}

func newCollector() *collector {
	return &collector{methods: make(map[string]*methodStats)}
}

func (c *collector) record(method string, latency time.Duration, code codes.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.methods[method]
	if !ok {
		stats = &methodStats{codes: make(map[string]int64)}
		c.methods[method] = stats
	}

	stats.calls++
	if code == codes.OK {
		stats.success++
	} else {
		stats.failed++
	}
	stats.codes[code.String()]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) outcome(validated, stockRejected, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case failed:
		c.failedScenarios++
	case validated:
		c.validated++
	case stockRejected:
		c.stockRejections++
	}
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		FailedScenarios: c.failedScenarios,
		Validated:       c.validated,
		StockRejections: c.stockRejections,
		Methods:         make(map[string]methodReport, len(c.methods)),
	}
	for name, stats := range c.methods {
		codesCopy := make(map[string]int64, len(stats.codes))
		for code, count := range stats.codes {
			codesCopy[code] = count
		}
		result.Methods[name] = methodReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Codes:     codesCopy,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
	}
	if scenario, ok := c.methods["scenario"]; ok {
		result.TotalScenarios = scenario.calls
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}
	return result
}

func parseConfig(args []string) (config, error) {
	var cfg config
	var modeValue string

	flags := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	flags.StringVar(&cfg.addr, "addr", "localhost:50051", "gRPC target address")
	flags.IntVar(&cfg.total, "total", 400, "total scenarios to execute")
	flags.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flags.IntVar(&cfg.connections, "connections", 4, "number of gRPC client connections")
	flags.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-RPC timeout")
	flags.StringVar(&modeValue, "mode", string(modeCreateValidate), "load mode: create | create-validate | create-validate-cancel")
	flags.IntVar(&cfg.quantity, "quantity", 1, "units per order")
	flags.IntVar(&cfg.stock, "stock", 100, "initial stock of the contended article")
	flags.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	switch {
	case cfg.total <= 0:
		return cfg, errors.New("total must be > 0")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.connections <= 0:
		return cfg, errors.New("connections must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.quantity <= 0:
		return cfg, errors.New("quantity must be > 0")
	case cfg.stock < cfg.quantity:
		return cfg, errors.New("stock must cover at least one order")
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch loadMode(strings.TrimSpace(value)) {
	case modeCreate:
		return modeCreate, nil
	case modeCreateValidate:
		return modeCreateValidate, nil
	case modeCreateValidateCancel:
		return modeCreateValidateCancel, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	conns := make([]*grpc.ClientConn, 0, cfg.connections)
	desks := make([]deskClient, 0, cfg.connections)
	for i := 0; i < cfg.connections; i++ {
		conn, dialErr := grpc.NewClient(cfg.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if dialErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to create grpc client connection: %v\n", dialErr)
			os.Exit(1)
		}
		conns = append(conns, conn)
		desks = append(desks, grpcsvc.NewClient(conn))
	}

	result, err := run(context.Background(), cfg, desks)
	for _, conn := range conns {
		_ = conn.Close()
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
	if !result.Consistent || result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// run заводит клиента и статью, прогоняет сценарии и сверяет итоговый остаток.
func run(ctx context.Context, cfg config, desks []deskClient) (report, error) {
	if len(desks) == 0 {
		return report{}, errors.New("no clients")
	}
	clientID, articleID, err := seed(ctx, desks[0], cfg)
	if err != nil {
		return report{}, fmt.Errorf("seed: %w", err)
	}

	startedAt := time.Now()
	col := newCollector()
	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func(desk deskClient) {
			defer wg.Done()
			for index := range jobs {
				runScenario(ctx, desk, cfg, clientID, articleID, index, col)
			}
		}(desks[workerID%len(desks)])
	}
	for i := 0; i < cfg.total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	result.InitialStock = cfg.stock

	callCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()
	article, err := desks[0].GetArticle(callCtx, &grpcsvc.IDRequest{ID: articleID})
	if err != nil {
		return result, fmt.Errorf("read final stock: %w", err)
	}
	result.FinalStock = article.Article.Stock
	result.Consistent = result.FinalStock >= 0 &&
		int64(cfg.stock-result.FinalStock) == result.Validated*int64(cfg.quantity)
	return result, nil
}

func seed(ctx context.Context, desk deskClient, cfg config) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	client, err := desk.CreateClient(ctx, &grpcsvc.CreateClientRequest{CreateInput: clients.CreateInput{
		Name: "Load", FirstName: "Test", Sex: "M", Type: "business",
	}})
	if err != nil {
		return "", "", err
	}
	article, err := desk.CreateArticle(ctx, &grpcsvc.CreateArticleRequest{CreateInput: articles.CreateInput{
		Designation:  fmt.Sprintf("load-%d", time.Now().UnixNano()),
		Price:        decimal.NewFromInt(1),
		Stock:        cfg.stock,
		StockMinimum: 0,
	}})
	if err != nil {
		return "", "", err
	}
	return client.Client.ID, article.Article.ID, nil
}

// runScenario: отказ по остатку при оформлении или проведении считается ожидаемым исходом.
func runScenario(ctx context.Context, desk deskClient, cfg config, clientID, articleID string, index int, col *collector) {
	start := time.Now()
	code := codes.OK
	validated, stockRejected := false, false
	defer func() {
		col.record("scenario", time.Since(start), code)
		col.outcome(validated, stockRejected, code != codes.OK)
	}()

	var order *grpcsvc.OrderResponse
	err := timed(ctx, cfg.timeout, "CreateOrder", col, func(ctx context.Context) error {
		var err error
		order, err = desk.CreateOrder(ctx, &grpcsvc.CreateOrderRequest{CreateInput: orders.CreateInput{
			ClientID: clientID, ArticleID: articleID, Quantity: cfg.quantity, Notes: fmt.Sprintf("load #%d", index),
		}})
		return err
	})
	if isStockRejection(err) {
		stockRejected = true
		return
	}
	if err != nil {
		code = grpcCode(err)
		return
	}
	if cfg.mode == modeCreate {
		return
	}

	err = timed(ctx, cfg.timeout, "ValidateOrder", col, func(ctx context.Context) error {
		_, err := desk.ValidateOrder(ctx, &grpcsvc.IDRequest{ID: order.Order.ID})
		return err
	})
	switch {
	case isStockRejection(err):
		stockRejected = true
		return
	case err != nil:
		code = grpcCode(err)
		return
	}
	validated = true

	if cfg.mode == modeCreateValidateCancel {
		err = timed(ctx, cfg.timeout, "CancelOrder", col, func(ctx context.Context) error {
			_, err := desk.CancelOrder(ctx, &grpcsvc.IDRequest{ID: order.Order.ID})
			return err
		})
		if err != nil {
			code = grpcCode(err)
		}
	}
}

func timed(ctx context.Context, timeout time.Duration, method string, col *collector, call func(context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := call(ctx)
	col.record(method, time.Since(start), grpcCode(err))
	return err
}

func isStockRejection(err error) bool {
	return grpcCode(err) == codes.FailedPrecondition
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(w io.Writer, result report, cfg config) {
	_, _ = fmt.Fprintln(w, "Load test summary")
	_, _ = fmt.Fprintf(w, "mode=%s total=%d failed=%d validated=%d stock_rejections=%d\n",
		cfg.mode, result.TotalScenarios, result.FailedScenarios, result.Validated, result.StockRejections)
	_, _ = fmt.Fprintf(w, "stock initial=%d final=%d consistent=%t\n", result.InitialStock, result.FinalStock, result.Consistent)
	_, _ = fmt.Fprintf(w, "duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)

	methodNames := make([]string, 0, len(result.Methods))
	for name := range result.Methods {
		if name != "scenario" {
			methodNames = append(methodNames, name)
		}
	}
	sort.Strings(methodNames)
	for _, name := range methodNames {
		stats := result.Methods[name]
		_, _ = fmt.Fprintf(w, "%s: calls=%d success=%d failed=%d p95=%.2fms\n",
			name, stats.Calls, stats.Success, stats.Failed, stats.LatencyMs.P95)
	}
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
