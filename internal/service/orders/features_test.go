package orders_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

// lifecycleContext хранит состояние одного сценария.
type lifecycleContext struct {
	fx      *fixture
	client  domain.Client
	article domain.Article
	order   domain.OrderView
	lastErr error
}

func (c *lifecycleContext) reset() {
	c.fx = newFixture()
	c.client = domain.Client{}
	c.article = domain.Article{}
	c.order = domain.OrderView{}
	c.lastErr = nil
}

func (c *lifecycleContext) anActiveClient(name string) error {
	client, err := c.fx.clients.Create(context.Background(), clients.CreateInput{
		Name: name, FirstName: "Claire", Sex: "F", Type: "individual",
	})
	c.client = client
	return err
}

func (c *lifecycleContext) anActiveArticle(designation, price string, stock, minimum int) error {
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	article, err := c.fx.articles.Create(context.Background(), articles.CreateInput{
		Designation: designation, Price: amount, Stock: stock, StockMinimum: minimum,
	})
	c.article = article
	return err
}

func (c *lifecycleContext) theClientIsDeactivated() error {
	return c.fx.clients.SetActive(context.Background(), c.client.ID, false)
}

func (c *lifecycleContext) iCreateAnOrder(qty int) error {
	view, err := c.fx.orders.Create(context.Background(), orders.CreateInput{
		ClientID: c.client.ID, ArticleID: c.article.ID, Quantity: qty,
	})
	c.lastErr = err
	if err == nil {
		c.order = view
	}
	return nil
}

func (c *lifecycleContext) iValidateTheOrder() error {
	return c.apply(c.fx.orders.Validate)
}

func (c *lifecycleContext) iCancelTheOrder() error {
	return c.apply(c.fx.orders.Cancel)
}

func (c *lifecycleContext) iDeliverTheOrder() error {
	return c.apply(c.fx.orders.Deliver)
}

func (c *lifecycleContext) apply(transition func(context.Context, string) (domain.OrderView, error)) error {
	if c.order.ID == "" {
		return errors.New("no order in scenario")
	}
	_, c.lastErr = transition(context.Background(), c.order.ID)
	return nil
}

func (c *lifecycleContext) theArticleStockIsSetTo(stock int) error {
	_, err := c.fx.articles.SetStock(context.Background(), c.article.ID, stock)
	return err
}

func (c *lifecycleContext) theOrderTotalIs(expected string) error {
	if c.lastErr != nil {
		return fmt.Errorf("unexpected error: %w", c.lastErr)
	}
	want := decimal.RequireFromString(expected)
	if !c.order.Total().Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, c.order.Total())
	}
	return nil
}

func (c *lifecycleContext) theArticleStockIs(expected int) error {
	article, err := c.fx.articles.Get(context.Background(), c.article.ID)
	if err != nil {
		return err
	}
	if article.Stock != expected {
		return fmt.Errorf("expected stock %d, got %d", expected, article.Stock)
	}
	return nil
}

func (c *lifecycleContext) theOrderIs(orderType, status string) error {
	view, err := c.fx.orders.Get(context.Background(), c.order.ID)
	if err != nil {
		return err
	}
	if string(view.Type) != orderType || string(view.Status) != status {
		return fmt.Errorf("expected %s/%s, got %s/%s", orderType, status, view.Type, view.Status)
	}
	return nil
}

func (c *lifecycleContext) theRequestIsRejectedAs(kind string) error {
	if c.lastErr == nil {
		return errors.New("expected the request to be rejected")
	}
	if got := domain.Kind(c.lastErr); got == nil || got.Error() != kind {
		return fmt.Errorf("expected %q rejection, got %v", kind, c.lastErr)
	}
	return nil
}

func (c *lifecycleContext) noOrdersAreStored() error {
	all, err := c.fx.orders.ListAll(context.Background())
	if err != nil {
		return err
	}
	if len(all) != 0 {
		return fmt.Errorf("expected no orders, got %d", len(all))
	}
	return nil
}

func (c *lifecycleContext) theValidatedTotalIs(expected string) error {
	total, err := c.fx.orders.TotalValidatedAmount(context.Background())
	if err != nil {
		return err
	}
	if want := decimal.RequireFromString(expected); !total.Equal(want) {
		return fmt.Errorf("expected validated total %s, got %s", want, total)
	}
	return nil
}

func initializeLifecycleScenario(ctx *godog.ScenarioContext) {
	tc := &lifecycleContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an active client "([^"]*)"$`, tc.anActiveClient)
	ctx.Step(`^an active article "([^"]*)" priced (\d+(?:\.\d+)?) with stock (\d+) and minimum (\d+)$`, tc.anActiveArticle)
	ctx.Step(`^the client is deactivated$`, tc.theClientIsDeactivated)
	ctx.Step(`^I create an order for (\d+) units$`, tc.iCreateAnOrder)
	ctx.Step(`^I validate the order$`, tc.iValidateTheOrder)
	ctx.Step(`^I cancel the order$`, tc.iCancelTheOrder)
	ctx.Step(`^I deliver the order$`, tc.iDeliverTheOrder)
	ctx.Step(`^the article stock is set to (\d+)$`, tc.theArticleStockIsSetTo)
	ctx.Step(`^the order total is (\d+(?:\.\d+)?)$`, tc.theOrderTotalIs)
	ctx.Step(`^the article stock is (\d+)$`, tc.theArticleStockIs)
	ctx.Step(`^the order is "([^"]*)" with status "([^"]*)"$`, tc.theOrderIs)
	ctx.Step(`^the request is rejected as "([^"]*)"$`, tc.theRequestIsRejectedAs)
	ctx.Step(`^no orders are stored$`, tc.noOrdersAreStored)
	ctx.Step(`^the validated total is (\d+(?:\.\d+)?)$`, tc.theValidatedTotalIs)
}

func TestOrderLifecycleFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
