// Package grpcsvc публикует сервисы клиентов, статей и заказов через gRPC.
package grpcsvc

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

// Server реализует OrderDeskServer поверх сервисного слоя. Бизнес-правила живут в сервисах,
// здесь только разбор запросов и перевод ошибок в статусы.
type Server struct {
	clients  *clients.Service
	articles *articles.Service
	orders   *orders.Service
	logger   *log.Entry
}

var _ OrderDeskServer = (*Server)(nil)

// NewServer конструирует gRPC-обработчик.
func NewServer(clientSvc *clients.Service, articleSvc *articles.Service, orderSvc *orders.Service, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "grpc")
	}
	return &Server{
		clients:  clientSvc,
		articles: articleSvc,
		orders:   orderSvc,
		logger:   logger,
	}
}

var errConflictingFilters = fmt.Errorf("%w: only one of client_id, status and type may be set", domain.ErrInvalidArgument)

func (s *Server) CreateClient(ctx context.Context, req *CreateClientRequest) (*ClientResponse, error) {
	client, err := s.clients.Create(ctx, req.CreateInput)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ClientResponse{Client: toClient(client)}, nil
}

func (s *Server) UpdateClient(ctx context.Context, req *UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.clients.Update(ctx, req.ID, req.UpdateInput)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ClientResponse{Client: toClient(client)}, nil
}

func (s *Server) SetClientActive(ctx context.Context, req *SetActiveRequest) (*Empty, error) {
	if err := s.clients.SetActive(ctx, req.ID, req.Active); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) GetClient(ctx context.Context, req *IDRequest) (*ClientResponse, error) {
	client, err := s.clients.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ClientResponse{Client: toClient(client)}, nil
}

func (s *Server) ListClients(ctx context.Context, req *ListClientsRequest) (*ListClientsResponse, error) {
	list := s.clients.List
	if req.ActiveOnly {
		list = s.clients.ListActive
	}
	return clientsResponse(list(ctx))
}

func (s *Server) SearchClients(ctx context.Context, req *SearchRequest) (*ListClientsResponse, error) {
	return clientsResponse(s.clients.Search(ctx, req.Term))
}

func (s *Server) CreateArticle(ctx context.Context, req *CreateArticleRequest) (*ArticleResponse, error) {
	article, err := s.articles.Create(ctx, req.CreateInput)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ArticleResponse{Article: toArticle(article)}, nil
}

func (s *Server) UpdateArticle(ctx context.Context, req *UpdateArticleRequest) (*ArticleResponse, error) {
	article, err := s.articles.Update(ctx, req.ID, req.UpdateInput)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ArticleResponse{Article: toArticle(article)}, nil
}

func (s *Server) SetArticleActive(ctx context.Context, req *SetActiveRequest) (*Empty, error) {
	if err := s.articles.SetActive(ctx, req.ID, req.Active); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *Server) SetArticleStock(ctx context.Context, req *SetStockRequest) (*ArticleResponse, error) {
	article, err := s.articles.SetStock(ctx, req.ID, req.Stock)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ArticleResponse{Article: toArticle(article)}, nil
}

// DecrementArticleStock списывает остаток вне заказа, например при инвентаризации.
func (s *Server) DecrementArticleStock(ctx context.Context, req *DecrementStockRequest) (*DecrementStockResponse, error) {
	granted, err := s.articles.CheckAndDecrementStock(ctx, req.ID, req.Quantity)
	if err != nil {
		return nil, toStatus(err)
	}
	article, err := s.articles.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DecrementStockResponse{Granted: granted, Article: toArticle(article)}, nil
}

func (s *Server) GetArticle(ctx context.Context, req *IDRequest) (*ArticleResponse, error) {
	article, err := s.articles.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ArticleResponse{Article: toArticle(article)}, nil
}

func (s *Server) ListArticles(ctx context.Context, req *ListArticlesRequest) (*ListArticlesResponse, error) {
	list := s.articles.List
	if req.ActiveOnly {
		list = s.articles.ListActive
	}
	return articlesResponse(list(ctx))
}

func (s *Server) ListLowStockArticles(ctx context.Context, _ *Empty) (*ListArticlesResponse, error) {
	return articlesResponse(s.articles.ListLowStock(ctx))
}

func (s *Server) SearchArticles(ctx context.Context, req *SearchRequest) (*ListArticlesResponse, error) {
	return articlesResponse(s.articles.Search(ctx, req.Term))
}

func (s *Server) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Create(ctx, req.CreateInput))
}

func (s *Server) ValidateOrder(ctx context.Context, req *IDRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Validate(ctx, req.ID))
}

func (s *Server) CancelOrder(ctx context.Context, req *IDRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Cancel(ctx, req.ID))
}

func (s *Server) ModifyOrder(ctx context.Context, req *ModifyOrderRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Modify(ctx, req.ID, req.ModifyInput))
}

func (s *Server) DeliverOrder(ctx context.Context, req *IDRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Deliver(ctx, req.ID))
}

func (s *Server) GetOrder(ctx context.Context, req *IDRequest) (*OrderResponse, error) {
	return s.orderResponse(s.orders.Get(ctx, req.ID))
}

func (s *Server) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	set := 0
	for _, v := range []string{req.ClientID, req.Status, req.Type} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set > 1 {
		return nil, toStatus(errConflictingFilters)
	}

	var (
		list []domain.OrderView
		err  error
	)
	switch {
	case strings.TrimSpace(req.ClientID) != "":
		list, err = s.orders.ListByClient(ctx, req.ClientID)
	case strings.TrimSpace(req.Status) != "":
		list, err = s.orders.ListByStatus(ctx, domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	case strings.TrimSpace(req.Type) != "":
		list, err = s.orders.ListByType(ctx, domain.OrderType(strings.ToLower(strings.TrimSpace(req.Type))))
	default:
		list, err = s.orders.ListAll(ctx)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListOrdersResponse{Orders: mapSlice(list, toOrder)}, nil
}

func (s *Server) GetOrderStats(ctx context.Context, _ *Empty) (*OrderStatsResponse, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderStatsResponse{
		Pending:         stats.Pending,
		Processed:       stats.Processed,
		Delivered:       stats.Delivered,
		Cancelled:       stats.Cancelled,
		ValidatedAmount: stats.ValidatedAmount,
	}, nil
}

func (s *Server) orderResponse(view domain.OrderView, err error) (*OrderResponse, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &OrderResponse{Order: toOrder(view)}, nil
}

func clientsResponse(list []domain.Client, err error) (*ListClientsResponse, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListClientsResponse{Clients: mapSlice(list, toClient)}, nil
}

func articlesResponse(list []domain.Article, err error) (*ListArticlesResponse, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListArticlesResponse{Articles: mapSlice(list, toArticle)}, nil
}
