package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// Client: типизированный клиент API OrderDesk. Все вызовы идут через JSON-кодек.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient оборачивает соединение.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateClient(ctx context.Context, req *CreateClientRequest, opts ...grpc.CallOption) (*ClientResponse, error) {
	return invoke[ClientResponse](ctx, c, "CreateClient", req, opts...)
}

func (c *Client) UpdateClient(ctx context.Context, req *UpdateClientRequest, opts ...grpc.CallOption) (*ClientResponse, error) {
	return invoke[ClientResponse](ctx, c, "UpdateClient", req, opts...)
}

func (c *Client) SetClientActive(ctx context.Context, req *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "SetClientActive", req, opts...)
}

func (c *Client) GetClient(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*ClientResponse, error) {
	return invoke[ClientResponse](ctx, c, "GetClient", req, opts...)
}

func (c *Client) ListClients(ctx context.Context, req *ListClientsRequest, opts ...grpc.CallOption) (*ListClientsResponse, error) {
	return invoke[ListClientsResponse](ctx, c, "ListClients", req, opts...)
}

func (c *Client) SearchClients(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*ListClientsResponse, error) {
	return invoke[ListClientsResponse](ctx, c, "SearchClients", req, opts...)
}

func (c *Client) CreateArticle(ctx context.Context, req *CreateArticleRequest, opts ...grpc.CallOption) (*ArticleResponse, error) {
	return invoke[ArticleResponse](ctx, c, "CreateArticle", req, opts...)
}

func (c *Client) UpdateArticle(ctx context.Context, req *UpdateArticleRequest, opts ...grpc.CallOption) (*ArticleResponse, error) {
	return invoke[ArticleResponse](ctx, c, "UpdateArticle", req, opts...)
}

func (c *Client) SetArticleActive(ctx context.Context, req *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "SetArticleActive", req, opts...)
}

func (c *Client) SetArticleStock(ctx context.Context, req *SetStockRequest, opts ...grpc.CallOption) (*ArticleResponse, error) {
	return invoke[ArticleResponse](ctx, c, "SetArticleStock", req, opts...)
}

func (c *Client) DecrementArticleStock(ctx context.Context, req *DecrementStockRequest, opts ...grpc.CallOption) (*DecrementStockResponse, error) {
	return invoke[DecrementStockResponse](ctx, c, "DecrementArticleStock", req, opts...)
}

func (c *Client) GetArticle(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*ArticleResponse, error) {
	return invoke[ArticleResponse](ctx, c, "GetArticle", req, opts...)
}

func (c *Client) ListArticles(ctx context.Context, req *ListArticlesRequest, opts ...grpc.CallOption) (*ListArticlesResponse, error) {
	return invoke[ListArticlesResponse](ctx, c, "ListArticles", req, opts...)
}

func (c *Client) ListLowStockArticles(ctx context.Context, opts ...grpc.CallOption) (*ListArticlesResponse, error) {
	return invoke[ListArticlesResponse](ctx, c, "ListLowStockArticles", &Empty{}, opts...)
}

func (c *Client) SearchArticles(ctx context.Context, req *SearchRequest, opts ...grpc.CallOption) (*ListArticlesResponse, error) {
	return invoke[ListArticlesResponse](ctx, c, "SearchArticles", req, opts...)
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "CreateOrder", req, opts...)
}

func (c *Client) ValidateOrder(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "ValidateOrder", req, opts...)
}

func (c *Client) CancelOrder(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "CancelOrder", req, opts...)
}

func (c *Client) ModifyOrder(ctx context.Context, req *ModifyOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "ModifyOrder", req, opts...)
}

func (c *Client) DeliverOrder(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "DeliverOrder", req, opts...)
}

func (c *Client) GetOrder(ctx context.Context, req *IDRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c, "GetOrder", req, opts...)
}

func (c *Client) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	return invoke[ListOrdersResponse](ctx, c, "ListOrders", req, opts...)
}

func (c *Client) GetOrderStats(ctx context.Context, opts ...grpc.CallOption) (*OrderStatsResponse, error) {
	return invoke[OrderStatsResponse](ctx, c, "GetOrderStats", &Empty{}, opts...)
}
