package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName: полное имя gRPC-сервиса.
const ServiceName = "orderdesk.v1.OrderDesk"

// OrderDeskServer: серверная сторона API OrderDesk.
type OrderDeskServer interface {
	CreateClient(context.Context, *CreateClientRequest) (*ClientResponse, error)
	UpdateClient(context.Context, *UpdateClientRequest) (*ClientResponse, error)
	SetClientActive(context.Context, *SetActiveRequest) (*Empty, error)
	GetClient(context.Context, *IDRequest) (*ClientResponse, error)
	ListClients(context.Context, *ListClientsRequest) (*ListClientsResponse, error)
	SearchClients(context.Context, *SearchRequest) (*ListClientsResponse, error)

	CreateArticle(context.Context, *CreateArticleRequest) (*ArticleResponse, error)
	UpdateArticle(context.Context, *UpdateArticleRequest) (*ArticleResponse, error)
	SetArticleActive(context.Context, *SetActiveRequest) (*Empty, error)
	SetArticleStock(context.Context, *SetStockRequest) (*ArticleResponse, error)
	DecrementArticleStock(context.Context, *DecrementStockRequest) (*DecrementStockResponse, error)
	GetArticle(context.Context, *IDRequest) (*ArticleResponse, error)
	ListArticles(context.Context, *ListArticlesRequest) (*ListArticlesResponse, error)
	ListLowStockArticles(context.Context, *Empty) (*ListArticlesResponse, error)
	SearchArticles(context.Context, *SearchRequest) (*ListArticlesResponse, error)

	CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error)
	ValidateOrder(context.Context, *IDRequest) (*OrderResponse, error)
	CancelOrder(context.Context, *IDRequest) (*OrderResponse, error)
	ModifyOrder(context.Context, *ModifyOrderRequest) (*OrderResponse, error)
	DeliverOrder(context.Context, *IDRequest) (*OrderResponse, error)
	GetOrder(context.Context, *IDRequest) (*OrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
	GetOrderStats(context.Context, *Empty) (*OrderStatsResponse, error)
}

// ServiceDesc описывает сервис без сгенерированного кода: сообщения идут через JSON-кодек.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderDeskServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateClient", OrderDeskServer.CreateClient),
		unary("UpdateClient", OrderDeskServer.UpdateClient),
		unary("SetClientActive", OrderDeskServer.SetClientActive),
		unary("GetClient", OrderDeskServer.GetClient),
		unary("ListClients", OrderDeskServer.ListClients),
		unary("SearchClients", OrderDeskServer.SearchClients),

		unary("CreateArticle", OrderDeskServer.CreateArticle),
		unary("UpdateArticle", OrderDeskServer.UpdateArticle),
		unary("SetArticleActive", OrderDeskServer.SetArticleActive),
		unary("SetArticleStock", OrderDeskServer.SetArticleStock),
		unary("DecrementArticleStock", OrderDeskServer.DecrementArticleStock),
		unary("GetArticle", OrderDeskServer.GetArticle),
		unary("ListArticles", OrderDeskServer.ListArticles),
		unary("ListLowStockArticles", OrderDeskServer.ListLowStockArticles),
		unary("SearchArticles", OrderDeskServer.SearchArticles),

		unary("CreateOrder", OrderDeskServer.CreateOrder),
		unary("ValidateOrder", OrderDeskServer.ValidateOrder),
		unary("CancelOrder", OrderDeskServer.CancelOrder),
		unary("ModifyOrder", OrderDeskServer.ModifyOrder),
		unary("DeliverOrder", OrderDeskServer.DeliverOrder),
		unary("GetOrder", OrderDeskServer.GetOrder),
		unary("ListOrders", OrderDeskServer.ListOrders),
		unary("GetOrderStats", OrderDeskServer.GetOrderStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderdesk/v1/orderdesk.json",
}

// RegisterOrderDeskServer регистрирует реализацию на gRPC-сервере.
func RegisterOrderDeskServer(s grpc.ServiceRegistrar, srv OrderDeskServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(OrderDeskServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(OrderDeskServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
