package grpcsvc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
)

// ClientInfo: клиент в ответах API.
type ClientInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"first_name"`
	Sex       string    `json:"sex"`
	Type      string    `json:"type"`
	Contact   string    `json:"contact,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// Article: статья в ответах API.
type Article struct {
	ID           string          `json:"id"`
	Designation  string          `json:"designation"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	StockMinimum int             `json:"stock_minimum"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ModifiedAt   time.Time       `json:"modified_at"`
	Active       bool            `json:"active"`
	LowStock     bool            `json:"low_stock"`
}

// Order: заказ с полями клиента и статьи.
type Order struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"client_id"`
	ClientName         string          `json:"client_name"`
	ClientFirstName    string          `json:"client_first_name"`
	ArticleID          string          `json:"article_id"`
	ArticleDesignation string          `json:"article_designation"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Total              decimal.Decimal `json:"total"`
	Type               string          `json:"type"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ValidatedAt        *time.Time      `json:"validated_at,omitempty"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type SetActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type Empty struct{}

type CreateClientRequest struct {
	clients.CreateInput
}

type UpdateClientRequest struct {
	ID string `json:"id"`
	clients.UpdateInput
}

type ListClientsRequest struct {
	ActiveOnly bool `json:"active_only"`
}

// SearchRequest: подстрока поиска, регистр не учитывается.
type SearchRequest struct {
	Term string `json:"term"`
}

type ClientResponse struct {
	Client ClientInfo `json:"client"`
}

type ListClientsResponse struct {
	Clients []ClientInfo `json:"clients"`
}

type CreateArticleRequest struct {
	articles.CreateInput
}

type UpdateArticleRequest struct {
	ID string `json:"id"`
	articles.UpdateInput
}

type SetStockRequest struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

type DecrementStockRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// DecrementStockResponse: Granted=false означает отказ без ошибки (статья неактивна или остатка мало).
type DecrementStockResponse struct {
	Granted bool    `json:"granted"`
	Article Article `json:"article"`
}

type ListArticlesRequest struct {
	ActiveOnly bool `json:"active_only"`
}

type ArticleResponse struct {
	Article Article `json:"article"`
}

type ListArticlesResponse struct {
	Articles []Article `json:"articles"`
}

type CreateOrderRequest struct {
	orders.CreateInput
}

type ModifyOrderRequest struct {
	ID string `json:"id"`
	orders.ModifyInput
}

// ListOrdersRequest допускает не больше одного фильтра.
type ListOrdersRequest struct {
	ClientID string `json:"client_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Type     string `json:"type,omitempty"`
}

type OrderResponse struct {
	Order Order `json:"order"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type OrderStatsResponse struct {
	Pending         int             `json:"pending"`
	Processed       int             `json:"processed"`
	Delivered       int             `json:"delivered"`
	Cancelled       int             `json:"cancelled"`
	ValidatedAmount decimal.Decimal `json:"validated_amount"`
}

func toClient(c domain.Client) ClientInfo {
	return ClientInfo{
		ID:        c.ID,
		Name:      c.Name,
		FirstName: c.FirstName,
		Sex:       string(c.Sex),
		Type:      string(c.Type),
		Contact:   c.Contact,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		Active:    c.Active,
	}
}

func toArticle(a domain.Article) Article {
	return Article{
		ID:           a.ID,
		Designation:  a.Designation,
		Category:     a.Category,
		Price:        a.Price,
		Stock:        a.Stock,
		StockMinimum: a.StockMinimum,
		Description:  a.Description,
		CreatedAt:    a.CreatedAt,
		ModifiedAt:   a.ModifiedAt,
		Active:       a.Active,
		LowStock:     a.IsLowStock(),
	}
}

func toOrder(v domain.OrderView) Order {
	return Order{
		ID:                 v.ID,
		ClientID:           v.ClientID,
		ClientName:         v.ClientName,
		ClientFirstName:    v.ClientFirstName,
		ArticleID:          v.ArticleID,
		ArticleDesignation: v.ArticleDesignation,
		Quantity:           v.Quantity(),
		UnitPrice:          v.UnitPrice(),
		Total:              v.Total(),
		Type:               string(v.Type),
		Status:             string(v.Status),
		Notes:              v.Notes,
		CreatedAt:          v.CreatedAt,
		ValidatedAt:        v.ValidatedAt,
	}
}

func mapSlice[S, T any](items []S, convert func(S) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}
