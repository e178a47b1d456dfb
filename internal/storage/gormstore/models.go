package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type clientRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	Name       string `gorm:"size:120;not null;index:idx_clients_name,priority:1"`
	FirstName  string `gorm:"size:120;not null;index:idx_clients_name,priority:2"`
	Sex        string `gorm:"size:1;not null"`
	ClientType string `gorm:"size:20;not null"`
	Contact    string `gorm:"size:120"`
	Email      string `gorm:"size:255"`
	Address    string `gorm:"size:255"`
	CreatedAt  time.Time
	Active     bool `gorm:"not null;default:true"`
}

func (clientRecord) TableName() string { return "clients" }

type articleRecord struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Designation  string          `gorm:"size:200;not null"`
	Category     string          `gorm:"size:120"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock        int             `gorm:"not null;index"`
	StockMinimum int             `gorm:"not null;default:0"`
	Description  string          `gorm:"type:text"`
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Active       bool `gorm:"not null;default:true"`
}

func (articleRecord) TableName() string { return "articles" }

type orderRecord struct {
	ID          string          `gorm:"primaryKey;size:36"`
	ClientID    string          `gorm:"size:36;not null;index"`
	ArticleID   string          `gorm:"size:36;not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt   time.Time       `gorm:"index"`
	OrderType   string          `gorm:"size:20;not null;index"`
	Status      string          `gorm:"size:20;not null;index"`
	Notes       string          `gorm:"type:text"`
	ValidatedAt *time.Time
}

func (orderRecord) TableName() string { return "orders" }

// orderViewRow: результат join заказа с клиентом и статьёй.
type orderViewRow struct {
	ID                 string
	ClientID           string
	ArticleID          string
	Quantity           int
	UnitPrice          decimal.Decimal
	CreatedAt          time.Time
	OrderType          string
	Status             string
	Notes              string
	ValidatedAt        *time.Time
	ClientName         string
	ClientFirstName    string
	ArticleDesignation string
}

func clientToRecord(c domain.Client) clientRecord {
	return clientRecord{
		ID:         c.ID,
		Name:       c.Name,
		FirstName:  c.FirstName,
		Sex:        string(c.Sex),
		ClientType: string(c.Type),
		Contact:    c.Contact,
		Email:      c.Email,
		Address:    c.Address,
		CreatedAt:  c.CreatedAt,
		Active:     c.Active,
	}
}

func (r clientRecord) toDomain() domain.Client {
	return domain.Client{
		ID:        r.ID,
		Name:      r.Name,
		FirstName: r.FirstName,
		Sex:       domain.Sex(r.Sex),
		Type:      domain.ClientType(r.ClientType),
		Contact:   r.Contact,
		Email:     r.Email,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
		Active:    r.Active,
	}
}

func articleToRecord(a domain.Article) articleRecord {
	return articleRecord{
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
	}
}

func (r articleRecord) toDomain() domain.Article {
	return domain.Article{
		ID:           r.ID,
		Designation:  r.Designation,
		Category:     r.Category,
		Price:        r.Price,
		Stock:        r.Stock,
		StockMinimum: r.StockMinimum,
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		ModifiedAt:   r.ModifiedAt,
		Active:       r.Active,
	}
}

func orderToRecord(o domain.Order) orderRecord {
	return orderRecord{
		ID:          o.ID,
		ClientID:    o.ClientID,
		ArticleID:   o.ArticleID,
		Quantity:    o.Quantity(),
		UnitPrice:   o.UnitPrice(),
		Total:       o.Total(),
		CreatedAt:   o.CreatedAt,
		OrderType:   string(o.Type),
		Status:      string(o.Status),
		Notes:       o.Notes,
		ValidatedAt: o.ValidatedAt,
	}
}

func (r orderViewRow) toDomain() domain.OrderView {
	view := domain.OrderView{
		Order: domain.Order{
			ID:          r.ID,
			ClientID:    r.ClientID,
			ArticleID:   r.ArticleID,
			CreatedAt:   r.CreatedAt,
			Type:        domain.OrderType(r.OrderType),
			Status:      domain.OrderStatus(r.Status),
			Notes:       r.Notes,
			ValidatedAt: r.ValidatedAt,
		},
		ClientName:         r.ClientName,
		ClientFirstName:    r.ClientFirstName,
		ArticleDesignation: r.ArticleDesignation,
	}
	view.SetUnitPrice(r.UnitPrice)
	view.SetQuantity(r.Quantity)
	return view
}
