package domain

import (
	"strings"
	"time"
)

// Sex: закрытое перечисление пола клиента.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// ParseSex принимает "M"/"F" без учёта регистра и отклоняет остальные значения.
func ParseSex(raw string) (Sex, error) {
	switch Sex(strings.ToUpper(strings.TrimSpace(raw))) {
	case SexMale:
		return SexMale, nil
	case SexFemale:
		return SexFemale, nil
	default:
		return "", ErrUnknownSex
	}
}

// ClientType описывает категорию клиента.
type ClientType string

const (
	// ClientTypeIndividual: частное лицо.
	ClientTypeIndividual ClientType = "individual"
	// ClientTypeBusiness: компания.
	ClientTypeBusiness ClientType = "business"
	// ClientTypeProfessional: индивидуальный предприниматель.
	ClientTypeProfessional ClientType = "professional"
)

// ParseClientType проверяет, что категория входит в поддерживаемый набор.
func ParseClientType(raw string) (ClientType, error) {
	switch t := ClientType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ClientTypeIndividual, ClientTypeBusiness, ClientTypeProfessional:
		return t, nil
	default:
		return "", ErrUnknownClientType
	}
}

// Client: покупатель. Физически не удаляется: деактивация заменяет удаление.
type Client struct {
	ID        string
	Name      string
	FirstName string
	Sex       Sex
	Type      ClientType
	Contact   string
	Email     string
	Address   string
	CreatedAt time.Time
	Active    bool
}

// Usable сообщает, можно ли ссылаться на клиента из нового заказа.
func (c *Client) Usable() bool {
	return c.Active
}

// Activate включает клиента.
func (c *Client) Activate() {
	c.Active = true
}

// Deactivate выключает клиента; существующие заказы не затрагиваются.
func (c *Client) Deactivate() {
	c.Active = false
}

// FullName возвращает "Имя Фамилия" для отображения.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.Name)
}
