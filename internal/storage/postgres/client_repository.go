package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const clientColumns = `id, name, first_name, sex, client_type, contact, email, address, created_at, active`

type clientRepository struct {
	db *sql.DB
}

func (r *clientRepository) Create(ctx context.Context, client domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		client.ID, client.Name, client.FirstName, string(client.Sex), string(client.Type),
		client.Contact, client.Email, client.Address, client.CreatedAt, client.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *clientRepository) Update(ctx context.Context, client domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $1,
		    first_name = $2,
		    sex = $3,
		    client_type = $4,
		    contact = $5,
		    email = $6,
		    address = $7
		WHERE id = $8
	`,
		client.Name, client.FirstName, string(client.Sex), string(client.Type),
		client.Contact, client.Email, client.Address, client.ID,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return expectAffected(res, domain.ErrClientNotFound)
}

func (r *clientRepository) Get(ctx context.Context, id string) (domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	client, err := scanClient(r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, domain.ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("select client: %w", err)
	}
	return client, nil
}

func (r *clientRepository) List(ctx context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "active")
	}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		where = append(where, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR first_name ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, first_name, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client rows: %w", err)
	}
	return clients, nil
}

func (r *clientRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE clients SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set client active: %w", err)
	}
	return expectAffected(res, domain.ErrClientNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		client     domain.Client
		sex        string
		clientType string
	)
	if err := row.Scan(
		&client.ID, &client.Name, &client.FirstName, &sex, &clientType,
		&client.Contact, &client.Email, &client.Address, &client.CreatedAt, &client.Active,
	); err != nil {
		return domain.Client{}, err
	}
	client.Sex = domain.Sex(sex)
	client.Type = domain.ClientType(clientType)
	return client, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern строит шаблон ILIKE для поиска подстроки; % и _ из запроса ищутся буквально.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// expectAffected превращает нулевое число затронутых строк в notFound.
func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var _ domain.ClientRepository = (*clientRepository)(nil)
