package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const articleColumns = `id, designation, category, price, stock, stock_minimum, description, created_at, modified_at, active`

type articleRepository struct {
	db *sql.DB
}

func (r *articleRepository) Create(ctx context.Context, article domain.Article) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		article.ID, article.Designation, article.Category, article.Price, article.Stock,
		article.StockMinimum, article.Description, article.CreatedAt, article.ModifiedAt, article.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (r *articleRepository) Update(ctx context.Context, article domain.Article) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET designation = $1,
		    category = $2,
		    price = $3,
		    stock_minimum = $4,
		    description = $5,
		    modified_at = $6
		WHERE id = $7
	`,
		article.Designation, article.Category, article.Price, article.StockMinimum,
		article.Description, article.ModifiedAt, article.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return expectAffected(res, domain.ErrArticleNotFound)
}

func (r *articleRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	article, err := scanArticle(r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Article{}, domain.ErrArticleNotFound
		}
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return article, nil
}

func (r *articleRepository) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly || filter.LowStockOnly {
		where = append(where, "active")
	}
	if filter.LowStockOnly {
		where = append(where, "stock <= stock_minimum")
	}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		where = append(where, fmt.Sprintf(`(designation ILIKE $%d ESCAPE '\' OR category ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.LowStockOnly {
		query += " ORDER BY stock, designation, id"
	} else {
		query += " ORDER BY designation, id"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}
	return articles, nil
}

func (r *articleRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE articles SET active = $1, modified_at = $2 WHERE id = $3`, active, now, id)
	if err != nil {
		return fmt.Errorf("set article active: %w", err)
	}
	return expectAffected(res, domain.ErrArticleNotFound)
}

func (r *articleRepository) SetStock(ctx context.Context, id string, stock int, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE articles SET stock = $1, modified_at = $2 WHERE id = $3`, stock, now, id)
	if err != nil {
		return fmt.Errorf("set article stock: %w", err)
	}
	return expectAffected(res, domain.ErrArticleNotFound)
}

func (r *articleRepository) DecrementStockIfEnough(ctx context.Context, id string, qty int, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return decrementStock(ctx, r.db, id, qty, now)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// decrementStock: условное списание: строка меняется, только если остатка хватает.
func decrementStock(ctx context.Context, db execer, id string, qty int, now time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE articles
		SET stock = stock - $1,
		    modified_at = $2
		WHERE id = $3
		  AND active
		  AND stock >= $1
	`, qty, now, id)
	if err != nil {
		return false, fmt.Errorf("decrement article stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var article domain.Article
	if err := row.Scan(
		&article.ID, &article.Designation, &article.Category, &article.Price, &article.Stock,
		&article.StockMinimum, &article.Description, &article.CreatedAt, &article.ModifiedAt, &article.Active,
	); err != nil {
		return domain.Article{}, err
	}
	return article, nil
}

var _ domain.ArticleRepository = (*articleRepository)(nil)
