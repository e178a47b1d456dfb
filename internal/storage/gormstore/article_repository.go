package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type articleRepository struct {
	db *gorm.DB
}

func (r *articleRepository) Create(ctx context.Context, article domain.Article) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	record := articleToRecord(article)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (r *articleRepository) Update(ctx context.Context, article domain.Article) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&articleRecord{}).Where("id = ?", article.ID).Updates(map[string]any{
		"designation":   article.Designation,
		"category":      article.Category,
		"price":         article.Price,
		"stock_minimum": article.StockMinimum,
		"description":   article.Description,
		"modified_at":   article.ModifiedAt,
	})
	return wrapArticleWrite("update article", ensureAffected(db, result, &articleRecord{}, article.ID, domain.ErrArticleNotFound))
}

func (r *articleRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var record articleRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Article{}, domain.ErrArticleNotFound
		}
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return record.toDomain(), nil
}

func (r *articleRepository) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&articleRecord{})
	if filter.ActiveOnly || filter.LowStockOnly {
		query = query.Where("active = ?", true)
	}
	if filter.LowStockOnly {
		query = query.Where("stock <= stock_minimum").Order("stock")
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("("+likeClause("designation")+" OR "+likeClause("category")+")", pattern, pattern)
	}

	var records []articleRecord
	if err := query.Order("designation").Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(records))
	for _, record := range records {
		articles = append(articles, record.toDomain())
	}
	return articles, nil
}

func (r *articleRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&articleRecord{}).Where("id = ?", id).Updates(map[string]any{
		"active":      active,
		"modified_at": now,
	})
	return wrapArticleWrite("set article active", ensureAffected(db, result, &articleRecord{}, id, domain.ErrArticleNotFound))
}

func (r *articleRepository) SetStock(ctx context.Context, id string, stock int, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&articleRecord{}).Where("id = ?", id).Updates(map[string]any{
		"stock":       stock,
		"modified_at": now,
	})
	return wrapArticleWrite("set article stock", ensureAffected(db, result, &articleRecord{}, id, domain.ErrArticleNotFound))
}

func (r *articleRepository) DecrementStockIfEnough(ctx context.Context, id string, qty int, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return decrementStock(r.db.WithContext(ctx), id, qty, now)
}

// decrementStock: условное списание одним UPDATE; строка меняется, только если остатка хватает.
func decrementStock(tx *gorm.DB, id string, qty int, now time.Time) (bool, error) {
	result := tx.Model(&articleRecord{}).
		Where("id = ? AND active = ? AND stock >= ?", id, true, qty).
		Updates(map[string]any{
			"stock":       gorm.Expr("stock - ?", qty),
			"modified_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("decrement article stock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func wrapArticleWrite(op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrArticleNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ domain.ArticleRepository = (*articleRepository)(nil)
