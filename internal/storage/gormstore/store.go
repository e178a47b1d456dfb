// Package gormstore хранит данные через gorm: SQLite для однопользовательской установки
// и MySQL для серверной.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const (
	// DriverSQLite: встроенная база в файле или памяти.
	DriverSQLite = "sqlite"
	// DriverMySQL: внешний сервер MySQL/MariaDB.
	DriverMySQL = "mysql"

	opTimeout = 5 * time.Second
)

// Store держит единственный *gorm.DB на весь процесс.
type Store struct {
	db *gorm.DB
}

// Open подключается к базе выбранного драйвера и приводит схему к актуальной.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access %s pool: %w", driver, err)
	}
	if dialector.Name() == DriverSQLite {
		// SQLite допускает одного писателя; одно соединение исключает "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&clientRecord{}, &articleRecord{}, &orderRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return store, nil
}

// Clients возвращает gorm-реализацию ClientRepository.
func (s *Store) Clients() domain.ClientRepository {
	return &clientRepository{db: s.db}
}

// Articles возвращает gorm-реализацию ArticleRepository.
func (s *Store) Articles() domain.ArticleRepository {
	return &articleRepository{db: s.db}
}

// Orders возвращает gorm-реализацию OrderRepository.
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepository{db: s.db}
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// Close закрывает пул подключений.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureAffected различает "запись не найдена" и "значение не изменилось":
// MySQL не считает строку затронутой, если новое значение совпадает со старым.
func ensureAffected(tx *gorm.DB, result *gorm.DB, model any, id string, notFound error) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// likeEscape: символ экранирования в LIKE. Не обратная косая черта, потому что в MySQL
// её пришлось бы удваивать в самом SQL-литерале, а SQLite понимает её буквально.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// likePattern строит шаблон поиска подстроки: % и _ из запроса ищутся буквально.
// Использовать вместе с likeClause.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// likeClause возвращает условие "LOWER(column) LIKE ? ESCAPE '!'".
func likeClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
}
