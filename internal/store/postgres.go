package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pgUniqueViolation is the SQLSTATE for a violated unique constraint.
const pgUniqueViolation = "23505"

// PostgresStore keeps contacts in a PostgreSQL table through the gorm OR mapper.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgresStore connects to PostgreSQL using the specified data source name.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	return newPostgresStore(postgres.Open(dsn))
}

// NewPostgresStore uses an existing connection, e.g. a mock database within unit tests.
func NewPostgresStore(conn gorm.ConnPool) (*PostgresStore, error) {
	return newPostgresStore(postgres.New(postgres.Config{Conn: conn}))
}

func newPostgresStore(dialector gorm.Dialector) (*PostgresStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		// Every operation is a single statement.
		SkipDefaultTransaction: true,

		// Failures are logged by the HTTP layer.
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),

		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	return contacts, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	err := s.db.WithContext(ctx).First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select contact %d: %w", id, err)
	}
	return &contact, nil
}

func (s *PostgresStore) Create(ctx context.Context, c *model.Contact) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return postgresError("insert contact", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *model.Contact) error {
	result := s.db.WithContext(ctx).
		Model(&model.Contact{}).
		Where("id = ?", c.Id).
		Updates(map[string]any{
			"name":  c.Name,
			"email": c.Email,
			"phone": c.Phone,
		})
	if result.Error != nil {
		return postgresError("update contact", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func postgresError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return conflict(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
