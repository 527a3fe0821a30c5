package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"knockknock/pkg/domain"
)

const (
	migrateLockID    int64 = 51735173
	defaultGormTable       = "phrase_models"
)

// GormStore implements PhraseStore on Postgres through GORM.
type GormStore struct {
	db    *gorm.DB
	table string
}

// NewGormStore opens the database and migrates the phrase table. The table
// is named after table (see TableIdent).
func NewGormStore(dsn, table string) (*GormStore, error) {
	table = TableIdent(table)
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.Table(table).AutoMigrate(&PhraseModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, table: table}, nil
}

// TableIdent turns a logical table name such as "knock-knock" into a plain
// SQL identifier ("knock_knock"). Blank names map to phrase_models.
func TableIdent(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('t')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return defaultGormTable
	}
	return b.String()
}

func (s *GormStore) query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withMigrationLock serialises AutoMigrate across replicas with a Postgres
// advisory lock held on a single connection.
func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := advisory(ctx, conn, "SELECT pg_advisory_lock($1)"); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = advisory(ctx, conn, "SELECT pg_advisory_unlock($1)")
	}()
	return fn(db)
}

func advisory(ctx context.Context, conn *sql.Conn, query string) error {
	_, err := conn.ExecContext(ctx, query, migrateLockID)
	return err
}

func (s *GormStore) PutPhrase(ctx context.Context, p domain.Phrase) error {
	model := phraseToModel(p)
	err := s.query(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"expression_jp", "expression_kr", "pronunciation", "delivery_count", "created_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("put phrase %s: %w", p.ID, err)
	}
	return nil
}

func (s *GormStore) ScanPhrases(ctx context.Context) ([]domain.Phrase, error) {
	var models []PhraseModel
	if err := s.query(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("scan phrases: %w", err)
	}
	out := make([]domain.Phrase, 0, len(models))
	for _, m := range models {
		out = append(out, phraseFromModel(m))
	}
	return out, nil
}

// IncrementCount issues a single UPDATE ... RETURNING so concurrent callers
// never lose an increment.
func (s *GormStore) IncrementCount(ctx context.Context, key domain.Key) (int64, error) {
	var updated PhraseModel
	res := s.query(ctx).
		Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "delivery_count"}}}).
		Where("id = ? AND language = ?", key.ID, key.Language).
		UpdateColumn("delivery_count", gorm.Expr("delivery_count + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment %s: %w", key.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrPhraseNotFound
	}
	return updated.DeliveryCount, nil
}

func (s *GormStore) GetPhrase(ctx context.Context, key domain.Key) (domain.Phrase, error) {
	var model PhraseModel
	err := s.query(ctx).First(&model, "id = ? AND language = ?", key.ID, key.Language).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Phrase{}, ErrPhraseNotFound
		}
		return domain.Phrase{}, fmt.Errorf("get phrase %s: %w", key.ID, err)
	}
	return phraseFromModel(model), nil
}
