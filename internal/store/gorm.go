package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/rrt-logic/internal/engine"
)

// gameRecord is the save_games row. Config and State hold the engine's JSON
// encoding.
type gameRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"uniqueIndex;size:16;not null"`
	Seed      int64     `gorm:"not null"`
	Version   int       `gorm:"not null"`
	Config    []byte    `gorm:"type:jsonb;not null"`
	State     []byte    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (gameRecord) TableName() string { return "save_games" }

func toRecord(g Game) (gameRecord, error) {
	if g.State == nil {
		return gameRecord{}, ErrNoState
	}
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return gameRecord{}, fmt.Errorf("encode config: %w", err)
	}
	state, err := json.Marshal(g.State)
	if err != nil {
		return gameRecord{}, fmt.Errorf("encode state: %w", err)
	}
	return gameRecord{
		ID:      uuid.New(),
		Code:    g.Code,
		Seed:    int64(g.Seed),
		Version: g.Version,
		Config:  cfg,
		State:   state,
	}, nil
}

func fromRecord(r gameRecord) (Game, error) {
	g := Game{Code: r.Code, Seed: uint64(r.Seed), Version: r.Version}
	if err := json.Unmarshal(r.Config, &g.Config); err != nil {
		return Game{}, fmt.Errorf("decode config: %w", err)
	}
	g.State = new(engine.TableState)
	if err := json.Unmarshal(r.State, g.State); err != nil {
		return Game{}, fmt.Errorf("decode state: %w", err)
	}
	if g.State.OperatorCount() != g.Config.OperatorCount() {
		return Game{}, fmt.Errorf("decode %s: state has %d operators, config %d",
			r.Code, g.State.OperatorCount(), g.Config.OperatorCount())
	}
	return g, nil
}

// Gorm stores save games in Postgres.
type Gorm struct {
	db *gorm.DB
}

// OpenPostgres connects with dsn and migrates the save_games table.
func OpenPostgres(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGorm(db)
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&gameRecord{}); err != nil {
		return nil, fmt.Errorf("migrate save_games: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (s *Gorm) Save(ctx context.Context, g Game) error {
	rec, err := toRecord(g)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "state", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", g.Code, err)
	}
	return nil
}

func (s *Gorm) Load(ctx context.Context, code string) (Game, error) {
	var rec gameRecord
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Game{}, ErrNotFound
	}
	if err != nil {
		return Game{}, fmt.Errorf("load %s: %w", code, err)
	}
	return fromRecord(rec)
}

func (s *Gorm) Delete(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("code = ?", code).Delete(&gameRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Gorm) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
