package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuildEntry is one persisted document.
type GuildEntry struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Key       string `gorm:"primaryKey;size:32"`
	Value     []byte
	UpdatedAt time.Time
}

// Gorm stores documents in a relational table through gorm.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the guild_entries table and returns a store backed by it.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&GuildEntry{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, guildID, key string) ([]byte, error) {
	var e GuildEntry
	err := g.db.WithContext(ctx).Where("guild_id = ? AND key = ?", guildID, key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (g *Gorm) Set(ctx context.Context, guildID, key string, value []byte) error {
	e := GuildEntry{GuildID: guildID, Key: key, Value: value, UpdatedAt: time.Now()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (g *Gorm) Delete(ctx context.Context, guildID, key string) error {
	return g.db.WithContext(ctx).Where("guild_id = ? AND key = ?", guildID, key).Delete(&GuildEntry{}).Error
}
