package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

// SchemaMigration records which versioned migrations have been applied.
type SchemaMigration struct {
	Version     int    `gorm:"primaryKey"`
	Description string `gorm:"type:text"`
	AppliedAt   time.Time
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	version     int
	description string
	run         func(tx *gorm.DB) error
}

// Migrate applies all pending migrations in order, each inside its own
// transaction. Re-running is a no-op for versions already recorded in
// schema_migrations.
func (s *Service) Migrate() error {
	if err := s.db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	row := s.db.Model(&SchemaMigration{}).Select("COALESCE(MAX(version), 0)").Row()
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("read current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		s.log.Info("Applying migration", "version", m.version, "description", m.description)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:     m.version,
				Description: m.description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
	}
	return nil
}

var migrations = []migration{
	{1, "base content tables", func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&types.Industry{},
			&types.User{},
			&types.Category{},
			&types.CategoryIndustryAccess{},
			&types.Video{},
			&types.VideoTranscript{},
			&types.Progress{},
			&types.IndustryUsecase{},
			&types.ChatHistory{},
		)
	}},
	{2, "tenants, departments, access logs", func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&types.Tenant{}, &types.Department{}, &types.AccessLog{}); err != nil {
			return err
		}
		// User gained tenant_id, department_id, role after the first release.
		return tx.AutoMigrate(&types.User{})
	}},
	{3, "seed industries", seedIndustries},
	{4, "seed tenants", seedTenants},
	{5, "seed departments", seedDepartments},
	{6, "seed accounts", seedUsers},
	{7, "seed categories and industry access", seedCategories},
	{8, "seed industry usecases", seedUsecases},
	{9, "backfill category and video slugs", backfillSlugs},
	{10, "default role for legacy users", func(tx *gorm.DB) error {
		return tx.Model(&types.User{}).
			Where("role IS NULL OR role = ''").
			Update("role", "user").Error
	}},
	{11, "purge throwaway accounts", func(tx *gorm.DB) error {
		// SQLite's LIKE has no default escape character, so the underscore
		// must be escaped explicitly or it matches any character.
		return tx.Where("username LIKE ? ESCAPE '\\'", "test\\_%").Delete(&types.User{}).Error
	}},
	{12, "ensure each tenant has an admin", ensureTenantAdmins},
	{13, "video Q&A tables", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&types.VideoQuestion{}, &types.VideoAnswer{})
	}},
	{14, "announcements table", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&types.Announcement{})
	}},
	{15, "external knowledge table", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&types.ExternalKnowledge{})
	}},
	{16, "transcription job queue", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&types.TranscriptionJob{})
	}},
}
