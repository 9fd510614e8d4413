package postgres

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

const defaultDimensions = 1536

type migrationOptions struct {
	dimensions     int
	m              int
	efConstruction int
}

func runMigrations(db *gorm.DB, opts migrationOptions) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations(opts))
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func migrations(opts migrationOptions) []*gormigrate.Migration {
	dims := opts.dimensions
	if dims <= 0 {
		dims = defaultDimensions
	}
	hnswM := opts.m
	if hnswM <= 0 {
		hnswM = 16
	}
	efc := opts.efConstruction
	if efc <= 0 {
		efc = 64
	}

	return []*gormigrate.Migration{
		{
			ID: "001_pgvector_extension",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP EXTENSION IF EXISTS vector").Error
			},
		},
		{
			ID: "002_prompts_interactions",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Prompt{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Interaction{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("interactions", "prompts")
			},
		},
		{
			ID: "003_prompt_embedding",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					fmt.Sprintf("ALTER TABLE prompts ADD COLUMN IF NOT EXISTS embedding vector(%d)", dims),
					fmt.Sprintf(
						"CREATE INDEX IF NOT EXISTS idx_prompts_embedding_hnsw ON prompts "+
							"USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)",
						hnswM, efc),
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Exec("DROP INDEX IF EXISTS idx_prompts_embedding_hnsw").Error; err != nil {
					return err
				}
				return tx.Exec("ALTER TABLE prompts DROP COLUMN IF EXISTS embedding").Error
			},
		},
		{
			ID: "004_prompt_search_indexes",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					"CREATE INDEX IF NOT EXISTS idx_prompts_tags ON prompts USING gin (tags)",
					"CREATE INDEX IF NOT EXISTS idx_prompts_public_views ON prompts (view_count DESC, id) WHERE is_public",
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Exec("DROP INDEX IF EXISTS idx_prompts_public_views").Error; err != nil {
					return err
				}
				return tx.Exec("DROP INDEX IF EXISTS idx_prompts_tags").Error
			},
		},
	}
}
