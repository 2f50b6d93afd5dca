package migrations

import (
	"context"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260115000000, down_20260115000000)
}

// up_20260115000000 initializes the full database schema
func up_20260115000000(ctx context.Context, db *bun.DB) error {
	// 1. api_tokens
	fmt.Print(" [up] creating api_tokens table...")
	_, err := db.NewCreateTable().
		Model((*models.APIToken)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create api_tokens table: %w", err)
	}
	fmt.Println(" OK")

	// 2. layers
	fmt.Print(" [up] creating layers table...")
	_, err = db.NewCreateTable().
		Model((*models.DataLayer)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create layers table: %w", err)
	}
	fmt.Println(" OK")

	// 3. geo_views
	fmt.Print(" [up] creating geo_views table...")
	_, err = db.NewCreateTable().
		Model((*models.GeoView)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create geo_views table: %w", err)
	}
	fmt.Println(" OK")

	// 4. view_layers association table
	fmt.Print(" [up] creating view_layers table...")
	q := db.NewCreateTable().
		Model((*models.ViewLayer)(nil)).
		IfNotExists()
	// For SQLite, define FKs during table creation
	if IsSQLite(db) {
		q = q.ForeignKey(`(view_id) REFERENCES geo_views(id) ON DELETE CASCADE`)
		q = q.ForeignKey(`(layer_id) REFERENCES layers(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create view_layers table: %w", err)
	}
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_view_layers_unique_pair
		ON view_layers(view_id, layer_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on (view_id, layer_id): %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_view_layers_view ON view_layers(view_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on view_id: %w", err)
	}
	fmt.Println(" OK")

	// 5. features
	fmt.Print(" [up] creating features table...")
	q = db.NewCreateTable().
		Model((*models.Feature)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(layer_id) REFERENCES layers(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create features table: %w", err)
	}
	// The unique content_hash index is the dedup boundary: concurrent inserts
	// with identical content cannot both succeed.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_features_content_hash
		ON features(content_hash)
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on content_hash: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_features_layer ON features(layer_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on layer_id: %w", err)
	}
	fmt.Println(" OK")

	// 6. role_bindings
	fmt.Print(" [up] creating role_bindings table...")
	q = db.NewCreateTable().
		Model((*models.RoleBinding)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(token_id) REFERENCES api_tokens(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create role_bindings table: %w", err)
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_role_bindings_lookup
		ON role_bindings(token_id, resource_id, resource_kind)
	`)
	if err != nil {
		return fmt.Errorf("failed to create lookup index on role_bindings: %w", err)
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_role_bindings_resource
		ON role_bindings(resource_id, resource_kind)
	`)
	if err != nil {
		return fmt.Errorf("failed to create resource index on role_bindings: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260115000000 drops the full schema
func down_20260115000000(ctx context.Context, db *bun.DB) error {
	for _, table := range []string{"role_bindings", "features", "view_layers", "geo_views", "layers", "api_tokens"} {
		fmt.Printf(" [down] dropping %s table...", table)
		if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
