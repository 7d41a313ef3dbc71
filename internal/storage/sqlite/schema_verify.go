package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/chrisroyse/docprov/internal/common"
)

// VerifySchema confirms every expected table and index exists after
// migration (§4.1 step e). Any gap fails with SchemaError rather than
// letting a later query fail with a confusing "no such table".
func VerifySchema(ctx context.Context, db *sql.DB) error {
	present, err := existingNames(ctx, db, "table")
	if err != nil {
		return common.SchemaError("failed to list tables", err)
	}
	var missing []string
	for _, t := range expectedTables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return common.SchemaError(fmt.Sprintf("missing tables: %s", strings.Join(missing, ", ")), nil)
	}

	presentIdx, err := existingNames(ctx, db, "index")
	if err != nil {
		return common.SchemaError("failed to list indexes", err)
	}
	var missingIdx []string
	for _, idx := range expectedIndexes {
		if !presentIdx[idx] {
			missingIdx = append(missingIdx, idx)
		}
	}
	if len(missingIdx) > 0 {
		return common.SchemaError(fmt.Sprintf("missing indexes: %s", strings.Join(missingIdx, ", ")), nil)
	}

	return nil
}

func existingNames(ctx context.Context, db *sql.DB, sqliteType string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = ?", sqliteType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

// IsNoSuchTable reports whether err is SQLite's "no such table" error, the
// one case the design notes call out as legitimately tolerable when
// operating against an older schema version - every other error must
// re-raise (§7, §9 "fail-loud catch blocks").
func IsNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
