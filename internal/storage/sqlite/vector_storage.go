package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// VectorStore implements the C9 adapter over the vec_embeddings vec0
// virtual table.
type VectorStore struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.VectorStore = (*VectorStore)(nil)

func NewVectorStore(db *SQLiteDB, logger arbor.ILogger) *VectorStore {
	return &VectorStore{db: db, logger: logger}
}

func (v *VectorStore) Store(ctx context.Context, embeddingID string, vector []float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, err := v.db.db.ExecContext(ctx,
		"INSERT INTO vec_embeddings (embedding_id, vector) VALUES (?, ?)",
		embeddingID, serializeFloat32(vector))
	if err != nil {
		return wrapWriteError(err, "failed to store vector")
	}
	return nil
}

func (v *VectorStore) Get(ctx context.Context, embeddingID string) ([]float32, bool, error) {
	var raw []byte
	err := v.db.db.QueryRowContext(ctx,
		"SELECT vector FROM vec_embeddings WHERE embedding_id = ?", embeddingID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, common.Internal("failed to read vector", err)
	}
	return deserializeFloat32(raw), true, nil
}

func (v *VectorStore) Delete(ctx context.Context, embeddingID string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.db.db.ExecContext(ctx, "DELETE FROM vec_embeddings WHERE embedding_id = ?", embeddingID)
	if err != nil {
		return false, wrapWriteError(err, "failed to delete vector")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.Internal("failed to read rows affected", err)
	}
	return n > 0, nil
}

// KNN queries the nearest neighbors to query. Results come back ordered
// ascending by distance already; vec0 breaks ties by rowid insertion order.
func (v *VectorStore) KNN(ctx context.Context, query []float32, opts interfaces.KNNOptions) ([]models.VectorSearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	args := []interface{}{serializeFloat32(query)}
	where := "vector MATCH ? AND k = ?"
	args = append(args, limit)

	if len(opts.Filter) > 0 {
		placeholders := make([]string, len(opts.Filter))
		for i, id := range opts.Filter {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where += fmt.Sprintf(" AND embedding_id IN (%s)", strings.Join(placeholders, ", "))
	}

	rows, err := v.db.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT embedding_id, distance FROM vec_embeddings WHERE %s ORDER BY distance", where), args...)
	if err != nil {
		return nil, common.Internal("failed to run KNN query", err)
	}
	defer rows.Close()

	var results []models.VectorSearchResult
	for rows.Next() {
		var r models.VectorSearchResult
		if err := rows.Scan(&r.EmbeddingID, &r.Distance); err != nil {
			return nil, common.Internal("failed to scan KNN row", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := v.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vec_embeddings").Scan(&n)
	if err != nil {
		return 0, common.Internal("failed to count vectors", err)
	}
	return n, nil
}

// serializeFloat32 packs a float32 slice into the little-endian byte layout
// sqlite-vec expects for a FLOAT[] column.
func serializeFloat32(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}
