package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/chrisroyse/docprov/internal/common"
	"github.com/chrisroyse/docprov/internal/interfaces"
	"github.com/chrisroyse/docprov/internal/models"
)

// ProvenanceStorage implements the C4 provenance graph manager: it creates
// provenance rows, computes chain_depth/parent_ids/chain_path from the
// parent, and lazily creates the synthetic orphaned root.
type ProvenanceStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.ProvenanceStorage = (*ProvenanceStorage)(nil)

func NewProvenanceStorage(db *SQLiteDB, logger arbor.ILogger) *ProvenanceStorage {
	return &ProvenanceStorage{db: db, logger: logger}
}

// Create inserts a new provenance row, computing chain_depth, parent_ids
// and chain_path from the parent named in spec.ParentID (§4.3). A DOCUMENT
// with no parent becomes its own root: root_document_id = self.id, depth 0,
// empty parent list.
func (s *ProvenanceStorage) Create(ctx context.Context, spec models.ProvenanceSpec) (*models.Provenance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := common.ValidateStruct(spec); err != nil {
		return nil, err
	}

	id := common.NewID("prov_")
	p := &models.Provenance{
		ID:               id,
		Type:             spec.Type,
		SourceType:       spec.SourceType,
		SourceID:         spec.SourceID,
		ParentID:         spec.ParentID,
		ContentHash:      spec.ContentHash,
		InputHash:        spec.InputHash,
		FileHash:         spec.FileHash,
		Processor:        spec.Processor,
		ProcessorVersion: spec.ProcessorVersion,
		ProcessingParams: spec.ProcessingParams,
		DurationMS:       spec.DurationMS,
		QualityScore:     spec.QualityScore,
		CreatedAt:        time.Now().UTC(),
	}

	if spec.ParentID == nil {
		if spec.Type != models.ProvenanceDocument {
			return nil, common.Validation("non-DOCUMENT provenance must have a parent_id")
		}
		p.RootDocumentID = id
		p.ChainDepth = 0
		p.ParentIDs = []string{}
		p.ChainPath = []models.ProvenanceType{spec.Type}
	} else {
		parent, err := s.get(ctx, s.db.db, *spec.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, common.ForeignKeyViolation("parent_id does not reference an existing provenance row", nil)
		}
		p.RootDocumentID = parent.RootDocumentID
		p.ChainDepth = parent.ChainDepth + 1
		p.ParentIDs = append(append([]string{}, parent.ParentIDs...), *spec.ParentID)
		p.ChainPath = append(append([]models.ProvenanceType{}, parent.ChainPath...), spec.Type)
	}

	if err := s.insert(ctx, s.db.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProvenanceStorage) insert(ctx context.Context, execer execer, p *models.Provenance) error {
	parentIDsJSON, err := marshalJSON(p.ParentIDs)
	if err != nil {
		return common.Internal("failed to marshal parent_ids", err)
	}
	chainPathJSON, err := marshalJSON(p.ChainPath)
	if err != nil {
		return common.Internal("failed to marshal chain_path", err)
	}
	paramsJSON, err := marshalJSON(p.ProcessingParams)
	if err != nil {
		return common.Internal("failed to marshal processing_params", err)
	}

	_, err = execer.ExecContext(ctx, `
		INSERT INTO provenance (
			id, type, source_type, source_id, parent_id, parent_ids, root_document_id,
			chain_depth, chain_path, content_hash, input_hash, file_hash,
			processor, processor_version, processing_params, duration_ms, quality_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.SourceType, p.SourceID, p.ParentID, parentIDsJSON, p.RootDocumentID,
		p.ChainDepth, chainPathJSON, p.ContentHash, p.InputHash, p.FileHash,
		p.Processor, p.ProcessorVersion, paramsJSON, p.DurationMS, p.QualityScore,
		p.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return wrapWriteError(err, "failed to insert provenance row")
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *ProvenanceStorage) Get(ctx context.Context, id string) (*models.Provenance, error) {
	p, err := s.get(ctx, s.db.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.NotFound("provenance not found: " + id)
	}
	return p, nil
}

func (s *ProvenanceStorage) get(ctx context.Context, q queryer, id string) (*models.Provenance, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, type, source_type, source_id, parent_id, parent_ids, root_document_id,
		       chain_depth, chain_path, content_hash, input_hash, file_hash,
		       processor, processor_version, processing_params, duration_ms, quality_score, created_at
		FROM provenance WHERE id = ?`, id)
	p, err := scanProvenance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Internal("failed to scan provenance row", err)
	}
	return p, nil
}

func scanProvenance(row *sql.Row) (*models.Provenance, error) {
	var p models.Provenance
	var typ string
	var parentIDsJSON, chainPathJSON, paramsJSON string
	var createdAt string

	err := row.Scan(&p.ID, &typ, &p.SourceType, &p.SourceID, &p.ParentID, &parentIDsJSON,
		&p.RootDocumentID, &p.ChainDepth, &chainPathJSON, &p.ContentHash, &p.InputHash, &p.FileHash,
		&p.Processor, &p.ProcessorVersion, &paramsJSON, &p.DurationMS, &p.QualityScore, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Type = models.ProvenanceType(typ)
	if err := unmarshalJSONInto(parentIDsJSON, &p.ParentIDs); err != nil {
		return nil, err
	}
	var rawPath []string
	if err := unmarshalJSONInto(chainPathJSON, &rawPath); err != nil {
		return nil, err
	}
	for _, t := range rawPath {
		p.ChainPath = append(p.ChainPath, models.ProvenanceType(t))
	}
	if err := unmarshalJSONInto(paramsJSON, &p.ProcessingParams); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}

// ChainOf returns the provenance chain from id to its root, ordered
// leaf-first.
func (s *ProvenanceStorage) ChainOf(ctx context.Context, id string) ([]*models.Provenance, error) {
	leaf, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	chain := []*models.Provenance{leaf}
	for i := len(leaf.ParentIDs) - 1; i >= 0; i-- {
		p, err := s.get(ctx, s.db.db, leaf.ParentIDs[i])
		if err != nil {
			return nil, err
		}
		if p == nil {
			break
		}
		chain = append(chain, p)
	}
	return chain, nil
}

func (s *ProvenanceStorage) ChildrenOf(ctx context.Context, id string) ([]*models.Provenance, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, type, source_type, source_id, parent_id, parent_ids, root_document_id,
		       chain_depth, chain_path, content_hash, input_hash, file_hash,
		       processor, processor_version, processing_params, duration_ms, quality_score, created_at
		FROM provenance WHERE parent_id = ?`, id)
	if err != nil {
		return nil, common.Internal("failed to list children", err)
	}
	defer rows.Close()
	return scanProvenanceRows(rows)
}

func (s *ProvenanceStorage) ByRootDocument(ctx context.Context, rootDocumentID string) ([]*models.Provenance, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, type, source_type, source_id, parent_id, parent_ids, root_document_id,
		       chain_depth, chain_path, content_hash, input_hash, file_hash,
		       processor, processor_version, processing_params, duration_ms, quality_score, created_at
		FROM provenance WHERE root_document_id = ? ORDER BY chain_depth ASC`, rootDocumentID)
	if err != nil {
		return nil, common.Internal("failed to list provenance by root document", err)
	}
	defer rows.Close()
	return scanProvenanceRows(rows)
}

func scanProvenanceRows(rows *sql.Rows) ([]*models.Provenance, error) {
	var result []*models.Provenance
	for rows.Next() {
		var p models.Provenance
		var typ string
		var parentIDsJSON, chainPathJSON, paramsJSON, createdAt string
		if err := rows.Scan(&p.ID, &typ, &p.SourceType, &p.SourceID, &p.ParentID, &parentIDsJSON,
			&p.RootDocumentID, &p.ChainDepth, &chainPathJSON, &p.ContentHash, &p.InputHash, &p.FileHash,
			&p.Processor, &p.ProcessorVersion, &paramsJSON, &p.DurationMS, &p.QualityScore, &createdAt); err != nil {
			return nil, common.Internal("failed to scan provenance row", err)
		}
		p.Type = models.ProvenanceType(typ)
		_ = unmarshalJSONInto(parentIDsJSON, &p.ParentIDs)
		var rawPath []string
		_ = unmarshalJSONInto(chainPathJSON, &rawPath)
		for _, t := range rawPath {
			p.ChainPath = append(p.ChainPath, models.ProvenanceType(t))
		}
		_ = unmarshalJSONInto(paramsJSON, &p.ProcessingParams)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			p.CreatedAt = t
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// EnsureOrphanedRoot lazily creates the synthetic ORPHANED_ROOT DOCUMENT
// provenance row on first need (§4.5). Safe to call repeatedly - only one
// writer runs at a time, so concurrent creation cannot happen (§5).
func (s *ProvenanceStorage) EnsureOrphanedRoot(ctx context.Context) (*models.Provenance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(ctx, s.db.db, models.OrphanedRootID())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p := &models.Provenance{
		ID:               models.OrphanedRootID(),
		Type:             models.ProvenanceDocument,
		SourceType:       "system",
		RootDocumentID:   models.OrphanedRootID(),
		ChainDepth:       0,
		ParentIDs:        []string{},
		ChainPath:        []models.ProvenanceType{models.ProvenanceDocument},
		ContentHash:      common.ComputeHash(models.OrphanedRootID()),
		Processor:        "system",
		ProcessingParams: map[string]interface{}{},
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.insert(ctx, s.db.db, p); err != nil {
		return nil, err
	}
	return p, nil
}
