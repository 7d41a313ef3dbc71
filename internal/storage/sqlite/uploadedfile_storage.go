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

// UploadedFileStorage implements typed CRUD over the uploaded_files table -
// the pre-ingestion staging record for a raw file handed to the pipeline
// before a Document row exists for it.
type UploadedFileStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

var _ interfaces.UploadedFileStorage = (*UploadedFileStorage)(nil)

func NewUploadedFileStorage(db *SQLiteDB, logger arbor.ILogger) *UploadedFileStorage {
	return &UploadedFileStorage{db: db, logger: logger}
}

func (s *UploadedFileStorage) Create(ctx context.Context, file *models.UploadedFile) (*models.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file.ID == "" {
		file.ID = common.NewID("upload_")
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO uploaded_files (id, file_path, file_hash, file_size, uploaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		file.ID, file.FilePath, file.FileHash, file.FileSize, file.UploadedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, wrapWriteError(err, "failed to insert uploaded file")
	}
	return file, nil
}

func (s *UploadedFileStorage) Get(ctx context.Context, id string) (*models.UploadedFile, error) {
	var f models.UploadedFile
	var uploadedAt string
	err := s.db.db.QueryRowContext(ctx,
		"SELECT id, file_path, file_hash, file_size, uploaded_at FROM uploaded_files WHERE id = ?", id,
	).Scan(&f.ID, &f.FilePath, &f.FileHash, &f.FileSize, &uploadedAt)
	if err == sql.ErrNoRows {
		return nil, common.NotFound("uploaded file not found")
	}
	if err != nil {
		return nil, common.Internal("failed to scan uploaded file", err)
	}
	f.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
	return &f, nil
}
