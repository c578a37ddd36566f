package healthrecord

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/pkg/s3"
)

const (
	maxContentLength = 20000
	keyPrefix        = "health-records"
)

// allowedTypes maps accepted upload content types to the key extension.
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"text/plain":      ".txt",
}

// AttachmentStore is implemented by *s3.Client.
type AttachmentStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (*s3.Presigned, error)
	PresignDownload(ctx context.Context, key string) (*s3.Presigned, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type AppendRequest struct {
	UserID        uuid.UUID
	Kind          repo.RecordKind
	Content       string
	AttachmentKey *string
}

type ListRequest struct {
	UserID   uuid.UUID
	ReaderID uuid.UUID
	Page     repo.Page
}

type PresignRequest struct {
	UserID      uuid.UUID
	Filename    string
	ContentType string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*repo.HealthRecord, error)
	// ListForUser is open to the owner and to consultants holding an
	// accepted booking with the owner.
	ListForUser(ctx context.Context, req ListRequest) ([]*repo.HealthRecord, error)
	PresignAttachment(ctx context.Context, req PresignRequest) (*s3.Presigned, error)
	AttachmentURL(ctx context.Context, userID, readerID uuid.UUID, key string) (*s3.Presigned, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type service struct {
	store repo.Store
	files AttachmentStore
}

// New builds the service. files may be nil when no bucket is configured.
func New(store repo.Store, files AttachmentStore) Service {
	return &service{store: store, files: files}
}

func (s *service) Append(ctx context.Context, req AppendRequest) (*repo.HealthRecord, error) {
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, ErrContentTooLong
	}
	if req.AttachmentKey != nil && !ownsKey(req.UserID, *req.AttachmentKey) {
		return nil, ErrInvalidAttachment
	}

	rec := &repo.HealthRecord{
		ID:            uuid.Must(uuid.NewV7()),
		UserID:        req.UserID,
		Kind:          req.Kind,
		Content:       content,
		AttachmentKey: req.AttachmentKey,
		CreatedAt:     time.Now().UTC(),
	}
	err := s.store.InTx(ctx, func(tx repo.Store) error {
		if err := tx.HealthRecords().Create(ctx, rec); err != nil {
			return fmt.Errorf("create health record: %w", err)
		}
		return tx.AuditLogs().Create(ctx, repo.NewAuditLog(req.UserID, "health_record.appended", "health_record", rec.ID,
			map[string]any{"kind": string(rec.Kind)}))
	})
	if err != nil {
		return nil, err
	}

	slog.Info("health record appended", "record_id", rec.ID, "user_id", rec.UserID, "kind", rec.Kind)
	return rec, nil
}

func (s *service) ListForUser(ctx context.Context, req ListRequest) ([]*repo.HealthRecord, error) {
	if err := s.canRead(ctx, req.UserID, req.ReaderID); err != nil {
		return nil, err
	}
	list, err := s.store.HealthRecords().ListByUser(ctx, req.UserID, req.Page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	return list, nil
}

// PresignAttachment returns an upload URL under health-records/<user>/.
// The returned key is what Append expects as AttachmentKey.
func (s *service) PresignAttachment(ctx context.Context, req PresignRequest) (*s3.Presigned, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	ct := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedTypes[ct]
	if !ok {
		return nil, ErrUnsupportedFileType
	}
	if !extMatches(req.Filename, ext) {
		return nil, ErrUnsupportedFileType
	}

	key := fmt.Sprintf("%s/%s/%s%s", keyPrefix, req.UserID, uuid.Must(uuid.NewV7()), ext)
	return s.files.PresignUpload(ctx, key, ct)
}

func (s *service) AttachmentURL(ctx context.Context, userID, readerID uuid.UUID, key string) (*s3.Presigned, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	if !ownsKey(userID, key) {
		return nil, ErrInvalidAttachment
	}
	if err := s.canRead(ctx, userID, readerID); err != nil {
		return nil, err
	}
	return s.files.PresignDownload(ctx, key)
}

func (s *service) canRead(ctx context.Context, owner, reader uuid.UUID) error {
	if owner == reader {
		return nil
	}
	ok, err := s.store.Bookings().ExistsBetween(ctx, owner, reader, repo.BookingAccepted)
	if err != nil {
		return fmt.Errorf("check booking: %w", err)
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// extMatches accepts a missing filename or one whose extension agrees with
// the declared content type.
func extMatches(filename, ext string) bool {
	name := strings.TrimSpace(filename)
	if name == "" {
		return true
	}
	given := strings.ToLower(path.Ext(name))
	return given == ext || (ext == ".jpg" && given == ".jpeg")
}

func ownsKey(userID uuid.UUID, key string) bool {
	prefix := keyPrefix + "/" + userID.String() + "/"
	return strings.HasPrefix(key, prefix) && !strings.Contains(key[len(prefix):], "/") && len(key) > len(prefix)
}
