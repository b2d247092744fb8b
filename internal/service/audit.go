package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"medcare-admin/internal/model"

	"gorm.io/gorm"
)

// AuditLog persists a before/after trail of changes made through the API
type AuditLog interface {
	Record(ctx context.Context, entry model.AuditEntry) error
	List(ctx context.Context, filters AuditFilters) ([]model.AuditEntry, error)
}

// AuditFilters narrows an audit log listing
type AuditFilters struct {
	From         time.Time
	To           time.Time
	ResourceType string
	ResourceID   string
	Limit        int
}

// DatabaseAuditLog is the database-backed audit log
type DatabaseAuditLog struct {
	db *gorm.DB
}

// NewDatabaseAuditLog creates a new database-backed audit log
func NewDatabaseAuditLog(db *gorm.DB) *DatabaseAuditLog {
	return &DatabaseAuditLog{db: db}
}

func (s *DatabaseAuditLog) entryToDB(entry model.AuditEntry) (*model.AuditEntryDB, error) {
	before, err := marshalState(entry.Before)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal before state: %w", err)
	}
	after, err := marshalState(entry.After)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal after state: %w", err)
	}

	return &model.AuditEntryDB{
		ID:           entry.ID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Before:       before,
		After:        after,
		ChangedBy:    entry.ChangedBy,
		ChangedAt:    entry.ChangedAt,
		Reason:       entry.Reason,
	}, nil
}

func (s *DatabaseAuditLog) entryFromDB(dbEntry model.AuditEntryDB) (model.AuditEntry, error) {
	var before, after interface{}

	if dbEntry.Before != nil && *dbEntry.Before != "" {
		if err := json.Unmarshal([]byte(*dbEntry.Before), &before); err != nil {
			return model.AuditEntry{}, fmt.Errorf("failed to unmarshal before state: %w", err)
		}
	}
	if dbEntry.After != nil && *dbEntry.After != "" {
		if err := json.Unmarshal([]byte(*dbEntry.After), &after); err != nil {
			return model.AuditEntry{}, fmt.Errorf("failed to unmarshal after state: %w", err)
		}
	}

	return model.AuditEntry{
		ID:           dbEntry.ID,
		Action:       dbEntry.Action,
		ResourceType: dbEntry.ResourceType,
		ResourceID:   dbEntry.ResourceID,
		Before:       before,
		After:        after,
		ChangedBy:    dbEntry.ChangedBy,
		ChangedAt:    dbEntry.ChangedAt,
		Reason:       dbEntry.Reason,
	}, nil
}

func marshalState(state interface{}) (*string, error) {
	if state == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	jsonStr := string(bytes)
	return &jsonStr, nil
}

// Record stores an audit entry
func (s *DatabaseAuditLog) Record(ctx context.Context, entry model.AuditEntry) error {
	dbEntry, err := s.entryToDB(entry)
	if err != nil {
		return fmt.Errorf("failed to convert audit entry for database: %w", err)
	}

	if entry.ChangedAt.IsZero() {
		dbEntry.ChangedAt = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(dbEntry).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// List returns audit entries newest first
func (s *DatabaseAuditLog) List(ctx context.Context, filters AuditFilters) ([]model.AuditEntry, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditEntryDB{})
	if !filters.From.IsZero() {
		query = query.Where("changed_at >= ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("changed_at <= ?", filters.To)
	}
	if filters.ResourceType != "" {
		query = query.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.ResourceID != "" {
		query = query.Where("resource_id = ?", filters.ResourceID)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var dbEntries []model.AuditEntryDB
	if err := query.Order("changed_at DESC").Find(&dbEntries).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit log from database: %w", err)
	}

	entries := make([]model.AuditEntry, len(dbEntries))
	for i, dbEntry := range dbEntries {
		entry, err := s.entryFromDB(dbEntry)
		if err != nil {
			return nil, fmt.Errorf("failed to convert audit entry from database: %w", err)
		}
		entries[i] = entry
	}
	return entries, nil
}

// recordAudit writes an entry after the change has been committed. A failed
// audit write does not undo the change.
func recordAudit(ctx context.Context, audit AuditLog, entry model.AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, entry); err != nil {
		log.Printf("Warning: failed to record audit entry %s for %s/%s: %v",
			entry.Action, entry.ResourceType, entry.ResourceID, err)
	}
}
