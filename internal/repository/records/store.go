package records

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zhouzirui/profscope/backend/internal/model/professor"
)

// Store persists rating records keyed by professor display name.
type Store interface {
	// Add appends a record; records are never merged or deduplicated.
	Add(ctx context.Context, record professor.Record) error
	// FindByProfessor returns every record for name in insertion order.
	FindByProfessor(ctx context.Context, name string) ([]professor.Record, error)
}

type recordRow struct {
	ID            uint      `gorm:"primaryKey"`
	ProfessorName string    `gorm:"size:255;not null;index"`
	URL           string    `gorm:"size:2048"`
	Timestamp     time.Time `gorm:"not null"`
}

type entryRow struct {
	ID        uint      `gorm:"primaryKey"`
	RecordID  uint      `gorm:"not null;index"`
	Position  int       `gorm:"not null"`
	Comment   string    `gorm:"type:text;not null"`
	Sentiment string    `gorm:"size:16;not null"`
	Date      time.Time `gorm:"not null"`
}

// GormStore keeps records in a table named after the collection and their comments
// in "<collection>_entries".
type GormStore struct {
	db           *gorm.DB
	recordsTable string
	entriesTable string
}

var _ Store = (*GormStore)(nil)

// NewGormStore migrates the collection tables and returns the store.
func NewGormStore(db *gorm.DB, collection string) (*GormStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("record collection name is required")
	}

	s := &GormStore{
		db:           db,
		recordsTable: collection,
		entriesTable: collection + "_entries",
	}

	if err := db.Table(s.recordsTable).AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", s.recordsTable, err)
	}
	if err := db.Table(s.entriesTable).AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", s.entriesTable, err)
	}
	return s, nil
}

func (s *GormStore) Add(ctx context.Context, record professor.Record) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := recordRow{
			ProfessorName: record.ProfessorName,
			URL:           record.URL,
			Timestamp:     record.Timestamp.UTC(),
		}
		if err := tx.Table(s.recordsTable).Create(&row).Error; err != nil {
			return err
		}

		if len(record.AnalyzedComments) == 0 {
			return nil
		}

		entries := make([]entryRow, len(record.AnalyzedComments))
		for i, c := range record.AnalyzedComments {
			entries[i] = entryRow{
				RecordID:  row.ID,
				Position:  i,
				Comment:   c.Comment,
				Sentiment: string(c.Sentiment),
				Date:      c.Date.UTC(),
			}
		}
		return tx.Table(s.entriesTable).Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store record for %q: %w", record.ProfessorName, err)
	}

	log.Debug().
		Str("professor", record.ProfessorName).
		Int("comments", len(record.AnalyzedComments)).
		Msg("rating record stored")
	return nil
}

func (s *GormStore) FindByProfessor(ctx context.Context, name string) ([]professor.Record, error) {
	db := s.db.WithContext(ctx)

	var rows []recordRow
	if err := db.Table(s.recordsTable).Where("professor_name = ?", name).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load records for %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	var entries []entryRow
	if err := db.Table(s.entriesTable).Where("record_id IN ?", ids).Order("record_id, position").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load comments for %q: %w", name, err)
	}

	byRecord := make(map[uint][]professor.AnalyzedComment, len(rows))
	for _, e := range entries {
		byRecord[e.RecordID] = append(byRecord[e.RecordID], professor.AnalyzedComment{
			Comment:   e.Comment,
			Sentiment: professor.Sentiment(e.Sentiment),
			Date:      e.Date,
		})
	}

	out := make([]professor.Record, len(rows))
	for i, r := range rows {
		out[i] = professor.Record{
			ProfessorName:    r.ProfessorName,
			URL:              r.URL,
			AnalyzedComments: byRecord[r.ID],
			Timestamp:        r.Timestamp,
		}
	}
	return out, nil
}
