package transcript

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qslice/pipedeck/internal/domain"
)

// Info describes one stored transcript.
type Info struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Events    int
}

// Store persists and retrieves event transcripts.
type Store struct {
	db *DB
}

// NewStore wraps an open transcript database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Create registers a new transcript and returns its ID.
func (s *Store) Create(name string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.sql.Exec(
		"INSERT INTO transcripts (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		return "", fmt.Errorf("creating transcript: %w", err)
	}
	return id, nil
}

// Append stores one event under the transcript.
func (s *Store) Append(transcriptID string, seq int, ev domain.PipelineEvent) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	_, err = s.db.sql.Exec(
		"INSERT INTO transcript_events (transcript_id, seq, type, data, arrival_ms) VALUES (?, ?, ?, ?, ?)",
		transcriptID, seq, ev.Type, string(data), ev.Timestamp)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// List returns all transcripts, newest first.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.sql.Query(`
		SELECT t.id, t.name, t.created_at, COUNT(e.id)
		FROM transcripts t
		LEFT JOIN transcript_events e ON e.transcript_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var created string
		if err := rows.Scan(&info.ID, &info.Name, &created, &info.Events); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Events returns a transcript's events in recorded order, arrival
// timestamps intact.
func (s *Store) Events(transcriptID string) ([]domain.PipelineEvent, error) {
	rows, err := s.db.sql.Query(
		"SELECT type, data, arrival_ms FROM transcript_events WHERE transcript_id = ? ORDER BY seq",
		transcriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PipelineEvent
	for rows.Next() {
		var ev domain.PipelineEvent
		var data string
		if err := rows.Scan(&ev.Type, &data, &ev.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			return nil, fmt.Errorf("decoding event data: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Find resolves a transcript by ID or name; names match the most recent
// transcript bearing them.
func (s *Store) Find(idOrName string) (Info, error) {
	var info Info
	var created string
	err := s.db.sql.QueryRow(`
		SELECT id, name, created_at FROM transcripts
		WHERE id = ? OR name = ?
		ORDER BY created_at DESC LIMIT 1`,
		idOrName, idOrName).Scan(&info.ID, &info.Name, &created)
	if err != nil {
		return Info{}, fmt.Errorf("transcript %q not found: %w", idOrName, err)
	}
	info.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
	return info, nil
}

// Recorder tags a running event stream onto one transcript.
type Recorder struct {
	store *Store
	id    string
	seq   int
}

// NewRecorder starts recording into a fresh transcript.
func NewRecorder(store *Store, name string) (*Recorder, error) {
	id, err := store.Create(name)
	if err != nil {
		return nil, err
	}
	return &Recorder{store: store, id: id}, nil
}

// ID returns the transcript being recorded.
func (r *Recorder) ID() string { return r.id }

// Record appends one event. Ordering follows call order.
func (r *Recorder) Record(ev domain.PipelineEvent) error {
	r.seq++
	return r.store.Append(r.id, r.seq, ev)
}
