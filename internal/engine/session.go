package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of one upload attempt.
type State int

const (
	StateIdle State = iota
	StateParsed
	StateCommitting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsed:
		return "parsed"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanonicalRecord is one committed data row in canonical form. Fields holds
// only the values of mapped columns, keyed by canonical field name.
type CanonicalRecord struct {
	RowID      string            `json:"rowId"` // synthetic per-row identifier
	RowIndex   int               `json:"rowIndex"`
	Fields     map[string]string `json:"fields"`
	SourceFile string            `json:"sourceFile"`
	UploadedAt time.Time         `json:"uploadedAt"`
}

// CommitBatch is everything the storage collaborator receives on commit.
type CommitBatch struct {
	ImportID       string
	EntityType     EntityType
	SourceFileName string
	Mappings       []ColumnMapping
	Records        []CanonicalRecord
}

// Committer is the storage collaborator. It assigns durable identifiers and
// persists the batch; its failure surfaces as a *CommitError and leaves the
// session correctable.
type Committer interface {
	CommitBatch(ctx context.Context, batch CommitBatch) error
}

// Session holds the transient state of one upload attempt: the parsed table,
// the detection result, and the mapping the user is editing. All mutations
// are serialized by the session mutex; there is one active attempt per
// session ID.
type Session struct {
	mu sync.Mutex

	id        string
	fileName  string
	createdAt time.Time

	state      State
	table      *RawTable
	detection  DetectionResult
	entityType EntityType // effective type; starts as detection, user may override
	overridden bool
	mappings   []ColumnMapping
	validation []string
}

// SessionView is an immutable snapshot of a session for the UI collaborator.
type SessionView struct {
	ID          string          `json:"id"`
	FileName    string          `json:"fileName"`
	State       string          `json:"state"`
	Detection   DetectionResult `json:"detection"`
	EntityType  string          `json:"entityType"`
	Overridden  bool            `json:"overridden"`
	Headers     []string        `json:"headers"`
	RowCount    int             `json:"rowCount"`
	Preview     [][]string      `json:"preview"`
	Mappings    []ColumnMapping `json:"mappings"`
	Validation  []string        `json:"validation"`
	Diagnostics []RowDiagnostic `json:"diagnostics,omitempty"`
}

// CommitResult reports a successful commit back to the caller.
type CommitResult struct {
	ImportID string `json:"importId"`
	Records  int    `json:"records"`
}

// Options configures a Service.
type Options struct {
	// PreviewRows bounds the row preview exposed to the UI collaborator.
	// Zero means 10.
	PreviewRows int

	// SessionTTL is how long an idle session survives before the janitor
	// discards it. Zero means 30 minutes.
	SessionTTL time.Duration
}

func (o *Options) defaults() {
	if o.PreviewRows <= 0 {
		o.PreviewRows = 10
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 30 * time.Minute
	}
}

// Service sequences the parse/classify/map/validate pipeline and owns all
// live sessions.
type Service struct {
	committer   Committer
	previewRows int
	ttl         time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service that hands committed batches to the given
// storage collaborator.
func NewService(committer Committer, opts Options) *Service {
	opts.defaults()
	return &Service{
		committer:   committer,
		previewRows: opts.PreviewRows,
		ttl:         opts.SessionTTL,
		sessions:    make(map[string]*Session),
	}
}

// Begin runs Parser -> Classifier -> Mapper -> Validator over the uploaded
// payload and registers a new session in the Parsed state. A ParseError
// aborts the attempt: no session is created and the error is returned.
func (s *Service) Begin(ctx context.Context, fileName string, data []byte) (*Session, error) {
	table, err := Parse(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	detection := Classify(table.Headers)
	mappings := MapColumns(table.Headers, detection.EntityType)

	sess := &Session{
		id:         uuid.New().String(),
		fileName:   fileName,
		createdAt:  time.Now(),
		state:      StateParsed,
		table:      table,
		detection:  detection,
		entityType: detection.EntityType,
		mappings:   mappings,
		validation: Validate(table, detection.EntityType, mappings),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess, nil
}

// PreviewRows returns the configured preview bound for session views.
func (s *Service) PreviewRows() int {
	return s.previewRows
}

// Get returns a live session by ID.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Cancel discards a session and its transient state.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Commit gates on the current validation result, builds one canonical record
// per data row, and hands the batch to the storage collaborator. On success
// the session is discarded; on a storage error the session returns to Parsed
// so the user can retry without re-uploading.
func (s *Service) Commit(ctx context.Context, id string) (*CommitResult, error) {
	sess, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateParsed {
		return nil, fmt.Errorf("session %s is %s; only a parsed session can commit", id, sess.state)
	}
	if len(sess.validation) > 0 {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(sess.validation, "; "))
	}

	sess.state = StateCommitting

	batch := CommitBatch{
		ImportID:       uuid.New().String(),
		EntityType:     sess.entityType,
		SourceFileName: sess.fileName,
		Mappings:       sess.mappings,
	}

	records, err := buildRecords(ctx, sess.table, sess.mappings, sess.fileName)
	if err != nil {
		sess.state = StateParsed
		return nil, err
	}
	batch.Records = records

	if err := s.committer.CommitBatch(ctx, batch); err != nil {
		// Failed is correctable: the attempt reverts to Parsed.
		sess.state = StateParsed
		return nil, &CommitError{Err: err}
	}

	sess.state = StateCommitted
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	return &CommitResult{ImportID: batch.ImportID, Records: len(batch.Records)}, nil
}

// buildRecords constructs canonical records from the raw rows. When two
// source columns map to the same field, the later column (in header order)
// wins; the duplicate mapping itself is surfaced to the user beforehand.
func buildRecords(ctx context.Context, table *RawTable, mappings []ColumnMapping, fileName string) ([]CanonicalRecord, error) {
	uploadedAt := time.Now()

	records := make([]CanonicalRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields := make(map[string]string)
		for col, m := range mappings {
			if m.MappedField == UnmappedField {
				continue
			}
			value := ""
			if col < len(row) {
				value = row[col]
			}
			fields[m.MappedField] = value
		}

		records = append(records, CanonicalRecord{
			RowID:      uuid.New().String(),
			RowIndex:   i,
			Fields:     fields,
			SourceFile: fileName,
			UploadedAt: uploadedAt,
		})
	}

	return records, nil
}

// StartJanitor periodically discards sessions older than the configured TTL.
// It blocks until ctx is cancelled, so run it in its own goroutine.
func (s *Service) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpired(time.Now())
		}
	}
}

func (s *Service) purgeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.createdAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// SetMapping overrides the mapped field of one source column (by position)
// and re-runs validation. The override clears Suggested but keeps the
// original heuristic Confidence for audit purposes. The field must be
// UnmappedField or a canonical field of the effective schema.
func (sess *Session) SetMapping(column int, field string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateParsed {
		return fmt.Errorf("session is %s; mappings can only change while parsed", sess.state)
	}
	if column < 0 || column >= len(sess.mappings) {
		return fmt.Errorf("column %d out of range (have %d columns)", column, len(sess.mappings))
	}
	if field != UnmappedField && !hasField(sess.entityType, field) {
		return fmt.Errorf("unknown field %q for %s schema", field, resolveSchema(sess.entityType))
	}

	sess.mappings[column].MappedField = field
	sess.mappings[column].Suggested = false
	sess.validation = Validate(sess.table, sess.entityType, sess.mappings)
	return nil
}

// OverrideEntityType replaces the effective entity type, re-maps every
// column against the new schema, and re-runs validation. The original
// detection result is retained for display.
func (sess *Session) OverrideEntityType(t EntityType) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != StateParsed {
		return fmt.Errorf("session is %s; the entity type can only change while parsed", sess.state)
	}

	sess.entityType = t
	sess.overridden = t != sess.detection.EntityType
	sess.mappings = MapColumns(sess.table.Headers, t)
	sess.validation = Validate(sess.table, t, sess.mappings)
	return nil
}

// ID returns the session identifier.
func (sess *Session) ID() string {
	return sess.id
}

// View returns a consistent snapshot for the UI collaborator, with the row
// preview bounded to previewRows.
func (sess *Session) View(previewRows int) SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	preview := sess.table.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	return SessionView{
		ID:          sess.id,
		FileName:    sess.fileName,
		State:       sess.state.String(),
		Detection:   sess.detection,
		EntityType:  sess.entityType.String(),
		Overridden:  sess.overridden,
		Headers:     append([]string(nil), sess.table.Headers...),
		RowCount:    len(sess.table.Rows),
		Preview:     preview,
		Mappings:    append([]ColumnMapping(nil), sess.mappings...),
		Validation:  append([]string(nil), sess.validation...),
		Diagnostics: sess.table.Diagnostics,
	}
}
