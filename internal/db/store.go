package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// TasksKey is the single key the whole task collection is stored under.
const TasksKey = "todo_tasks_v1"

// Store is a string-keyed key-value store on top of SQLite. It also adapts
// the task collection to and from its serialized form under TasksKey.
type Store struct {
	DB  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func NewStore(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{DB: db, log: log, now: time.Now}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// storedTask is the lenient on-disk shape. Every field stays raw so a value
// of the wrong type is coerced or dropped per record, never for the whole
// collection.
type storedTask struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Done      json.RawMessage `json:"done"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// Load returns the persisted collection. It never fails: a missing key, a
// read error or a value that is not a JSON array all yield an empty
// collection. Array elements that are not objects are dropped one by one.
func (s *Store) Load(ctx context.Context) model.Collection {
	raw, ok, err := s.Get(ctx, TasksKey)
	if err != nil {
		s.log.Error("read task collection", zap.Error(err))
		return model.Collection{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return model.Collection{}
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.Warn("stored task collection is corrupt, starting empty", zap.Error(err))
		return model.Collection{}
	}

	return s.normalize(records)
}

// Save replaces the stored collection with tasks.
func (s *Store) Save(ctx context.Context, tasks model.Collection) error {
	if tasks == nil {
		tasks = model.Collection{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return s.Put(ctx, TasksKey, string(payload))
}

func (s *Store) normalize(records []json.RawMessage) model.Collection {
	now := s.now().UTC()
	seen := make(map[string]struct{}, len(records))
	result := make(model.Collection, 0, len(records))
	for _, raw := range records {
		var record storedTask
		if err := json.Unmarshal(raw, &record); err != nil {
			s.log.Warn("dropping stored task that is not an object", zap.Error(err))
			continue
		}

		name, _ := decodeValue(record.Name).(string)
		if strings.TrimSpace(name) == "" {
			s.log.Warn("dropping stored task without a name", zap.ByteString("id", record.ID))
			continue
		}

		id := decodeID(record.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if _, ok := seen[id]; ok {
			s.log.Warn("dropping stored task with duplicate id", zap.String("id", id))
			continue
		}
		seen[id] = struct{}{}

		task := model.Task{
			ID:        id,
			Name:      name,
			Done:      truthy(decodeValue(record.Done)),
			CreatedAt: now,
		}
		if created, ok := parseTime(decodeValue(record.CreatedAt)); ok {
			task.CreatedAt = created
		}
		if updated, ok := parseTime(decodeValue(record.UpdatedAt)); ok {
			task.UpdatedAt = &updated
		}
		result = append(result, task)
	}
	return result
}

// decodeValue returns the generic JSON value of raw, or nil when it is
// absent or invalid.
func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) string {
	switch v := decodeValue(raw).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// truthy coerces a stored done flag: false, 0, "" and null are false, every
// other value is true.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// parseTime accepts RFC 3339 strings and epoch milliseconds.
func parseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	default:
		return time.Time{}, false
	}
}
