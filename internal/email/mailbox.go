package email

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	RecordTypeApplicationConfirmation = "job_application_confirmation"
	RecordStatusMocked                = "MOCKED - Email would be sent in production"
)

// Record is a confirmation email captured in mock mode.
type Record struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	ApplicantName  string `json:"applicant_name"`
	JobTitle       string `json:"job_title"`
	Company        string `json:"company"`
	ApplicationID  int    `json:"application_id"`
	SubmissionDate string `json:"submission_date"`
	SentAt         string `json:"sent_at"`
	Status         string `json:"status"`
	Type           string `json:"type"`
}

// Mailbox is an append-only store of mock emails.
type Mailbox interface {
	Append(ctx context.Context, rec Record) error
	All(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}

type MemoryMailbox struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{}
}

func (m *MemoryMailbox) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryMailbox) All(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MemoryMailbox) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// FileMailbox keeps the records as a JSON array in a single file. Writers
// in the same process are serialized; the file is replaced atomically on
// every append.
type FileMailbox struct {
	mu   sync.Mutex
	path string
}

func NewFileMailbox(path string) *FileMailbox {
	return &FileMailbox{path: path}
}

func (f *FileMailbox) Path() string {
	return f.path
}

func (f *FileMailbox) Append(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.read()
	if err != nil {
		return err
	}
	records = append(records, rec)
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "unable to create mailbox dir")
	}
	tmp, err := ioutil.TempFile(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return errors.Wrap(err, "unable to create mailbox temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "unable to write mailbox")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileMailbox) All(_ context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileMailbox) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// read treats a missing file as an empty mailbox. A file that does not
// decode is an error so appends never overwrite it; Clear removes it.
func (f *FileMailbox) read() ([]Record, error) {
	data, err := ioutil.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read mailbox")
	}
	records := []Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "unable to decode mailbox %s", f.path)
	}
	return records, nil
}

// RedisMailbox appends records to a redis list, which makes concurrent
// appends from several processes safe.
type RedisMailbox struct {
	rdb *redis.Client
	key string
}

func NewRedisMailbox(rdb *redis.Client, key string) *RedisMailbox {
	return &RedisMailbox{rdb: rdb, key: key}
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "redis.ParseURL")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return rdb, nil
}

func (m *RedisMailbox) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.rdb.RPush(ctx, m.key, data).Err()
}

func (m *RedisMailbox) All(ctx context.Context) ([]Record, error) {
	raw, err := m.rdb.LRange(ctx, m.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, errors.Wrap(err, "unable to decode mock email")
		}
		records = append(records, rec)
	}
	return records, nil
}

func (m *RedisMailbox) Clear(ctx context.Context) error {
	return m.rdb.Del(ctx, m.key).Err()
}
