// Package export uploads history snapshots to S3-compatible storage so users
// can get their purchase data out of the app.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmelo/feirinha/internal/history"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// State represents the export manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current export manager status.
type Status struct {
	State      State      `json:"state"`
	LastExport *time.Time `json:"last_export,omitempty"`
	LastKeys   []string   `json:"last_keys,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StatusCallback is called whenever the export state changes.
type StatusCallback func(Status)

// Manager uploads JSON and CSV history exports to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      S3Config
	status   Status
	callback StatusCallback

	archiver *history.Archiver
	client   s3Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates an export manager. Missing S3 credentials leave it
// disabled; exports then fail with a clear error instead of panicking.
func NewManager(cfg S3Config, archiver *history.Archiver, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		cfg:      cfg,
		archiver: archiver,
		logger:   logger,
		callback: callback,
		status:   Status{State: StateDisabled},
		now:      time.Now,
	}

	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Status returns the current export status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

// Enabled reports whether S3 credentials are configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// RunNow builds the JSON and CSV exports and uploads both, returning the
// object keys written.
func (m *Manager) RunNow(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("export not configured: S3 credentials missing")
	}

	m.setStatus(Status{State: StateRunning})

	timestamp := m.now().UTC().Format("2006-01-02T150405Z")

	var jsonBuf bytes.Buffer
	if err := m.archiver.WriteJSON(&jsonBuf); err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("build json export: %w", err)
	}
	var csvBuf bytes.Buffer
	if err := m.archiver.WriteCSV(&csvBuf); err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("build csv export: %w", err)
	}

	uploads := []struct {
		key         string
		contentType string
		body        *bytes.Buffer
	}{
		{fmt.Sprintf("exports/history-%s.json", timestamp), "application/json", &jsonBuf},
		{fmt.Sprintf("exports/history-%s.csv", timestamp), "text/csv", &csvBuf},
	}

	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(u.key),
			Body:          bytes.NewReader(u.body.Bytes()),
			ContentLength: aws.Int64(int64(u.body.Len())),
			ContentType:   aws.String(u.contentType),
		})
		if err != nil {
			m.setStatus(Status{State: StateError, Error: err.Error()})
			return nil, fmt.Errorf("upload %s: %w", u.key, err)
		}
		keys = append(keys, u.key)
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastExport: &now, LastKeys: keys})
	m.logger.Info("history export uploaded", "keys", keys)
	return keys, nil
}

// Download streams a previously uploaded export object.
func (m *Manager) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("export not configured")
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, nil
}
