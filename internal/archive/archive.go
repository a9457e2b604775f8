// Package archive mirrors weekly snapshots to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/choreweek/internal/model"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds S3-compatible storage configuration. Snapshots are
// encrypted when Passphrase is set.
type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
}

func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type State string

const (
	StateIdle     State = "idle"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastUpload *time.Time `json:"last_upload,omitempty"`
	LastWeek   string     `json:"last_week,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Archiver uploads snapshots. A zero-config Archiver is disabled and
// Upload is a no-op.
type Archiver struct {
	mu     sync.RWMutex
	cfg    Config
	client s3Client
	status Status
}

func New(cfg Config) *Archiver {
	a := &Archiver{cfg: cfg, status: Status{State: StateDisabled}}
	if cfg.Enabled() {
		a.client = newS3Client(cfg)
		a.status.State = StateIdle
	}
	return a
}

func newS3Client(cfg Config) *s3.Client {
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

func (a *Archiver) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Archiver) Key(id string) string {
	name := id + ".json"
	if a.cfg.Passphrase != "" {
		name += ".enc"
	}
	return path.Join(a.cfg.Prefix, "snapshots", name)
}

// Upload writes the snapshot under its week id, replacing an earlier
// upload of the same week.
func (a *Archiver) Upload(ctx context.Context, snap model.WeeklySnapshot) error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if a.cfg.Passphrase != "" {
		if body, err = Seal(body, a.cfg.Passphrase); err != nil {
			return a.fail(fmt.Errorf("encrypt snapshot: %w", err))
		}
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(a.Key(snap.ID)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return a.fail(fmt.Errorf("upload snapshot %q: %w", snap.ID, err))
	}

	now := time.Now().UTC()
	a.mu.Lock()
	a.status = Status{State: StateIdle, LastUpload: &now, LastWeek: snap.ID}
	a.mu.Unlock()
	return nil
}

// Fetch downloads and decodes an archived snapshot.
func (a *Archiver) Fetch(ctx context.Context, id string) (*model.WeeklySnapshot, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("archive not configured")
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.Key(id)),
	})
	if err != nil {
		return nil, fmt.Errorf("download snapshot %q: %w", id, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", id, err)
	}
	if a.cfg.Passphrase != "" {
		if body, err = Open(body, a.cfg.Passphrase); err != nil {
			return nil, err
		}
	}

	var snap model.WeeklySnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", id, err)
	}
	return &snap, nil
}

func (a *Archiver) fail(err error) error {
	a.mu.Lock()
	a.status.State = StateError
	a.status.Error = err.Error()
	a.mu.Unlock()
	return err
}
