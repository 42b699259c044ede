package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"vj-frame/pkg/logging"
	"vj-frame/pkg/metrics"
)

// partialSuffix marks files that are still being downloaded. ScanDirectory
// ignores them so a half-written video never reaches the pool.
const partialSuffix = ".part"

// S3Config describes the bucket folder mirrored into the media directory.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Interval time.Duration
}

// S3Sync mirrors an S3 prefix into a local directory. Objects already
// present with the same size are not downloaded again. A circuit breaker
// stops hammering the bucket after repeated failures.
type S3Sync struct {
	cfg    S3Config
	dir    string
	client s3iface.S3API
	cb     *gobreaker.CircuitBreaker[SyncResult]
	log    zerolog.Logger
	// OnSynced runs after each pass that downloaded something.
	OnSynced func()
}

// SyncResult summarises one mirror pass.
type SyncResult struct {
	Listed     int
	Downloaded int
	Skipped    int
	Failed     int
}

// NewS3Client builds an S3 client from the standard AWS environment
// variables (AWS_DEFAULT_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
// region overrides AWS_DEFAULT_REGION when set.
func NewS3Client(region string) (s3iface.S3API, error) {
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if region == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("missing one or more required environment variables: AWS_DEFAULT_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return s3.New(sess), nil
}

// NewS3Sync creates a mirror of cfg into dir using client.
func NewS3Sync(cfg S3Config, dir string, client s3iface.S3API) *S3Sync {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	s := &S3Sync{
		cfg:    cfg,
		dir:    dir,
		client: client,
		log:    logging.Component("s3-sync"),
	}
	s.cb = gobreaker.NewCircuitBreaker[SyncResult](gobreaker.Settings{
		Name:        "s3-sync",
		MaxRequests: 1,
		Timeout:     cfg.Interval * 3,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return s
}

func (s *S3Sync) String() string { return "s3-sync" }

// Serve implements suture.Service: one pass immediately, then one per
// interval.
func (s *S3Sync) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.syncLogged(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *S3Sync) syncLogged(ctx context.Context) {
	res, err := s.Sync(ctx)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		s.log.Debug().Msg("circuit open, skipping sync")
	case err != nil:
		s.log.Warn().Err(err).Str("bucket", s.cfg.Bucket).Str("prefix", s.cfg.Prefix).Msg("sync failed")
	default:
		s.log.Info().Int("listed", res.Listed).Int("downloaded", res.Downloaded).
			Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("sync completed")
		if res.Downloaded > 0 && s.OnSynced != nil {
			s.OnSynced()
		}
	}
}

// Sync performs one mirror pass through the circuit breaker.
func (s *S3Sync) Sync(ctx context.Context) (SyncResult, error) {
	return s.cb.Execute(func() (SyncResult, error) {
		return s.syncOnce(ctx)
	})
}

func (s *S3Sync) syncOnce(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return res, fmt.Errorf("create media dir: %w", err)
	}

	objects, err := s.list(ctx)
	if err != nil {
		metrics.RecordS3Sync("list_error")
		return res, err
	}
	res.Listed = len(objects)

	for _, obj := range objects {
		localPath := filepath.Join(s.dir, path.Base(obj.key))
		if info, err := os.Stat(localPath); err == nil && info.Size() == obj.size {
			res.Skipped++
			continue
		}
		if err := s.download(ctx, obj.key, localPath); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.log.Warn().Err(err).Str("key", obj.key).Msg("download failed")
			metrics.RecordS3Sync("download_error")
			res.Failed++
			continue
		}
		metrics.RecordS3Sync("downloaded")
		res.Downloaded++
	}

	if res.Listed > 0 && res.Failed == res.Listed {
		return res, fmt.Errorf("all %d downloads failed", res.Failed)
	}
	return res, nil
}

type remoteObject struct {
	key  string
	size int64
}

func (s *S3Sync) list(ctx context.Context) ([]remoteObject, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(s.cfg.Prefix),
	}

	var objects []remoteObject
	err := s.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			if _, ok := KindFromPath(key); !ok {
				continue
			}
			objects = append(objects, remoteObject{key: key, size: aws.Int64Value(obj.Size)})
		}
		return !lastPage
	})
	if err != nil {
		return nil, fmt.Errorf("list s3://%s/%s: %w", s.cfg.Bucket, s.cfg.Prefix, err)
	}
	return objects, nil
}

// download writes to a .part file first and renames it into place so the
// directory watcher never picks up a truncated file.
func (s *S3Sync) download(ctx context.Context, key, localPath string) error {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	tmp := localPath + partialSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, localPath)
}
