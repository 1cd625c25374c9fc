// Package archive optionally uploads a completed run's export files to an
// S3-compatible bucket (C10, spec.md §4.8's "archival" step). Grounded on
// the teacher's internal/reliability/r2_backup_service.go: same
// best-effort posture (a failed upload never fails the scan), same
// "stage locally then hand off to one upload call" shape, adapted from
// "tar.gz a staging directory of sqlite backups" to "upload the two export
// files a run already produced".
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Config holds the archival tunables sourced from internal/config.Config.
// An empty Bucket disables archival entirely — local export is always
// performed regardless (spec.md §4.8: archival is additive, not a
// replacement for the local files).
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // R2/S3-compatible endpoint; empty uses AWS's default resolver
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket has been configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Archiver uploads export files to a configured bucket.
type Archiver struct {
	cfg      Config
	uploader *manager.Uploader
	log      zerolog.Logger
}

// New builds an Archiver. When cfg is not Enabled, the returned Archiver's
// UploadRun is a no-op so callers don't need to branch on configuration
// themselves.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Archiver, error) {
	log = log.With().Str("component", "archive").Logger()
	if !cfg.Enabled() {
		return &Archiver{cfg: cfg, log: log}, nil
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config for archive upload: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{
		cfg:      cfg,
		uploader: manager.NewUploader(client),
		log:      log,
	}, nil
}

// UploadRun uploads the JSON and CSV export files for one run, returning a
// warning string per file that failed to upload rather than an error — a
// failed archive upload must never change the scan's exit status (spec.md
// §4.8).
func (a *Archiver) UploadRun(ctx context.Context, jsonPath, csvPath string) []string {
	if !a.cfg.Enabled() {
		return nil
	}

	var warnings []string
	for _, path := range []string{jsonPath, csvPath} {
		if err := a.uploadFile(ctx, path); err != nil {
			warnings = append(warnings, fmt.Sprintf("archive upload failed for %s: %v", filepath.Base(path), err))
			a.log.Warn().Err(err).Str("file", path).Msg("archive upload failed")
		}
	}
	return warnings
}

func (a *Archiver) uploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	key := filepath.Base(path)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	a.log.Info().Str("file", key).Msg("archived export file")
	return nil
}
