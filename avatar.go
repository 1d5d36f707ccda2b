package accounts

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	_ "image/gif" // register gif
	_ "image/png" // register png

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// AvatarMaxDimension caps both sides of a stored avatar.
	AvatarMaxDimension = 300
	// avatarJPEGQuality is the re-encode quality for stored avatars.
	avatarJPEGQuality = 85
)

// AvatarStore persists a processed avatar image and returns the reference
// stored on the profile. Saving is best-effort resize-on-save: anything
// larger than AvatarMaxDimension is downscaled preserving aspect ratio and
// re-encoded as JPEG.
type AvatarStore interface {
	Save(ctx context.Context, accountID uuid.UUID, img image.Image) (string, error)
}

// Thumbnail downscales img to fit within maxDim x maxDim, preserving aspect
// ratio. Images already within bounds are returned unchanged.
func Thumbnail(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scaleW, scaleH := w, h
	if w >= h {
		scaleW = maxDim
		scaleH = h * maxDim / w
	} else {
		scaleH = maxDim
		scaleW = w * maxDim / h
	}
	if scaleW < 1 {
		scaleW = 1
	}
	if scaleH < 1 {
		scaleH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, scaleW, scaleH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encodeAvatar(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Thumbnail(img, AvatarMaxDimension), &jpeg.Options{Quality: avatarJPEGQuality}); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode avatar")
	}
	return buf.Bytes(), nil
}

// LocalAvatarStore writes avatars to a directory on disk.
type LocalAvatarStore struct {
	dir    string
	prefix string
}

var _ AvatarStore = (*LocalAvatarStore)(nil)

// NewLocalAvatarStore stores files under dir; prefix is prepended to the
// returned reference (e.g. a public URL path).
func NewLocalAvatarStore(dir, prefix string) *LocalAvatarStore {
	return &LocalAvatarStore{dir: dir, prefix: prefix}
}

func (s *LocalAvatarStore) Save(_ context.Context, accountID uuid.UUID, img image.Image) (string, error) {
	data, err := encodeAvatar(img)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create avatar directory")
	}

	name := fmt.Sprintf("%s.jpg", accountID.String())
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write avatar file")
	}

	return filepath.ToSlash(filepath.Join(s.prefix, name)), nil
}

// S3AvatarStoreConfig holds settings for the S3/MinIO-backed store.
type S3AvatarStoreConfig struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	KeyPrefix    string
}

// S3AvatarStore uploads avatars to an S3-compatible bucket.
type S3AvatarStore struct {
	cfg S3AvatarStoreConfig
}

var _ AvatarStore = (*S3AvatarStore)(nil)

// NewS3AvatarStore builds the S3-backed store.
func NewS3AvatarStore(cfg S3AvatarStoreConfig) *S3AvatarStore {
	return &S3AvatarStore{cfg: cfg}
}

func (s *S3AvatarStore) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3AvatarStore) Save(ctx context.Context, accountID uuid.UUID, img image.Image) (string, error) {
	data, err := encodeAvatar(img)
	if err != nil {
		return "", err
	}

	client, err := s.client(ctx)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create object storage client")
	}

	key := fmt.Sprintf("%s/%s.jpg", s.cfg.KeyPrefix, accountID.String())

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to upload avatar")
	}

	return key, nil
}
