package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
)

// Asset file names looked up in a Source.
const (
	LogoFile       = "logo.png"
	VisaFile       = "visa.svg"
	MastercardFile = "mastercard.svg"
	AmexFile       = "american-express.svg"
)

// ErrAssetNotFound is returned by a Source when the asset does not exist.
var ErrAssetNotFound = errors.New("asset not found")

// Asset is an embedded image.
type Asset struct {
	Name string
	MIME string
	Data []byte
}

// DataURI inlines the asset for HTML output.
func (a Asset) DataURI() string {
	return "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Label is the short text printed when a backend cannot draw the image.
func (a Asset) Label() string {
	switch a.Name {
	case VisaFile:
		return "VISA"
	case MastercardFile:
		return "Mastercard"
	case AmexFile:
		return "AMEX"
	}
	return strings.TrimSuffix(a.Name, path.Ext(a.Name))
}

// Assets are the brand images of a document. Missing images are left out.
type Assets struct {
	Logo  *Asset
	Cards []Asset
}

// Source fetches raw asset bytes by file name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// LoadAssets reads the logo and card icons from src. An asset that cannot be
// read is logged and omitted; the document still renders without it.
func LoadAssets(ctx context.Context, src Source, log zerolog.Logger) Assets {
	var out Assets
	if src == nil {
		return out
	}
	fetch := func(name string) (*Asset, bool) {
		data, err := src.Fetch(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("asset", name).Msg("asset unavailable, omitting")
			return nil, false
		}
		return &Asset{Name: name, MIME: mimeFor(name), Data: data}, true
	}
	if a, ok := fetch(LogoFile); ok {
		out.Logo = a
	}
	for _, name := range []string{VisaFile, MastercardFile, AmexFile} {
		if a, ok := fetch(name); ok {
			out.Cards = append(out.Cards, *a)
		}
	}
	return out
}

func mimeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// DirSource reads assets from a local directory.
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.Dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrAssetNotFound)
	}
	return data, err
}

// S3Source reads assets from an S3 bucket under an optional key prefix.
type S3Source struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Source opens an AWS session for region and reads from bucket/prefix.
func NewS3Source(region, bucket, prefix string) (*S3Source, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3SourceWithClient(s3.New(sess), bucket, prefix), nil
}

func NewS3SourceWithClient(client s3iface.S3API, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key(name), ErrAssetNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", s.key(name), err)
	}
	defer out.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.Body); err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", s.key(name), err)
	}
	return buf.Bytes(), nil
}
