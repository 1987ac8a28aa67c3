package questions

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

//go:embed data/quiz.json
var bundled embed.FS

const bundledName = "data/quiz.json"

// Source supplies the raw dataset document.
type Source interface {
	// Name identifies the document; its extension selects the format.
	Name() string
	Read(ctx context.Context) ([]byte, error)
}

// EmbeddedSource reads the dataset bundled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return bundledName }

func (EmbeddedSource) Read(_ context.Context) ([]byte, error) {
	data, err := bundled.ReadFile(bundledName)
	if err != nil {
		return nil, fmt.Errorf("read bundled questions: %w", err)
	}
	return data, nil
}

// FileSource reads the dataset from the filesystem on every call.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return data, nil
}

// MinioConfig locates a dataset object in an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	Secure    bool
}

// MinioSource reads the dataset from object storage.
type MinioSource struct {
	client *minio.Client
	bucket string
	object string
}

// NewMinioSource connects a MinIO client for the configured object.
func NewMinioSource(cfg MinioConfig) (*MinioSource, error) {
	if cfg.Bucket == "" || cfg.Object == "" {
		return nil, errors.New("minio source: bucket and object are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio source: %w", err)
	}
	return &MinioSource{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

func (s *MinioSource) Name() string { return s.object }

func (s *MinioSource) Read(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get questions object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read questions object %s/%s: %w", s.bucket, s.object, err)
	}
	return data, nil
}

// Format names a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the dataset format from a document name.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads, parses and validates the dataset from src.
func Load(ctx context.Context, src Source) ([]Question, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data, FormatFor(src.Name()))
}

// Parse decodes a dataset document and validates every element.
func Parse(data []byte, format Format) ([]Question, error) {
	var (
		raw []any
		err error
	)
	if format == FormatYAML {
		raw, err = decodeYAML(data)
	} else {
		raw, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}
	return Validate(raw)
}

func decodeJSON(data []byte) ([]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return asArray(document)
}

func decodeYAML(data []byte) ([]any, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var document any
	if err := decoder.Decode(&document); err != nil {
		if err == io.EOF {
			return nil, &ValidationError{Issues: []Issue{{Field: "questions", Message: "document is empty"}}}
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return asArray(document)
}

func asArray(document any) ([]any, error) {
	elements, ok := document.([]any)
	if !ok {
		return nil, &ValidationError{Issues: []Issue{{Field: "questions", Message: fmt.Sprintf("must be an array, got %s", typeName(document))}}}
	}
	return elements, nil
}
