package quiz_server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"meal-quiz/pkg/config"
	"meal-quiz/pkg/questions"
)

// NewQuestionSource picks the dataset source named by cfg.Questions.Source.
func NewQuestionSource(cfg *config.Config) (questions.Source, error) {
	switch cfg.Questions.Source {
	case "", "embedded":
		return questions.EmbeddedSource{}, nil
	case "file":
		if cfg.Questions.Path == "" {
			return nil, errors.New("questions.path is required for a file source")
		}
		return questions.FileSource{Path: cfg.Questions.Path}, nil
	case "minio":
		return questions.NewMinioSource(questions.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Object:    cfg.Minio.Object,
			Secure:    cfg.Minio.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown questions source %q", cfg.Questions.Source)
	}
}

// LoadQuizQuestions builds the repository and checks the dataset once so a
// broken or empty dataset stops the server at startup. When the source is a
// watched file, edits invalidate the cache until ctx is done.
func LoadQuizQuestions(ctx context.Context, cfg *config.Config, log *zap.Logger) (*questions.Repository, error) {
	src, err := NewQuestionSource(cfg)
	if err != nil {
		return nil, err
	}

	var opts []questions.Option
	if cfg.Questions.Cache {
		opts = append(opts, questions.WithCache())
	}
	repo := questions.NewRepository(src, opts...)

	total, err := repo.Verify(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded questions", zap.String("source", src.Name()), zap.Int("count", total))

	if cfg.Questions.Cache && cfg.Questions.Watch && cfg.Questions.Source == "file" {
		go func() {
			if err := questions.Watch(ctx, cfg.Questions.Path, repo, log); err != nil {
				log.Error("Question watcher stopped", zap.Error(err))
			}
		}()
	}
	return repo, nil
}
