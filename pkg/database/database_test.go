package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-quiz/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:      "db",
		Port:      3306,
		User:      "quiz",
		Password:  "secret",
		DBName:    "meal_quiz",
		Charset:   "utf8mb4",
		ParseTime: true,
	})
	assert.Equal(t, "quiz:secret@tcp(db:3306)/meal_quiz?charset=utf8mb4&parseTime=true&loc=Local", dsn)
}

func TestInitRedisFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := InitRedis(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	require.Error(t, err)
}
