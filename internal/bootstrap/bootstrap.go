package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GregMSThompson/analytics-dashboard/internal/config"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// Bootstrap holds the process-wide clients. Optional clients stay nil when
// their configuration is empty.
type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
	Firebase  *auth.Client
	Redis     *redis.Client
	Postgres  *pgxpool.Pool
	S3        *s3.Client
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	if cfg.AuthRequired {
		bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	}
	if cfg.RedisAddr != "" {
		bs.Redis, err = InitRedis(applicationCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return bs, err
		}
	}
	if cfg.PostgresDSN != "" {
		bs.Postgres, err = InitPostgres(applicationCtx, cfg.PostgresDSN)
		if err != nil {
			return bs, err
		}
	}
	bs.S3, err = InitS3(applicationCtx, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		return bs, err
	}

	bs.Log.Info("bootstrap complete",
		"auth", bs.Firebase != nil,
		"redis", bs.Redis != nil,
		"postgres", bs.Postgres != nil,
	)
	return bs, nil
}

// Close releases every client that was opened.
func (bs *Bootstrap) Close() {
	if bs.Postgres != nil {
		bs.Postgres.Close()
	}
	if bs.Redis != nil {
		if err := bs.Redis.Close(); err != nil {
			bs.Log.Warn("redis close failed", "error", err)
		}
	}
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil {
			bs.Log.Warn("firestore close failed", "error", err)
		}
	}
}
