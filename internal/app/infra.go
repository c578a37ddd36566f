package app

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect/sql/schema"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/repo"
	"github.com/Alijeyrad/consulto_backend/internal/repo/sqlstore"
	"github.com/Alijeyrad/consulto_backend/pkg/authorize"
	"github.com/Alijeyrad/consulto_backend/pkg/crypto"
	"github.com/Alijeyrad/consulto_backend/pkg/database"
	"github.com/Alijeyrad/consulto_backend/pkg/email"
	"github.com/Alijeyrad/consulto_backend/pkg/events"
	"github.com/Alijeyrad/consulto_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/consulto_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/consulto_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/consulto_backend/pkg/s3"
	"github.com/Alijeyrad/consulto_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvidePasetoManager),
	fx.Provide(ProvideCipher),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideEventBus),
	fx.Provide(ProvidePublisher),
)

// ProvideStore opens the main database and, when configured, brings the
// schema up to date before anything else touches it.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (repo.Store, error) {
	drv, err := database.NewDriver(database.FromCentralConfig(cfg.Database))
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrations.AutoMigrate {
		if err := sqlstore.Migrate(context.Background(), drv, MigrateOptions(cfg.Database)...); err != nil {
			_ = drv.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		slog.Info("database schema migrated")
	}

	store := sqlstore.New(drv)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return store.Close()
		},
	})
	return store, nil
}

// MigrateOptions lets the migration drop stale columns and indexes unless
// safe mode is on.
func MigrateOptions(cfg config.DatabaseConfig) []schema.MigrateOption {
	if cfg.Migrations.SafeMode {
		return nil
	}
	return []schema.MigrateOption{schema.WithDropColumn(true), schema.WithDropIndex(true)}
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return nil, err
	}
	auth, err := authorize.New(enforcer, acfg)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

// ProvideCipher returns nil when no encryption key is set; bank account
// updates are then refused.
func ProvideCipher(cfg *config.Config) (*crypto.Cipher, error) {
	if cfg.Authentication.EncryptionKey == "" {
		slog.Warn("authentication.encryption_key is empty; bank accounts cannot be stored")
		return nil, nil
	}
	return crypto.NewCipherFromHex(cfg.Authentication.EncryptionKey)
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideS3Client returns nil without a bucket; attachment endpoints then
// answer 503.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if cfg.S3.Bucket == "" {
		slog.Warn("s3.bucket is empty; health record attachments are disabled")
		return nil, nil
	}
	return s3pkg.New(cfg.S3)
}

// ProvideEventBus connects to NATS, or returns nil when nats.url is empty.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (*events.NATS, error) {
	if cfg.Nats.URL == "" {
		slog.Info("nats.url is empty; domain events are dropped")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("consulto"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return events.NewNATS(nc, cfg.Nats.SubjectPrefix), nil
}

func ProvidePublisher(bus *events.NATS) events.Publisher {
	if bus == nil {
		return events.Nop{}
	}
	return bus
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
