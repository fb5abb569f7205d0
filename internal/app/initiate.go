package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/hash"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/otp"
	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/pkg/scheduler"
	"github.com/shandysiswandi/gatepass/internal/pkg/storage"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// credentialIDLength is the length of the alphanumeric credential IDs that
// prefix every printed pass.
const credentialIDLength = 10

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.scheduler = scheduler.New()
	a.uuid = uid.NewUUID()
	a.credID = uid.NewAlnum(credentialIDLength)
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))
	a.totp = otp.NewTOTP(a.config.GetString("access.totp.issuer"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

// googleOptions builds client options for the Google SDKs from a key prefix
// such as "storage.gcs" or "messaging.pubsub".
func (a *App) googleOptions(prefix string, scopes ...string) []option.ClientOption {
	var opts []option.ClientOption
	if a.config.GetBool(prefix + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString(prefix + ".credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		credsJSON, err := os.ReadFile(v)
		if err != nil {
			slog.Error("failed to read google credentials file", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, scopes...)
		if err != nil {
			slog.Error("failed to parse google credentials file", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := a.config.GetBinary(prefix + ".credentials_json"); len(v) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, v, scopes...)
		if err != nil {
			slog.Error("failed to parse google credentials json", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := strings.TrimSpace(a.config.GetString(prefix + ".endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}

	return opts
}

// initStorage is optional: without storage.driver the log export endpoint
// answers 503.
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		slog.Info("storage driver not configured, log export disabled")
		return
	}

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		if opts := a.googleOptions("storage.gcs", gcs.ScopeFullControl); len(opts) > 0 {
			client, err := gcs.NewClient(a.ctx, opts...)
			if err != nil {
				slog.Error("failed to init gcs client", "error", err)
				os.Exit(1)
			}
			gcsClient = client
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Bucket:       strings.TrimSpace(a.config.GetString("storage.s3.bucket")),
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Bucket:         strings.TrimSpace(a.config.GetString("storage.gcs.bucket")),
			Client:         gcsClient,
			GoogleAccessID: strings.TrimSpace(a.config.GetString("storage.gcs.signer_access_id")),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		MinIO: storage.MinIOOptions{
			Bucket:       strings.TrimSpace(a.config.GetString("storage.minio.bucket")),
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
			CreateBucket: a.config.GetBool("storage.minio.create_bucket"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			NSQDAddr:     a.config.GetString("messaging.nsq.nsqd_addr"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.lookupd_addrs"),
			MaxInFlight:  a.config.GetInt("messaging.nsq.max_in_flight"),
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: a.googleOptions("messaging.pubsub", "https://www.googleapis.com/auth/pubsub"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}

	// Terminal displays hold their event stream open, so this listener has
	// no write timeout and its requests end when the app context is canceled.
	a.sseServer = &http.Server{
		Addr:              a.config.GetString("app.server.sse.address"),
		Handler:           routerWithCORS,
		ReadHeaderTimeout: a.config.GetSecond("app.server.sse.read_header_timeout_seconds"),
		BaseContext:       func(net.Listener) context.Context { return a.ctx },
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Terminals",
			fn: func(context.Context) error {
				if a.terminals == nil {
					return nil
				}

				return a.terminals.Close()
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				if a.storage == nil {
					return nil
				}

				return a.storage.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
