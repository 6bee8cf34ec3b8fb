package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"jobportal/internal/analytics"
	"jobportal/internal/bucketing"
	"jobportal/internal/client"
	"jobportal/internal/config"
	"jobportal/internal/encryption"
	"jobportal/internal/handler"
	"jobportal/internal/hashing"
	"jobportal/internal/mailer"
	"jobportal/internal/model"
	"jobportal/internal/notifier"
	redisrepo "jobportal/internal/repository/redis"
	"jobportal/internal/repository/scylla"
	"jobportal/internal/search"
	"jobportal/internal/service"
	"jobportal/internal/tls"
	"jobportal/internal/util"
)

// Factory wires every dependency of the portal and owns their lifecycle.
// Construction is eager for clients and lazy for repositories and services.
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	kafkaConsumer    *client.KafkaConsumer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	hasher            *hashing.Hasher
	encryptionManager *encryption.Manager
	bucketingManager  *bucketing.Manager
	smtpMailer        *mailer.SMTPMailer
	recorder          *analytics.Recorder
	jobIndex          *search.JobIndex

	accountRepository     model.AccountRepository
	otpLedger             model.OtpLedger
	jobRepository         model.JobRepository
	applicationRepository model.ApplicationRepository
	resumeRepository      model.ResumeRepository

	provisioningService *service.ProvisioningService
	accountService      *service.AccountService
	jobService          *service.JobService
	applicationService  *service.ApplicationService
	resumeService       *service.ResumeService
	statsService        *service.StatsService

	jobEventProducer *notifier.JobEventProducer
	matchNotifier    *notifier.MatchNotifier
	cookieWriter     *handler.CookieWriter

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory loads configuration and initializes all clients.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		f.tlsManager = tls.NewManager(&cfg.Server)
	}

	if err := f.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	f.initializeManagers()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kms_enabled", cfg.KMS.Enabled),
	)

	return f, nil
}

func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	if c, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = c
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	if c, err := scylla.NewScyllaClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = c
		if err := f.scyllaClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		} else {
			util.Info("ScyllaDB client initialized and healthy")
		}
	}

	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("kafka producer: %w", err))
	} else {
		f.kafkaProducer = producer
		util.Info("Kafka producer initialized")
	}

	if consumer, err := client.NewKafkaConsumer(f.config,
		f.config.Kafka.JobTopic, f.config.Kafka.ConsumerGroup, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("kafka consumer: %w", err))
	} else {
		f.kafkaConsumer = consumer
		util.Info("Kafka consumer initialized")
	}

	if c, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		util.Warn("Elasticsearch initialization failed - search disabled", util.ErrorField(err))
	} else {
		f.esClient = c
		if err := f.esClient.HealthCheck(); err != nil {
			util.Warn("Elasticsearch health check failed - search degraded", util.ErrorField(err))
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	if c, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		util.Warn("ClickHouse initialization failed - analytics disabled", util.ErrorField(err))
	} else {
		f.clickhouseClient = c
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			util.Warn("ClickHouse health check failed - analytics degraded", util.ErrorField(err))
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher()

	var kmsClient *kms.Client
	if f.config.KMS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.config.KMS.Region))
		if err != nil {
			util.Error("AWS config load failed - falling back to local encryption", util.ErrorField(err))
			f.config.KMS.Enabled = false
		} else {
			kmsClient = kms.NewFromConfig(awsCfg)
		}
	}

	f.encryptionManager = encryption.NewManager(f.config, kmsClient)
	f.bucketingManager = bucketing.NewManager(f.config)
	f.smtpMailer = mailer.NewSMTPMailer(&f.config.SMTP)

	if f.clickhouseClient != nil {
		f.recorder = analytics.NewRecorder(f.clickhouseClient)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := f.recorder.EnsureSchema(ctx); err != nil {
			util.Warn("analytics schema setup failed", util.ErrorField(err))
		}
		cancel()
	}
	if f.esClient != nil {
		f.jobIndex = search.NewJobIndex(f.esClient, f.config)
	}

	util.Info("Managers initialized successfully",
		util.Bool("hashing_initialized", f.hasher != nil),
		util.Bool("encryption_initialized", f.encryptionManager != nil),
		util.Bool("analytics_enabled", f.recorder != nil),
		util.Bool("search_enabled", f.jobIndex != nil),
	)
}

func (f *Factory) Config() *config.Config { return f.config }

func (f *Factory) TLSManager() *tls.Manager { return f.tlsManager }

func (f *Factory) AccountRepository() model.AccountRepository {
	if f.accountRepository == nil {
		f.accountRepository = scylla.NewAccountRepository(f.scyllaClient, f.bucketingManager, util.Get())
	}
	return f.accountRepository
}

func (f *Factory) OtpLedger() model.OtpLedger {
	if f.otpLedger == nil {
		f.otpLedger = redisrepo.NewOtpLedger(f.redisClient, &f.config.OTP)
	}
	return f.otpLedger
}

func (f *Factory) JobRepository() model.JobRepository {
	if f.jobRepository == nil {
		f.jobRepository = scylla.NewJobRepository(f.scyllaClient, util.Get())
	}
	return f.jobRepository
}

func (f *Factory) ApplicationRepository() model.ApplicationRepository {
	if f.applicationRepository == nil {
		f.applicationRepository = scylla.NewApplicationRepository(f.scyllaClient, util.Get())
	}
	return f.applicationRepository
}

func (f *Factory) ResumeRepository() model.ResumeRepository {
	if f.resumeRepository == nil {
		f.resumeRepository = scylla.NewResumeRepository(f.scyllaClient, util.Get())
	}
	return f.resumeRepository
}

func (f *Factory) ProvisioningService() *service.ProvisioningService {
	if f.provisioningService == nil {
		f.provisioningService = service.NewProvisioningService(
			f.AccountRepository(),
			f.OtpLedger(),
			f.smtpMailer,
			f.hasher,
			f.encryptionManager,
			f.recorder,
			&f.config.OTP,
		)
	}
	return f.provisioningService
}

func (f *Factory) AccountService() *service.AccountService {
	if f.accountService == nil {
		f.accountService = service.NewAccountService(
			f.AccountRepository(),
			f.JobRepository(),
			f.hasher,
			f.encryptionManager,
			f.recorder,
		)
	}
	return f.accountService
}

func (f *Factory) JobService() *service.JobService {
	if f.jobService == nil {
		f.jobService = service.NewJobService(
			f.JobRepository(),
			f.AccountRepository(),
			f.JobEventProducer(),
			f.jobIndex,
			f.recorder,
		)
	}
	return f.jobService
}

func (f *Factory) ApplicationService() *service.ApplicationService {
	if f.applicationService == nil {
		f.applicationService = service.NewApplicationService(
			f.ApplicationRepository(),
			f.JobRepository(),
			f.AccountRepository(),
			f.recorder,
		)
	}
	return f.applicationService
}

func (f *Factory) ResumeService() *service.ResumeService {
	if f.resumeService == nil {
		f.resumeService = service.NewResumeService(f.ResumeRepository(), f.AccountRepository())
	}
	return f.resumeService
}

func (f *Factory) StatsService() *service.StatsService {
	if f.statsService == nil {
		f.statsService = service.NewStatsService(f.AccountRepository(), f.JobRepository(), f.recorder)
	}
	return f.statsService
}

func (f *Factory) JobEventProducer() *notifier.JobEventProducer {
	if f.jobEventProducer == nil {
		f.jobEventProducer = notifier.NewJobEventProducer(f.kafkaProducer, f.config)
	}
	return f.jobEventProducer
}

// MatchNotifier builds the fan-out consumer. The caller starts and stops it.
func (f *Factory) MatchNotifier() *notifier.MatchNotifier {
	if f.matchNotifier == nil {
		f.matchNotifier = notifier.NewMatchNotifier(
			f.kafkaConsumer,
			f.AccountRepository(),
			f.smtpMailer,
			f.recorder,
			f.config,
		)
	}
	return f.matchNotifier
}

func (f *Factory) CookieWriter() *handler.CookieWriter {
	if f.cookieWriter == nil {
		f.cookieWriter = handler.NewCookieWriter(&f.config.Server)
	}
	return f.cookieWriter
}

// HealthCheck probes every client and reports failures by name.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	} else {
		healthErrors["kafka"] = fmt.Errorf("kafka producer not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "elasticsearch")
	delete(healthErrors, "clickhouse")
	return len(healthErrors) == 0
}

// Close stops the notifier first so in-flight fan-outs drain before their
// clients go away.
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.matchNotifier != nil {
			f.matchNotifier.Close()
		}

		if f.kafkaConsumer != nil {
			if err := f.kafkaConsumer.Close(); err != nil {
				util.Error("Failed to close Kafka consumer", util.ErrorField(err))
			}
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
		}

		if f.encryptionManager != nil {
			f.encryptionManager.ClearCache()
		}

		if f.scyllaClient != nil {
			f.scyllaClient.Close()
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		util.Info("Factory shutdown complete")
	})
	return nil
}
