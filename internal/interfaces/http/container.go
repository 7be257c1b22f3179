package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	instanceServices "github.com/hatchery-inc/hatchery/internal/application/instance/services"
	instanceUsecases "github.com/hatchery-inc/hatchery/internal/application/instance/usecases"
	paymentUsecases "github.com/hatchery-inc/hatchery/internal/application/payment/usecases"
	subscriptionUsecases "github.com/hatchery-inc/hatchery/internal/application/subscription/usecases"
	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	"github.com/hatchery-inc/hatchery/internal/domain/payment"
	"github.com/hatchery-inc/hatchery/internal/domain/subscription"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/cache"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/config"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/controlplane"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/repository"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/scheduler"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/vault"
	"github.com/hatchery-inc/hatchery/internal/interfaces/http/handlers"
	"github.com/hatchery-inc/hatchery/internal/shared/db"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

const provisioningLockPrefix = "hatchery:lock:"

type repositories struct {
	subscriptionRepo subscription.SubscriptionRepository
	credentialRepo   channel.ChannelCredentialRepository
	instanceRepo     instance.InstanceRepository
	orderRepo        payment.PaymentOrderRepository
}

type allUseCases struct {
	provisionUC       *instanceUsecases.ProvisionInstanceUseCase
	getInstanceUC     *instanceUsecases.GetInstanceUseCase
	redeployUC        *instanceUsecases.RedeployInstanceUseCase
	deleteUC          *instanceUsecases.DeleteInstanceUseCase
	updateVariablesUC *instanceUsecases.UpdateInstanceVariablesUseCase
	stopUC            *instanceUsecases.StopInstanceUseCase
	handlePaymentUC   *paymentUsecases.HandlePaymentSuccessUseCase
}

type allHandlers struct {
	instanceHandler    *handlers.InstanceHandler
	paymentHookHandler *handlers.PaymentHookHandler
	monitorHandler     *handlers.MonitorHandler
	healthHandler      *handlers.HealthHandler
}

// Container holds the infrastructure, repositories, use cases, handlers and
// background services, and wires them together.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	vault        *vault.Vault
	controlPlane *controlplane.GraphQLClient
	lock         instanceUsecases.ProvisioningLock

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	activator *subscriptionUsecases.ActivateSubscriptionUseCase

	// Background services
	monitor   *instanceServices.DeploymentMonitor
	waiter    *instanceServices.DeploymentWaiter
	scheduler *scheduler.SchedulerManager
}

// NewContainer wires every component from cfg. The database must already be open.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, vault, control plane, repositories
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Deployment monitor and scheduler
	if err := c.initMonitoring(); err != nil {
		return nil, err
	}

	// Section 3: Use cases
	c.initUseCases()

	// Section 4: Handlers
	c.initHandlers()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	if c.cfg.Redis.Enabled {
		client, err := initRedis(c.cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
		c.lock = cache.NewRedisKeyedLock(client, provisioningLockPrefix, c.log.Named("lock"))
	} else {
		c.log.Warnw("redis disabled, provisioning lock is local to this process")
		c.lock = cache.NewMemoryKeyedLock()
	}

	v, err := vault.New(c.cfg.Vault.Secret, c.cfg.Vault.Algorithm)
	if err != nil {
		return fmt.Errorf("failed to initialize credential vault: %w", err)
	}
	c.vault = v

	c.controlPlane = controlplane.NewGraphQLClient(c.cfg.ControlPlane, c.log.Named("controlplane"))
	c.repos = newRepositories(c.db, c.log)
	return nil
}

func (c *Container) initMonitoring() error {
	c.activator = subscriptionUsecases.NewActivateSubscriptionUseCase(c.repos.subscriptionRepo, c.log.Named("subscription"))

	c.monitor = instanceServices.NewDeploymentMonitor(
		c.repos.instanceRepo,
		c.controlPlane,
		c.activator,
		instanceServices.MonitorOptions{
			TrackInterval:    c.cfg.Monitor.TrackInterval(),
			AlertThreshold:   c.cfg.Monitor.AlertThreshold(),
			CheckTimeout:     c.cfg.Monitor.CheckTimeout(),
			SweepConcurrency: c.cfg.Monitor.SweepConcurrency,
		},
		c.log.Named("monitor"),
	)
	c.waiter = instanceServices.NewDeploymentWaiter(
		c.controlPlane,
		c.cfg.Monitor.WaitInterval(),
		c.cfg.Monitor.WaitTimeout(),
		c.log.Named("waiter"),
	)

	sched, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if c.cfg.Monitor.Enabled {
		if err := sched.RegisterMonitorJobs(c.monitor, c.cfg.Monitor.SweepInterval(), c.cfg.Monitor.SweepInterval()); err != nil {
			return err
		}
		if err := sched.RegisterStatsJobs(c.monitor, c.cfg.Monitor.SweepInterval()); err != nil {
			return err
		}
	}
	c.scheduler = sched
	return nil
}

func (c *Container) initUseCases() {
	composer := instanceServices.NewEnvironmentComposer(c.repos.credentialRepo, c.vault, c.log.Named("composer"))

	provisionUC := instanceUsecases.NewProvisionInstanceUseCase(
		c.repos.instanceRepo,
		c.controlPlane,
		composer,
		c.lock,
		c.monitor,
		instanceUsecases.ProvisioningSettings{
			NamePrefix:      c.cfg.Provisioning.NamePrefix,
			EnvironmentName: c.cfg.Provisioning.EnvironmentName,
			LockTTL:         c.cfg.Provisioning.EffectiveLockTTL(&c.cfg.ControlPlane),
		},
		c.log.Named("provisioning"),
	)

	c.ucs = &allUseCases{
		provisionUC:       provisionUC,
		getInstanceUC:     instanceUsecases.NewGetInstanceUseCase(c.repos.instanceRepo, c.log),
		redeployUC:        instanceUsecases.NewRedeployInstanceUseCase(c.repos.instanceRepo, c.controlPlane, c.monitor, c.log),
		deleteUC:          instanceUsecases.NewDeleteInstanceUseCase(c.repos.instanceRepo, c.controlPlane, c.monitor, c.log),
		updateVariablesUC: instanceUsecases.NewUpdateInstanceVariablesUseCase(c.repos.instanceRepo, c.controlPlane, c.monitor, c.log),
		stopUC:            instanceUsecases.NewStopInstanceUseCase(c.repos.instanceRepo, c.monitor, c.log),
		handlePaymentUC: paymentUsecases.NewHandlePaymentSuccessUseCase(
			c.repos.orderRepo,
			c.repos.subscriptionRepo,
			c.repos.credentialRepo,
			c.activator,
			provisionUC,
			db.NewTransactionManager(c.db),
			paymentUsecases.TemplateSettings{
				ProjectID: c.cfg.Provisioning.TemplateProjectID,
				ServiceID: c.cfg.Provisioning.TemplateServiceID,
			},
			c.log.Named("payment"),
		),
	}
}

func (c *Container) initHandlers() {
	checks := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}

	c.hdlrs = &allHandlers{
		instanceHandler: handlers.NewInstanceHandler(
			c.ucs.getInstanceUC,
			c.ucs.redeployUC,
			c.ucs.deleteUC,
			c.ucs.updateVariablesUC,
			c.ucs.stopUC,
			c.log.Named("http.instance"),
		),
		paymentHookHandler: handlers.NewPaymentHookHandler(c.ucs.handlePaymentUC, c.log.Named("http.payment")),
		monitorHandler:     handlers.NewMonitorHandler(c.monitor, c.log.Named("http.monitor")),
		healthHandler:      handlers.NewHealthHandler(checks),
	}
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Infow("Redis connection established", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		subscriptionRepo: repository.NewSubscriptionRepository(db, log),
		credentialRepo:   repository.NewChannelCredentialRepository(db, log),
		instanceRepo:     repository.NewInstanceRepository(db, log),
		orderRepo:        repository.NewPaymentOrderRepository(db),
	}
}

// Monitor returns the deployment monitor.
func (c *Container) Monitor() *instanceServices.DeploymentMonitor {
	return c.monitor
}

// Waiter returns the blocking deployment waiter.
func (c *Container) Waiter() *instanceServices.DeploymentWaiter {
	return c.waiter
}

// Scheduler returns the background job scheduler.
func (c *Container) Scheduler() *scheduler.SchedulerManager {
	return c.scheduler
}

// InstanceRepository returns the instance repository.
func (c *Container) InstanceRepository() instance.InstanceRepository {
	return c.repos.instanceRepo
}

// Shutdown stops background work and releases connections owned by the container.
func (c *Container) Shutdown() {
	if c.scheduler != nil && c.scheduler.IsStarted() {
		if err := c.scheduler.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	if c.monitor != nil {
		c.monitor.Shutdown()
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close Redis client", "error", err)
		}
	}
}
