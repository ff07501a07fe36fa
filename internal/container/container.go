package container

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/config"
	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/internal/domain/repository"
	"github.com/tabbli/accounts/internal/infrastructure/postgres"
	"github.com/tabbli/accounts/pkg/helpers"
)

// Container holds every constructed component, built once at startup and
// passed down explicitly. GCS and the mail/relation queues are optional:
// they stay nil when unconfigured and the dependent features degrade.
type Container struct {
	Cfg *config.Config
	Log *logrus.Logger

	PG    *pgxpool.Pool
	Redis *redis.Client
	GCS   *storage.Client
	ES    *elasticsearch.Client

	JWT      *helpers.JWTManager
	Sessions application.SessionStore

	EmailQueue    *helpers.RabbitPublisher
	RelationQueue *helpers.RabbitPublisher

	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Invites  repository.InviteRepository
	Groups   repository.GroupRepository

	UserSvc   *application.UserService
	InviteSvc *application.InviteService
	GroupSvc  *application.GroupService
}

func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Container, error) {
	c := &Container{Cfg: cfg, Log: log}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, err
	}
	c.PG = pool

	c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	c.Sessions = &application.RedisSessionStore{Client: c.Redis}
	c.JWT = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, err
		}
		c.GCS = gcs
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return nil, err
	}
	c.ES = es

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return nil, err
		}
		c.EmailQueue = pub
	}
	relPub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQRelationQueue)
	if err != nil {
		return nil, err
	}
	c.RelationQueue = relPub

	c.Users = postgres.NewUserRepository(pool)
	c.Profiles = postgres.NewProfileRepository(pool)
	c.Invites = postgres.NewInviteRepository(pool)
	c.Groups = postgres.NewGroupRepository(pool)

	c.UserSvc = application.NewUserService(application.UserServiceDeps{
		Users:    c.Users,
		Profiles: c.Profiles,
		Invites:  c.Invites,
		Groups:   c.Groups,
		Backends: application.NewBackends(c.Users, cfg.FacebookAppSecret, cfg.GoogleClientSecret),
		Sessions: c.Sessions,
		JWT:      c.JWT,

		GCS:       c.GCS,
		GCSBucket: cfg.GCSBucket,

		ES:         c.ES,
		UsersIndex: cfg.ESUsersIndex,

		Finder:      &application.ESRecordFinder{Client: c.ES, Index: cfg.ESRecordsIndex},
		Corrections: c.RelationQueue,

		LoginRedirectURL:      cfg.LoginRedirectURL,
		NewAccountRedirectURL: cfg.NewAccountRedirectURL,

		Log: log,
	})

	var emails application.TaskPublisher
	if c.EmailQueue != nil {
		emails = c.EmailQueue
	}
	c.InviteSvc = application.NewInviteService(c.Invites, c.Users, emails, cfg.SiteURL, log)
	c.GroupSvc = application.NewGroupService(c.Groups)

	return c, nil
}

// Close releases every held connection. Safe on a partially built container.
func (c *Container) Close() {
	if c.EmailQueue != nil {
		c.EmailQueue.Close()
	}
	if c.RelationQueue != nil {
		c.RelationQueue.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PG != nil {
		c.PG.Close()
	}
}
