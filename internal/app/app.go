package app

import (
	"context"
	"os"
	"path"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/config"
	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/checkout"
	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/inventory"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/pkg/metrics"
)

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	jobPool       *ants.Pool
	configManager *ConfigManager
	bus           EventBus.Bus

	dataStore  *store.Store
	tokenStore *auth.TokenStore
	authSvc    *auth.Service
	checkout   *checkout.Service
	inventory  *inventory.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider       = (*Application)(nil)
	_ ConfigProvider   = (*Application)(nil)
	_ SettingsProvider = (*Application)(nil)
	_ ServiceProvider  = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig { return a.appConfig }
func (a *Application) DB() *gorm.DB              { return a.gormDB }
func (a *Application) Store() *store.Store       { return a.dataStore }
func (a *Application) Bus() EventBus.Bus         { return a.bus }

func (a *Application) AuthService() *auth.Service           { return a.authSvc }
func (a *Application) CheckoutService() *checkout.Service   { return a.checkout }
func (a *Application) InventoryService() *inventory.Service { return a.inventory }

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.dataStore = store.NewStore(db)
}

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if err := cfg.InitDirs(); err != nil {
		return err
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			return err
		}
	}

	zap.ReplaceGlobals(logger)

	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Database connection and canonical schema. The schema is fixed here
	// once; nothing inspects or repairs tables at request time.
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB, err = getDatabase(cfg.Database)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
		return err
	}

	a.checkSuper()
	a.checkSettings()

	a.configManager = NewConfigManager(a.gormDB, DefaultSettingsCacheTTL)
	a.bus = EventBus.New()

	a.tokenStore, err = auth.NewTokenStore(path.Join(cfg.GetDataDir(), "tokens.db"))
	if err != nil {
		return err
	}

	a.dataStore = store.NewStore(a.gormDB)
	users := store.NewUserRepository(a.gormDB)
	a.authSvc = auth.NewService(users, a.tokenStore, cfg.Web.Secret)
	a.checkout = checkout.NewService(a.dataStore, a.authSvc, a.configManager, a.bus)
	a.inventory = inventory.NewService(a.dataStore, a.dataStore.Ledger())

	a.subscribeEvents()
	a.initJob()
	return nil
}

func (a *Application) MigrateDB() error {
	if a.appConfig.Database.Debug {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
	}
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// StartBackgroundJobs starts the cron scheduler.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	if a.sched != nil {
		a.sched.Start()
		go func() {
			<-ctx.Done()
			a.sched.Stop()
		}()
	}
}

// subscribeEvents wires post-commit checkout events into metrics.
func (a *Application) subscribeEvents() {
	err := a.bus.Subscribe(checkout.TopicCommitted, func(ev checkout.CommittedEvent) {
		metrics.CounterIncr(metrics.CheckoutCommitted, 1)
		metrics.CounterIncr(metrics.CheckoutUnitsSold, float64(ev.Units))
	})
	if err != nil {
		zap.L().Warn("failed to subscribe checkout events", zap.Error(err))
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.jobPool != nil {
		a.jobPool.Release()
	}
	if a.tokenStore != nil {
		_ = a.tokenStore.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
