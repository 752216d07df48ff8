package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/teleop-console/domain/console"
	"github.com/open-teleop/teleop-console/pkg/api"
	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"github.com/open-teleop/teleop-console/pkg/processing"
	"github.com/open-teleop/teleop-console/pkg/zeromq"
	"github.com/open-teleop/teleop-console/services"
)

const shutdownTimeout = 5 * time.Second

// runtime is a fully wired console: bus, inbox, registry, config service
// and the console itself.
type runtime struct {
	cfg       *config.BootstrapConfig
	logger    customlog.Logger
	configSvc services.TeleopConfigService
	registry  *processing.TopicRegistry
	inbox     *processing.Inbox
	bus       *zeromq.Bus
	console   *console.Console
}

// newLogger builds the process logger. A nil console writer means stdout;
// with io.Discard the logs only go to the file, defaulting to <data>/logs.
func newLogger(cfg *config.BootstrapConfig, consoleOut io.Writer) (customlog.Logger, error) {
	dir := cfg.Logging.LogPath
	if dir == "" && consoleOut == io.Discard {
		dir = filepath.Join(cfg.Data.Directory, "logs")
	}
	return customlog.New(customlog.Options{
		Level:   cfg.Logging.Level,
		Dir:     dir,
		Console: consoleOut,
	})
}

func newRuntime(cfg *config.BootstrapConfig, logger customlog.Logger) (*runtime, error) {
	configSvc, err := services.NewTeleopConfigService(cfg.TopicConfigPath(), logger)
	if err != nil {
		return nil, err
	}
	topicCfg := configSvc.GetCurrentConfig()
	topics := topicCfg.Topics()

	registry := processing.NewTopicRegistry(logger)
	registry.LoadFromConfig(topicCfg)

	inbox := processing.NewInbox()
	bus, err := zeromq.NewBus(zeromq.BusOptions{
		PublishAddress:     cfg.ZeroMQ.PublishAddress,
		SubscribeAddress:   cfg.ZeroMQ.SubscribeAddress,
		CommandBindAddress: cfg.ZeroMQ.CommandBindAddress,
		InboundTopics:      topics.Inbound(),
		PollInterval:       time.Duration(cfg.ZeroMQ.ReceiveTimeoutMs) * time.Millisecond,
	}, registry, func(d processing.Delivery) { inbox.Put(d) }, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}

	c := console.New(topics, bus, inbox, logger)
	zeromq.RegisterConsoleHandlers(bus.Dispatcher(), c, registry, logger)

	configSvc.SetPublisher(zeromq.NewConfigPublisher(bus, configSvc.GetCurrentConfig, logger))
	configSvc.OnUpdate(func(newCfg *config.Config) {
		registry.LoadFromConfig(newCfg)
		if newCfg.Topics() != topics {
			logger.Warnf("Topic names changed in config %s; restart the console to use them", newCfg.ConfigID)
		}
	})

	logger.Infof("Console topics: MTM pose %s, PSM pose %s, enable %s", topics.MasterPose, topics.SlavePose, topics.TeleopEnable)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		configSvc: configSvc,
		registry:  registry,
		inbox:     inbox,
		bus:       bus,
		console:   c,
	}, nil
}

func (r *runtime) period() time.Duration {
	return time.Duration(r.cfg.Panel.PeriodMs) * time.Millisecond
}

// startAPI serves the HTTP API in the background when enabled. The returned
// channel receives the listen error, if any.
func (r *runtime) startAPI(accessLog io.Writer) (*fiber.App, <-chan error) {
	errCh := make(chan error, 1)
	if !r.cfg.Server.Enabled {
		return nil, errCh
	}

	app := api.NewApp(api.Options{
		Console:   r.console,
		Topics:    r.registry,
		Config:    r.configSvc,
		Logger:    r.logger,
		AccessLog: accessLog,
	})

	addr := fmt.Sprintf(":%d", r.cfg.Server.HTTPPort)
	go func() {
		r.logger.Infof("HTTP API listening on %s", addr)
		if err := app.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http api: %w", err)
		}
	}()
	return app, errCh
}

func (r *runtime) close(app *fiber.App) {
	if app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			r.logger.Warnf("HTTP API forced to shutdown: %v", err)
		}
	}
	r.bus.Stop()
}
