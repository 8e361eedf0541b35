package agent

import (
	"sync"
	"time"

	"github.com/arkosec/responder/action"
	"github.com/arkosec/responder/config"
	"github.com/arkosec/responder/engine"
	"github.com/arkosec/responder/event"
	"github.com/arkosec/responder/executor"
	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/persistence"
	"github.com/arkosec/responder/persistence/memory"
	redisstore "github.com/arkosec/responder/persistence/redis"
	"github.com/arkosec/responder/registry"
	"github.com/arkosec/responder/rest"
)

type Agent struct {
	Config config.Config

	bus          *event.Bus
	workflows    *registry.WorkflowRegistry
	playbooks    *registry.PlaybookCatalog
	catalog      *action.Catalog
	actions      *action.Registry
	stepExecutor *executor.StepExecutor
	incidents    persistence.IncidentStore
	archive      persistence.ExecutionArchive
	engine       *engine.Engine
	httpServer   *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{Config: conf}
	setup := []func() error{
		a.setupEventBus,
		a.setupStorage,
		a.setupActions,
		a.setupRegistries,
		a.setupEngine,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupEventBus() error {
	a.bus = event.NewBus()
	return nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		conf := redisstore.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		}
		a.archive = redisstore.NewRedisExecutionArchive(conf)
		a.incidents = redisstore.NewRedisIncidentStore(conf)
	default:
		a.archive = memory.NewExecutionArchive(time.Duration(a.Config.ArchiveTTLSeconds) * time.Second)
		a.incidents = memory.NewIncidentStore()
	}
	return nil
}

func (a *Agent) setupActions() error {
	a.catalog = action.NewCatalog()
	action.SeedCatalog(a.catalog)
	a.actions = action.NewRegistry(a.catalog)
	action.RegisterBuiltins(a.actions)
	a.stepExecutor = executor.NewStepExecutor(a.actions)
	return nil
}

func (a *Agent) setupRegistries() error {
	a.workflows = registry.NewWorkflowRegistry()
	a.playbooks = registry.NewPlaybookCatalog()
	if err := seedWorkflows(a.workflows); err != nil {
		return err
	}
	seedPlaybooks(a.playbooks)
	return nil
}

func (a *Agent) setupEngine() error {
	a.engine = engine.New(a.workflows, a.playbooks, a.catalog, a.stepExecutor, a.bus, a.incidents, a.archive, a.Config.ExecutorCapacity)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.engine)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Engine() *engine.Engine {
	return a.engine
}

func (a *Agent) Bus() *event.Bus {
	return a.bus
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		a.engine.Shutdown,
		a.bus.Close,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
