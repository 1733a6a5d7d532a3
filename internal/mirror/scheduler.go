package mirror

import (
	"pickme/internal/mirror/interfaces"
	"pickme/internal/providers"
	"pickme/internal/structures"
	"sync"
	"time"
)

// Scheduler persists the file mirror periodically and once more on Stop.
type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	fileManager *FileManager
	opsMu       sync.Mutex
	stop        chan struct{}
	done        chan struct{}
}

func (s *Scheduler) Init() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := time.NewTicker(s.config.Mirror.SaveInterval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.fileManager.memory.Dirty() {
					continue
				}
				if err := s.Persist(); err == nil {
					s.logger.Debugf(providers.TypeState, "Persisted mirror to file %s", s.config.Mirror.FilePath)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	if !s.fileManager.memory.Dirty() {
		return nil
	}
	return s.Persist()
}

func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if err := s.fileManager.LoadFromFile(s.config.Mirror.FilePath); err != nil {
		s.metrics.IncMirrorFailures("restore")
		return err
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Mirror.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.metrics.IncMirrorFailures("persist")
		s.logger.Errorf(providers.TypeState, "Error while persisting mirror: %s", err)
		return err
	}
	return nil
}

// NewScheduler returns a no-op scheduler unless the mirror is file backed.
func NewScheduler(config *structures.Config, logger providers.Logger, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	if config.Mirror.Mode != ModeFile {
		return &noopScheduler{}
	}
	return &Scheduler{
		config:      config,
		logger:      logger,
		metrics:     metrics,
		fileManager: fileManager,
	}
}

type noopScheduler struct{}

func (n *noopScheduler) Init()          {}
func (n *noopScheduler) Stop() error    { return nil }
func (n *noopScheduler) Restore() error { return nil }
func (n *noopScheduler) Persist() error { return nil }
