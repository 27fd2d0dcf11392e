package eventconsumers

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/eventpubsub"
)

type Subscriber interface {
	Subscribe(topic string, callbackFn interface{}) error
}

// LatestResultStore keeps the most recently completed screening run.
type LatestResultStore struct {
	mu     sync.RWMutex
	latest *eventmodels.ScreeningResult
}

func NewLatestResultStore() *LatestResultStore {
	return &LatestResultStore{}
}

func (s *LatestResultStore) Start(bus Subscriber) error {
	if err := bus.Subscribe(eventpubsub.ScreeningCompletedEvent, s.handleScreeningCompleted); err != nil {
		return fmt.Errorf("LatestResultStore.Start: %w", err)
	}

	return nil
}

func (s *LatestResultStore) handleScreeningCompleted(event *eventmodels.ScreeningCompletedEvent) {
	if event == nil || event.Result == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// runs may complete out of order
	if s.latest != nil && event.Result.CompletedAt.Before(s.latest.CompletedAt) {
		return
	}

	s.latest = event.Result

	log.WithFields(log.Fields{
		"id":     event.Result.ID,
		"quotes": event.Result.TotalQuotes(),
	}).Debug("LatestResultStore: stored screening result")
}

func (s *LatestResultStore) Latest() (*eventmodels.ScreeningResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.latest != nil
}
