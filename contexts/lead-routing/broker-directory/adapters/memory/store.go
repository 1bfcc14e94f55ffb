package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lares/contexts/lead-routing/broker-directory/domain/entities"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
	"lares/contexts/lead-routing/broker-directory/ports"
)

type Store struct {
	mu      sync.RWMutex
	brokers map[string]entities.Broker
}

func NewStore(seed []entities.Broker) *Store {
	brokers := make(map[string]entities.Broker, len(seed))
	for _, broker := range seed {
		brokers[broker.ID] = broker
	}
	return &Store{brokers: brokers}
}

func (s *Store) GetBroker(_ context.Context, brokerID string) (entities.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	broker, ok := s.brokers[brokerID]
	if !ok {
		return entities.Broker{}, domainerrors.ErrBrokerNotFound
	}
	return broker, nil
}

func (s *Store) ListBrokers(_ context.Context, activeOnly bool) ([]entities.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	brokers := make([]entities.Broker, 0, len(s.brokers))
	for _, broker := range s.brokers {
		if activeOnly && !broker.Active {
			continue
		}
		brokers = append(brokers, broker)
	}
	sort.Slice(brokers, func(i, j int) bool {
		return brokers[i].Name < brokers[j].Name
	})
	return brokers, nil
}

func (s *Store) FindEligible(
	ctx context.Context,
	_ entities.EligibilityCriteria,
) ([]entities.Broker, error) {
	brokers, err := s.ListBrokers(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.Slice(brokers, func(i, j int) bool {
		return brokers[i].ID < brokers[j].ID
	})
	return brokers, nil
}

func (s *Store) IncrementCompletedAssignments(_ context.Context, brokerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	broker, ok := s.brokers[brokerID]
	if !ok {
		return domainerrors.ErrBrokerNotFound
	}
	broker.CompletedAssignments++
	broker.UpdatedAt = time.Now().UTC()
	s.brokers[brokerID] = broker
	return nil
}

var _ ports.Repository = (*Store)(nil)
