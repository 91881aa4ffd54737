// Package admin serves the operational dashboard reads over storage.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
)

// MonitoredQueues are the queues shown on the queue monitor.
var MonitoredQueues = []string{storage.OrderQueue, storage.ProcessingQueue}

// Listing is a dashboard result. Unavailable is set when the backend could not
// be read, in which case Items is empty.
type Listing[T any] struct {
	Items       []T  `json:"items"`
	Unavailable bool `json:"unavailable"`
}

type QueueMonitor struct {
	Depths      map[string]int `json:"depths"`
	Unavailable bool           `json:"unavailable"`
}

type Service struct {
	inspector storage.Inspector
	logger    *slog.Logger
}

func NewService(inspector storage.Inspector, logger *slog.Logger) *Service {
	return &Service{inspector: inspector, logger: logger}
}

func (s *Service) Customers(ctx context.Context) Listing[domain.CustomerRecord] {
	raw, err := s.inspector.ListRecords(ctx, storage.CustomersTable)
	if err != nil {
		s.logUnavailable("customers", err)
		return Listing[domain.CustomerRecord]{Items: []domain.CustomerRecord{}, Unavailable: true}
	}

	customers := make([]domain.CustomerRecord, 0, len(raw))
	for _, r := range raw {
		var c domain.CustomerRecord
		if err := json.Unmarshal(r, &c); err != nil {
			s.logger.Warn("skipping malformed customer record", "error", err)
			continue
		}
		customers = append(customers, c)
	}
	return Listing[domain.CustomerRecord]{Items: customers}
}

func (s *Service) Contracts(ctx context.Context) Listing[string] {
	files, err := s.inspector.ListFiles(ctx, storage.ContractsShare, storage.ContractsDirectory)
	if err != nil {
		s.logUnavailable("contracts", err)
		return Listing[string]{Items: []string{}, Unavailable: true}
	}

	files = slices.Clone(files)
	slices.Sort(files)
	if files == nil {
		files = []string{}
	}
	return Listing[string]{Items: files}
}

// QueueDepths reports the approximate depth of each monitored queue. A queue
// whose depth cannot be read reports zero.
func (s *Service) QueueDepths(ctx context.Context) QueueMonitor {
	depths := make(map[string]int, len(MonitoredQueues))
	for _, queue := range MonitoredQueues {
		depth, err := s.inspector.QueueDepth(ctx, queue)
		if errors.Is(err, storage.ErrNotConfigured) {
			return QueueMonitor{Depths: map[string]int{}, Unavailable: true}
		}
		if err != nil {
			s.logger.Warn("unable to read queue depth", "error", err, "queue", queue)
			depth = 0
		}
		depths[queue] = depth
	}
	return QueueMonitor{Depths: depths}
}

func (s *Service) logUnavailable(view string, err error) {
	if errors.Is(err, storage.ErrNotConfigured) {
		s.logger.Debug("dashboard backend not configured", "view", view)
		return
	}
	s.logger.Warn("dashboard backend read failed", "error", err, "view", view)
}
