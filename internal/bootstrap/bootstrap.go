// Package bootstrap provisions the storage resources the storefront expects
// before it starts serving.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abcretail/storefront/internal/storage"
)

type step struct {
	name string
	run  func(ctx context.Context, p storage.Provisioner) error
}

var steps = []step{
	{"container " + storage.ProductImagesContainer, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureContainer(ctx, storage.ProductImagesContainer)
	}},
	{"queue " + storage.OrderQueue, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureQueue(ctx, storage.OrderQueue)
	}},
	{"queue " + storage.ProcessingQueue, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureQueue(ctx, storage.ProcessingQueue)
	}},
	{"share " + storage.ContractsShare + "/" + storage.ContractsDirectory, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureShare(ctx, storage.ContractsShare, storage.ContractsDirectory)
	}},
	{"table " + storage.CustomersTable, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureTable(ctx, storage.CustomersTable)
	}},
	{"table " + storage.ProductsTable, func(ctx context.Context, p storage.Provisioner) error {
		return p.EnsureTable(ctx, storage.ProductsTable)
	}},
}

// Provision ensures every storage resource exists. Steps are independent: a
// failing step is logged and the rest still run. The joined failures are
// returned so the caller can decide, but startup is expected to continue.
func Provision(ctx context.Context, p storage.Provisioner, logger *slog.Logger) error {
	var errs []error
	for _, s := range steps {
		if err := s.run(ctx, p); err != nil {
			logger.Warn("failed to provision storage resource", "error", err, "resource", s.name)
			errs = append(errs, fmt.Errorf("provision %s: %w", s.name, err))
			continue
		}
		logger.Debug("storage resource ready", "resource", s.name)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("storage resources provisioned", "count", len(steps))
	return nil
}
