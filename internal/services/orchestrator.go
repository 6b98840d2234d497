// Package services starts and stops the long-running parts of the server in
// dependency order.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

// ServiceStatus represents the current state of a service.
type ServiceStatus string

const (
	StatusNotStarted ServiceStatus = "not_started"
	StatusStarting   ServiceStatus = "starting"
	StatusRunning    ServiceStatus = "running"
	StatusStopping   ServiceStatus = "stopping"
	StatusStopped    ServiceStatus = "stopped"
	StatusFailed     ServiceStatus = "failed"
)

// ManagedService defines the interface for services managed by the orchestrator.
type ManagedService interface {
	// Name returns the service name for logging and identification.
	Name() string

	// Start initializes and starts the service. It must not block.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service.
	Stop(ctx context.Context) error

	// Dependencies returns the names of services this service depends on.
	Dependencies() []string
}

// ServiceInfo contains metadata about a managed service.
type ServiceInfo struct {
	Name         string        `json:"name"`
	Status       ServiceStatus `json:"status"`
	Dependencies []string      `json:"dependencies"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	StoppedAt    *time.Time    `json:"stopped_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

// Func adapts a pair of functions to ManagedService.
type Func struct {
	ServiceName string
	Deps        []string
	StartFunc   func(ctx context.Context) error
	StopFunc    func(ctx context.Context) error
}

func (f Func) Name() string           { return f.ServiceName }
func (f Func) Dependencies() []string { return f.Deps }

func (f Func) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}

// ServiceOrchestrator manages the lifecycle of multiple services with dependency resolution.
type ServiceOrchestrator struct {
	services   map[string]ManagedService
	status     map[string]ServiceStatus
	startedAt  map[string]time.Time
	stoppedAt  map[string]time.Time
	lastErrors map[string]error
	started    []string // start order of running services
	mu         sync.RWMutex

	startTimeout time.Duration
	stopTimeout  time.Duration
}

// NewServiceOrchestrator creates a new service orchestrator.
func NewServiceOrchestrator() *ServiceOrchestrator {
	return &ServiceOrchestrator{
		services:     make(map[string]ManagedService),
		status:       make(map[string]ServiceStatus),
		startedAt:    make(map[string]time.Time),
		stoppedAt:    make(map[string]time.Time),
		lastErrors:   make(map[string]error),
		startTimeout: 30 * time.Second,
		stopTimeout:  30 * time.Second,
	}
}

// WithTimeouts configures start and stop timeouts.
func (so *ServiceOrchestrator) WithTimeouts(start, stop time.Duration) *ServiceOrchestrator {
	so.startTimeout = start
	so.stopTimeout = stop
	return so
}

// RegisterService adds a service to the orchestrator.
func (so *ServiceOrchestrator) RegisterService(service ManagedService) error {
	so.mu.Lock()
	defer so.mu.Unlock()

	name := service.Name()
	if name == "" {
		return errors.ValidationError("service name cannot be empty").Build()
	}
	if _, exists := so.services[name]; exists {
		return errors.ValidationError(fmt.Sprintf("service %s already registered", name)).
			WithContext("service", name).
			Build()
	}

	so.services[name] = service
	so.status[name] = StatusNotStarted

	slog.Debug("Service registered", "service", name, "dependencies", service.Dependencies())
	return nil
}

// StartAll starts all services in dependency order. When one fails the
// services started before it are stopped again.
func (so *ServiceOrchestrator) StartAll(ctx context.Context) error {
	so.mu.Lock()
	defer so.mu.Unlock()

	startOrder, err := so.calculateStartOrder()
	if err != nil {
		return errors.InternalError("failed to calculate service start order").
			WithCause(err).
			Build()
	}

	slog.Info("Starting services", "count", len(startOrder), "order", startOrder)

	for _, serviceName := range startOrder {
		if err := so.startService(ctx, serviceName); err != nil {
			so.stopStartedServices(context.WithoutCancel(ctx))
			return err
		}
	}

	slog.Info("All services started successfully")
	return nil
}

// StopAll stops the running services in reverse start order.
func (so *ServiceOrchestrator) StopAll(ctx context.Context) error {
	so.mu.Lock()
	defer so.mu.Unlock()

	slog.Info("Stopping services", "count", len(so.started))
	if err := so.stopStartedServices(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "some services failed to stop gracefully").Build()
	}
	slog.Info("All services stopped successfully")
	return nil
}

// GetServiceInfo returns information about a specific service.
func (so *ServiceOrchestrator) GetServiceInfo(name string) (ServiceInfo, bool) {
	so.mu.RLock()
	defer so.mu.RUnlock()
	return so.serviceInfo(name)
}

func (so *ServiceOrchestrator) serviceInfo(name string) (ServiceInfo, bool) {
	service, exists := so.services[name]
	if !exists {
		return ServiceInfo{}, false
	}

	info := ServiceInfo{
		Name:         name,
		Status:       so.status[name],
		Dependencies: service.Dependencies(),
	}
	if startTime, ok := so.startedAt[name]; ok {
		info.StartedAt = &startTime
	}
	if stopTime, ok := so.stoppedAt[name]; ok {
		info.StoppedAt = &stopTime
	}
	if err := so.lastErrors[name]; err != nil {
		info.LastError = err.Error()
	}
	return info, true
}

// GetAllServiceInfo returns information about all services, sorted by name.
func (so *ServiceOrchestrator) GetAllServiceInfo() []ServiceInfo {
	so.mu.RLock()
	defer so.mu.RUnlock()

	names := so.sortedNames()
	infos := make([]ServiceInfo, 0, len(names))
	for _, name := range names {
		if info, ok := so.serviceInfo(name); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func (so *ServiceOrchestrator) sortedNames() []string {
	names := make([]string, 0, len(so.services))
	for name := range so.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// calculateStartOrder sorts the services topologically. Ties are broken by name.
func (so *ServiceOrchestrator) calculateStartOrder() ([]string, error) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if visiting[name] {
			return fmt.Errorf("circular dependency detected involving service: %s", name)
		}
		if visited[name] {
			return nil
		}
		visiting[name] = true

		service, exists := so.services[name]
		if !exists {
			return fmt.Errorf("service not found: %s", name)
		}
		for _, dep := range service.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}

		visiting[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range so.sortedNames() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// startService starts a single service with timeout.
func (so *ServiceOrchestrator) startService(ctx context.Context, name string) error {
	service := so.services[name]
	so.status[name] = StatusStarting

	timeoutCtx, cancel := context.WithTimeout(ctx, so.startTimeout)
	defer cancel()

	slog.Debug("Starting service", "service", name)
	startTime := time.Now()

	if err := service.Start(timeoutCtx); err != nil {
		so.status[name] = StatusFailed
		so.lastErrors[name] = err
		return errors.WrapError(err, errors.CategoryRuntime, fmt.Sprintf("failed to start service %s", name)).
			WithContext("service", name).
			Build()
	}

	so.status[name] = StatusRunning
	so.startedAt[name] = startTime
	so.lastErrors[name] = nil
	so.started = append(so.started, name)

	slog.Info("Service started", "service", name, "duration", time.Since(startTime))
	return nil
}

// stopService stops a single running service with timeout.
func (so *ServiceOrchestrator) stopService(ctx context.Context, name string) error {
	if so.status[name] != StatusRunning {
		return nil
	}
	service := so.services[name]
	so.status[name] = StatusStopping

	timeoutCtx, cancel := context.WithTimeout(ctx, so.stopTimeout)
	defer cancel()

	slog.Debug("Stopping service", "service", name)
	stopTime := time.Now()

	if err := service.Stop(timeoutCtx); err != nil {
		so.status[name] = StatusFailed
		so.lastErrors[name] = err
		return err
	}

	so.status[name] = StatusStopped
	so.stoppedAt[name] = stopTime

	slog.Info("Service stopped", "service", name, "duration", time.Since(stopTime))
	return nil
}

// stopStartedServices stops every running service in reverse start order and
// returns the last stop error.
func (so *ServiceOrchestrator) stopStartedServices(ctx context.Context) error {
	var lastError error
	for i := len(so.started) - 1; i >= 0; i-- {
		name := so.started[i]
		if err := so.stopService(ctx, name); err != nil {
			lastError = err
			slog.Error("Error stopping service", "service", name, "error", err)
		}
	}
	so.started = nil
	return lastError
}
