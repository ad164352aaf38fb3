package core

import (
	"context"
	"time"
)

// Logger is the minimal structured logging surface used by the service. Keys
// and values alternate in the variadic argument list.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time acquisition for audit timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus marks the outcome recorded in an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry captures a single guarded operation outcome.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for guarded operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes for aggregation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan finalizes a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the audit timestamp source.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAuditRecorder wires an audit sink into the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = recorder }
}

// WithMetricsRecorder wires a metrics sink into the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = recorder }
}

// WithTracer wires a tracer into the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithPermissionManager enables role-based guards on every operation.
func WithPermissionManager(manager *PermissionManager) ServiceOption {
	return func(s *Service) { s.permissions = manager }
}

// operationMeta describes the audit shape and guard of a named operation.
type operationMeta struct {
	Entity     EntityType
	Action     Action
	Permission Permission
}

var operationMetadata = map[string]operationMeta{
	"create_dormitory": {Entity: EntityDormitory, Action: ActionCreate, Permission: PermManageDormitories},
	"update_dormitory": {Entity: EntityDormitory, Action: ActionUpdate, Permission: PermManageDormitories},
	"delete_dormitory": {Entity: EntityDormitory, Action: ActionDelete, Permission: PermManageDormitories},

	"create_room": {Entity: EntityRoom, Action: ActionCreate, Permission: PermManageDormitories},
	"update_room": {Entity: EntityRoom, Action: ActionUpdate, Permission: PermManageDormitories},
	"delete_room": {Entity: EntityRoom, Action: ActionDelete, Permission: PermManageDormitories},

	"register_resident": {Entity: EntityResident, Action: ActionCreate, Permission: PermManageOccupants},
	"update_resident":   {Entity: EntityResident, Action: ActionUpdate, Permission: PermManageOccupants},
	"register_child":    {Entity: EntityChild, Action: ActionCreate, Permission: PermManageOccupants},
	"update_child":      {Entity: EntityChild, Action: ActionUpdate, Permission: PermManageOccupants},
	"remove_occupant":   {Entity: EntityResident, Action: ActionDelete, Permission: PermManageOccupants},
	"register_occupant": {Entity: EntityResident, Action: ActionCreate, Permission: PermManageOccupants},

	"create_document": {Entity: EntityDocument, Action: ActionCreate, Permission: PermManageDocuments},
	"update_document": {Entity: EntityDocument, Action: ActionUpdate, Permission: PermManageDocuments},
	"delete_document": {Entity: EntityDocument, Action: ActionDelete, Permission: PermManageDocuments},

	"attach_document": {Entity: EntityDocumentLink, Action: ActionCreate, Permission: PermManageDocuments},
	"detach_document": {Entity: EntityDocumentLink, Action: ActionDelete, Permission: PermManageDocuments},

	"initialize_settlement": {Entity: EntitySettlement, Action: ActionCreate, Permission: PermManageSettlements},
	"perform_settlement":    {Entity: EntitySettlement, Action: ActionUpdate, Permission: PermManageSettlements},
	"cancel_settlement":     {Entity: EntitySettlement, Action: ActionUpdate, Permission: PermManageSettlements},
	"settle":                {Entity: EntitySettlement, Action: ActionCreate, Permission: PermManageSettlements},
	"delete_settlement":     {Entity: EntitySettlement, Action: ActionDelete, Permission: PermManageSettlements},

	"initialize_eviction": {Entity: EntityEviction, Action: ActionCreate, Permission: PermManageEvictions},
	"perform_eviction":    {Entity: EntityEviction, Action: ActionUpdate, Permission: PermManageEvictions},
	"cancel_eviction":     {Entity: EntityEviction, Action: ActionUpdate, Permission: PermManageEvictions},
	"evict_occupant":      {Entity: EntityEviction, Action: ActionCreate, Permission: PermManageEvictions},
	"delete_eviction":     {Entity: EntityEviction, Action: ActionDelete, Permission: PermManageEvictions},
}

func (s *Service) startSpan(ctx context.Context, operation string) (context.Context, TraceSpan) {
	if s.tracer == nil {
		return ctx, noopSpan{}
	}
	return s.tracer.Start(ctx, operation)
}

func (s *Service) observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(ctx, operation, success, duration)
}

// recordAuditSuccess emits a success entry for a known operation. Unknown
// operation names are ignored.
func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	if s.audit == nil {
		return
	}
	meta, ok := operationMetadata[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.Entity,
		Action:    meta.Action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

// recordAuditError emits an error entry for a known operation.
func (s *Service) recordAuditError(ctx context.Context, operation string, opErr error, duration time.Duration) {
	if s.audit == nil || opErr == nil {
		return
	}
	meta, ok := operationMetadata[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.Entity,
		Action:    meta.Action,
		Status:    AuditStatusError,
		Error:     opErr.Error(),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

// run executes fn transactionally with permission guard, tracing, metrics and
// audit wired around it. entityID is consulted only on success.
func (s *Service) run(ctx context.Context, operation string, fn func(tx Transaction) error, entityID func() string) (Result, error) {
	if meta, ok := operationMetadata[operation]; ok {
		if err := s.authorize(ctx, meta.Permission); err != nil {
			s.recordAuditError(ctx, operation, err, 0)
			s.observe(ctx, operation, false, 0)
			return Result{}, err
		}
	}
	ctx, span := s.startSpan(ctx, operation)
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(start)
	span.End(err)
	s.observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
		s.recordAuditError(ctx, operation, err, duration)
		return res, err
	}
	id := ""
	if entityID != nil {
		id = entityID()
	}
	s.logger.Debug("operation committed", "operation", operation, "entity_id", id)
	s.recordAuditSuccess(ctx, operation, id, duration)
	return res, err
}

// runPhased instruments an operation consisting of two consecutive
// transactions. The first commits independently; the overall outcome reported
// to observability sinks covers both phases.
func (s *Service) runPhased(ctx context.Context, operation string, first, second func(tx Transaction) error, entityID func() string) (Result, error) {
	if meta, ok := operationMetadata[operation]; ok {
		if err := s.authorize(ctx, meta.Permission); err != nil {
			s.recordAuditError(ctx, operation, err, 0)
			s.observe(ctx, operation, false, 0)
			return Result{}, err
		}
	}
	ctx, span := s.startSpan(ctx, operation)
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, first)
	if err == nil {
		res, err = s.store.RunInTransaction(ctx, second)
	}
	duration := time.Since(start)
	span.End(err)
	s.observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
		s.recordAuditError(ctx, operation, err, duration)
		return res, err
	}
	id := ""
	if entityID != nil {
		id = entityID()
	}
	s.logger.Debug("operation committed", "operation", operation, "entity_id", id)
	s.recordAuditSuccess(ctx, operation, id, duration)
	return res, err
}
