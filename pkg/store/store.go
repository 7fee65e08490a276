package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/audit"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/logging"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
)

// Store holds every entity of the control plane in memory and persists the
// whole aggregate through a Snapshotter after each mutation.
//
// All mutations are serialized by one lock that is held across the persist
// step, so the snapshot on disk always matches a state some reader could
// have observed. Readers receive deep copies.
type Store struct {
	mu   sync.RWMutex
	data *Aggregate
	snap Snapshotter

	sinks   []namedSink
	metrics *metrics.Collector
	clock   func() time.Time
	logger  *slog.Logger
}

type namedSink struct {
	name string
	sink audit.Sink
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithMetrics records mutation and persist metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) {
		s.metrics = c
	}
}

// WithSink mirrors every persisted audit entry to sink.
func WithSink(name string, sink audit.Sink) Option {
	return func(s *Store) {
		s.sinks = append(s.sinks, namedSink{name: name, sink: sink})
	}
}

// WithLogger overrides the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New loads the aggregate from snap. When no snapshot exists yet an empty
// aggregate is persisted immediately.
func New(ctx context.Context, snap Snapshotter, opts ...Option) (*Store, error) {
	if snap == nil {
		return nil, errors.New("store: snapshotter is required")
	}

	s := &Store{
		snap:   snap,
		clock:  time.Now,
		logger: slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	agg, found, err := snap.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		agg = NewAggregate()
		if err := s.persist(ctx, agg); err != nil {
			return nil, err
		}
		s.logger.Info("initialized empty store", "backend", snap.Backend())
	}
	s.data = agg

	s.logger.Debug("store loaded",
		"backend", snap.Backend(),
		"environments", len(agg.Environments),
		"services", len(agg.Services),
		"routes", len(agg.Routes),
	)
	return s, nil
}

// Close releases the snapshot backend.
func (s *Store) Close() error {
	return s.snap.Close()
}

// Backend returns the name of the snapshot backend.
func (s *Store) Backend() string {
	return s.snap.Backend()
}

// Ping checks the snapshot backend. It does not take the store lock, so
// readiness checks never block mutations.
func (s *Store) Ping(ctx context.Context) error {
	return s.snap.Ping(ctx)
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) persist(ctx context.Context, agg *Aggregate) error {
	start := time.Now()
	err := s.snap.Save(ctx, agg)
	s.metrics.RecordPersist(s.snap.Backend(), time.Since(start), err)
	if err != nil {
		var perr *PersistError
		if !errors.As(err, &perr) {
			err = NewPersistError(s.snap.Backend(), "save", err)
		}
		return err
	}
	return nil
}

// mutate runs fn against the live aggregate under the write lock and
// persists the result. If fn reports no change nothing is written. On
// persist failure the aggregate is restored to its prior state.
func (s *Store) mutate(ctx context.Context, operation, entityType string, fn func(agg *Aggregate) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Clone()
	auditMark := len(s.data.AuditLogs)

	changed, err := fn(s.data)
	if err != nil {
		s.data = prev
		return err
	}
	if !changed {
		return nil
	}

	if err := s.persist(ctx, s.data); err != nil {
		s.data = prev
		s.logger.ErrorContext(ctx, "persist failed, mutation rolled back",
			"operation", operation,
			"entity_type", entityType,
			"error", err,
		)
		return err
	}
	s.metrics.RecordMutation(operation, entityType)

	if appended := s.data.AuditLogs[auditMark:]; len(appended) > 0 {
		s.mirror(ctx, slices.Clone(appended))
	}
	return nil
}

// mirror forwards entries to the registered sinks. Sink failures never fail
// the mutation that produced the entries.
func (s *Store) mirror(ctx context.Context, entries []model.AuditLogEntry) {
	for _, ns := range s.sinks {
		if err := ns.sink.Record(ctx, entries); err != nil {
			s.metrics.RecordSinkError(ns.name)
			s.logger.WarnContext(ctx, "audit sink failed",
				"sink", ns.name,
				"entries", len(entries),
				"error", err,
			)
		}
	}
}

func (s *Store) stamp(ctx context.Context, agg *Aggregate, e audit.Entry) {
	if e.Actor == "" {
		e.Actor = logging.GetActor(ctx)
	}
	if e.CorrelationID == "" {
		e.CorrelationID = logging.GetRequestID(ctx)
	}
	agg.AuditLogs = append(agg.AuditLogs, audit.NewEntry(e, s.now()))
}

// upsertEntity inserts item or replaces the entity with the same id and
// appends the matching Created/Updated audit entry.
func upsertEntity[T model.Entity](ctx context.Context, s *Store, entityType string, item T, items func(*Aggregate) *[]T) error {
	after := audit.Snapshot(item)
	return s.mutate(ctx, "upsert", entityType, func(agg *Aggregate) (bool, error) {
		list := items(agg)
		created := true
		if i := model.Index(*list, item.GetID()); i >= 0 {
			(*list)[i] = item
			created = false
		} else {
			*list = append(*list, item)
		}
		s.stamp(ctx, agg, audit.Entry{
			Action:     audit.UpsertAction(entityType, created),
			EntityType: entityType,
			EntityID:   item.GetID(),
			After:      after,
		})
		return true, nil
	})
}

// deleteEntity removes the entity with id. It reports false, and writes
// nothing, when no such entity exists.
func deleteEntity[T model.Entity](ctx context.Context, s *Store, entityType, id string, items func(*Aggregate) *[]T) (bool, error) {
	found := false
	err := s.mutate(ctx, "delete", entityType, func(agg *Aggregate) (bool, error) {
		list := items(agg)
		i := model.Index(*list, id)
		if i < 0 {
			return false, nil
		}
		before := (*list)[i]
		*list = slices.Delete(*list, i, i+1)
		s.stamp(ctx, agg, audit.Entry{
			Action:     audit.ActionDelete,
			EntityType: entityType,
			EntityID:   id,
			Before:     audit.Snapshot(before),
		})
		found = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func getEntity[T model.Entity](s *Store, id string, items func(*Aggregate) []T, clone func(T) T) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := model.Find(items(s.data), id)
	if !ok {
		return item, false
	}
	return clone(item), true
}

func listEntities[T any](s *Store, items func(*Aggregate) []T, clone func(T) T) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(items(s.data), clone)
}

func environments(a *Aggregate) *[]model.Environment     { return &a.Environments }
func services(a *Aggregate) *[]model.Service             { return &a.Services }
func routes(a *Aggregate) *[]model.Route                 { return &a.Routes }
func changeRequests(a *Aggregate) *[]model.ChangeRequest { return &a.ChangeRequests }

// UpsertEnvironment creates or replaces env and returns the stored value.
func (s *Store) UpsertEnvironment(ctx context.Context, env model.Environment) (model.Environment, error) {
	env = env.Clone()
	if env.ID == "" {
		env.ID = model.NewID()
	}
	if len(env.SettingsJSON) == 0 {
		env.SettingsJSON = json.RawMessage("{}")
	}
	if err := upsertEntity(ctx, s, model.EntityTypeEnvironment, env, environments); err != nil {
		return model.Environment{}, err
	}
	return env.Clone(), nil
}

// UpsertService creates or replaces svc and returns the stored value.
func (s *Store) UpsertService(ctx context.Context, svc model.Service) (model.Service, error) {
	svc = svc.Clone()
	if svc.ID == "" {
		svc.ID = model.NewID()
	}
	if err := upsertEntity(ctx, s, model.EntityTypeService, svc, services); err != nil {
		return model.Service{}, err
	}
	return svc.Clone(), nil
}

// UpsertRoute creates or replaces route and returns the stored value.
func (s *Store) UpsertRoute(ctx context.Context, route model.Route) (model.Route, error) {
	route = route.Clone()
	if route.ID == "" {
		route.ID = model.NewID()
	}
	if err := upsertEntity(ctx, s, model.EntityTypeRoute, route, routes); err != nil {
		return model.Route{}, err
	}
	return route.Clone(), nil
}

// UpsertChangeRequest creates or replaces cr and returns the stored value.
func (s *Store) UpsertChangeRequest(ctx context.Context, cr model.ChangeRequest) (model.ChangeRequest, error) {
	cr = cr.Clone()
	if cr.ID == "" {
		cr.ID = model.NewID()
	}
	if cr.Status == "" {
		cr.Status = model.ChangeRequestDraft
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = s.now()
	}
	if cr.Items == nil {
		cr.Items = []model.ChangeRequestItem{}
	}
	for i := range cr.Items {
		if cr.Items[i].ID == "" {
			cr.Items[i].ID = model.NewID()
		}
	}
	if err := upsertEntity(ctx, s, model.EntityTypeChangeRequest, cr, changeRequests); err != nil {
		return model.ChangeRequest{}, err
	}
	return cr.Clone(), nil
}

// UpdateChangeRequestStatus moves a change request to status. It reports
// false when the change request does not exist.
func (s *Store) UpdateChangeRequestStatus(ctx context.Context, id, status, actor, reason string) (model.ChangeRequest, bool, error) {
	canonical, err := model.ParseChangeRequestStatus(status)
	if err != nil {
		return model.ChangeRequest{}, false, err
	}
	if actor == "" {
		actor = logging.GetActor(ctx)
	}
	if actor == "" {
		actor = model.DefaultActor
	}

	var (
		updated model.ChangeRequest
		found   bool
	)
	err = s.mutate(ctx, "status", model.EntityTypeChangeRequest, func(agg *Aggregate) (bool, error) {
		i := model.Index(agg.ChangeRequests, id)
		if i < 0 {
			return false, nil
		}
		before := audit.Snapshot(agg.ChangeRequests[i])
		agg.ChangeRequests[i].ApplyStatus(canonical, actor, s.now())
		updated = agg.ChangeRequests[i].Clone()
		found = true
		s.stamp(ctx, agg, audit.Entry{
			Actor:      actor,
			Action:     audit.ActionChangeRequestStatus,
			EntityType: model.EntityTypeChangeRequest,
			EntityID:   id,
			Reason:     reason,
			Before:     before,
			After:      audit.Snapshot(updated),
		})
		return true, nil
	})
	if err != nil {
		return model.ChangeRequest{}, false, err
	}
	return updated, found, nil
}

// DeleteEnvironment removes the environment with id.
func (s *Store) DeleteEnvironment(ctx context.Context, id string) (bool, error) {
	return deleteEntity(ctx, s, model.EntityTypeEnvironment, id, environments)
}

// DeleteService removes the service with id.
func (s *Store) DeleteService(ctx context.Context, id string) (bool, error) {
	return deleteEntity(ctx, s, model.EntityTypeService, id, services)
}

// DeleteRoute removes the route with id.
func (s *Store) DeleteRoute(ctx context.Context, id string) (bool, error) {
	return deleteEntity(ctx, s, model.EntityTypeRoute, id, routes)
}

// DeleteChangeRequest removes the change request with id.
func (s *Store) DeleteChangeRequest(ctx context.Context, id string) (bool, error) {
	return deleteEntity(ctx, s, model.EntityTypeChangeRequest, id, changeRequests)
}

// Environment returns the environment with id.
func (s *Store) Environment(id string) (model.Environment, bool) {
	return getEntity(s, id, func(a *Aggregate) []model.Environment { return a.Environments }, model.Environment.Clone)
}

// Service returns the service with id.
func (s *Store) Service(id string) (model.Service, bool) {
	return getEntity(s, id, func(a *Aggregate) []model.Service { return a.Services }, model.Service.Clone)
}

// Route returns the route with id.
func (s *Store) Route(id string) (model.Route, bool) {
	return getEntity(s, id, func(a *Aggregate) []model.Route { return a.Routes }, model.Route.Clone)
}

// ChangeRequest returns the change request with id.
func (s *Store) ChangeRequest(id string) (model.ChangeRequest, bool) {
	return getEntity(s, id, func(a *Aggregate) []model.ChangeRequest { return a.ChangeRequests }, model.ChangeRequest.Clone)
}

// Environments returns all environments in insertion order.
func (s *Store) Environments() []model.Environment {
	return listEntities(s, func(a *Aggregate) []model.Environment { return a.Environments }, model.Environment.Clone)
}

// Services returns all services in insertion order.
func (s *Store) Services() []model.Service {
	return listEntities(s, func(a *Aggregate) []model.Service { return a.Services }, model.Service.Clone)
}

// Routes returns all routes in insertion order.
func (s *Store) Routes() []model.Route {
	return listEntities(s, func(a *Aggregate) []model.Route { return a.Routes }, model.Route.Clone)
}

// ChangeRequests returns all change requests in insertion order.
func (s *Store) ChangeRequests() []model.ChangeRequest {
	return listEntities(s, func(a *Aggregate) []model.ChangeRequest { return a.ChangeRequests }, model.ChangeRequest.Clone)
}

// EnvironmentView returns the environment with its services and routes,
// all read under one lock.
func (s *Store) EnvironmentView(envID string) (model.EnvironmentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, ok := model.Find(s.data.Environments, envID)
	if !ok {
		return model.EnvironmentView{}, false
	}
	view := model.EnvironmentView{
		Environment: env.Clone(),
		Services:    []model.Service{},
		Routes:      []model.Route{},
	}
	for _, svc := range s.data.Services {
		if svc.EnvironmentID == envID {
			view.Services = append(view.Services, svc.Clone())
		}
	}
	for _, r := range s.data.Routes {
		if r.EnvironmentID == envID {
			view.Routes = append(view.Routes, r.Clone())
		}
	}
	return view, true
}

// AppendPublishRecord appends rec to the publish history.
func (s *Store) AppendPublishRecord(ctx context.Context, rec model.PublishRecord) error {
	rec = rec.Clone()
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	return s.mutate(ctx, "append", "PublishRecord", func(agg *Aggregate) (bool, error) {
		agg.PublishHistory = append(agg.PublishHistory, rec)
		return true, nil
	})
}

// AppendAudit appends entry to the audit trail. Missing fields are filled
// the way store mutations stamp their own entries: actor and correlation id
// from ctx, timestamp from the store clock.
func (s *Store) AppendAudit(ctx context.Context, entry model.AuditLogEntry) error {
	entry = s.complete(ctx, entry)
	return s.mutate(ctx, "append", "AuditLogEntry", func(agg *Aggregate) (bool, error) {
		agg.AuditLogs = append(agg.AuditLogs, entry)
		return true, nil
	})
}

func (s *Store) complete(ctx context.Context, e model.AuditLogEntry) model.AuditLogEntry {
	now := e.Timestamp
	if now.IsZero() {
		now = s.now()
	}
	out := audit.NewEntry(audit.Entry{
		Actor:         cmp.Or(e.Actor, logging.GetActor(ctx)),
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Reason:        e.Reason,
		Before:        e.BeforeJSON,
		After:         e.AfterJSON,
		CorrelationID: cmp.Or(e.CorrelationID, logging.GetRequestID(ctx)),
	}, now)
	out.ID = cmp.Or(e.ID, out.ID)
	return out
}

// RecordPublish appends a publish record together with its audit entry in
// a single persisted mutation.
func (s *Store) RecordPublish(ctx context.Context, rec model.PublishRecord, entry model.AuditLogEntry) error {
	rec = rec.Clone()
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	entry = s.complete(ctx, entry)
	return s.mutate(ctx, "publish", "PublishRecord", func(agg *Aggregate) (bool, error) {
		agg.PublishHistory = append(agg.PublishHistory, rec)
		agg.AuditLogs = append(agg.AuditLogs, entry)
		return true, nil
	})
}

// PublishHistory returns every publish record in append order.
func (s *Store) PublishHistory() []model.PublishRecord {
	return listEntities(s, func(a *Aggregate) []model.PublishRecord { return a.PublishHistory }, model.PublishRecord.Clone)
}

// PublishHistoryFor returns the publish records of one environment in
// append order.
func (s *Store) PublishHistoryFor(envID string) []model.PublishRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.PublishRecord{}
	for _, rec := range s.data.PublishHistory {
		if rec.EnvironmentID == envID {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// LastSuccessfulPublish returns the most recent succeeded publish of envID.
func (s *Store) LastSuccessfulPublish(envID string) (model.PublishRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.data.PublishHistory) - 1; i >= 0; i-- {
		rec := s.data.PublishHistory[i]
		if rec.EnvironmentID == envID && rec.Status == model.PublishSucceeded {
			return rec.Clone(), true
		}
	}
	return model.PublishRecord{}, false
}

// AuditLogs returns the audit trail in append order.
func (s *Store) AuditLogs() []model.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.AuditLogs)
}

// Snapshot returns a deep copy of the whole aggregate.
func (s *Store) Snapshot() *Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}
