package canopy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/elements"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/instances"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/session"
)

// ErrNoStore is returned by Save and Load when no DocumentStore is configured.
var ErrNoStore = errors.New("no document store configured")

// Builder is the high-level entry point of the page builder.
// It wires the registry, tracker, hooks, command engine and collision detector
// around one live document.
type Builder struct {
	registry  *registry.Registry
	tracker   *instances.Tracker
	hooks     *hooks.Manager
	engine    *command.Engine
	workspace *elements.Workspace
	detector  *collision.Detector
	sessions  *session.Manager
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu       sync.RWMutex
	docID    string
	settings domain.Props
	metadata domain.Metadata

	// construction-time settings
	store       ports.DocumentStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	historyMax  int
	historyTrim int
	cacheSize   int
	minRatio    float64
	authorizer  command.Authorizer
}

// Option defines a functional option for configuring the Builder.
type Option func(*Builder)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithHooks injects a hook manager, typically with filters registered before New
// so they see the initialized action.
func WithHooks(hm *hooks.Manager) Option {
	return func(b *Builder) {
		b.hooks = hm
	}
}

// WithRegistry injects a type registry. Defaults to registry.NewDefault.
func WithRegistry(r *registry.Registry) Option {
	return func(b *Builder) {
		b.registry = r
	}
}

// WithTracker injects an instance tracker.
func WithTracker(t *instances.Tracker) Option {
	return func(b *Builder) {
		b.tracker = t
	}
}

// WithStore enables Save and Load.
func WithStore(store ports.DocumentStore) Option {
	return func(b *Builder) {
		b.store = store
	}
}

// WithLocker serializes Save and Load across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Builder) {
		b.locker = locker
	}
}

// WithLockTTL sets how long a distributed document lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Builder) {
		b.lockTTL = ttl
	}
}

// WithHistoryLimits bounds the command history.
func WithHistoryLimits(max, trim int) Option {
	return func(b *Builder) {
		b.historyMax, b.historyTrim = max, trim
	}
}

// WithMinIntersectionRatio sets the overlap ratio needed by the intersection algorithm.
func WithMinIntersectionRatio(ratio float64) Option {
	return func(b *Builder) {
		b.minRatio = ratio
	}
}

// WithFilterCache enables memoization of filter results. Ignored when WithHooks is used.
func WithFilterCache(size int) Option {
	return func(b *Builder) {
		b.cacheSize = size
	}
}

// WithAuthorizer installs a command authorization check.
func WithAuthorizer(a command.Authorizer) Option {
	return func(b *Builder) {
		b.authorizer = a
	}
}

// WithMetrics records commands, actions and drops on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithDocumentID names the live document. Defaults to a fresh id.
func WithDocumentID(id string) Option {
	return func(b *Builder) {
		b.docID = id
	}
}

// New builds a Builder with an empty document and fires the initialized action.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.registry == nil {
		b.registry = registry.NewDefault(registry.WithLogger(b.logger))
	}
	if b.tracker == nil {
		b.tracker = instances.NewTracker()
	}
	if b.hooks == nil {
		b.hooks = hooks.NewManager(hooks.WithLogger(b.logger), hooks.WithFilterCache(b.cacheSize))
	}
	fresh := domain.NewDocument(Version)
	if b.docID == "" {
		b.docID = fresh.ID
	}
	b.metadata = fresh.Metadata

	engineOpts := []command.Option{command.WithLogger(b.logger)}
	if b.historyMax > 0 {
		engineOpts = append(engineOpts, command.WithHistoryLimits(b.historyMax, b.historyTrim))
	}
	if b.authorizer != nil {
		engineOpts = append(engineOpts, command.WithAuthorizer(b.authorizer))
	}
	b.engine = command.NewEngine(engineOpts...)

	b.workspace = elements.NewWorkspace(b.registry, b.tracker, b.hooks, elements.WithLogger(b.logger))
	elements.RegisterAll(b.engine, b.workspace)
	b.detector = collision.NewDetector(b.minRatio)

	if b.store != nil {
		sessOpts := []session.Option{session.WithLogger(b.logger)}
		if b.locker != nil {
			sessOpts = append(sessOpts, session.WithLocker(b.locker))
		}
		if b.lockTTL > 0 {
			sessOpts = append(sessOpts, session.WithLockTTL(b.lockTTL))
		}
		b.sessions = session.NewManager(b.store, sessOpts...)
	}

	if b.metrics != nil {
		b.engine.Finally(b.metrics.ObserveCommand)
		b.hooks.Observe(b.metrics.ObserveAction)
	}

	b.hooks.DoAction(context.Background(), hooks.ActionInitialized, b)
	return b
}

// Run executes a named command through the command engine.
func (b *Builder) Run(ctx context.Context, name string, args command.Args, opts ...command.RunOption) (any, error) {
	return b.engine.Run(ctx, name, args, opts...)
}

// Queue runs a command after every previously queued one has finished.
func (b *Builder) Queue(ctx context.Context, name string, args command.Args, opts ...command.RunOption) (any, error) {
	return b.engine.Queue(ctx, name, args, opts...)
}

// CreateElement creates an element of typ with props merged over the type defaults.
// An empty parentID makes it a root.
func (b *Builder) CreateElement(ctx context.Context, typ string, props map[string]any, parentID string) (*domain.Container, error) {
	args := command.Args{"type": typ}
	if props != nil {
		args["props"] = props
	}
	if parentID != "" {
		args["parentId"] = parentID
	}
	res, err := b.Run(ctx, elements.CommandCreate, args)
	if err != nil {
		return nil, err
	}
	return res.(*domain.Container), nil
}

// MoveElement moves id into parentID at index. A negative index appends.
func (b *Builder) MoveElement(ctx context.Context, id, parentID string, index int) error {
	args := command.Args{"id": id, "parentId": parentID}
	if index >= 0 {
		args["index"] = index
	}
	_, err := b.Run(ctx, elements.CommandMove, args)
	return err
}

// Element returns the live element with id, or nil.
func (b *Builder) Element(id string) *domain.Container {
	return b.workspace.Element(id)
}

// ElementData serializes the element with id and its subtree under the tree lock.
func (b *Builder) ElementData(id string) (domain.ElementData, bool) {
	var (
		data domain.ElementData
		ok   bool
	)
	b.workspace.View(func(t *instances.Tracker) {
		if node := t.Get(id); node != nil && !node.IsDestroyed() {
			data, ok = node.ToJSON(), true
		}
	})
	return data, ok
}

// AvailableElements returns the registered types after the available-elements filter.
// A filter returning anything but a descriptor slice is ignored.
func (b *Builder) AvailableElements(ctx context.Context) []registry.Descriptor {
	all := b.registry.List()
	out := b.hooks.ApplyFilters(ctx, hooks.FilterAvailableElements, all)
	list, ok := out.([]registry.Descriptor)
	if !ok {
		b.logger.Warn("available-elements filter returned unexpected type", "type", fmt.Sprintf("%T", out))
		return all
	}
	return list
}

// Serialize exports the live document.
func (b *Builder) Serialize() *domain.Document {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &domain.Document{
		ID:       b.docID,
		Version:  domain.DocumentVersion,
		Settings: b.settings.Clone(),
		Metadata: b.metadata,
		Elements: b.workspace.Snapshot(),
	}
}

// Deserialize replaces the live document with doc. Element ids are kept.
// On error the live document is left unchanged.
func (b *Builder) Deserialize(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", domain.ErrInvalidElement)
	}
	if doc.Version != "" && doc.Version != domain.DocumentVersion {
		b.logger.Warn("loading document with different format version", "version", doc.Version, "expected", domain.DocumentVersion)
	}
	if _, err := b.workspace.Replace(doc.Elements, false); err != nil {
		return fmt.Errorf("failed to load document %s: %w", doc.ID, err)
	}

	b.mu.Lock()
	if doc.ID != "" {
		b.docID = doc.ID
	}
	b.settings = doc.Settings.Clone()
	b.metadata = doc.Metadata
	b.mu.Unlock()

	b.hooks.DoAction(ctx, hooks.ActionDocumentLoaded, doc)
	return nil
}

// ImportElements adds elements as new roots with fresh ids.
func (b *Builder) ImportElements(ctx context.Context, data []domain.ElementData) ([]*domain.Container, error) {
	roots, err := b.workspace.Import(data)
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		b.hooks.DoAction(ctx, hooks.ActionElementCreated, r)
	}
	return roots, nil
}

// Save persists the live document under its id.
func (b *Builder) Save(ctx context.Context) error {
	if b.sessions == nil {
		return ErrNoStore
	}
	doc := b.Serialize()
	if err := b.sessions.Save(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	b.hooks.DoAction(ctx, hooks.ActionDocumentSaved, doc)
	return nil
}

// Load replaces the live document with the stored document id.
func (b *Builder) Load(ctx context.Context, id string) error {
	if b.sessions == nil {
		return ErrNoStore
	}
	doc, err := b.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return b.Deserialize(ctx, doc)
}

// DocumentID returns the id of the live document.
func (b *Builder) DocumentID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.docID
}

// Settings returns a copy of the page-level settings.
func (b *Builder) Settings() domain.Props {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings.Clone()
}

// UpdateSettings merges values into the page-level settings.
func (b *Builder) UpdateSettings(values map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.MergeMap(values)
}

// History returns recorded command executions.
func (b *Builder) History(filter command.HistoryFilter) []command.Execution {
	return b.engine.History(filter)
}

// Stats summarizes the command history.
func (b *Builder) Stats() command.Stats {
	return b.engine.Stats()
}

// Registry returns the type registry.
func (b *Builder) Registry() *registry.Registry { return b.registry }

// Tracker returns the instance tracker.
func (b *Builder) Tracker() *instances.Tracker { return b.tracker }

// Hooks returns the hook manager.
func (b *Builder) Hooks() *hooks.Manager { return b.hooks }

// Engine returns the command engine.
func (b *Builder) Engine() *command.Engine { return b.engine }

// Workspace returns the live element workspace.
func (b *Builder) Workspace() *elements.Workspace { return b.workspace }

// Detector returns the collision detector.
func (b *Builder) Detector() *collision.Detector { return b.detector }

// Sessions returns the document session manager, or nil without a store.
func (b *Builder) Sessions() *session.Manager { return b.sessions }

// Metrics returns the configured metrics, or nil.
func (b *Builder) Metrics() *observability.Metrics { return b.metrics }

var _ ports.Builder = (*Builder)(nil)
