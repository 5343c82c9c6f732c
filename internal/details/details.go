// Package details keeps the latest snapshot of a single load balancer up to date and
// forwards the actions of its details view to the services that own them.
package details

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"go.infratographer.com/loadbalancer-details/internal/lbapi"
	"go.infratographer.com/loadbalancer-details/internal/poller"
)

// DefaultBackPath is where GoBack navigates to unless configured otherwise
const DefaultBackPath = "/users"

// Kind identifies which fetch produced a snapshot
type Kind string

const (
	// KindLoadBalancer is a snapshot fetched from the load balancers collection
	KindLoadBalancer Kind = "load_balancer"
	// KindKubeResource is a snapshot fetched from the kube resources collection
	KindKubeResource Kind = "kube_resource"
)

// Snapshot is the most recently fetched record
type Snapshot struct {
	Kind      Kind
	ID        string
	Resource  lbapi.Resource
	FetchedAt time.Time
}

// Modal displays a message to the user
type Modal interface {
	OpenSystemModal(ctx context.Context, message string) error
}

// Navigator redirects the user to another path
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

type fetcher struct {
	kind  Kind
	fetch poller.FetchFunc[lbapi.Resource]
}

// Details polls a load balancer by id and holds the latest snapshot.
//
// Both fetchers write the same snapshot and the last successful write wins, whichever
// kind it came from. Snapshot.Kind tells the two apart.
type Details struct {
	id        string
	fetchers  []fetcher
	interval  time.Duration
	backPath  string
	modal     Modal
	navigator Navigator
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu      sync.RWMutex
	state   state
	current *Snapshot
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option is a functional configuration option
type Option func(d *Details)

// WithLoadBalancerFetcher sets the fetch used for the load balancer poller
func WithLoadBalancerFetcher(f poller.FetchFunc[lbapi.Resource]) Option {
	return func(d *Details) {
		d.addFetcher(KindLoadBalancer, f)
	}
}

// WithKubeResourceFetcher sets the fetch used for the kube resource poller
func WithKubeResourceFetcher(f poller.FetchFunc[lbapi.Resource]) Option {
	return func(d *Details) {
		d.addFetcher(KindKubeResource, f)
	}
}

// WithInterval sets the time between two fetches of each poller
func WithInterval(i time.Duration) Option {
	return func(d *Details) {
		d.interval = i
	}
}

// WithBackPath sets the destination of GoBack
func WithBackPath(p string) Option {
	return func(d *Details) {
		d.backPath = p
	}
}

// WithModal sets the service that displays system modals
func WithModal(m Modal) Option {
	return func(d *Details) {
		d.modal = m
	}
}

// WithNavigator sets the service that performs navigation
func WithNavigator(n Navigator) Option {
	return func(d *Details) {
		d.navigator = n
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Details) {
		d.logger = l
	}
}

// New creates the details component for the load balancer with the given id
func New(id string, opts ...Option) (*Details, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	d := &Details{
		id:       id,
		interval: poller.DefaultInterval,
		backPath: DefaultBackPath,
		logger:   zap.NewNop().Sugar(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	if len(d.fetchers) == 0 {
		return nil, ErrMissingFetcher
	}

	if d.interval <= 0 {
		return nil, ErrInvalidInterval
	}

	d.logger = d.logger.With("id", d.id)

	fwd := &logForwarder{logger: d.logger}

	if d.modal == nil {
		d.modal = fwd
	}

	if d.navigator == nil {
		d.navigator = fwd
	}

	return d, nil
}

func (d *Details) addFetcher(kind Kind, f poller.FetchFunc[lbapi.Resource]) {
	if f == nil {
		return
	}

	for i := range d.fetchers {
		if d.fetchers[i].kind == kind {
			d.fetchers[i].fetch = f
			return
		}
	}

	d.fetchers = append(d.fetchers, fetcher{kind: kind, fetch: f})
}

// ID returns the identifier being polled
func (d *Details) ID() string {
	return d.id
}

// Start begins polling. It can only be called once.
func (d *Details) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}

	pollers := make([]*poller.Poller[lbapi.Resource], 0, len(d.fetchers))

	for _, f := range d.fetchers {
		kind := f.kind

		p, err := poller.New(string(kind), d.id, f.fetch,
			func(r lbapi.Resource) { d.set(kind, r) },
			poller.WithInterval[lbapi.Resource](d.interval),
			poller.WithLogger[lbapi.Resource](d.logger),
		)
		if err != nil {
			return err
		}

		pollers = append(pollers, p)
	}

	runCtx, cancel := context.WithCancel(ctx)

	d.cancel = cancel
	d.state = stateRunning

	for _, p := range pollers {
		d.wg.Add(1)

		go func(p *poller.Poller[lbapi.Resource]) {
			defer d.wg.Done()
			p.Run(runCtx)
		}(p)
	}

	// a canceled parent context tears the component down like Stop
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		<-runCtx.Done()
		d.Stop()
	}()

	d.logger.Infow("started polling", "interval", d.interval, "pollers", len(pollers))

	return nil
}

// Stop cancels all polling. Once Stop returns the snapshot no longer changes, even if
// a fetch that was already in flight completes later. Stop is safe to call more than once.
func (d *Details) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateStopped {
		return
	}

	wasRunning := d.state == stateRunning
	d.state = stateStopped

	if d.cancel != nil {
		d.cancel()
	}

	if wasRunning {
		d.logger.Info("stopped polling")
	}
}

// Wait blocks until every poller has returned after Stop
func (d *Details) Wait() {
	d.wg.Wait()
}

// Current returns the latest snapshot. ok is false until a fetch has succeeded.
func (d *Details) Current() (Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.current == nil {
		return Snapshot{}, false
	}

	return *d.current, true
}

func (d *Details) set(kind Kind, r lbapi.Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateRunning {
		d.logger.Debugw("dropping result received after stop", "kind", kind)
		return
	}

	d.current = &Snapshot{
		Kind:      kind,
		ID:        d.id,
		Resource:  r,
		FetchedAt: d.now(),
	}

	d.logger.Debugw("snapshot updated", "kind", kind, "status", r.Status())
}

// OpenSystemModal asks the modal service to display message
func (d *Details) OpenSystemModal(ctx context.Context, message string) error {
	return d.modal.OpenSystemModal(ctx, message)
}

// GoBack asks the navigation service to go to the back path
func (d *Details) GoBack(ctx context.Context) error {
	return d.navigator.Navigate(ctx, d.backPath)
}
