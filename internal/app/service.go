// Package service provides the change coordinator that serializes every
// mutation of ranks and preferences, recomputes the assignment and hands
// committed revisions to the publication pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/okian/vacancy/internal/adapters/mq/queue"
	"github.com/okian/vacancy/internal/adapters/mq/worker"
	"github.com/okian/vacancy/internal/adapters/repository"
	"github.com/okian/vacancy/internal/adapters/sink"
	"github.com/okian/vacancy/internal/domain/allocation"
	"github.com/okian/vacancy/internal/domain/ledger"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/internal/domain/ranking"
	"github.com/okian/vacancy/internal/domain/types"
	"github.com/okian/vacancy/pkg/logger"
	"github.com/okian/vacancy/pkg/metrics"
	"github.com/okian/vacancy/pkg/tracing"
)

// Default service configuration constants.
const (
	defaultQueueSize   = 16
	defaultBackoffBase = 100 * time.Millisecond
	defaultBackoffMax  = 10 * time.Second
	defaultStopTimeout = 5 * time.Second
	drainPollInterval  = 10 * time.Millisecond
)

// Revision reasons.
const (
	ReasonInitial     = "initial"
	ReasonPreferences = "preferences"
	ReasonRank        = "rank"
	ReasonClear       = "clear"
	ReasonAdmin       = "admin"
	ReasonCandidate   = "candidate"
)

// State is the coordinator state.
type State int32

const (
	StateIdle State = iota
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecomputing:
		return "recomputing"
	default:
		return "unknown"
	}
}

// Service is the single writer for ranks, preferences and the assignment.
type Service struct {
	mu        sync.RWMutex
	lifecycle sync.Mutex
	// editMu keeps repository writes and in-memory commits in the same order.
	editMu sync.Mutex
	fanMu  sync.Mutex

	// Core components
	candidates map[string]model.Candidate
	capacities map[string]int
	ranks      *ranking.Model
	prefs      *preference.Store
	ledger     *ledger.Ledger
	engine     *allocation.Engine
	repo       repository.Store
	sink       sink.Sink
	queue      *queue.InMemoryQueue
	publisher  *worker.Publisher

	// Coordinator state, guarded by mu
	gen           uint64
	reason        string
	pendingEdits  int
	lastCandidate string
	clearPending  bool
	clearGen      uint64
	version       int64
	current       model.Revision
	committed     bool
	settled       chan struct{}

	dirty       chan struct{}
	state       atomic.Int32
	running     atomic.Bool
	subscribers *xsync.Map[uint64, chan model.Revision]
	subSeq      atomic.Uint64

	recomputes atomic.Int64
	coalesced  atomic.Int64
	rejected   atomic.Int64

	// Configuration
	policy      preference.Policy
	queueSize   int
	backoffBase time.Duration
	backoffMax  time.Duration
	maxAttempts int
	verify      bool
	stopTimeout time.Duration

	// Lifecycle
	started    bool
	stopped    bool
	loopCancel context.CancelFunc
	pubCancel  context.CancelFunc
	loopDone   chan struct{}

	logger logger.Logger
}

// liveRanks lets the preference store consult whatever rank model the
// service currently holds. Callers hold s.mu.
type liveRanks struct{ s *Service }

func (r liveRanks) RankOf(id string) (int, error) { return r.s.ranks.RankOf(id) }

// New constructs a Service over pop. It fails when the population is invalid
// or its ranks collide.
func New(pop model.Population, opts ...Option) (*Service, error) {
	if err := pop.Validate(); err != nil {
		return nil, err
	}
	ranks, err := ranking.New(pop.Candidates)
	if err != nil {
		return nil, err
	}

	s := &Service{
		candidates:  make(map[string]model.Candidate, len(pop.Candidates)),
		capacities:  pop.Capacities(),
		ranks:       ranks,
		ledger:      ledger.New(pop.Slots),
		reason:      ReasonInitial,
		settled:     make(chan struct{}),
		dirty:       make(chan struct{}, 1),
		subscribers: xsync.NewMap[uint64, chan model.Revision](),
		policy:      preference.PolicyReject,
		queueSize:   defaultQueueSize,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		stopTimeout: defaultStopTimeout,
	}
	for _, c := range pop.Candidates {
		s.candidates[c.ID] = c
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.repo == nil {
		s.repo = repository.NewMemoryStore()
	}
	if s.sink == nil {
		s.sink = sink.NewLogSink(s.logger.Named("sink"))
	}

	s.prefs = preference.New(pop.Slots, liveRanks{s}, preference.WithPolicy(s.policy))
	s.engine = allocation.NewEngine(
		allocation.WithLogger(s.logger.Named("allocation")),
		allocation.WithVerify(s.verify),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.publisher = worker.NewPublisher(s.queue, s.sink,
		worker.WithLogger(s.logger.Named("publisher")),
		worker.WithBackoff(s.backoffBase, s.backoffMax),
		worker.WithMaxAttempts(s.maxAttempts),
	)

	metrics.UpdatePopulationSize(len(pop.Candidates), len(pop.Slots))
	return s, nil
}

// Start restores persisted preferences, commits the initial assignment and
// starts the recompute loop and the publisher.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}

	s.logger.Info(ctx, "starting allocation service...")

	if err := s.restore(ctx); err != nil {
		return err
	}

	floor, err := s.versionFloor(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.version = floor
	s.mu.Unlock()

	base := context.WithoutCancel(ctx)
	pubCtx, pubCancel := context.WithCancel(base)
	loopCtx, loopCancel := context.WithCancel(base)
	s.pubCancel = pubCancel
	s.loopCancel = loopCancel
	s.loopDone = make(chan struct{})

	go s.publisher.Run(pubCtx)
	s.pass(loopCtx)
	go s.loop(loopCtx)

	s.started = true
	s.running.Store(true)

	cur := s.Current()
	s.logger.Info(ctx, "allocation service started",
		logger.Int("candidates", len(s.candidates)),
		logger.Int("slots", len(s.capacities)),
		logger.String("policy", string(s.policy)),
		logger.String("repository", s.repo.Name()),
		logger.String("sink", s.sink.Name()),
		logger.Int64("version", cur.Version),
		logger.Int("assigned", len(cur.Assignment)),
	)
	return nil
}

// Stop halts the recompute loop, gives the publisher a bounded chance to
// deliver the last revision and shuts it down. Adapters passed in through
// options are left open for the caller to close.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping allocation service...")

	s.running.Store(false)
	s.loopCancel()
	<-s.loopDone

	drainCtx, cancel := context.WithTimeout(ctx, s.stopTimeout)
	defer cancel()
	s.drain(drainCtx)
	if err := s.publisher.Shutdown(drainCtx); err != nil {
		s.logger.Warn(ctx, "publisher did not stop in time", logger.Error(err))
	}
	s.pubCancel()
	_ = s.queue.Close()

	s.started = false
	s.stopped = true
	s.setState(StateIdle)
	s.logger.Info(ctx, "allocation service stopped",
		logger.Int64("published", s.publisher.Published()))
}

func (s *Service) drain(ctx context.Context) {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for {
		s.mu.RLock()
		want := s.current.Version
		s.mu.RUnlock()
		if s.publisher.Published() >= want {
			return
		}
		select {
		case <-ctx.Done():
			s.logger.Warn(ctx, "stopping before the last revision was published",
				logger.Int64("version", want),
				logger.Int64("published", s.publisher.Published()),
			)
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) restore(ctx context.Context) error {
	lists, err := s.repo.LoadPreferences(ctx)
	if err != nil {
		metrics.RecordPersistenceError(s.repo.Name(), "load")
		return fmt.Errorf("restore preferences from %s: %w", s.repo.Name(), err)
	}

	s.mu.Lock()
	truncated, skipped := s.prefs.Restore(lists)
	fixed := make(map[string]model.PreferenceList, len(truncated))
	for _, id := range truncated {
		fixed[id] = s.prefs.Of(id)
	}
	restored := s.prefs.Len()
	s.mu.Unlock()

	for _, err := range skipped {
		s.logger.Warn(ctx, "dropping persisted preference list", logger.Error(err))
		var perr *model.PreferenceError
		if !errors.As(err, &perr) || perr.CandidateID == "" {
			continue
		}
		if err := s.repo.SavePreferences(ctx, perr.CandidateID, nil); err != nil {
			metrics.RecordPersistenceError(s.repo.Name(), "delete")
		}
	}
	for _, id := range truncated {
		s.logger.Warn(ctx, "truncated persisted preference list over quota",
			logger.String("candidate", id),
			logger.Int("length", fixed[id].Len()),
		)
		if err := s.repo.SavePreferences(ctx, id, fixed[id]); err != nil {
			metrics.RecordPersistenceError(s.repo.Name(), "save")
			s.logger.Warn(ctx, "could not persist truncated list",
				logger.String("candidate", id), logger.Error(err))
		}
	}

	s.logger.Info(ctx, "restored preferences",
		logger.Int("lists", restored),
		logger.Int("truncated", len(truncated)),
		logger.Int("skipped", len(skipped)),
	)
	return nil
}

func (s *Service) versionFloor(ctx context.Context) (int64, error) {
	v, ok := s.sink.(sink.Versioned)
	if !ok {
		return 0, nil
	}
	highest, err := v.HighestVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("discover published version: %w", err)
	}
	if highest > 0 {
		s.logger.Info(ctx, "continuing after published version", logger.Int64("version", highest))
	}
	return highest, nil
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
			s.pass(ctx)
		}
	}
}

// pass snapshots the latest inputs and commits one revision for them.
func (s *Service) pass(ctx context.Context) {
	s.mu.Lock()
	gen, reason := s.gen, s.reason
	if s.committed && s.current.Generation >= gen {
		s.mu.Unlock()
		return
	}
	edits, single := s.pendingEdits, s.lastCandidate
	s.pendingEdits, s.lastCandidate = 0, ""
	shortcut := s.clearPending && s.clearGen == gen
	s.clearPending = false
	in := allocation.Input{
		Order:       s.ranks.Order(),
		Preferences: s.prefs.Snapshot(),
		Capacities:  maps.Clone(s.capacities),
	}
	s.mu.Unlock()

	s.setState(StateRecomputing)
	defer s.setState(StateIdle)

	ctx, span := tracing.StartSpan(ctx, "coordinator.pass", map[string]string{"reason": reason})
	span.SetInt("generation", int(gen))

	var (
		assignment model.Assignment
		err        error
	)
	if shortcut {
		assignment = model.Assignment{}
		s.logger.Info(ctx, "bulk clear committed without a pass", logger.Uint64("generation", gen))
	} else {
		var res allocation.Result
		if edits == 1 && single != "" {
			res, err = s.engine.OnPreferenceOrRankChange(ctx, in, single)
		} else {
			res, err = s.engine.RecomputeAll(ctx, in, reason)
		}
		s.recomputes.Add(1)
		if err != nil {
			s.logger.Error(ctx, "committing assignment that failed verification",
				logger.Uint64("generation", gen), logger.Error(err))
		}
		assignment = res.Assignment
		if assignment == nil {
			assignment = model.Assignment{}
		}
	}

	rev := s.commit(gen, reason, assignment, in.Order)
	s.publish(ctx, rev)
	span.End(err)
}

func (s *Service) commit(gen uint64, reason string, a model.Assignment, order []string) model.Revision {
	s.mu.Lock()
	s.version++
	rev := model.NewRevision(s.version, gen, reason, a, time.Now())
	s.current = rev
	s.committed = true
	s.ledger.Apply(a, order)
	close(s.settled)
	s.settled = make(chan struct{})
	s.mu.Unlock()

	metrics.UpdateAssignmentTotals(len(a), len(order)-len(a))
	for _, row := range s.ledger.Board() {
		util := 0.0
		if row.Capacity > 0 {
			util = float64(row.Occupied) / float64(row.Capacity)
		}
		metrics.UpdateSlotUtilization(row.SlotID, util)
	}
	return rev
}

func (s *Service) publish(ctx context.Context, rev model.Revision) { //nolint:gocritic // hugeParam
	if err := s.queue.Enqueue(ctx, rev); err != nil {
		s.logger.Warn(ctx, "could not queue revision for publication",
			logger.Int64("version", rev.Version), logger.Error(err))
	}

	s.fanMu.Lock()
	defer s.fanMu.Unlock()
	s.subscribers.Range(func(_ uint64, ch chan model.Revision) bool {
		deliver(ch, rev)
		return true
	})
}

// deliver keeps only the newest revision in a subscriber's buffer.
func deliver(ch chan model.Revision, rev model.Revision) { //nolint:gocritic // hugeParam
	for {
		select {
		case ch <- rev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
	metrics.UpdateCoordinatorState(int(st))
}

// bumpLocked records an accepted edit. Callers hold s.mu.
func (s *Service) bumpLocked(reason, candidate string) uint64 {
	s.gen++
	s.reason = reason
	s.pendingEdits++
	s.lastCandidate = candidate
	return s.gen
}

// signal wakes the loop. A signal already pending covers this edit as well.
func (s *Service) signal() {
	select {
	case s.dirty <- struct{}{}:
	default:
		s.coalesced.Add(1)
		metrics.RecordCoalescedEdit()
	}
}

func (s *Service) persist(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	metrics.RecordPersistenceError(s.repo.Name(), op)
	s.logger.Error(ctx, "persisting preferences failed",
		logger.String("repository", s.repo.Name()),
		logger.String("op", op),
		logger.Error(err),
	)
	if errors.Is(err, repository.ErrPersist) {
		return err
	}
	return fmt.Errorf("%w: %w", repository.ErrPersist, err)
}

func (s *Service) reject(kind string, err error) {
	s.rejected.Add(1)
	metrics.RecordEdit(kind, "rejected")
	s.logger.Debug(context.Background(), "edit rejected",
		logger.String("kind", kind), logger.Error(err))
}

// SetPreferences validates slots as id's new list, mirrors it to the
// repository and commits it. It returns the generation to Await. Rejected
// and unpersisted edits leave the previous list in place.
func (s *Service) SetPreferences(ctx context.Context, id string, slots []string) (uint64, error) {
	if !s.running.Load() {
		return 0, ErrNotStarted
	}
	ctx, span := tracing.StartSpan(ctx, "coordinator.set_preferences", map[string]string{"candidate": id})
	gen, err := s.setPreferences(ctx, id, slots)
	span.End(err)
	return gen, err
}

func (s *Service) setPreferences(ctx context.Context, id string, slots []string) (uint64, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	s.mu.RLock()
	list, err := s.prefs.Validate(id, slots)
	s.mu.RUnlock()
	if err != nil {
		s.reject(ReasonPreferences, err)
		return 0, err
	}

	if err := s.persist(ctx, "save", func(ctx context.Context) error {
		return s.repo.SavePreferences(ctx, id, list)
	}); err != nil {
		metrics.RecordEdit(ReasonPreferences, "persist_failed")
		return 0, err
	}

	s.mu.Lock()
	s.prefs.Commit(id, list)
	gen := s.bumpLocked(ReasonPreferences, id)
	s.mu.Unlock()

	s.signal()
	metrics.RecordEdit(ReasonPreferences, "accepted")
	s.logger.Debug(ctx, "preferences committed",
		logger.String("candidate", id),
		logger.Strings("slots", list),
		logger.Uint64("generation", gen),
	)
	return gen, nil
}

// ChangeRank moves id to rank, shifting the candidates in between by one.
// A promoted candidate's quota shrinks; lists that no longer fit are
// truncated and persisted before the move is committed.
func (s *Service) ChangeRank(ctx context.Context, id string, rank int) (uint64, error) {
	if !s.running.Load() {
		return 0, ErrNotStarted
	}
	ctx, span := tracing.StartSpan(ctx, "coordinator.change_rank", map[string]string{"candidate": id})
	span.SetInt("rank", rank)
	gen, err := s.changeRank(ctx, id, rank)
	span.End(err)
	return gen, err
}

func (s *Service) changeRank(ctx context.Context, id string, rank int) (uint64, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	s.mu.RLock()
	next := s.ranks.Clone()
	changed, err := next.Move(id, rank)
	var (
		cutIDs []string
		cuts   = make(map[string]model.PreferenceList)
		prior  = make(map[string]model.PreferenceList)
	)
	for _, cid := range changed {
		r, _ := next.RankOf(cid)
		list := s.prefs.Of(cid)
		if quota := preference.MaxPreferences(r); list.Len() > quota {
			cutIDs = append(cutIDs, cid)
			cuts[cid] = list.Truncate(quota)
			prior[cid] = list
		}
	}
	gen := s.gen
	s.mu.RUnlock()

	if err != nil {
		s.reject(ReasonRank, err)
		return 0, err
	}
	if len(changed) == 0 {
		metrics.RecordEdit(ReasonRank, "unchanged")
		return gen, nil
	}

	for i, cid := range cutIDs {
		if err := s.persist(ctx, "save", func(ctx context.Context) error {
			return s.repo.SavePreferences(ctx, cid, cuts[cid])
		}); err != nil {
			s.restoreLists(ctx, cutIDs[:i], prior)
			metrics.RecordEdit(ReasonRank, "persist_failed")
			return 0, err
		}
	}

	s.mu.Lock()
	s.ranks = next
	for _, cid := range changed {
		if _, cut, err := s.prefs.Enforce(cid); err == nil && cut {
			s.logger.Info(ctx, "preference list truncated after rank change",
				logger.String("candidate", cid))
		}
	}
	gen = s.bumpLocked(ReasonRank, id)
	s.mu.Unlock()

	s.signal()
	metrics.RecordEdit(ReasonRank, "accepted")
	s.logger.Info(ctx, "rank changed",
		logger.String("candidate", id),
		logger.Int("rank", rank),
		logger.Int("shifted", len(changed)-1),
		logger.Uint64("generation", gen),
	)
	return gen, nil
}

// restoreLists writes back the lists of ids after a rank change failed
// part way through persisting its truncations.
func (s *Service) restoreLists(ctx context.Context, ids []string, lists map[string]model.PreferenceList) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := s.repo.SavePreferences(ctx, id, lists[id]); err != nil {
			metrics.RecordPersistenceError(s.repo.Name(), "rollback")
			s.logger.Error(ctx, "restoring preference list failed",
				logger.String("candidate", id), logger.Error(err))
		}
	}
}

// ClearAll empties every preference list. Unless another edit lands first,
// the resulting all-unassigned revision is committed without a pass.
func (s *Service) ClearAll(ctx context.Context) (uint64, error) {
	if !s.running.Load() {
		return 0, ErrNotStarted
	}
	ctx, span := tracing.StartSpan(ctx, "coordinator.clear_all", nil)
	gen, err := s.clearAll(ctx)
	span.End(err)
	return gen, err
}

func (s *Service) clearAll(ctx context.Context) (uint64, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	if err := s.persist(ctx, "clear", s.repo.ClearPreferences); err != nil {
		metrics.RecordEdit(ReasonClear, "persist_failed")
		return 0, err
	}

	s.mu.Lock()
	s.prefs.ClearAll()
	gen := s.bumpLocked(ReasonClear, "")
	s.clearPending = true
	s.clearGen = gen
	s.mu.Unlock()

	s.signal()
	metrics.RecordEdit(ReasonClear, "accepted")
	s.logger.Info(ctx, "all preferences cleared", logger.Uint64("generation", gen))
	return gen, nil
}

// Recompute forces a pass over the current inputs.
func (s *Service) Recompute(ctx context.Context) (uint64, error) {
	if !s.running.Load() {
		return 0, ErrNotStarted
	}
	s.mu.Lock()
	gen := s.bumpLocked(ReasonAdmin, "")
	s.mu.Unlock()
	s.signal()
	s.logger.Info(ctx, "recompute requested", logger.Uint64("generation", gen))
	return gen, nil
}

// OnPreferenceOrRankChange schedules a recompute on behalf of id.
func (s *Service) OnPreferenceOrRankChange(ctx context.Context, id string) (uint64, error) {
	if !s.running.Load() {
		return 0, ErrNotStarted
	}
	s.mu.Lock()
	if !s.ranks.Has(id) {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownCandidate, id)
	}
	gen := s.bumpLocked(ReasonCandidate, id)
	s.mu.Unlock()
	s.signal()
	s.logger.Debug(ctx, "recompute scheduled", logger.String("candidate", id))
	return gen, nil
}

// Await blocks until a revision covering gen is committed.
func (s *Service) Await(ctx context.Context, gen uint64) (model.Revision, error) {
	for {
		s.mu.RLock()
		done := s.committed && s.current.Generation >= gen
		cur, settled := s.current, s.settled
		s.mu.RUnlock()
		if done {
			cur.Assignment = cur.Assignment.Clone()
			return cur, nil
		}
		select {
		case <-ctx.Done():
			return model.Revision{}, ctx.Err()
		case <-settled:
		}
	}
}

// State returns the coordinator state.
func (s *Service) State() State { return State(s.state.Load()) }

// Generation returns the latest accepted edit generation.
func (s *Service) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Current returns a copy of the latest committed revision.
func (s *Service) Current() model.Revision {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	cur.Assignment = cur.Assignment.Clone()
	return cur
}

// Subscribe returns a channel carrying committed revisions. Only the newest
// undelivered revision is buffered. The channel is never closed; call cancel
// to stop receiving.
func (s *Service) Subscribe() (<-chan model.Revision, func()) {
	id := s.subSeq.Add(1)
	ch := make(chan model.Revision, 1)

	s.fanMu.Lock()
	s.subscribers.Store(id, ch)
	s.mu.RLock()
	if s.committed {
		ch <- s.current
	}
	s.mu.RUnlock()
	s.fanMu.Unlock()

	return ch, func() { s.subscribers.Delete(id) }
}

// Roster returns candidates in rank order. A non-empty query keeps rows whose
// name, national id, candidate id or assigned slot contain it, ignoring case.
// limit <= 0 returns every match.
func (s *Service) Roster(_ context.Context, query string, limit int) []types.RosterEntry {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.RosterEntry, 0, min(s.ranks.Len(), max(limit, 0)))
	for i, id := range s.ranks.Order() {
		e := s.entryLocked(id, i+1)
		if q != "" && !matches(e, q) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func matches(e types.RosterEntry, q string) bool { //nolint:gocritic // hugeParam
	for _, field := range []string{e.Name, e.NationalID, e.CandidateID, e.Slot} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (s *Service) entryLocked(id string, rank int) types.RosterEntry {
	c := s.candidates[id]
	slot, _ := s.current.Assignment.SlotOf(id)
	prefs := s.prefs.Of(id)
	if prefs == nil {
		prefs = model.PreferenceList{}
	}
	return types.RosterEntry{
		Rank:        rank,
		CandidateID: id,
		Name:        c.Name,
		NationalID:  c.NationalID,
		Score:       c.Score,
		Preferences: prefs,
		Slot:        slot,
	}
}

// Candidate returns id's rank, quota, preferences, assigned slot and the
// seats not held by better-ranked candidates.
func (s *Service) Candidate(_ context.Context, id string) (types.CandidateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rank, err := s.ranks.RankOf(id)
	if err != nil {
		return types.CandidateView{}, err
	}
	rankOf := func(other string) int {
		r, _ := s.ranks.RankOf(other)
		return r
	}
	return types.CandidateView{
		RosterEntry: s.entryLocked(id, rank),
		Quota:       preference.MaxPreferences(rank),
		Available:   s.ledger.AvailableFor(rank, rankOf),
	}, nil
}

// Board returns capacity and occupancy per slot for the committed assignment.
func (s *Service) Board(_ context.Context) []types.SlotView {
	return s.ledger.Board()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	stats := types.Stats{
		State:           s.State().String(),
		Candidates:      s.ranks.Len(),
		Slots:           len(s.capacities),
		TotalCapacity:   s.ledger.TotalCapacity(),
		Assigned:        len(s.current.Assignment),
		WithPreferences: s.prefs.Len(),
		Version:         s.current.Version,
		Generation:      s.current.Generation,
		Digest:          s.current.Digest,
		QuotaPolicy:     string(s.policy),
	}
	s.mu.RUnlock()

	stats.Unassigned = stats.Candidates - stats.Assigned
	stats.Recomputes = s.recomputes.Load()
	stats.CoalescedEdits = s.coalesced.Load()
	stats.RejectedEdits = s.rejected.Load()
	stats.PublishedVersion = s.publisher.Published()
	stats.QueueDepth = s.queue.Len(context.Background())
	return stats
}
