package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/pkg/logger"
	"practice_backend/pkg/monitoring"
	"practice_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SyncState string

const (
	SyncStateIdle        SyncState = "idle"
	SyncStateReconciling SyncState = "reconciling"
	SyncStateSynced      SyncState = "synced"
	SyncStateStopped     SyncState = "stopped"
)

// SyncSource 启动对账时哪一端胜出
type SyncSource string

const (
	SyncSourceNone  SyncSource = "none"
	SyncSourceCloud SyncSource = "cloud"
	SyncSourceLocal SyncSource = "local"
)

const (
	DefaultSyncStartupTimeout = 4 * time.Second
	DefaultSyncWriteTimeout   = 3 * time.Second
)

type SyncOptions struct {
	UserID         string
	StartupTimeout time.Duration
	WriteTimeout   time.Duration
}

type SyncResult struct {
	Source   SyncSource `json:"source"`
	TimedOut bool       `json:"timedOut"`
}

type SyncStatus struct {
	State            SyncState  `json:"state"`
	Source           SyncSource `json:"source,omitempty"`
	TimedOut         bool       `json:"timedOut"`
	Subscribed       bool       `json:"subscribed"`
	LastRemoteUpdate *time.Time `json:"lastRemoteUpdate,omitempty"`
}

// SyncEngine 在本地存储和远端存储之间对账，并在对账后监听远端变化。
// 以 totalSessions 作为唯一的新旧判断依据，按键整体覆盖 (last writer wins)
type SyncEngine struct {
	local  repository.PersistentStore
	remote repository.RemoteStore
	opts   SyncOptions
	Now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu 串行化所有本地写入和状态变更
	mu      sync.Mutex
	status  SyncStatus
	started bool
	done    chan SyncResult
	sub     repository.Subscription

	// applying 在应用远端数据期间为 true，此时的本地写入不回写远端。只在持有 mu 时读写
	applying bool

	// 镜像队列：每个键只保留最新的待写值，由 mirrorLoop 在后台写到远端。
	// pending/inflight 中的键本地值比远端新，期间收到的远端值记在 deferred 里，写完后再核对
	pending    map[string]json.RawMessage
	inflight   map[string]bool
	deferred   map[string]string
	dirty      map[string]bool
	kick       chan struct{}
	mirroring  bool
	mirrorDone chan struct{}

	cbMu      sync.Mutex
	callbacks []func(keys []string)
}

// NewSyncEngine remote 为 nil 时只使用本地存储
func NewSyncEngine(local repository.PersistentStore, remote repository.RemoteStore, opts SyncOptions) *SyncEngine {
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = DefaultSyncStartupTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultSyncWriteTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncEngine{
		local:      local,
		remote:     remote,
		opts:       opts,
		Now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		status:     SyncStatus{State: SyncStateIdle},
		pending:    make(map[string]json.RawMessage),
		inflight:   make(map[string]bool),
		deferred:   make(map[string]string),
		dirty:      make(map[string]bool),
		kick:       make(chan struct{}, 1),
		mirrorDone: make(chan struct{}),
	}
}

// OnCloudUpdate 注册远端数据覆盖本地后的回调，keys 为发生变化的键
func (e *SyncEngine) OnCloudUpdate(cb func(keys []string)) {
	e.cbMu.Lock()
	e.callbacks = append(e.callbacks, cb)
	e.cbMu.Unlock()
}

func (e *SyncEngine) notify(keys []string) {
	e.cbMu.Lock()
	cbs := make([]func([]string), len(e.callbacks))
	copy(cbs, e.callbacks)
	e.cbMu.Unlock()

	for _, cb := range cbs {
		cb(keys)
	}
}

// Start 执行启动对账，最多等待 StartupTimeout。超时后对账在后台继续，
// 完成时照常写入本地并建立订阅。重复调用返回第一次的结果
func (e *SyncEngine) Start(ctx context.Context) SyncResult {
	e.mu.Lock()
	if e.started || e.status.State == SyncStateStopped {
		st := e.status
		e.mu.Unlock()
		return SyncResult{Source: st.Source, TimedOut: st.TimedOut}
	}
	e.started = true
	e.status.State = SyncStateReconciling
	done := make(chan SyncResult, 1)
	e.done = done
	if e.remote != nil {
		e.mirroring = true
		go e.mirrorLoop()
	}
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		source := e.reconcile(e.ctx)
		e.finishReconcile(source)
		done <- SyncResult{Source: source}
	}()

	timer := time.NewTimer(e.opts.StartupTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
	case <-ctx.Done():
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// 对账恰好在超时的同时完成
	if e.status.State == SyncStateSynced {
		return SyncResult{Source: e.status.Source}
	}
	e.status.TimedOut = true
	logger.Log.Warn("Sync reconciliation timed out, continuing in background",
		zap.Duration("timeout", e.opts.StartupTimeout))
	return SyncResult{Source: SyncSourceNone, TimedOut: true}
}

// Wait 阻塞到后台对账结束
func (e *SyncEngine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}

	finished := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *SyncEngine) reconcile(ctx context.Context) SyncSource {
	ctx, span := tracing.StartSpan(ctx, "sync.reconcile", attribute.String("sync.user", e.opts.UserID))
	defer span.End()

	if e.remote == nil {
		return SyncSourceNone
	}

	cloudText, found, err := e.remote.Read(ctx, e.path(model.KeySessions))
	if err != nil {
		e.remoteFailed("read", model.KeySessions, err)
		span.SetAttributes(attribute.Bool("sync.remote_available", false))
		return SyncSourceNone
	}
	cloudTotal := 0
	if found {
		if raw, ok := DecodeRemoteValue(model.KeySessions, cloudText); ok {
			cloudTotal = sessionTotal(raw)
		}
	}

	localRaw, err := e.local.Load(ctx, model.KeySessions)
	if err != nil {
		logger.Log.Error("Failed to read local sessions", zap.Error(err))
		return SyncSourceNone
	}
	localTotal := sessionTotal(localRaw)

	span.SetAttributes(
		attribute.Int("sync.cloud_total", cloudTotal),
		attribute.Int("sync.local_total", localTotal),
	)
	logger.Log.Info("Sync reconciliation started",
		zap.Int("cloudTotal", cloudTotal), zap.Int("localTotal", localTotal))

	switch {
	case cloudTotal > localTotal:
		e.pullAll(ctx)
		return SyncSourceCloud
	case localTotal > 0:
		e.pushAll(ctx)
		return SyncSourceLocal
	default:
		return SyncSourceNone
	}
}

func (e *SyncEngine) pullAll(ctx context.Context) {
	for _, key := range model.TrackedKeys {
		text, found, err := e.remote.Read(ctx, e.path(key))
		if err != nil {
			e.remoteFailed("read", key, err)
			continue
		}
		if !found {
			continue
		}
		raw, ok := DecodeRemoteValue(key, text)
		if !ok {
			logger.Log.Warn("Ignoring malformed remote value", zap.String("key", key))
			continue
		}

		e.mu.Lock()
		e.applying = true
		err = e.local.Save(ctx, key, raw)
		e.applying = false
		e.mu.Unlock()
		if err != nil {
			logger.Log.Error("Failed to save pulled value", zap.String("key", key), zap.Error(err))
		}
	}
}

func (e *SyncEngine) pushAll(ctx context.Context) {
	for _, key := range model.TrackedKeys {
		raw, err := e.local.Load(ctx, key)
		if err != nil {
			logger.Log.Error("Failed to read local value for push", zap.String("key", key), zap.Error(err))
			continue
		}
		if raw == nil {
			continue
		}
		if err := e.writeRemote(ctx, key, raw); err != nil {
			e.remoteFailed("write", key, err)
		}
	}
}

func (e *SyncEngine) finishReconcile(source SyncSource) {
	e.mu.Lock()
	if e.status.State == SyncStateStopped {
		e.mu.Unlock()
		return
	}
	e.status.State = SyncStateSynced
	e.status.Source = source
	late := e.status.TimedOut
	// 超时后、对账结束前的本地写入没有镜像，现在补推
	for _, key := range model.TrackedKeys {
		if !e.dirty[key] {
			continue
		}
		delete(e.dirty, key)
		raw, err := e.local.Load(e.ctx, key)
		if err != nil || raw == nil {
			continue
		}
		e.enqueueLocked(key, raw)
	}
	e.mu.Unlock()

	monitoring.SyncReconcileCounter.WithLabelValues(string(source)).Inc()
	logger.Log.Info("Sync reconciliation finished", zap.String("source", string(source)), zap.Bool("late", late))

	e.subscribe()

	// 调用方在超时后已经按本地数据继续运行，需要通知它们重新读取
	if late && source == SyncSourceCloud {
		e.notify(append([]string(nil), model.TrackedKeys...))
	}
}

func (e *SyncEngine) subscribe() {
	if e.remote == nil {
		return
	}
	sub, err := e.remote.Subscribe(e.ctx, repository.UserPath(e.opts.UserID), e.applyRemoteSnapshot)
	if err != nil {
		// 订阅失败时只使用本地数据，不重试
		e.remoteFailed("subscribe", "", err)
		return
	}

	e.mu.Lock()
	if e.status.State == SyncStateStopped {
		e.mu.Unlock()
		sub.Close()
		return
	}
	e.sub = sub
	e.status.Subscribed = true
	e.mu.Unlock()
}

// applyRemoteSnapshot 每次通知都当作 "最新观察值" 幂等应用，而不是增量
func (e *SyncEngine) applyRemoteSnapshot(snapshot map[string]string) {
	e.mu.Lock()
	if e.status.State == SyncStateStopped {
		e.mu.Unlock()
		return
	}
	changed := e.applyLocked(snapshot)
	e.mu.Unlock()

	e.announce(changed)
}

// applyLocked 逐键与本地比较，不同则覆盖本地。正在等待镜像的键本地更新，先记下远端值
func (e *SyncEngine) applyLocked(snapshot map[string]string) []string {
	var changed []string
	e.applying = true
	defer func() { e.applying = false }()

	for _, key := range model.TrackedKeys {
		text, ok := snapshot[key]
		if !ok {
			continue
		}
		if e.mirrorPendingLocked(key) {
			e.deferred[key] = text
			continue
		}
		raw, ok := DecodeRemoteValue(key, text)
		if !ok {
			logger.Log.Warn("Ignoring malformed remote value", zap.String("key", key))
			continue
		}
		current, err := e.local.Load(e.ctx, key)
		if err != nil {
			logger.Log.Error("Failed to read local value", zap.String("key", key), zap.Error(err))
			continue
		}
		if JSONEqual(current, raw) {
			continue
		}
		if err := e.local.Save(e.ctx, key, raw); err != nil {
			logger.Log.Error("Failed to apply remote value", zap.String("key", key), zap.Error(err))
			continue
		}
		changed = append(changed, key)
	}
	if len(changed) > 0 {
		now := e.Now()
		e.status.LastRemoteUpdate = &now
	}
	return changed
}

func (e *SyncEngine) announce(changed []string) {
	if len(changed) == 0 {
		return
	}
	monitoring.SyncRemoteUpdatesApplied.Add(float64(len(changed)))
	logger.Log.Info("Applied remote update", zap.Strings("keys", changed))
	e.notify(changed)
}

func (e *SyncEngine) mirrorPendingLocked(key string) bool {
	_, queued := e.pending[key]
	return queued || e.inflight[key]
}

func (e *SyncEngine) enqueueLocked(key string, value json.RawMessage) {
	e.pending[key] = append(json.RawMessage(nil), value...)
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// mirrorLoop 把本地写入逐个写到远端，调用 Save 的一方不等待远端
func (e *SyncEngine) mirrorLoop() {
	defer close(e.mirrorDone)
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.kick:
		}
		for {
			key, value, ok := e.takePending()
			if !ok {
				break
			}
			err := e.writeRemote(e.ctx, key, value)
			if err != nil {
				e.remoteFailed("write", key, err)
			}
			e.finishMirror(key, err)
		}
	}
}

func (e *SyncEngine) takePending() (string, json.RawMessage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, key := range model.TrackedKeys {
		if value, ok := e.pending[key]; ok {
			delete(e.pending, key)
			e.inflight[key] = true
			return key, value, true
		}
	}
	return "", nil, false
}

// finishMirror 写入期间如果收到过该键的远端值，按远端当前值重新应用一次；
// 远端读不到且本次写入失败时退回到收到的那个值。键在这之后才离开 inflight
func (e *SyncEngine) finishMirror(key string, writeErr error) {
	e.mu.Lock()
	seen, hasSeen := "", false
	if _, queued := e.pending[key]; !queued {
		seen, hasSeen = e.deferred[key]
		delete(e.deferred, key)
	}
	e.mu.Unlock()

	text, apply := "", false
	if hasSeen {
		rctx, cancel := context.WithTimeout(e.ctx, e.opts.WriteTimeout)
		current, found, err := e.remote.Read(rctx, e.path(key))
		cancel()
		switch {
		case err == nil && found:
			text, apply = current, true
		case writeErr != nil:
			text, apply = seen, true
		}
	}

	e.mu.Lock()
	delete(e.inflight, key)
	var changed []string
	if apply && e.status.State != SyncStateStopped && !e.mirrorPendingLocked(key) {
		changed = e.applyLocked(map[string]string{key: text})
	}
	e.mu.Unlock()

	e.announce(changed)
}

// Flush 等待镜像队列写完 (或写失败)
func (e *SyncEngine) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		e.mu.Lock()
		idle := len(e.pending) == 0 && len(e.inflight) == 0
		e.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *SyncEngine) writeRemote(ctx context.Context, key string, raw json.RawMessage) error {
	text, err := EncodeRemoteValue(raw)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, e.opts.WriteTimeout)
	defer cancel()
	return e.remote.Write(wctx, e.path(key), text)
}

func (e *SyncEngine) remoteFailed(op, key string, err error) {
	monitoring.SyncRemoteErrors.WithLabelValues(op).Inc()
	logger.Log.Warn("Remote store unavailable", zap.String("op", op), zap.String("key", key), zap.Error(err))
}

func (e *SyncEngine) path(key string) string {
	return repository.KeyPath(e.opts.UserID, key)
}

// Load 读取本地值
func (e *SyncEngine) Load(ctx context.Context, key string) (json.RawMessage, error) {
	return e.local.Load(ctx, key)
}

// Save 写入本地后立即返回。对账完成后同步键进入镜像队列，由后台尽力写到远端；
// 启动超时后、对账结束前的写入先记下，对账结束时补推。启动前和停止后的写入只落本地
func (e *SyncEngine) Save(ctx context.Context, key string, value json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.local.Save(ctx, key, value); err != nil {
		return err
	}
	if e.remote == nil || e.applying || !model.IsTrackedKey(key) {
		return nil
	}
	switch e.status.State {
	case SyncStateSynced:
		e.enqueueLocked(key, value)
	case SyncStateReconciling:
		e.dirty[key] = true
	}
	return nil
}

// Clear 只清除本地值
func (e *SyncEngine) Clear(ctx context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local.Clear(ctx, key)
}

func (e *SyncEngine) Status() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.status
	if st.LastRemoteUpdate != nil {
		t := *st.LastRemoteUpdate
		st.LastRemoteUpdate = &t
	}
	return st
}

// Stop 取消后台对账并关闭订阅，之后引擎只做本地读写
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	stopped := e.status.State == SyncStateStopped
	e.mu.Unlock()
	if stopped {
		return
	}

	// 尽量把已排队的写入送出去
	fctx, fcancel := context.WithTimeout(context.Background(), e.opts.WriteTimeout)
	if err := e.Flush(fctx); err != nil {
		logger.Log.Warn("Dropping unsent remote writes on stop", zap.Error(err))
	}
	fcancel()

	e.mu.Lock()
	if e.status.State == SyncStateStopped {
		e.mu.Unlock()
		return
	}
	e.status.State = SyncStateStopped
	e.status.Subscribed = false
	sub := e.sub
	e.sub = nil
	mirroring := e.mirroring
	e.mu.Unlock()

	e.cancel()
	if sub != nil {
		if err := sub.Close(); err != nil {
			logger.Log.Warn("Failed to close remote subscription", zap.Error(err))
		}
	}
	e.wg.Wait()
	if mirroring {
		<-e.mirrorDone
	}
}
