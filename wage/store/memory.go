// Package store provides in-memory Store implementations for testing and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements wage.TxStore, wage.ContractProvider and
// wage.WorkerDirectory entirely in memory. GetOrCreateBucket is serialized
// under the store lock, so the one-bucket-per-week invariant holds without a
// database constraint.
type Memory struct {
	mu        sync.RWMutex
	shifts    map[wage.ShiftID]wage.ShiftRecord
	buckets   map[wage.BucketID]wage.WeeklyBucket
	bucketKey map[bucketKey]wage.BucketID

	// Contracts and workers are reference data outside the unit of work, so
	// they live under their own lock. That keeps ContractProvider reads safe
	// while WithTx holds the main lock.
	cmu       sync.RWMutex
	contracts map[wage.ContractID]wage.Contract
	workers   map[wage.UserID]wage.Worker
}

type bucketKey struct {
	ContractID wage.ContractID
	Week       wage.WeekKey
}

func NewMemory() *Memory {
	return &Memory{
		shifts:    make(map[wage.ShiftID]wage.ShiftRecord),
		buckets:   make(map[wage.BucketID]wage.WeeklyBucket),
		bucketKey: make(map[bucketKey]wage.BucketID),
		contracts: make(map[wage.ContractID]wage.Contract),
		workers:   make(map[wage.UserID]wage.Worker),
	}
}

// =============================================================================
// SHIFT STORE
// =============================================================================

func (m *Memory) SaveShift(_ context.Context, shift wage.ShiftRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveShiftLocked(shift)
}

func (m *Memory) GetShift(_ context.Context, id wage.ShiftID) (wage.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getShiftLocked(id)
}

func (m *Memory) DeleteShift(_ context.Context, id wage.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteShiftLocked(id)
}

func (m *Memory) ListShiftsByContract(_ context.Context, contractID wage.ContractID) ([]wage.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		return s.ContractID == contractID
	}), nil
}

func (m *Memory) ListShiftsByBucket(_ context.Context, bucketID wage.BucketID) ([]wage.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listShiftsByBucketLocked(bucketID), nil
}

func (m *Memory) CountShiftsByBucket(_ context.Context, bucketID wage.BucketID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listShiftsByBucketLocked(bucketID)), nil
}

func (m *Memory) ListShiftsByWorkplace(_ context.Context, workplaceID wage.WorkplaceID, from, to time.Time) ([]wage.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		c, ok := m.contractRef(s.ContractID)
		return ok && c.WorkplaceID == workplaceID && inRange(s.WorkDate, from, to)
	}), nil
}

func (m *Memory) ListShiftsByWorker(_ context.Context, workerID wage.WorkerID, from, to time.Time) ([]wage.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		c, ok := m.contractRef(s.ContractID)
		return ok && c.WorkerID == workerID && inRange(s.WorkDate, from, to)
	}), nil
}

// contractRef is a lock-order-safe contract lookup (mu is always taken
// before cmu, never the other way around).
func (m *Memory) contractRef(id wage.ContractID) (wage.Contract, bool) {
	m.cmu.RLock()
	defer m.cmu.RUnlock()
	c, ok := m.contracts[id]
	return c, ok
}

// =============================================================================
// BUCKET STORE
// =============================================================================

func (m *Memory) GetOrCreateBucket(_ context.Context, contractID wage.ContractID, week wage.WeekKey, newID wage.BucketID, now time.Time) (wage.WeeklyBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateBucketLocked(contractID, week, newID, now)
}

func (m *Memory) GetBucket(_ context.Context, id wage.BucketID) (wage.WeeklyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBucketLocked(id)
}

func (m *Memory) UpdateBucketTotals(_ context.Context, id wage.BucketID, totals wage.Totals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateBucketTotalsLocked(id, totals)
}

func (m *Memory) DeleteBucket(_ context.Context, id wage.BucketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteBucketLocked(id)
}

func (m *Memory) ListBucketsByContract(_ context.Context, contractID wage.ContractID) ([]wage.WeeklyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBucketsByContractLocked(contractID), nil
}

// =============================================================================
// CONTRACT PROVIDER / WORKER DIRECTORY
// =============================================================================

func (m *Memory) SaveContract(_ context.Context, c wage.Contract) error {
	m.cmu.Lock()
	defer m.cmu.Unlock()
	m.contracts[c.ID] = c
	return nil
}

func (m *Memory) Contract(_ context.Context, id wage.ContractID) (wage.Contract, error) {
	m.cmu.RLock()
	defer m.cmu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return wage.Contract{}, wage.ErrContractNotFound
	}
	return c, nil
}

func (m *Memory) SaveWorker(_ context.Context, w wage.Worker) error {
	m.cmu.Lock()
	defer m.cmu.Unlock()
	m.workers[w.UserID] = w
	return nil
}

func (m *Memory) WorkerByUser(_ context.Context, userID wage.UserID) (wage.Worker, error) {
	m.cmu.RLock()
	defer m.cmu.RUnlock()
	w, ok := m.workers[userID]
	if !ok {
		return wage.Worker{}, wage.ErrWorkerNotFound
	}
	return w, nil
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback on error
// =============================================================================

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot restored on error; fn runs under the store lock,
// so the unit of work is also serialized.
func (m *Memory) WithTx(_ context.Context, fn func(wage.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &txMemoryView{parent: m}

	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	shifts    map[wage.ShiftID]wage.ShiftRecord
	buckets   map[wage.BucketID]wage.WeeklyBucket
	bucketKey map[bucketKey]wage.BucketID
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		shifts:    make(map[wage.ShiftID]wage.ShiftRecord, len(m.shifts)),
		buckets:   make(map[wage.BucketID]wage.WeeklyBucket, len(m.buckets)),
		bucketKey: make(map[bucketKey]wage.BucketID, len(m.bucketKey)),
	}
	for k, v := range m.shifts {
		s.shifts[k] = v
	}
	for k, v := range m.buckets {
		s.buckets[k] = v
	}
	for k, v := range m.bucketKey {
		s.bucketKey[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.shifts = s.shifts
	m.buckets = s.buckets
	m.bucketKey = s.bucketKey
}

// txMemoryView routes Store calls to the locked internals while WithTx holds
// the lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveShift(_ context.Context, shift wage.ShiftRecord) error {
	return tv.parent.saveShiftLocked(shift)
}

func (tv *txMemoryView) GetShift(_ context.Context, id wage.ShiftID) (wage.ShiftRecord, error) {
	return tv.parent.getShiftLocked(id)
}

func (tv *txMemoryView) DeleteShift(_ context.Context, id wage.ShiftID) error {
	return tv.parent.deleteShiftLocked(id)
}

func (tv *txMemoryView) ListShiftsByContract(_ context.Context, contractID wage.ContractID) ([]wage.ShiftRecord, error) {
	return tv.parent.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		return s.ContractID == contractID
	}), nil
}

func (tv *txMemoryView) ListShiftsByBucket(_ context.Context, bucketID wage.BucketID) ([]wage.ShiftRecord, error) {
	return tv.parent.listShiftsByBucketLocked(bucketID), nil
}

func (tv *txMemoryView) CountShiftsByBucket(_ context.Context, bucketID wage.BucketID) (int, error) {
	return len(tv.parent.listShiftsByBucketLocked(bucketID)), nil
}

func (tv *txMemoryView) ListShiftsByWorkplace(_ context.Context, workplaceID wage.WorkplaceID, from, to time.Time) ([]wage.ShiftRecord, error) {
	return tv.parent.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		c, ok := tv.parent.contractRef(s.ContractID)
		return ok && c.WorkplaceID == workplaceID && inRange(s.WorkDate, from, to)
	}), nil
}

func (tv *txMemoryView) ListShiftsByWorker(_ context.Context, workerID wage.WorkerID, from, to time.Time) ([]wage.ShiftRecord, error) {
	return tv.parent.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		c, ok := tv.parent.contractRef(s.ContractID)
		return ok && c.WorkerID == workerID && inRange(s.WorkDate, from, to)
	}), nil
}

func (tv *txMemoryView) GetOrCreateBucket(_ context.Context, contractID wage.ContractID, week wage.WeekKey, newID wage.BucketID, now time.Time) (wage.WeeklyBucket, error) {
	return tv.parent.getOrCreateBucketLocked(contractID, week, newID, now)
}

func (tv *txMemoryView) GetBucket(_ context.Context, id wage.BucketID) (wage.WeeklyBucket, error) {
	return tv.parent.getBucketLocked(id)
}

func (tv *txMemoryView) UpdateBucketTotals(_ context.Context, id wage.BucketID, totals wage.Totals) error {
	return tv.parent.updateBucketTotalsLocked(id, totals)
}

func (tv *txMemoryView) DeleteBucket(_ context.Context, id wage.BucketID) error {
	return tv.parent.deleteBucketLocked(id)
}

func (tv *txMemoryView) ListBucketsByContract(_ context.Context, contractID wage.ContractID) ([]wage.WeeklyBucket, error) {
	return tv.parent.listBucketsByContractLocked(contractID), nil
}

func (tv *txMemoryView) Contract(ctx context.Context, id wage.ContractID) (wage.Contract, error) {
	// Contracts live under cmu, so this is safe while WithTx holds mu.
	return tv.parent.Contract(ctx, id)
}

// =============================================================================
// LOCKED INTERNALS
// =============================================================================

func (m *Memory) saveShiftLocked(shift wage.ShiftRecord) error {
	m.shifts[shift.ID] = shift
	return nil
}

func (m *Memory) getShiftLocked(id wage.ShiftID) (wage.ShiftRecord, error) {
	s, ok := m.shifts[id]
	if !ok {
		return wage.ShiftRecord{}, wage.ErrShiftNotFound
	}
	return s, nil
}

func (m *Memory) deleteShiftLocked(id wage.ShiftID) error {
	if _, ok := m.shifts[id]; !ok {
		return wage.ErrShiftNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *Memory) selectShiftsLocked(match func(wage.ShiftRecord) bool) []wage.ShiftRecord {
	var result []wage.ShiftRecord
	for _, s := range m.shifts {
		if match(s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WorkDate.Equal(result[j].WorkDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].WorkDate.Before(result[j].WorkDate)
	})
	return result
}

func (m *Memory) listShiftsByBucketLocked(bucketID wage.BucketID) []wage.ShiftRecord {
	return m.selectShiftsLocked(func(s wage.ShiftRecord) bool {
		return s.BucketID == bucketID
	})
}

func (m *Memory) getOrCreateBucketLocked(contractID wage.ContractID, week wage.WeekKey, newID wage.BucketID, now time.Time) (wage.WeeklyBucket, error) {
	k := bucketKey{ContractID: contractID, Week: week}
	if id, ok := m.bucketKey[k]; ok {
		return m.buckets[id], nil
	}
	bucket := wage.NewBucket(newID, contractID, week, now)
	m.buckets[newID] = bucket
	m.bucketKey[k] = newID
	return bucket, nil
}

func (m *Memory) getBucketLocked(id wage.BucketID) (wage.WeeklyBucket, error) {
	b, ok := m.buckets[id]
	if !ok {
		return wage.WeeklyBucket{}, wage.ErrBucketNotFound
	}
	return b, nil
}

func (m *Memory) updateBucketTotalsLocked(id wage.BucketID, totals wage.Totals) error {
	b, ok := m.buckets[id]
	if !ok {
		return wage.ErrBucketNotFound
	}
	totals.Apply(&b)
	m.buckets[id] = b
	return nil
}

func (m *Memory) deleteBucketLocked(id wage.BucketID) error {
	b, ok := m.buckets[id]
	if !ok {
		return wage.ErrBucketNotFound
	}
	delete(m.bucketKey, bucketKey{ContractID: b.ContractID, Week: b.Week})
	delete(m.buckets, id)
	return nil
}

func (m *Memory) listBucketsByContractLocked(contractID wage.ContractID) []wage.WeeklyBucket {
	var result []wage.WeeklyBucket
	for _, b := range m.buckets {
		if b.ContractID == contractID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Week.Year == result[j].Week.Year {
			return result[i].Week.Week < result[j].Week.Week
		}
		return result[i].Week.Year < result[j].Week.Year
	})
	return result
}

func inRange(date, from, to time.Time) bool {
	return !date.Before(from) && !date.After(to)
}

// Compile-time interface checks.
var (
	_ wage.TxStore          = (*Memory)(nil)
	_ wage.Store            = (*txMemoryView)(nil)
	_ wage.ContractProvider = (*Memory)(nil)
	_ wage.WorkerDirectory  = (*Memory)(nil)
)
