/*
auditor.go - Background bucket consistency auditor

PURPOSE:
  Periodically sweeps every weekly bucket and verifies that its stored
  totals equal a fresh computation over its live shift set. In correct
  operation the sweep never finds anything - every mutation recomputes its
  bucket in the same transaction - so a finding indicates a storage defect
  or out-of-band data edit.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Compares stored totals field by field against a fresh ComputeTotals
  - Flags empty buckets (zero live shifts), which must never persist
  - Optionally repairs drift by recomputing through the engine

CONFIGURATION:
  - SweepInterval: How often to sweep (default: 1 hour)
  - Repair:        Whether findings are fixed or only logged (default: log)

USAGE:
  auditor := NewConsistencyAuditor(store)
  auditor.Start()
  // ... later
  auditor.Stop()

SEE ALSO:
  - wage/engine.go: ComputeTotals, RecomputeBucket
  - shifts/service.go: the transactional recomputation this audits
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// AUDITOR
// =============================================================================

// ConsistencyAuditor verifies stored bucket totals against fresh
// computations.
type ConsistencyAuditor struct {
	Store         *sqlite.Store
	Engine        *wage.Engine
	SweepInterval time.Duration
	Repair        bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// Finding describes one bucket the sweep flagged.
type Finding struct {
	BucketID wage.BucketID
	Detail   string
}

// NewConsistencyAuditor creates an auditor over the given store.
func NewConsistencyAuditor(store *sqlite.Store) *ConsistencyAuditor {
	return &ConsistencyAuditor{
		Store:         store,
		Engine:        wage.NewEngine(),
		SweepInterval: 1 * time.Hour,
		stop:          make(chan bool),
	}
}

// Start begins the background sweep loop.
func (a *ConsistencyAuditor) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ticker = time.NewTicker(a.SweepInterval)
	a.wg.Add(1)

	go a.run()

	log.Printf("[Auditor] Started with sweep interval: %v", a.SweepInterval)
}

// Stop stops the sweep loop.
func (a *ConsistencyAuditor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ticker != nil {
		a.ticker.Stop()
		close(a.stop)
		a.wg.Wait()
		log.Println("[Auditor] Stopped")
	}
}

func (a *ConsistencyAuditor) run() {
	defer a.wg.Done()

	// Sweep immediately on start
	a.sweep()

	for {
		select {
		case <-a.ticker.C:
			a.sweep()
		case <-a.stop:
			return
		}
	}
}

func (a *ConsistencyAuditor) sweep() {
	ctx := context.Background()

	findings, err := a.RunOnce(ctx)
	if err != nil {
		log.Printf("[Auditor] Sweep failed: %v", err)
		return
	}

	for _, f := range findings {
		log.Printf("[Auditor] Bucket %s: %s", f.BucketID, f.Detail)
	}
	if len(findings) > 0 {
		log.Printf("[Auditor] Sweep completed: %d finding(s)", len(findings))
	}
}

// RunOnce sweeps every bucket once and returns what it found. With Repair
// set, drifted totals are recomputed in place; empty buckets are only ever
// reported.
func (a *ConsistencyAuditor) RunOnce(ctx context.Context) ([]Finding, error) {
	buckets, err := a.Store.ListAllBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	var findings []Finding
	for _, bucket := range buckets {
		finding, err := a.auditBucket(ctx, bucket)
		if err != nil {
			return nil, err
		}
		if finding != nil {
			findings = append(findings, *finding)
		}
	}
	return findings, nil
}

func (a *ConsistencyAuditor) auditBucket(ctx context.Context, bucket wage.WeeklyBucket) (*Finding, error) {
	shifts, err := a.Store.ListShiftsByBucket(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}

	if len(shifts) == 0 {
		return &Finding{
			BucketID: bucket.ID,
			Detail:   "empty bucket: no live shifts reference it",
		}, nil
	}

	contract, err := a.Store.Contract(ctx, bucket.ContractID)
	if err != nil {
		return nil, err
	}

	expected := wage.ComputeTotals(shifts, contract.HourlyRate)
	if totalsMatch(bucket, expected) {
		return nil, nil
	}

	finding := &Finding{
		BucketID: bucket.ID,
		Detail: fmt.Sprintf("stored totals drifted: stored hours=%s leave=%s, expected hours=%s leave=%s",
			bucket.TotalHours, bucket.PaidLeaveAmount, expected.TotalHours, expected.PaidLeaveAmount),
	}

	if a.Repair {
		err := a.Store.WithTx(ctx, func(st wage.Store) error {
			_, err := a.Engine.RecomputeBucket(ctx, st, bucket.ID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to repair bucket %s: %w", bucket.ID, err)
		}
		finding.Detail += " (repaired)"
	}

	return finding, nil
}

func totalsMatch(bucket wage.WeeklyBucket, expected wage.Totals) bool {
	return bucket.TotalHours.Equal(expected.TotalHours) &&
		bucket.PaidLeaveAmount.Equal(expected.PaidLeaveAmount) &&
		bucket.OvertimeHours.Equal(expected.OvertimeHours) &&
		bucket.OvertimeAmount.Equal(expected.OvertimeAmount)
}
