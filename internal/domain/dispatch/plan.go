package dispatch

import (
	"time"

	"github.com/perfumery/sales/internal/domain/shared"
)

// Per-class delivery characteristics. These are fixed business rules of the
// physical sites, not tunables.
const (
	DistributionBatchSize = 3
	DistributionLatency   = 500 * time.Millisecond

	WarehouseBatchSize = 1
	WarehouseLatency   = 2500 * time.Millisecond
)

// Batch is a single timed sub-delivery within a dispatch plan. Batches are
// ephemeral: they exist only for the duration of one dispatch run.
type Batch struct {
	SequenceNumber int
	Units          int
	Latency        time.Duration
}

// Plan is the ordered set of timed sub-deliveries computed to satisfy a
// requested package count from a site of a given class.
type Plan struct {
	Class      SiteClass
	Count      int
	BatchSize  int
	PerLatency time.Duration
	Batches    []Batch
}

// BatchParams returns the batch size and per-batch latency for a site class
func BatchParams(class SiteClass) (batchSize int, latency time.Duration) {
	if class == ClassDistribution {
		return DistributionBatchSize, DistributionLatency
	}
	return WarehouseBatchSize, WarehouseLatency
}

// ComputePlan builds the delivery plan for count packages from a site class.
// deliveries = ceil(count / batchSize); the final batch carries the remainder.
func ComputePlan(count int, class SiteClass) (*Plan, error) {
	if count <= 0 {
		return nil, shared.NewDomainError("INVALID_COUNT", "Package count must be positive")
	}
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_SITE_CLASS", "Site class must be DISTRIBUTION or WAREHOUSE")
	}

	batchSize, latency := BatchParams(class)
	deliveries := (count + batchSize - 1) / batchSize

	batches := make([]Batch, 0, deliveries)
	remaining := count
	for i := 0; i < deliveries; i++ {
		units := batchSize
		if remaining < batchSize {
			units = remaining
		}
		batches = append(batches, Batch{
			SequenceNumber: i + 1,
			Units:          units,
			Latency:        latency,
		})
		remaining -= units
	}

	return &Plan{
		Class:      class,
		Count:      count,
		BatchSize:  batchSize,
		PerLatency: latency,
		Batches:    batches,
	}, nil
}

// Deliveries returns the number of batches in the plan
func (p *Plan) Deliveries() int {
	return len(p.Batches)
}

// TotalLatency returns the total simulated delivery time for the plan
func (p *Plan) TotalLatency() time.Duration {
	return time.Duration(len(p.Batches)) * p.PerLatency
}
