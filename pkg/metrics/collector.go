package metrics

import (
	"time"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

const collectInterval = 15 * time.Second

// Collector periodically refreshes gauge metrics from the store
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store storage.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(collectInterval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectProjects()
	c.collectDeployments()
}

func (c *Collector) collectProjects() {
	projects, err := c.store.ListProjects()
	if err != nil {
		return
	}

	ProjectsTotal.Set(float64(len(projects)))
}

func (c *Collector) collectDeployments() {
	deployments, err := c.store.ListDeployments()
	if err != nil {
		return
	}

	counts := make(map[types.DeploymentStatus]int)
	for _, d := range deployments {
		counts[d.Status]++
	}

	// Set every known status so counts that drop to zero are visible
	statuses := []types.DeploymentStatus{
		types.StatusPending,
		types.StatusDeploying,
		types.StatusActive,
		types.StatusFailed,
		types.StatusRolledBack,
	}
	for _, s := range statuses {
		DeploymentsByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}

	ActiveDeployments.Set(float64(counts[types.StatusActive]))
}
