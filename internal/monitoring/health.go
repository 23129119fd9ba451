package monitoring

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health is a point-in-time snapshot of the process's dependencies.
type Health struct {
	Status        string    `json:"status"`
	Database      string    `json:"database"`
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	MemoryUsedMB  uint64    `json:"memoryUsedMb"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// Healthy reports whether the application can serve requests.
func (h Health) Healthy() bool { return h.Status == "ok" }

// Checker gathers Health snapshots.
type Checker struct {
	db *sql.DB
}

// NewChecker creates a Checker for db.
func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db}
}

// Check pings the database and samples host usage. Host stats are best
// effort; only the database decides the status.
func (c *Checker) Check(ctx context.Context) Health {
	h := Health{Status: "ok", Database: "ok", CheckedAt: time.Now().UTC()}

	if err := c.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database ping failed")
		h.Status = "degraded"
		h.Database = err.Error()
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.MemoryPercent = vm.UsedPercent
		h.MemoryUsedMB = vm.Used / 1024 / 1024
	} else {
		log.Debug().Err(err).Msg("Health check: memory stats unavailable")
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		h.CPUPercent = pct[0]
	} else if err != nil {
		log.Debug().Err(err).Msg("Health check: cpu stats unavailable")
	}

	return h
}
