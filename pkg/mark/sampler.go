package mark

import (
	"math"
	"runtime"
	"time"
)

// Snapshot is a point-in-time reading of the three measured dimensions.
type Snapshot struct {
	WallClock   int64   `json:"time"`
	HiRes       float64 `json:"microtime"`
	MemoryBytes int64   `json:"memory"`
}

// Measurement holds one value per dimension. It is used for deltas as well as
// for totals and averages over deltas.
type Measurement struct {
	Time   float64 `json:"time"`
	HiTime float64 `json:"microtime"`
	Memory float64 `json:"memory"`
}

// Delta subtracts start from end for every dimension. Negative memory deltas
// are kept as they are.
func Delta(start, end Snapshot) Measurement {
	return Measurement{
		Time:   float64(end.WallClock - start.WallClock),
		HiTime: end.HiRes - start.HiRes,
		Memory: float64(end.MemoryBytes - start.MemoryBytes),
	}
}

// Magnitude is the Euclidean norm of m, treating each dimension as an
// orthogonal axis.
func (m Measurement) Magnitude() float64 {
	return math.Sqrt(m.Time*m.Time + m.HiTime*m.HiTime + m.Memory*m.Memory)
}

func (m Measurement) add(o Measurement) Measurement {
	return Measurement{Time: m.Time + o.Time, HiTime: m.HiTime + o.HiTime, Memory: m.Memory + o.Memory}
}

func (m Measurement) div(n float64) Measurement {
	return Measurement{Time: m.Time / n, HiTime: m.HiTime / n, Memory: m.Memory / n}
}

// Sampler takes snapshots. Implementations must use the same timebase for
// every call made during one run.
type Sampler interface {
	Snapshot() Snapshot
}

// RuntimeSampler reads the Unix clock, the monotonic clock relative to the
// sampler's creation, and the Go heap in use.
type RuntimeSampler struct {
	origin time.Time
}

func NewRuntimeSampler() *RuntimeSampler {
	return &RuntimeSampler{origin: time.Now()}
}

func (s *RuntimeSampler) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	now := time.Now()
	return Snapshot{
		WallClock:   now.Unix(),
		HiRes:       now.Sub(s.origin).Seconds(),
		MemoryBytes: int64(ms.HeapAlloc),
	}
}
