package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// Size is a byte count
type Size int64

// HumanSize formats the size with a binary unit suffix
func (s Size) HumanSize() string {
	val := float64(s)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for val >= 1024 && i < len(units)-1 {
		val /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", val, units[i])
}

// AllocInfo describes one live device allocation
type AllocInfo struct {
	ID   uint64
	Name string
	Size Size
}

// MemoryTracker records device allocations made through a Runner so leaks
// show up as a non-zero live count.
type MemoryTracker struct {
	live      *xsync.Map[uint64, AllocInfo]
	nextID    atomic.Uint64
	liveBytes atomic.Int64
	peakBytes atomic.Int64
	total     atomic.Int64
}

// NewMemoryTracker creates an empty tracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		live: xsync.NewMap[uint64, AllocInfo](),
	}
}

// Record registers a new allocation and returns its id
func (mt *MemoryTracker) Record(name string, bytes int64) uint64 {
	id := mt.nextID.Add(1)
	mt.live.Store(id, AllocInfo{ID: id, Name: name, Size: Size(bytes)})
	mt.total.Add(1)

	current := mt.liveBytes.Add(bytes)
	for {
		peak := mt.peakBytes.Load()
		if current <= peak || mt.peakBytes.CompareAndSwap(peak, current) {
			break
		}
	}
	return id
}

// Release removes an allocation. It returns false if the id was not live.
func (mt *MemoryTracker) Release(id uint64) bool {
	info, ok := mt.live.LoadAndDelete(id)
	if !ok {
		return false
	}
	mt.liveBytes.Add(-int64(info.Size))
	return true
}

// LiveCount returns the number of allocations not yet freed
func (mt *MemoryTracker) LiveCount() int {
	return mt.live.Size()
}

// LiveBytes returns the number of bytes not yet freed
func (mt *MemoryTracker) LiveBytes() int64 {
	return mt.liveBytes.Load()
}

// PeakBytes returns the high-water mark of live bytes
func (mt *MemoryTracker) PeakBytes() int64 {
	return mt.peakBytes.Load()
}

// TotalAllocations returns the number of allocations ever recorded
func (mt *MemoryTracker) TotalAllocations() int64 {
	return mt.total.Load()
}

// Live returns the live allocations ordered by allocation id
func (mt *MemoryTracker) Live() []AllocInfo {
	infos := make([]AllocInfo, 0, mt.live.Size())
	mt.live.Range(func(_ uint64, info AllocInfo) bool {
		infos = append(infos, info)
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Summary returns a multi-line report of the tracker state
func (mt *MemoryTracker) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("device allocations: %d total, %d live (%s), peak %s\n",
		mt.TotalAllocations(), mt.LiveCount(),
		Size(mt.LiveBytes()).HumanSize(), Size(mt.PeakBytes()).HumanSize()))
	for _, info := range mt.Live() {
		sb.WriteString(fmt.Sprintf("  #%d %s %s\n", info.ID, info.Name, info.Size.HumanSize()))
	}
	return sb.String()
}
