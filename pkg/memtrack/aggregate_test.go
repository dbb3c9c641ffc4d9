//go:build linux

package memtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/memtrack/pkg/system/proc"
)

func entries() []Entry {
	return []Entry{
		{PID: 100, Name: "worker", Rec: proc.Record{RssKB: 5200, PssKB: 5000, SwapKB: 0, SwapPssKB: 0}},
		{PID: 200, Name: "worker", Rec: proc.Record{RssKB: 3100, PssKB: 3000, SwapKB: 100, SwapPssKB: 100}},
		{PID: 300, Name: "nginx", Rec: proc.Record{RssKB: 700, PssKB: 600, SwapKB: 8, SwapPssKB: 4}},
	}
}

func TestAggregateByPID_Identity(t *testing.T) {
	u := AggregateByPID(entries())
	require.Len(t, u, 3)

	t100 := u[Key{PID: 100, Name: "worker"}]
	assert.Equal(t, uint64(5000), t100.PssKB)
	assert.Equal(t, uint64(0), t100.SwapKB)
	assert.Equal(t, []int{100}, t100.PIDs)

	t200 := u[Key{PID: 200, Name: "worker"}]
	assert.Equal(t, uint64(3000), t200.PssKB)
	assert.Equal(t, uint64(100), t200.SwapKB)
}

func TestAggregateByName_Sums(t *testing.T) {
	u := AggregateByName(entries())
	require.Len(t, u, 2)

	w := u[Key{Name: "worker"}]
	assert.Equal(t, uint64(8000), w.PssKB)
	assert.Equal(t, uint64(8300), w.RssKB)
	assert.Equal(t, uint64(100), w.SwapKB)
	assert.Equal(t, uint64(100), w.SwapPssKB)
	assert.ElementsMatch(t, []int{100, 200}, w.PIDs)

	n := u[Key{Name: "nginx"}]
	assert.Equal(t, uint64(600), n.PssKB)
	assert.Equal(t, []int{300}, n.PIDs)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	in := entries()
	perms := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {0, 2, 1}}
	want := AggregateByName(in)
	for _, p := range perms {
		shuffled := []Entry{in[p[0]], in[p[1]], in[p[2]]}
		got := AggregateByName(shuffled)
		require.Len(t, got, len(want))
		for k, wt := range want {
			gt := got[k]
			assert.Equal(t, wt.RssKB, gt.RssKB, "perm %v key %v", p, k)
			assert.Equal(t, wt.PssKB, gt.PssKB, "perm %v key %v", p, k)
			assert.Equal(t, wt.SwapKB, gt.SwapKB, "perm %v key %v", p, k)
			assert.Equal(t, wt.SwapPssKB, gt.SwapPssKB, "perm %v key %v", p, k)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, AggregateByPID(nil))
	assert.Empty(t, AggregateByName(nil))
}

func TestUsage_Sum(t *testing.T) {
	u := AggregateByName(entries())
	sum := u.Sum()
	assert.Equal(t, uint64(8600), sum.PssKB)
	assert.Equal(t, uint64(9000), sum.RssKB)
	assert.Equal(t, uint64(108), sum.SwapKB)
	assert.Equal(t, []int{100, 200, 300}, sum.PIDs)
}

func TestUsage_SortedKeys(t *testing.T) {
	u := AggregateByName(entries())
	keys := u.SortedKeys()
	require.Len(t, keys, 2)
	// ascending by proportional size: nginx (600) before worker (8000)
	assert.Equal(t, "nginx", keys[0].Name)
	assert.Equal(t, "worker", keys[1].Name)
}

func TestTotals_ByteAccessors(t *testing.T) {
	tt := Totals{RssKB: 2, PssKB: 3, SwapKB: 4, SwapPssKB: 5}
	assert.EqualValues(t, 2*1024, tt.Rss())
	assert.EqualValues(t, 3*1024, tt.Pss())
	assert.EqualValues(t, 4*1024, tt.Swap())
	assert.EqualValues(t, 5*1024, tt.SwapPss())
}
