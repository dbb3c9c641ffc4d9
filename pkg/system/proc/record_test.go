//go:build linux

package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smapsTwoMappings carries two mapping entries whose fields must be summed:
// Rss 4+96, Pss 2+64, Swap 0+12, SwapPss 0+8.
const smapsTwoMappings = `55d0a0000000-55d0a0001000 r-xp 00000000 fd:01 131  /usr/bin/worker
Size:                  8 kB
Rss:                   4 kB
Pss:                   2 kB
Shared_Clean:          4 kB
Swap:                  0 kB
SwapPss:               0 kB
VmFlags: rd ex mr mw me
7ffd0dfff000-7ffd0e000000 rw-p 00000000 00:00 0    [stack]
Size:                132 kB
Rss:                  96 kB
Pss:                  64 kB
Private_Dirty:        96 kB
Swap:                 12 kB
SwapPss:               8 kB
VmFlags: rd wr mr mw me gd ac
`

func smapsDesc() *Descriptor {
	return &Descriptor{Source: SourceSmaps, HasPSS: true, HasSwapPSS: true}
}

func TestReadRecord_Rollup(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{"smaps_rollup": rollupFull})

	rec, err := ReadRecord(100, smapsDesc())
	require.NoError(t, err)
	assert.Equal(t, Record{RssKB: 5200, PssKB: 5000, SwapKB: 0, SwapPssKB: 0}, rec)
}

func TestReadRecord_SmapsSummed(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{"smaps": smapsTwoMappings})

	rec, err := ReadRecord(100, smapsDesc())
	require.NoError(t, err)
	assert.Equal(t, Record{RssKB: 100, PssKB: 66, SwapKB: 12, SwapPssKB: 8}, rec)
}

func TestReadRecord_RollupPreferredOverSmaps(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{
		"smaps_rollup": rollupFull,
		"smaps":        smapsTwoMappings,
	})

	rec, err := ReadRecord(100, smapsDesc())
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), rec.PssKB)
}

func TestReadRecord_NoSource(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{"status": "Name:\tx\nPPid:\t1\n"})

	_, err := ReadRecord(100, smapsDesc())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMemRecord)
	var lp *LostPid
	require.ErrorAs(t, err, &lp)
	assert.Equal(t, 100, lp.PID)
}

func TestReadRecord_Statm(t *testing.T) {
	f := newFixture(t)
	t.Setenv("PAGE_SIZE", "4096")
	// resident 100 pages, shared 30 pages
	f.addPid(100, map[string]string{"statm": "2000 100 30 50 0 500 0\n"})

	d := &Descriptor{Source: SourceStatm, Formula: FormulaShared}
	rec, err := ReadRecord(100, d)
	require.NoError(t, err)
	assert.Equal(t, Record{RssKB: 400, PssKB: 280}, rec)

	d.Formula = FormulaResident
	rec, err = ReadRecord(100, d)
	require.NoError(t, err)
	assert.Equal(t, Record{RssKB: 400, PssKB: 400}, rec)
}

func TestReadRecord_Statm_SharedExceedsResident(t *testing.T) {
	f := newFixture(t)
	t.Setenv("PAGE_SIZE", "4096")
	f.addPid(100, map[string]string{"statm": "2000 10 30 50 0 500 0\n"})

	rec, err := ReadRecord(100, &Descriptor{Source: SourceStatm, Formula: FormulaShared})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rec.PssKB)
	assert.Equal(t, uint64(40), rec.RssKB)
}

func TestReadRecord_Statm_Malformed(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"short":      "2000 100\n",
		"nonnumeric": "2000 abc 30\n",
		"empty":      "",
	}
	pid := 100
	for name, content := range cases {
		pid++
		f.addPid(pid, map[string]string{"statm": content})
		_, err := ReadRecord(pid, &Descriptor{Source: SourceStatm})
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrBadStatm, name)
	}
}

func TestReadRecord_Statm_Missing(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{})

	_, err := ReadRecord(100, &Descriptor{Source: SourceStatm})
	assert.ErrorIs(t, err, ErrNoMemRecord)
}

func TestReadSmapsFile_Unrecognized(t *testing.T) {
	f := newFixture(t)
	f.addPid(100, map[string]string{"smaps": "not an smaps file\n"})

	_, err := readSmapsFile(pidPath(100, "smaps"))
	require.Error(t, err)
}
