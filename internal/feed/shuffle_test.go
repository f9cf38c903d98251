package feed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/johnrirwin/streamforge/internal/models"
)

func newTestRanker(seed int64) *ShuffleRanker {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return NewShuffleRankerWithRand(rand.New(rand.NewSource(seed)), func() time.Time { return base })
}

// bandedBatch builds a batch relative to the test ranker's fixed clock.
func bandedBatch(veryNew, recent, older int) []models.Video {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	var videos []models.Video
	add := func(prefix string, n int, age time.Duration) {
		for i := 0; i < n; i++ {
			v := testVideo(prefix+string(rune('a'+i%26))+string(rune('0'+i/26)), "owner", 0)
			v.CreatedAt = base.Add(-age - time.Duration(i)*time.Minute)
			videos = append(videos, v)
		}
	}
	add("vn-", veryNew, time.Hour)
	add("rc-", recent, 12*time.Hour)
	add("od-", older, 48*time.Hour)
	return videos
}

func band(id string) int {
	switch id[:3] {
	case "vn-":
		return 0
	case "rc-":
		return 1
	default:
		return 2
	}
}

func TestArrange_PreservesSet(t *testing.T) {
	ranker := newTestRanker(1)
	batch := bandedBatch(10, 10, 10)

	arranged := ranker.Arrange(batch, 0)
	if len(arranged) != len(batch) {
		t.Fatalf("Arrange() returned %d videos, want %d", len(arranged), len(batch))
	}

	in := resultIDs(batch)
	out := resultIDs(arranged)
	if len(out) != len(arranged) {
		t.Error("Arrange() produced duplicate videos")
	}
	for id := range in {
		if !out[id] {
			t.Errorf("Arrange() dropped video %q", id)
		}
	}
}

func TestArrange_Truncates(t *testing.T) {
	ranker := newTestRanker(1)
	batch := bandedBatch(10, 10, 10)

	arranged := ranker.Arrange(batch, 7)
	if len(arranged) != 7 {
		t.Errorf("Arrange() returned %d videos, want 7", len(arranged))
	}
}

func TestArrange_Empty(t *testing.T) {
	ranker := newTestRanker(1)
	if got := ranker.Arrange(nil, 10); got != nil {
		t.Errorf("Arrange(nil) = %v, want nil", got)
	}
}

// Beyond the variety head, the arrangement keeps strict age-band order:
// under-6h before 6-24h before older.
func TestArrange_TailKeepsBandOrder(t *testing.T) {
	ranker := newTestRanker(2)
	batch := bandedBatch(20, 20, 20)

	arranged := ranker.Arrange(batch, 0)

	headLen := varietyKeep + varietySplice
	lastBand := 0
	for _, v := range arranged[headLen:] {
		b := band(v.ID)
		if b < lastBand {
			t.Fatalf("band order regressed at video %q", v.ID)
		}
		lastBand = b
	}
}

// Fresh content dominates the front of the feed across runs even with
// old items spliced in for variety.
func TestArrange_FreshContentLeads(t *testing.T) {
	ranker := newTestRanker(3)
	batch := bandedBatch(20, 20, 20)

	veryNewInFront, olderInFront := 0, 0
	const runs = 100
	half := len(batch) / 2
	for i := 0; i < runs; i++ {
		arranged := ranker.Arrange(batch, 0)
		for _, v := range arranged[:half] {
			switch band(v.ID) {
			case 0:
				veryNewInFront++
			case 2:
				olderInFront++
			}
		}
	}
	if veryNewInFront <= olderInFront {
		t.Errorf("front half held %d very-new vs %d older placements; fresh content should lead", veryNewInFront, olderInFront)
	}
}

func TestArrange_OrderVaries(t *testing.T) {
	ranker := newTestRanker(4)
	batch := bandedBatch(15, 15, 15)

	first := models.VideoIDs(ranker.Arrange(batch, 0))
	varied := false
	for i := 0; i < 5 && !varied; i++ {
		next := models.VideoIDs(ranker.Arrange(batch, 0))
		for j := range first {
			if first[j] != next[j] {
				varied = true
				break
			}
		}
	}
	if !varied {
		t.Error("repeated arrangements never changed order")
	}
}

func TestReshuffle_RecentBeforeOlder(t *testing.T) {
	ranker := newTestRanker(5)
	batch := bandedBatch(5, 5, 5)

	shuffled := ranker.Reshuffle(batch, 0)
	if len(shuffled) != len(batch) {
		t.Fatalf("Reshuffle() returned %d videos, want %d", len(shuffled), len(batch))
	}

	sawOlder := false
	for _, v := range shuffled {
		if band(v.ID) == 2 {
			sawOlder = true
		} else if sawOlder {
			t.Fatalf("recent video %q placed after older content", v.ID)
		}
	}
}

func TestReshuffle_PreservesSetAndTruncates(t *testing.T) {
	ranker := newTestRanker(6)
	batch := bandedBatch(4, 4, 4)

	shuffled := ranker.Reshuffle(batch, 0)
	out := resultIDs(shuffled)
	if len(out) != len(batch) {
		t.Errorf("Reshuffle() produced %d distinct videos, want %d", len(out), len(batch))
	}
	for _, v := range batch {
		if !out[v.ID] {
			t.Errorf("Reshuffle() dropped video %q", v.ID)
		}
	}

	if got := ranker.Reshuffle(batch, 5); len(got) != 5 {
		t.Errorf("Reshuffle() returned %d videos, want 5", len(got))
	}
}
