package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/johnrirwin/streamforge/internal/models"
)

// Age band boundaries for arrangement. Recency dominates ordering, but
// ordering within a band is randomized and a little old content is
// spliced near the top for variety.
const (
	veryNewAge = 6 * time.Hour
	newAge     = 24 * time.Hour

	varietyWindow = 10
	varietyKeep   = 5
	varietySplice = 3
)

// ShuffleRanker produces the final feed ordering from a candidate batch.
type ShuffleRanker struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewShuffleRanker creates a ranker with a time-seeded random source.
func NewShuffleRanker() *ShuffleRanker {
	return &ShuffleRanker{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// NewShuffleRankerWithRand is exposed for deterministic tests.
func NewShuffleRankerWithRand(rng *rand.Rand, now func() time.Time) *ShuffleRanker {
	return &ShuffleRanker{rng: rng, now: now}
}

// Arrange orders a fresh candidate batch: partition into three age
// bands, shuffle within each band, concatenate newest-first, then
// splice limited variety into the top slice. Truncates to limit.
func (r *ShuffleRanker) Arrange(videos []models.Video, limit int) []models.Video {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(videos) == 0 {
		return nil
	}

	now := r.now()
	var veryNew, recent, older []models.Video
	for _, v := range videos {
		switch age := v.Age(now); {
		case age < veryNewAge:
			veryNew = append(veryNew, v)
		case age < newAge:
			recent = append(recent, v)
		default:
			older = append(older, v)
		}
	}

	r.shuffle(veryNew)
	r.shuffle(recent)
	r.shuffle(older)

	ordered := make([]models.Video, 0, len(videos))
	ordered = append(ordered, veryNew...)
	ordered = append(ordered, recent...)
	ordered = append(ordered, older...)

	ordered = r.spliceVariety(ordered, older)

	return truncate(ordered, limit)
}

// Reshuffle is the cheaper two-band variant used when re-serving an
// already-cached batch: last-24h content first, older after, each band
// freshly shuffled so repeated reads don't look identical.
func (r *ShuffleRanker) Reshuffle(videos []models.Video, limit int) []models.Video {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(videos) == 0 {
		return nil
	}

	now := r.now()
	var recent, older []models.Video
	for _, v := range videos {
		if v.Age(now) < newAge {
			recent = append(recent, v)
		} else {
			older = append(older, v)
		}
	}

	r.shuffle(recent)
	r.shuffle(older)

	ordered := make([]models.Video, 0, len(videos))
	ordered = append(ordered, recent...)
	ordered = append(ordered, older...)

	return truncate(ordered, limit)
}

// spliceVariety reworks the head of the concatenated list: shuffle the
// top 10, keep 5, and when at least 3 older items exist mix 3 of them
// into that top slice so old content stays reachable near the front.
func (r *ShuffleRanker) spliceVariety(ordered, older []models.Video) []models.Video {
	window := varietyWindow
	if window > len(ordered) {
		window = len(ordered)
	}
	if window == 0 {
		return ordered
	}

	top := make([]models.Video, window)
	copy(top, ordered[:window])
	r.shuffle(top)

	keep := varietyKeep
	if keep > len(top) {
		keep = len(top)
	}
	head := top[:keep]

	if len(older) >= varietySplice {
		inHead := make(map[string]bool, len(head))
		for _, v := range head {
			inHead[v.ID] = true
		}
		spliced := 0
		for _, v := range older {
			if spliced == varietySplice {
				break
			}
			if !inHead[v.ID] {
				head = append(head, v)
				spliced++
			}
		}
		r.shuffle(head)
	}

	kept := make(map[string]bool, len(head))
	for _, v := range head {
		kept[v.ID] = true
	}

	result := make([]models.Video, 0, len(ordered))
	result = append(result, head...)
	for _, v := range ordered {
		if !kept[v.ID] {
			result = append(result, v)
		}
	}
	return result
}

func (r *ShuffleRanker) shuffle(videos []models.Video) {
	r.rng.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})
}

func truncate(videos []models.Video, limit int) []models.Video {
	if limit > 0 && len(videos) > limit {
		return videos[:limit]
	}
	return videos
}
