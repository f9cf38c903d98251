package models

import (
	"testing"
	"time"
)

func TestVideo_FeedEligible(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		video Video
		want  bool
	}{
		{
			name: "public available with owner",
			video: Video{
				ID: "v1", OwnerID: "u1", CreatedAt: now,
				Visibility: VisibilityPublic, Status: VideoStatusAvailable,
			},
			want: true,
		},
		{
			name: "owner snapshot only",
			video: Video{
				ID: "v2", OwnerName: "deleted-user", CreatedAt: now,
				Visibility: VisibilityPublic, Status: VideoStatusAvailable,
			},
			want: true,
		},
		{
			name: "no owner reference at all",
			video: Video{
				ID: "v3", CreatedAt: now,
				Visibility: VisibilityPublic, Status: VideoStatusAvailable,
			},
			want: false,
		},
		{
			name: "private",
			video: Video{
				ID: "v4", OwnerID: "u1", CreatedAt: now,
				Visibility: VisibilityPrivate, Status: VideoStatusAvailable,
			},
			want: false,
		},
		{
			name: "still pending",
			video: Video{
				ID: "v5", OwnerID: "u1", CreatedAt: now,
				Visibility: VisibilityPublic, Status: VideoStatusPending,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.video.FeedEligible(); got != tt.want {
				t.Errorf("FeedEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFeedType(t *testing.T) {
	tests := []struct {
		input   string
		want    FeedType
		wantErr bool
	}{
		{"mixed", FeedMixed, false},
		{"following", FeedFollowing, false},
		{"sport", FeedSport, false},
		{"", FeedMixed, false},
		{"trending", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFeedType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFeedType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFeedType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSortOrder_Less(t *testing.T) {
	older := &Video{ID: "old", CreatedAt: time.Now().Add(-48 * time.Hour), TrendingScore: 90, Likes: 100}
	newer := &Video{ID: "new", CreatedAt: time.Now().Add(-1 * time.Hour), TrendingScore: 10, Likes: 5}

	if !SortRecencyTrending.Less(newer, older) {
		t.Error("SortRecencyTrending should rank newer content first")
	}
	if !SortTrendingRecency.Less(older, newer) {
		t.Error("SortTrendingRecency should rank higher trending first")
	}
	if !SortRecencyLikes.Less(newer, older) {
		t.Error("SortRecencyLikes should rank newer content first")
	}
	if !SortTrending.Less(older, newer) {
		t.Error("SortTrending should rank higher trending first")
	}

	engaged := &Video{ID: "a", EngagementScore: 50, CreatedAt: time.Now()}
	quiet := &Video{ID: "b", EngagementScore: 1, CreatedAt: time.Now()}
	if !SortEngagementWeighted.Less(engaged, quiet) {
		t.Error("SortEngagementWeighted should rank higher engagement first")
	}
}

func TestSortOrder_Composite(t *testing.T) {
	if !SortEngagementWeighted.Composite() {
		t.Error("SortEngagementWeighted should require composite sort support")
	}
	if SortRecencyTrending.Composite() {
		t.Error("SortRecencyTrending should not require composite sort support")
	}
}

func TestVideoIDs(t *testing.T) {
	videos := []Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ids := VideoIDs(videos)
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("VideoIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("VideoIDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
