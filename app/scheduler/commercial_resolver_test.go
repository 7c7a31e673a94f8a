package scheduler

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/amirphl/airwave/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-15 09:10 UTC is slot 18
var slot18 = time.Date(2024, 1, 15, 9, 10, 0, 0, time.UTC)

func newResolver(campaigns []*models.Campaign, contents *fakeContents, logs *fakePlayLogs) *CommercialResolver {
	return NewCommercialResolver(&fakeCampaigns{campaigns: campaigns}, contents, logs, time.UTC, discardLogger)
}

func TestCommercialResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	contents := newFakeContents(commercial(1, "x", 30), commercial(2, "y", 30), commercial(3, "z", 20))

	t.Run("RepeatsContentListForRemainingPlays", func(t *testing.T) {
		logs := &fakePlayLogs{}
		require.NoError(t, logs.Save(ctx, &models.PlayLog{CampaignID: 7, SlotDate: "2024-01-15", SlotIndex: 18}))

		r := newResolver([]*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 3, 1, 2)}, contents, logs)
		plays, err := r.Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "x", "y"}, titlesOf(plays))
		for _, p := range plays {
			assert.Equal(t, "2024-01-15", p.SlotDate)
			assert.Equal(t, 18, p.SlotIndex)
		}
	})

	t.Run("RecordedPlaysAreNotResolvedAgain", func(t *testing.T) {
		logs := &fakePlayLogs{}
		r := newResolver([]*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 2, 1)}, contents, logs)

		plays, err := r.Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, plays, 2)
		for _, p := range plays {
			require.NoError(t, r.RecordPlay(ctx, p, models.PlayTriggerScheduler, slot18))
		}

		again, err := r.Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		assert.Empty(t, again)
		assert.Equal(t, models.PlayTriggerScheduler, logs.logs[0].TriggeredBy)
	})

	t.Run("OrdersByPriorityThenCampaignID", func(t *testing.T) {
		campaigns := []*models.Campaign{
			campaignWith(1, 1, "2024-01-15", 18, 1, 1),
			campaignWith(3, 9, "2024-01-15", 18, 1, 3),
			campaignWith(2, 9, "2024-01-15", 18, 1, 2),
		}
		plays, err := newResolver(campaigns, contents, &fakePlayLogs{}).Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"y", "z", "x"}, titlesOf(plays))
	})

	t.Run("ForceModeIgnoresPlayLog", func(t *testing.T) {
		logs := &fakePlayLogs{}
		for i := 0; i < 3; i++ {
			require.NoError(t, logs.Save(ctx, &models.PlayLog{CampaignID: 7, SlotDate: "2024-01-15", SlotIndex: 18}))
		}
		r := newResolver([]*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 2, 1)}, contents, logs)

		normal, err := r.Resolve(ctx, slot18, ResolveOptions{Mode: ModeNormal})
		require.NoError(t, err)
		assert.Empty(t, normal)

		forced, err := r.Resolve(ctx, slot18, ResolveOptions{Mode: ModeForce})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "x"}, titlesOf(forced))
	})

	t.Run("StopsAtLimits", func(t *testing.T) {
		campaigns := []*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 5, 1, 2)}
		r := newResolver(campaigns, contents, &fakePlayLogs{})

		byCount, err := r.Resolve(ctx, slot18, ResolveOptions{MaxCount: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "x"}, titlesOf(byCount))

		byDuration, err := r.Resolve(ctx, slot18, ResolveOptions{MaxDuration: 70 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, titlesOf(byDuration))
		assert.Equal(t, 60*time.Second, TotalDuration(byDuration))
	})

	t.Run("SkipsUnavailableContent", func(t *testing.T) {
		inactive := commercial(4, "off", 30)
		inactive.IsActive = new(bool)
		withInactive := newFakeContents(commercial(1, "x", 30), inactive)

		campaigns := []*models.Campaign{
			campaignWith(1, 9, "2024-01-15", 18, 1, 99),
			campaignWith(2, 5, "2024-01-15", 18, 1, 99, 4, 1),
		}
		plays, err := newResolver(campaigns, withInactive, &fakePlayLogs{}).Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, titlesOf(plays))
		assert.Equal(t, uint(2), plays[0].Campaign.ID)
	})

	t.Run("InlineFileRefs", func(t *testing.T) {
		c := campaignWith(7, 5, "2024-01-15", 18, 1)
		c.Name = "spring sale"
		c.ContentRefs = models.ContentRefs{{File: &models.ContentFile{StorageID: "ads/spring.mp3", DurationSeconds: 15}}}

		plays, err := newResolver([]*models.Campaign{c}, contents, &fakePlayLogs{}).Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, plays, 1)
		assert.Equal(t, "spring sale", plays[0].Content.Title)

		item := plays[0].QueueItem()
		assert.Equal(t, "ads/spring.mp3", item.StorageKey)
		assert.True(t, item.ScheduledCampaign)
		assert.Equal(t, uint(7), *item.CampaignID)
	})

	t.Run("OtherSlotsAndInactiveCampaignsContributeNothing", func(t *testing.T) {
		paused := campaignWith(2, 5, "2024-01-15", 18, 1, 2)
		paused.Status = models.CampaignStatusPaused
		campaigns := []*models.Campaign{campaignWith(1, 5, "2024-01-15", 19, 1, 1), paused}

		plays, err := newResolver(campaigns, contents, &fakePlayLogs{}).Resolve(ctx, slot18, ResolveOptions{})
		require.NoError(t, err)
		assert.Empty(t, plays)
	})

	t.Run("TypeFilters", func(t *testing.T) {
		promo := campaignWith(2, 9, "2024-01-15", 18, 1, 2)
		promo.Type = "promo"
		campaigns := []*models.Campaign{campaignWith(1, 5, "2024-01-15", 18, 1, 1), promo}
		r := newResolver(campaigns, contents, &fakePlayLogs{})

		included, err := r.Resolve(ctx, slot18, ResolveOptions{IncludeTypes: []string{"promo"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, titlesOf(included))

		excluded, err := r.Resolve(ctx, slot18, ResolveOptions{ExcludeTypes: []string{"promo"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, titlesOf(excluded))
	})
}

func TestCommercialResolver_WarnsWhenFirstSpotExceedsCap(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	contents := newFakeContents(commercial(1, "long spot", 90), commercial(2, "short", 20))
	campaigns := []*models.Campaign{
		campaignWith(1, 9, "2024-01-15", 18, 1, 1),
		campaignWith(2, 1, "2024-01-15", 18, 1, 2),
	}
	r := NewCommercialResolver(&fakeCampaigns{campaigns: campaigns}, contents, &fakePlayLogs{}, time.UTC, log.New(&buf, "", 0))

	plays, err := r.Resolve(ctx, slot18, ResolveOptions{MaxDuration: time.Minute})
	require.NoError(t, err)
	assert.Empty(t, plays)
	assert.Contains(t, buf.String(), `commercial "long spot" of campaign 1 runs 1m30s`)
	assert.Contains(t, buf.String(), "2024-01-15_18")

	buf.Reset()
	plays, err = r.Resolve(ctx, slot18, ResolveOptions{MaxDuration: 100 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, []string{"long spot"}, titlesOf(plays))
	assert.Empty(t, buf.String())
}

func TestSlotAt(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		loc  *time.Location
		want string
	}{
		{"Midnight", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), time.UTC, "2024-01-15_0"},
		{"FirstHalfHour", time.Date(2024, 1, 15, 9, 29, 59, 0, time.UTC), time.UTC, "2024-01-15_18"},
		{"SecondHalfHour", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), time.UTC, "2024-01-15_19"},
		{"LastSlot", time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC), time.UTC, "2024-01-15_47"},
		{"StationTimezone", time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC), tehran, "2024-01-16_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotAt(tt.at, tt.loc).Key())
		})
	}
}
