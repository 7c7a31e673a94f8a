package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sort"
	"time"

	"github.com/amirphl/airwave/models"
)

// ResolveMode selects whether prior plays in the slot are subtracted
type ResolveMode int

const (
	// ModeNormal subtracts plays already logged for the slot
	ModeNormal ResolveMode = iota
	// ModeForce ignores the play log and returns the full scheduled count
	ModeForce
)

func (m ResolveMode) String() string {
	if m == ModeForce {
		return "force"
	}
	return "normal"
}

// ResolveOptions bounds a resolution. Zero limits mean unbounded.
type ResolveOptions struct {
	Mode         ResolveMode
	MaxCount     int
	MaxDuration  time.Duration
	IncludeTypes []string
	ExcludeTypes []string
}

// ResolvedContent is one airable item of a campaign's content list
type ResolvedContent struct {
	ContentID       *uint
	StorageID       string
	Title           string
	Artist          string
	DurationSeconds int
	Metadata        json.RawMessage
}

func (c ResolvedContent) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// ResolvedPlay is one commercial due in a slot
type ResolvedPlay struct {
	Campaign  *models.Campaign
	Content   ResolvedContent
	SlotDate  string
	SlotIndex int
}

// QueueItem builds the queue entry that airs this play
func (p ResolvedPlay) QueueItem() *models.QueueItem {
	campaignID := p.Campaign.ID
	return &models.QueueItem{
		Title:             p.Content.Title,
		Artist:            p.Content.Artist,
		Type:              models.ContentTypeCommercial.String(),
		DurationSeconds:   p.Content.DurationSeconds,
		StorageKey:        p.Content.StorageID,
		Metadata:          p.Content.Metadata,
		ContentID:         p.Content.ContentID,
		CampaignID:        &campaignID,
		ScheduledCampaign: true,
	}
}

// TotalDuration sums the airtime of plays
func TotalDuration(plays []ResolvedPlay) time.Duration {
	var total time.Duration
	for _, p := range plays {
		total += p.Content.Duration()
	}
	return total
}

// CommercialResolver turns the campaign schedule grid into the ordered list
// of commercials due in the current slot.
type CommercialResolver struct {
	campaigns CampaignSource
	contents  ContentSource
	playLogs  PlayLogStore
	loc       *time.Location
	logger    *log.Logger
}

func NewCommercialResolver(campaigns CampaignSource, contents ContentSource, playLogs PlayLogStore, loc *time.Location, logger *log.Logger) *CommercialResolver {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CommercialResolver{
		campaigns: campaigns,
		contents:  contents,
		playLogs:  playLogs,
		loc:       loc,
		logger:    logger,
	}
}

// Location returns the station timezone slots are computed in
func (r *CommercialResolver) Location() *time.Location {
	return r.loc
}

// Resolve returns the commercials due at now. Campaigns are visited by priority
// descending, then campaign id ascending; each contributes its full content list
// once per remaining play. Resolution stops at the first item that would exceed
// MaxCount or MaxDuration.
func (r *CommercialResolver) Resolve(ctx context.Context, now time.Time, opts ResolveOptions) ([]ResolvedPlay, error) {
	slot := SlotAt(now, r.loc)

	campaigns, err := r.campaigns.ListEligible(ctx, slot.Date, opts.IncludeTypes, opts.ExcludeTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible campaigns: %w", err)
	}
	campaigns = filterCampaigns(campaigns, slot.Date, opts.IncludeTypes, opts.ExcludeTypes)
	sortCampaigns(campaigns)

	var (
		plays []ResolvedPlay
		total time.Duration
	)
	for _, c := range campaigns {
		entry := c.ScheduleEntryFor(slot.Date, slot.Index)
		if entry == nil || entry.PlayCount <= 0 {
			continue
		}

		remaining := entry.PlayCount
		if opts.Mode == ModeNormal {
			played, err := r.playLogs.CountForSlot(ctx, c.ID, slot.Date, slot.Index)
			if err != nil {
				return nil, fmt.Errorf("failed to count plays for campaign %d: %w", c.ID, err)
			}
			remaining -= int(played)
		}
		if remaining <= 0 {
			continue
		}

		contents, err := r.resolveContents(ctx, c)
		if err != nil {
			return nil, err
		}
		if len(contents) == 0 {
			r.logger.Printf("campaign %d (%s) has no airable content, skipping slot %s", c.ID, c.Name, slot.Key())
			continue
		}

		for rep := 0; rep < remaining; rep++ {
			for _, content := range contents {
				if opts.MaxCount > 0 && len(plays) >= opts.MaxCount {
					return plays, nil
				}
				if opts.MaxDuration > 0 && total+content.Duration() > opts.MaxDuration {
					if len(plays) == 0 {
						r.logger.Printf("commercial %q of campaign %d runs %s, over the %s slot cap; nothing resolved for slot %s",
							content.Title, c.ID, content.Duration(), opts.MaxDuration, slot.Key())
					}
					return plays, nil
				}
				plays = append(plays, ResolvedPlay{
					Campaign:  c,
					Content:   content,
					SlotDate:  slot.Date,
					SlotIndex: slot.Index,
				})
				total += content.Duration()
			}
		}
	}

	return plays, nil
}

// RecordPlay commits one play to the log. It is the only place plays are counted.
func (r *CommercialResolver) RecordPlay(ctx context.Context, play ResolvedPlay, trigger models.PlayTrigger, playedAt time.Time) error {
	entry := &models.PlayLog{
		CampaignID:  play.Campaign.ID,
		ContentID:   play.Content.ContentID,
		Title:       play.Content.Title,
		SlotDate:    play.SlotDate,
		SlotIndex:   play.SlotIndex,
		PlayedAt:    playedAt.UTC(),
		TriggeredBy: trigger,
	}
	if play.Content.ContentID == nil && play.Content.StorageID != "" {
		storageID := play.Content.StorageID
		entry.StorageID = &storageID
	}

	if err := r.playLogs.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to record play of campaign %d: %w", play.Campaign.ID, err)
	}
	commercialsDispatched.WithLabelValues(string(trigger)).Inc()
	return nil
}

// resolveContents expands a campaign's content refs. Refs that point at missing
// or inactive catalog items are dropped with a warning.
func (r *CommercialResolver) resolveContents(ctx context.Context, c *models.Campaign) ([]ResolvedContent, error) {
	var ids []uint
	for _, ref := range c.ContentRefs {
		if ref.ContentID != nil {
			ids = append(ids, *ref.ContentID)
		}
	}

	catalog := map[uint]*models.Content{}
	if len(ids) > 0 {
		found, err := r.contents.ByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load content for campaign %d: %w", c.ID, err)
		}
		catalog = found
	}

	out := make([]ResolvedContent, 0, len(c.ContentRefs))
	for i, ref := range c.ContentRefs {
		switch {
		case ref.ContentID != nil:
			content, ok := catalog[*ref.ContentID]
			if !ok || content == nil || (content.IsActive != nil && !*content.IsActive) {
				r.logger.Printf("campaign %d content ref %d: content %d unavailable, skipping", c.ID, i, *ref.ContentID)
				continue
			}
			id := content.ID
			out = append(out, ResolvedContent{
				ContentID:       &id,
				StorageID:       content.StorageKey,
				Title:           content.Title,
				Artist:          content.Artist,
				DurationSeconds: content.DurationSeconds,
				Metadata:        content.Metadata,
			})
		case ref.File != nil && ref.File.StorageID != "":
			title := ref.File.Title
			if title == "" {
				title = c.Name
			}
			out = append(out, ResolvedContent{
				StorageID:       ref.File.StorageID,
				Title:           title,
				DurationSeconds: ref.File.DurationSeconds,
			})
		default:
			r.logger.Printf("campaign %d content ref %d is empty, skipping", c.ID, i)
		}
	}
	return out, nil
}

func filterCampaigns(in []*models.Campaign, date string, includeTypes, excludeTypes []string) []*models.Campaign {
	out := in[:0:0]
	for _, c := range in {
		if c == nil || !c.IsEligibleOn(date) {
			continue
		}
		if len(includeTypes) > 0 && !slices.Contains(includeTypes, c.Type) {
			continue
		}
		if slices.Contains(excludeTypes, c.Type) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sortCampaigns(cs []*models.Campaign) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Priority != cs[j].Priority {
			return cs[i].Priority > cs[j].Priority
		}
		return cs[i].ID < cs[j].ID
	})
}
