package businessflow

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/amirphl/airwave/utils"
	"github.com/xuri/excelize/v2"
)

const maxReportDays = 31

// ReportFlow builds proof-of-play workbooks
type ReportFlow interface {
	PlayLogReport(ctx context.Context, req *dto.PlayLogReportRequest) (string, []byte, error)
}

// ReportFlowImpl implements ReportFlow
type ReportFlowImpl struct {
	playLogRepo  repository.PlayLogRepository
	historyRepo  repository.PlayHistoryRepository
	campaignRepo repository.CampaignRepository
	loc          *time.Location
}

func NewReportFlow(
	playLogRepo repository.PlayLogRepository,
	historyRepo repository.PlayHistoryRepository,
	campaignRepo repository.CampaignRepository,
	loc *time.Location,
) ReportFlow {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportFlowImpl{
		playLogRepo:  playLogRepo,
		historyRepo:  historyRepo,
		campaignRepo: campaignRepo,
		loc:          loc,
	}
}

// PlayLogReport returns a workbook with a per-campaign summary, every
// commercial play and everything else that aired between the two station days.
func (f *ReportFlowImpl) PlayLogReport(ctx context.Context, req *dto.PlayLogReportRequest) (string, []byte, error) {
	from, err := utils.ParseDate(req.From, f.loc)
	if err != nil {
		return "", nil, NewBusinessErrorf("INVALID_DATE", "invalid date %q", ErrInvalidDate, req.From)
	}
	to, err := utils.ParseDate(req.To, f.loc)
	if err != nil {
		return "", nil, NewBusinessErrorf("INVALID_DATE", "invalid date %q", ErrInvalidDate, req.To)
	}
	if from.After(to) {
		return "", nil, NewBusinessError("INVALID_DATE_RANGE", "from must not be after to", ErrStartDateAfterEndDate)
	}
	end := to.AddDate(0, 0, 1)
	if end.Sub(from) > maxReportDays*24*time.Hour+time.Hour {
		return "", nil, NewBusinessErrorf("REPORT_RANGE_TOO_LARGE", "report range must not exceed %d days", ErrReportRangeTooLarge, maxReportDays)
	}

	// PlayedBefore is exclusive
	plays, err := f.playLogRepo.ByFilter(ctx, models.PlayLogFilter{PlayedAfter: &from, PlayedBefore: &end}, "played_at ASC, id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_PLAY_LOGS_FAILED", "Failed to fetch play logs", err)
	}
	history, err := f.historyRepo.ByFilter(ctx, models.PlayHistoryFilter{PlayedAfter: &from, PlayedBefore: &end}, "played_at ASC, id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_PLAY_HISTORY_FAILED", "Failed to fetch play history", err)
	}
	names, err := f.campaignNames(ctx, plays)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	summary := sanitizeSheetName("campaign summary")
	xl.SetSheetName(xl.GetSheetName(0), summary)
	f.writeSummary(xl, summary, plays, names)

	playSheet := sanitizeSheetName("campaign plays")
	_, _ = xl.NewSheet(playSheet)
	f.writePlays(xl, playSheet, plays, names)

	musicSheet := sanitizeSheetName("music history")
	_, _ = xl.NewSheet(musicSheet)
	f.writeHistory(xl, musicSheet, history)

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("play_logs_%s_%s.xlsx", req.From, req.To)
	return filename, buf.Bytes(), nil
}

func (f *ReportFlowImpl) writeSummary(xl *excelize.File, sheet string, plays []*models.PlayLog, names map[uint]string) {
	header := []string{"campaign_id", "campaign_name", "plays", "scheduler", "manual", "flow"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	type tally struct{ total, scheduler, manual, flow int }
	counts := map[uint]*tally{}
	for _, p := range plays {
		t, ok := counts[p.CampaignID]
		if !ok {
			t = &tally{}
			counts[p.CampaignID] = t
		}
		t.total++
		switch p.TriggeredBy {
		case models.PlayTriggerScheduler:
			t.scheduler++
		case models.PlayTriggerManual:
			t.manual++
		case models.PlayTriggerFlow:
			t.flow++
		}
	}

	ids := make([]uint, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for ri, id := range ids {
		t := counts[id]
		record := []any{id, names[id], t.total, t.scheduler, t.manual, t.flow}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}
}

func (f *ReportFlowImpl) writePlays(xl *excelize.File, sheet string, plays []*models.PlayLog, names map[uint]string) {
	header := []string{"id", "played_at", "slot_date", "slot_index", "campaign_id", "campaign_name", "content_id", "storage_id", "title", "triggered_by"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, p := range plays {
		contentID := ""
		if p.ContentID != nil {
			contentID = strconv.FormatUint(uint64(*p.ContentID), 10)
		}
		storageID := ""
		if p.StorageID != nil {
			storageID = *p.StorageID
		}
		record := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.PlayedAt.In(f.loc).Format(time.RFC3339),
			p.SlotDate,
			strconv.Itoa(p.SlotIndex),
			strconv.FormatUint(uint64(p.CampaignID), 10),
			names[p.CampaignID],
			contentID,
			storageID,
			p.Title,
			string(p.TriggeredBy),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}
}

func (f *ReportFlowImpl) writeHistory(xl *excelize.File, sheet string, history []*models.PlayHistory) {
	header := []string{"played_at", "title", "artist", "type", "duration_seconds", "content_id", "source"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	ri := 0
	for _, h := range history {
		if h.Type == models.ContentTypeCommercial.String() {
			continue
		}
		contentID := ""
		if h.ContentID != nil {
			contentID = strconv.FormatUint(uint64(*h.ContentID), 10)
		}
		record := []string{
			h.PlayedAt.In(f.loc).Format(time.RFC3339),
			h.Title,
			h.Artist,
			h.Type,
			strconv.Itoa(h.DurationSeconds),
			contentID,
			string(h.Source),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
		ri++
	}
}

func (f *ReportFlowImpl) campaignNames(ctx context.Context, plays []*models.PlayLog) (map[uint]string, error) {
	names := map[uint]string{}
	for _, p := range plays {
		if _, ok := names[p.CampaignID]; ok {
			continue
		}
		c, err := f.campaignRepo.ByID(ctx, p.CampaignID)
		if err != nil {
			return nil, NewBusinessError("FETCH_CAMPAIGNS_FAILED", "Failed to fetch campaigns", err)
		}
		if c == nil {
			names[p.CampaignID] = fmt.Sprintf("campaign_%d", p.CampaignID)
			continue
		}
		names[p.CampaignID] = c.Name
	}
	return names, nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \\ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := replacer.Replace(name)
	return truncateSheetName(strings.TrimSpace(safe))
}

func truncateSheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	if name == "" {
		return "Sheet"
	}
	return name
}
