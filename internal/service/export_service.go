package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
	"github.com/takwin-center/takwin-api/pkg/export"
)

// ExportService renders the active timetable of a session as CSV or PDF.
type ExportService struct {
	timetables *TimetableService
	trainers   trainerDirectorySource
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	slots      int
}

// NewExportService wires the export dependencies.
func NewExportService(timetables *TimetableService, trainers trainerDirectorySource, logger *zap.Logger, slotsPerDay int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if slotsPerDay <= 0 {
		slotsPerDay = 6
	}
	return &ExportService{
		timetables: timetables,
		trainers:   trainers,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		slots:      slotsPerDay,
	}
}

// CSV renders the session's assignment list as a flat CSV table.
func (s *ExportService) CSV(ctx context.Context, sessionID int) ([]byte, error) {
	resp, err := s.timetables.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	dataset := export.Dataset{
		Headers: []string{"group", "day", "time", "module", "trainer"},
	}
	assignments := append([]timetable.Assignment(nil), resp.Assignments...)
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].GroupID != assignments[j].GroupID {
			return assignments[i].GroupID < assignments[j].GroupID
		}
		if assignments[i].DayIndex != assignments[j].DayIndex {
			return assignments[i].DayIndex < assignments[j].DayIndex
		}
		return assignments[i].HourIndex < assignments[j].HourIndex
	})
	for _, a := range assignments {
		dataset.Rows = append(dataset.Rows, []string{
			a.GroupID,
			strconv.Itoa(a.DayIndex + 1),
			timetable.SlotTime(a.HourIndex),
			moduleLabel(a.ModuleID),
			directory.DisplayName(a.ModuleID, a.TrainerKey),
		})
	}
	return s.csv.Render(dataset)
}

// PDF renders one grid page per group for the session's active timetable.
func (s *ExportService) PDF(ctx context.Context, sessionID int) ([]byte, error) {
	resp, err := s.timetables.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session, _ := catalog.SessionByID(sessionID)

	hourHead := make([]string, s.slots)
	for i := range hourHead {
		hourHead[i] = timetable.SlotTime(i)
	}

	groups := make([]string, 0, len(resp.GroupDays))
	for groupID := range resp.GroupDays {
		groups = append(groups, groupID)
	}
	sort.Strings(groups)

	pages := make([]export.GridPage, 0, len(groups))
	for _, groupID := range groups {
		page := export.GridPage{
			Title:    fmt.Sprintf("Group %s", groupID),
			HourHead: hourHead,
		}
		for _, day := range resp.GroupDays[groupID] {
			row := export.GridRow{
				Label: day.Date.Format("Mon 02 Jan 2006"),
				Cells: make([]string, s.slots),
			}
			for _, slot := range day.Slots {
				hour := timetable.SlotHour(slot.Time)
				if hour >= 0 && hour < s.slots {
					row.Cells[hour] = moduleLabel(slot.ModuleID)
				}
			}
			page.Rows = append(page.Rows, row)
		}
		pages = append(pages, page)
	}

	title := fmt.Sprintf("%s (%s to %s)", session.Name, session.StartDate, session.EndDate)
	return s.pdf.Render(title, pages)
}

func moduleLabel(moduleID int) string {
	if moduleID == timetable.MergeModuleID {
		return "Merged"
	}
	if m, ok := catalog.ModuleByID(moduleID); ok {
		return m.ShortTitle
	}
	return strconv.Itoa(moduleID)
}
