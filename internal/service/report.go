package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

type AttendanceReader interface {
	store.StudentStore
	store.AttendanceStore
	store.FestivalStore
}

// ReportService answers the read-only dashboard queries.
type ReportService struct {
	store AttendanceReader
}

func NewReportService(st AttendanceReader) *ReportService {
	return &ReportService{store: st}
}

func (s *ReportService) Sheet(ctx context.Context) (domain.AttendanceSheet, error) {
	sheet, err := s.store.AttendanceSheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	if sheet == nil {
		sheet = domain.AttendanceSheet{}
	}
	return sheet, nil
}

// Logs returns the recognition log for date; empty date means every day.
func (s *ReportService) Logs(ctx context.Context, date string) ([]domain.AttendanceRecord, error) {
	if date != "" {
		if err := (domain.ReportFilter{StartDate: date}).Validate(); err != nil {
			return nil, err
		}
	}
	logs, err := s.store.AttendanceLogs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("attendance logs: %w", err)
	}
	if logs == nil {
		logs = []domain.AttendanceRecord{}
	}
	return logs, nil
}

func (s *ReportService) Festivals(ctx context.Context) (map[string]domain.Festival, error) {
	f, err := s.store.Festivals(ctx)
	if err != nil {
		return nil, fmt.Errorf("festivals: %w", err)
	}
	if f == nil {
		f = map[string]domain.Festival{}
	}
	return f, nil
}

// Report junta a planilha de presença com os dados dos alunos. Datas são
// comparadas como texto YYYY-MM-DD, limites inclusivos.
func (s *ReportService) Report(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	sheet, err := s.Sheet(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	byID := make(map[string]domain.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	rows := []domain.ReportRow{}
	for date, day := range sheet {
		if filter.StartDate != "" && date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && date > filter.EndDate {
			continue
		}
		for id, lectures := range day {
			st, known := byID[id]
			if filter.Stream != "" && st.Stream != filter.Stream {
				continue
			}
			name := st.Name
			if !known || name == "" {
				name = domain.UnknownName
			}
			rows = append(rows, domain.ReportRow{
				Date:        date,
				StudentID:   id,
				StudentName: name,
				Stream:      st.Stream,
				Lectures:    lectures,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	return rows, nil
}
