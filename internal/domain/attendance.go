package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	StatusPresent = "Present"
)

// AttendanceKey identifica "aluno já marcado nesta aula hoje".
type AttendanceKey struct {
	StudentID string
	Date      string
	Lecture   int
}

func (k AttendanceKey) String() string {
	return fmt.Sprintf("%s_%s_%d", k.StudentID, k.Date, k.Lecture)
}

// AttendanceRecord is written once per successful mark.
type AttendanceRecord struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Date        string    `json:"date"`
	Lecture     int       `json:"lecture"`
	Time        time.Time `json:"time"`
	Confidence  float64   `json:"confidence"`
	Status      string    `json:"status"`
}

func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{StudentID: r.StudentID, Date: r.Date, Lecture: r.Lecture}
}

// LectureField é o nome da célula de status, ex.: "lecture3".
func LectureField(lecture int) string {
	return "lecture" + strconv.Itoa(lecture)
}

// ParseLectureField is the inverse of LectureField.
func ParseLectureField(field string) (int, bool) {
	rest, ok := strings.CutPrefix(field, "lecture")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// AttendanceSheet espelha a coleção attendance: data -> aluno -> "lectureN" -> status.
type AttendanceSheet map[string]map[string]map[string]string

func (s AttendanceSheet) Set(date, studentID string, lecture int, status string) {
	day, ok := s[date]
	if !ok {
		day = make(map[string]map[string]string)
		s[date] = day
	}
	cells, ok := day[studentID]
	if !ok {
		cells = make(map[string]string)
		day[studentID] = cells
	}
	cells[LectureField(lecture)] = status
}

// ReportFilter restringe o relatório por curso e intervalo de datas (inclusivo).
type ReportFilter struct {
	Stream    string
	StartDate string
	EndDate   string
}

func (f ReportFilter) Validate() error {
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return ErrInvalidDate.WithError(err)
		}
	}
	return nil
}

// ReportRow is one (date, student) line of the attendance report.
type ReportRow struct {
	Date        string            `json:"date"`
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	Stream      string            `json:"stream"`
	Lectures    map[string]string `json:"lectures"`
}
