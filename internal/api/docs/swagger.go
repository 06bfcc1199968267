package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// MessageResponse is returned by login, enrollment and deletion.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Student registered successfully"`
}

// StudentData is a student without its face encoding.
type StudentData struct {
	ID             string `json:"id" example:"S1"`
	Name           string `json:"name" example:"Alice"`
	Email          string `json:"email,omitempty" example:"alice@example.com"`
	Phone          string `json:"phone,omitempty" example:"+91 90000 00000"`
	Stream         string `json:"stream,omitempty" example:"BCA"`
	EnrollmentDate string `json:"enrollmentDate,omitempty" example:"2024-01-15"`
	PhotoPath      string `json:"photo_path,omitempty" example:"S1.jpg"`
	HasEncoding    bool   `json:"has_encoding" example:"true"`
}

// StudentsResponse maps student id to student.
type StudentsResponse map[string]StudentData

type CreateStudentResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Student registered successfully"`
	Student StudentData `json:"student"`
}

// AttendanceSheetResponse is date -> student id -> lectureN -> status.
type AttendanceSheetResponse map[string]map[string]map[string]string

type ReportRow struct {
	Date        string            `json:"date" example:"2024-03-01"`
	StudentID   string            `json:"student_id" example:"S1"`
	StudentName string            `json:"student_name" example:"Alice"`
	Stream      string            `json:"stream" example:"BCA"`
	Lectures    map[string]string `json:"lectures"`
}

type AttendanceLog struct {
	StudentID   string  `json:"student_id" example:"S1"`
	StudentName string  `json:"student_name" example:"Alice"`
	Date        string  `json:"date" example:"2024-03-01"`
	Lecture     int     `json:"lecture" example:"2"`
	Time        string  `json:"time" example:"2024-03-01T10:05:00+05:30"`
	Confidence  float64 `json:"confidence" example:"0.95"`
	Status      string  `json:"status" example:"Present"`
}

type SystemStatusResponse struct {
	Laptop1  string `json:"laptop1" example:"Connected"`
	Laptop2  string `json:"laptop2" example:"connected"`
	Firebase string `json:"firebase" example:"Connected"`
	LastSync string `json:"last_sync" example:"2024-03-01T10:05:00+05:30"`
}

type Festival struct {
	Name        string `json:"name" example:"Holi"`
	Description string `json:"description,omitempty" example:"Festival of colours"`
	Type        string `json:"type,omitempty" example:"holiday"`
}

type FestivalsResponse map[string]Festival

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"dev"`
}

func unauthorized() response.Response {
	return response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Not logged in"}, "401", "Unauthorized")
}

func storeUnavailable() response.Response {
	return response.New(ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "Database not available"}, "503", "Service Unavailable")
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Chamada Dashboard API",
		Version:     "v1.0.0",
		Description: "Attendance dashboard: student enrollment, attendance sheets, reports and camera node status",
		Host:        "localhost:5000",
		Path:        "/",
	})

	session := []map[string][]string{{"SessionCookie": {}}}

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the configured store"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Store reachable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Store unreachable"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/login",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Log in to the dashboard"),
			endpoint.WithDescription("JSON body {username, password}. Sets the chamada_session cookie on success."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{Success: true, Message: "Login successful"}, "200", "Logged in"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many attempts, try again later"}, "429", "Too Many Requests"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/logout",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Log out"),
			endpoint.WithDescription("Clears the session cookie and redirects to /"),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "302", "Redirect"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/api/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("List students"),
			endpoint.WithDescription("Returns a map of student id to student. Face encodings are omitted."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentsResponse{}, "200", "Students"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized(), storeUnavailable()}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.POST,
			"/api/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Enroll a student"),
			endpoint.WithDescription("JSON body {id, name, email, phone, stream, enrollmentDate, photo_data}. photo_data is an optional data URL; multipart requests may send the photo in the \"photo\" field instead. The photo must contain exactly one face."),
			endpoint.WithConsume([]mime.MIME{mime.JSON, mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CreateStudentResponse{}, "201", "Student registered"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				unauthorized(),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face found in the photo"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "More than one face in the photo, use a photo of the student alone"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "LOW_QUALITY_IMAGE", Message: "Photo too dark or blurry for reliable recognition"}, "422", "Unprocessable Entity"),
			}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/students/{id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Get a student"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentData{}, "200", "Student"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized(),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.DELETE,
			"/api/students/{id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Delete a student"),
			endpoint.WithDescription("Removes the student record and its photo. Attendance history is kept."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{Success: true, Message: "Student deleted successfully"}, "200", "Deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized(),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Attendance sheet"),
			endpoint.WithDescription("date -> student id -> lectureN -> status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceSheetResponse{}, "200", "Sheet"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized(), storeUnavailable()}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/attendance/report",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Attendance report"),
			endpoint.WithDescription("One row per (date, student), sorted by date then student id. Date bounds are inclusive."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("stream", parameter.Query, parameter.WithDescription("Only students of this stream")),
				parameter.StrParam("start_date", parameter.Query, parameter.WithDescription("YYYY-MM-DD, inclusive")),
				parameter.StrParam("end_date", parameter.Query, parameter.WithDescription("YYYY-MM-DD, inclusive")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]ReportRow{}, "200", "Report rows"),
			}),
			endpoint.WithErrors([]response.Response{
				unauthorized(),
				response.New(ErrorResponse{Code: "INVALID_DATE", Message: "Dates must use the YYYY-MM-DD format"}, "422", "Unprocessable Entity"),
				storeUnavailable(),
			}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/attendance/logs",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Recognition log"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("date", parameter.Query, parameter.WithDescription("YYYY-MM-DD; omit for every day")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceLog{}, "200", "Log entries"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized(), storeUnavailable()}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/system-status",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Node status"),
			endpoint.WithDescription("Publishes the dashboard heartbeat and reports the camera node status. Store failures are reported in the body, never as an HTTP error."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SystemStatusResponse{}, "200", "Status"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized()}),
			endpoint.WithSecurity(session),
		),

		endpoint.New(
			endpoint.GET,
			"/api/festivals",
			endpoint.WithTags("System"),
			endpoint.WithSummary("Festival calendar"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FestivalsResponse{}, "200", "Festivals keyed by date"),
			}),
			endpoint.WithErrors([]response.Response{unauthorized(), storeUnavailable()}),
			endpoint.WithSecurity(session),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
