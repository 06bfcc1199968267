package domain

import "time"

// Student representa um aluno cadastrado. Encoding vazio significa que o
// aluno ainda não tem foto processada e fica fora do reconhecimento.
type Student struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Stream         string    `json:"stream,omitempty"`
	EnrollmentDate string    `json:"enrollmentDate,omitempty"`
	Encoding       []float64 `json:"face_encoding,omitempty"`
	PhotoPath      string    `json:"photo_path,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

func (s Student) HasEncoding() bool {
	return len(s.Encoding) > 0
}

func (s Student) KnownFace() KnownFace {
	name := s.Name
	if name == "" {
		name = UnknownName
	}
	return KnownFace{ID: s.ID, Name: name, Encoding: s.Encoding}
}

// StudentSummary omite o encoding nas respostas da API.
type StudentSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Stream         string `json:"stream,omitempty"`
	EnrollmentDate string `json:"enrollmentDate,omitempty"`
	PhotoPath      string `json:"photo_path,omitempty"`
	HasEncoding    bool   `json:"has_encoding"`
}

func (s Student) Summary() StudentSummary {
	return StudentSummary{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		Stream:         s.Stream,
		EnrollmentDate: s.EnrollmentDate,
		PhotoPath:      s.PhotoPath,
		HasEncoding:    s.HasEncoding(),
	}
}

const UnknownName = "Unknown"

// KnownFace is one roster entry used for recognition.
type KnownFace struct {
	ID       string
	Name     string
	Encoding []float64
}
