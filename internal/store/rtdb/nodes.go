package rtdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// children normaliza um nó em mapa chave -> filho. O banco devolve arrays
// quando as chaves são inteiros sequenciais; nesse caso o índice vira a
// chave e posições nulas são descartadas. Escalares e null viram mapa vazio.
func children(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	out := make(map[string]json.RawMessage)
	if len(raw) == 0 {
		return out, nil
	}

	switch raw[0] {
	case '{':
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		for k, v := range out {
			if isNull(v) {
				delete(out, k)
			}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		for i, v := range items {
			if isNull(v) {
				continue
			}
			out[strconv.Itoa(i)] = v
		}
	}
	return out, nil
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

// timeLayouts aceita o formato que gravamos e o ISO sem fuso de registros antigos.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// flexInt aceita número ou string numérica.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(s)
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		fv, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		v = int(fv)
	}
	*f = flexInt(v)
	return nil
}

type studentWire struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Stream         string    `json:"stream,omitempty"`
	EnrollmentDate string    `json:"enrollmentDate,omitempty"`
	Encoding       []float64 `json:"face_encoding,omitempty"`
	PhotoPath      string    `json:"photo_path,omitempty"`
	UpdatedAt      string    `json:"updated_at,omitempty"`
}

type logWire struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Date        string  `json:"date"`
	Lecture     flexInt `json:"lecture"`
	Time        string  `json:"time"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
}

type statusWire struct {
	Status          string `json:"status"`
	LastUpdate      string `json:"last_update"`
	LastRecognition string `json:"last_recognition,omitempty"`
	CameraActive    *bool  `json:"camera_active,omitempty"`
}
