package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

const (
	EventStudentEnrolled = "student.enrolled"
	EventStudentDeleted  = "student.deleted"

	// DefaultMinQuality é a nota mínima do verificador de qualidade.
	DefaultMinQuality = 0.5
)

// IDs viram chaves no store e nomes de arquivo.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Publisher fans out dashboard events; ws.Hub implements it.
type Publisher interface {
	Broadcast(eventType string, data any)
}

// EnrollRequest is a student record plus an optional photo.
type EnrollRequest struct {
	Student domain.Student
	Photo   []byte
}

type EnrollmentService struct {
	students   store.StudentStore
	provider   provider.FaceProvider
	quality    provider.QualityChecker
	events     Publisher
	uploadDir  string
	minQuality float64
	logger     *slog.Logger
}

func NewEnrollmentService(students store.StudentStore, faceProvider provider.FaceProvider, uploadDir string, logger *slog.Logger) *EnrollmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentService{
		students:   students,
		provider:   faceProvider,
		uploadDir:  uploadDir,
		minQuality: DefaultMinQuality,
		logger:     logger,
	}
}

// WithQualityGate screens photos before encoding. nil disables the gate.
func (s *EnrollmentService) WithQualityGate(q provider.QualityChecker, minQuality float64) *EnrollmentService {
	s.quality = q
	s.minQuality = minQuality
	return s
}

func (s *EnrollmentService) WithPublisher(p Publisher) *EnrollmentService {
	s.events = p
	return s
}

// Enroll valida, salva a foto como {id}.jpg, gera o encoding e grava o aluno.
// Sem foto o aluno é gravado sem encoding e não entra no reconhecimento.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*domain.Student, error) {
	st := req.Student
	st.ID = strings.TrimSpace(st.ID)
	st.Name = strings.TrimSpace(st.Name)

	if !validID.MatchString(st.ID) {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("invalid student id %q", st.ID))
	}
	if st.Name == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	if len(req.Photo) > 0 {
		photo, err := normalizePhoto(req.Photo)
		if err != nil {
			return nil, err
		}

		encoding, err := s.Encode(ctx, photo)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", st.ID, err)
		}

		path, err := s.savePhoto(st.ID, photo)
		if err != nil {
			return nil, fmt.Errorf("student %s: %w", st.ID, err)
		}
		st.Encoding = encoding
		st.PhotoPath = path
	}

	if err := s.students.PutStudent(ctx, &st); err != nil {
		return nil, fmt.Errorf("student %s: save: %w", st.ID, err)
	}

	s.logger.Info("student enrolled", "student_id", st.ID, "has_encoding", st.HasEncoding())
	s.publish(EventStudentEnrolled, st.Summary())
	return &st, nil
}

// Encode screens photo (when a quality gate is set) and returns the encoding
// of its single face.
func (s *EnrollmentService) Encode(ctx context.Context, photo []byte) ([]float64, error) {
	if s.quality != nil {
		faces, err := s.quality.CheckQuality(ctx, photo)
		if err != nil {
			return nil, fmt.Errorf("check quality: %w", err)
		}
		if err := singleFace(len(faces)); err != nil {
			return nil, err
		}
		if faces[0].QualityScore < s.minQuality {
			return nil, domain.ErrLowQualityImage
		}
	}

	faces, err := s.provider.DetectFaces(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if err := singleFace(len(faces)); err != nil {
		return nil, err
	}
	if len(faces[0].Encoding) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	return faces[0].Encoding, nil
}

func singleFace(n int) error {
	switch {
	case n == 0:
		return domain.ErrNoFaceDetected
	case n > 1:
		return domain.ErrMultipleFaces
	}
	return nil
}

func (s *EnrollmentService) savePhoto(id string, photo []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := id + ".jpg"
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), photo, 0o644); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return name, nil
}

func (s *EnrollmentService) Get(ctx context.Context, id string) (*domain.Student, error) {
	st, err := s.students.GetStudent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrStudentNotFound
	}
	return st, err
}

// List returns students keyed by id, the shape the dashboard expects.
func (s *EnrollmentService) List(ctx context.Context) (map[string]domain.StudentSummary, error) {
	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make(map[string]domain.StudentSummary, len(students))
	for _, st := range students {
		out[st.ID] = st.Summary()
	}
	return out, nil
}

// Delete removes the student and its photo.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.students.DeleteStudent(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrStudentNotFound
		}
		return fmt.Errorf("student %s: delete: %w", id, err)
	}
	if st.PhotoPath != "" {
		path := filepath.Join(s.uploadDir, filepath.Base(st.PhotoPath))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove photo", "student_id", id, "error", err)
		}
	}
	s.publish(EventStudentDeleted, map[string]string{"id": id})
	return nil
}

func (s *EnrollmentService) publish(event string, data any) {
	if s.events != nil {
		s.events.Broadcast(event, data)
	}
}

// DecodeDataURL aceita "data:image/jpeg;base64,..." ou base64 puro.
func DecodeDataURL(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}

// normalizePhoto checks the bytes are an image and re-encodes non-JPEG input.
func normalizePhoto(data []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	if format == "jpeg" {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
