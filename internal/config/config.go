package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store seleciona e configura o backend de persistência.
type Store struct {
	Backend     string        `envconfig:"STORE_BACKEND" default:"rtdb"`
	RTDBURL     string        `envconfig:"RTDB_URL"`
	RTDBAuth    string        `envconfig:"RTDB_AUTH"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	Timeout     time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
}

// Provider configura o serviço externo de detecção e codificação de faces.
type Provider struct {
	Type             string        `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"hog"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DlibModelsDir    string        `envconfig:"DLIB_MODELS_DIR" default:"models"`
}

type Camera struct {
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	NodeName    string `envconfig:"NODE_NAME" default:"laptop2"`
	Timezone    string `envconfig:"TIMEZONE"`

	// Capture
	Source      string `envconfig:"CAMERA_SOURCE" default:"v4l2"`
	Index       int    `envconfig:"CAMERA_INDEX" default:"0"`
	Device      string `envconfig:"CAMERA_DEVICE"`
	Width       int    `envconfig:"CAMERA_WIDTH" default:"640"`
	Height      int    `envconfig:"CAMERA_HEIGHT" default:"480"`
	SnapshotURL string `envconfig:"CAMERA_SNAPSHOT_URL"`

	// Motion gate
	MotionThreshold int64         `envconfig:"MOTION_THRESHOLD" default:"5000"`
	NoMotionTimeout time.Duration `envconfig:"NO_MOTION_TIMEOUT" default:"5s"`

	// Recognition
	MinConfidence   float64 `envconfig:"MIN_CONFIDENCE" default:"0.1"`
	MatchTolerance  float64 `envconfig:"MATCH_TOLERANCE" default:"0.6"`
	ProcessingScale float64 `envconfig:"PROCESSING_SCALE" default:"0.25"`

	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"1m"`
	PreviewPort  int           `envconfig:"PREVIEW_PORT" default:"8090"`
	ScheduleFile string        `envconfig:"SCHEDULE_FILE"`

	// Embutidos para que as variáveis não recebam prefixo.
	Store
	Provider
}

type Dashboard struct {
	Port        int    `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	NodeName    string `envconfig:"NODE_NAME" default:"laptop1"`
	CameraNode  string `envconfig:"CAMERA_NODE_NAME" default:"laptop2"`

	// Security
	AdminUsername string        `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" required:"true"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	UploadDir          string        `envconfig:"UPLOAD_DIR" default:"static/uploads"`
	StatusPollInterval time.Duration `envconfig:"STATUS_POLL_INTERVAL" default:"10s"`
	EnrollQualityGate  string        `envconfig:"ENROLL_QUALITY_GATE" default:"none"`
	AWSRegion          string        `envconfig:"AWS_REGION" default:"us-east-1"`

	Store
	Provider
}

// LoadDotEnv carrega um arquivo .env quando presente; ausência não é erro.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func LoadCamera() (*Camera, error) {
	var cfg Camera
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func LoadDashboard() (*Dashboard, error) {
	var cfg Dashboard
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// LoadStore reads only the store settings, for tools that need nothing else.
func LoadStore() (*Store, error) {
	var cfg Store
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// LoadProvider reads only the face provider settings.
func LoadProvider() (*Provider, error) {
	var cfg Provider
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (s Store) Validate() error {
	switch s.Backend {
	case "rtdb":
		if s.RTDBURL == "" {
			return errors.New("RTDB_URL is required for the rtdb backend")
		}
	case "postgres":
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", s.Backend)
	}
	return nil
}

func (c *Camera) validate() error {
	if c.ProcessingScale <= 0 || c.ProcessingScale > 1 {
		return fmt.Errorf("PROCESSING_SCALE must be in (0, 1], got %v", c.ProcessingScale)
	}
	if c.MatchTolerance <= 0 {
		return fmt.Errorf("MATCH_TOLERANCE must be positive, got %v", c.MatchTolerance)
	}
	if c.Source == "snapshot" && c.SnapshotURL == "" {
		return errors.New("CAMERA_SNAPSHOT_URL is required for the snapshot source")
	}
	return c.Store.Validate()
}

// DevicePath resolve o dispositivo V4L2 a partir do índice quando não há override.
func (c *Camera) DevicePath() string {
	if c.Device != "" {
		return c.Device
	}
	return fmt.Sprintf("/dev/video%d", c.Index)
}

// Location devolve o fuso usado para datas e horários de aula.
func (c *Camera) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Camera) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Camera) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Dashboard) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Dashboard) IsProduction() bool {
	return c.Environment == "production"
}
