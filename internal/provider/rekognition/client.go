// Package rekognition screens enrollment photos with AWS Rekognition
// DetectFaces. It never encodes faces; encodings come from the FaceProvider.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")
	// ErrInvalidImage: o Rekognition recusou os bytes da foto.
	ErrInvalidImage = errors.New("image rejected by rekognition")
	ErrEmptyImage   = errors.New("empty image")
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeInvalidParameter   = "InvalidParameterException"
)

type Config struct {
	// Region da conta AWS, ex.: "us-east-1".
	Region string
}

// DetectFacesAPI é o subconjunto do SDK usado aqui; os testes o substituem.
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient uses the AWS default credential chain.
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return rekognition.NewFromConfig(awsCfg), nil
}

func mapError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied:
			return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
			return fmt.Errorf("detect faces: %w: %s", ErrInvalidImage, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("detect faces: %w", err)
}
