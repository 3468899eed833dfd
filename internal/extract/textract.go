package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/macrotrack/planparse/internal/common"
)

// TextractFallback implements OCRFallback on AWS Textract's synchronous
// DetectDocumentText API.
type TextractFallback struct {
	client  *textract.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewTextractFallback builds the fallback client. Callers should pass nil to
// the Extractor instead when cfg has no credentials.
func NewTextractFallback(ctx context.Context, cfg common.OCRConfig, logger *slog.Logger) (*TextractFallback, error) {
	if logger == nil {
		logger = slog.Default()
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TextractFallback{
		client:  textract.NewFromConfig(awsCfg),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// DetectText submits the raw document and concatenates LINE blocks in the
// order Textract returns them, joined by newlines.
func (t *TextractFallback) DetectText(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		t.logger.Error("textract.detect.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("textract detect: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	text := strings.Join(lines, "\n")

	t.logger.Info("textract.detect.ok",
		"blocks", len(out.Blocks), "lines", len(lines),
		"chars", len(text), "elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
