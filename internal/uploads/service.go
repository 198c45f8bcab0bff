package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/storage/gcs"
)

// Purpose groups uploaded objects by where they will be shown.
type Purpose string

const (
	PurposeProduct   Purpose = "product"
	PurposeStory     Purpose = "story"
	PurposeAfterSale Purpose = "after_sale"
)

func ParsePurpose(v string) (Purpose, bool) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(v))); p {
	case PurposeProduct, PurposeStory, PurposeAfterSale:
		return p, true
	case "":
		return PurposeProduct, true
	default:
		return "", false
	}
}

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Result is what the client stores on a product, story or after-sale request.
type Result struct {
	URL         string `json:"url"`
	Object      string `json:"object"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type Service interface {
	Upload(ctx context.Context, actor auth.Principal, purpose Purpose, body io.Reader) (*Result, error)
}

type service struct {
	storage  gcs.Uploader
	maxBytes int64
	logg     *logger.Logger
}

func NewService(storage gcs.Uploader, maxBytes int64, logg *logger.Logger) (Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("upload storage required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("upload size cap must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{storage: storage, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) Upload(ctx context.Context, actor auth.Principal, purpose Purpose, body io.Reader) (*Result, error) {
	if purpose == PurposeStory && !actor.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers upload story images")
	}
	if purpose == PurposeProduct && !actor.IsFarmer() && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers upload product images")
	}

	// one byte past the cap tells an oversized file from an exact fit
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	detected := mimetype.Detect(data)
	if !isAllowedImage(detected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png, webp or gif images are accepted").
			WithDetails(map[string]any{"contentType": detected.String()})
	}
	contentType := baseType(detected.String())

	object := fmt.Sprintf("%s/%s/%s%s", purpose, actor.UserID, uuid.NewString(), detected.Extension())
	url, err := s.storage.Upload(ctx, object, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"object":       object,
		"content_type": contentType,
		"size":         len(data),
	}), "upload stored")

	return &Result{URL: url, Object: object, ContentType: contentType, Size: int64(len(data))}, nil
}

func isAllowedImage(m *mimetype.MIME) bool {
	for _, t := range allowedImageTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}

func baseType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}
