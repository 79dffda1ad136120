package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/repository/storage"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	DisplayWidth   = 800
	JPEGQuality    = 85

	defaultDocumentURLTTL = 15 * time.Minute
)

var (
	ErrImageTooLarge                = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat                = errors.New("invalid format. Supported: JPEG, PNG")
	ErrImageTooSmall                = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData             = errors.New("invalid image data")
	ErrInvalidDocumentKind          = errors.New("document kind must be photo or proof")
	ErrDocumentNotFound             = errors.New("document not uploaded")
	ErrDocumentStorageNotConfigured = errors.New("document storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

var documentVariants = []struct {
	name     string
	maxWidth int
}{
	{"display", DisplayWidth},
	{"original", 0}, // 0 keeps the decoded size
}

// DocumentURLs holds presigned links to both variants of a stored document
type DocumentURLs struct {
	Kind        domain.DocumentKind `json:"kind"`
	DisplayURL  string              `json:"displayUrl"`
	OriginalURL string              `json:"originalUrl"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}

// ApplicationRow is one labelled line of a printable loan application
type ApplicationRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Application is the data a client needs to render a loan application form
type Application struct {
	LoanID   int32            `json:"loanId"`
	Title    string           `json:"title"`
	Filename string           `json:"filename"`
	Rows     []ApplicationRow `json:"rows"`
	PhotoURL string           `json:"photoUrl,omitempty"`
}

// DocumentService stores loan photos and ID proofs and builds the
// application form
type DocumentService struct {
	storage  storage.DocumentRepository
	loanRepo domain.LoanRepository
	urlTTL   time.Duration
	now      func() time.Time
}

// NewDocumentService creates a new DocumentService. storage may be nil when
// object storage is not configured; uploads then fail with
// ErrDocumentStorageNotConfigured.
func NewDocumentService(storage storage.DocumentRepository, loanRepo domain.LoanRepository, urlTTL time.Duration) *DocumentService {
	if urlTTL <= 0 {
		urlTTL = defaultDocumentURLTTL
	}
	return &DocumentService{
		storage:  storage,
		loanRepo: loanRepo,
		urlTTL:   urlTTL,
		now:      time.Now,
	}
}

// IsEnabled indicates whether uploads are supported (storage configured).
func (s *DocumentService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateImage validates image format and size
func (s *DocumentService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *DocumentService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	if format != "jpeg" && format != "png" {
		return nil, ErrInvalidFormat
	}
	if cfg.Width < MinImageWidth || cfg.Height < MinImageHeight {
		return nil, ErrImageTooSmall
	}

	// Phone cameras store rotation in EXIF
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	return img, nil
}

// Upload normalises an image to JPEG, stores a display and an original
// variant and records the display key on the loan. A previously stored
// document of the same kind is removed.
func (s *DocumentService) Upload(ctx context.Context, workspaceID int32, loanID int32, kind domain.DocumentKind, data []byte, filename string) (*DocumentURLs, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidDocumentKind
	}
	if !s.IsEnabled() {
		return nil, ErrDocumentStorageNotConfigured
	}

	loan, err := s.loanRepo.GetByID(ctx, workspaceID, loanID)
	if err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	documentID := uuid.New().String()
	keys := make(map[string]string, len(documentVariants))

	for _, variant := range documentVariants {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.cleanup(ctx, keys)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectKey := documentObjectKey(workspaceID, loanID, documentID, variant.name)
		key, err := s.storage.Upload(ctx, objectKey, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.cleanup(ctx, keys)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		keys[variant.name] = key
	}

	if err := s.loanRepo.UpdateDocumentKey(ctx, workspaceID, loanID, kind, keys["display"]); err != nil {
		s.cleanup(ctx, keys)
		return nil, err
	}

	if previous := loan.DocumentKey(kind); previous != nil && *previous != "" {
		s.deleteAllVariants(ctx, *previous)
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("loan_id", loanID).
		Str("kind", string(kind)).
		Msg("Loan document uploaded")

	return s.presign(ctx, kind, keys["display"])
}

// GetURLs returns presigned links to a stored document
func (s *DocumentService) GetURLs(ctx context.Context, workspaceID int32, loanID int32, kind domain.DocumentKind) (*DocumentURLs, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidDocumentKind
	}
	if !s.IsEnabled() {
		return nil, ErrDocumentStorageNotConfigured
	}

	loan, err := s.loanRepo.GetByID(ctx, workspaceID, loanID)
	if err != nil {
		return nil, err
	}
	key := loan.DocumentKey(kind)
	if key == nil || *key == "" {
		return nil, ErrDocumentNotFound
	}
	return s.presign(ctx, kind, *key)
}

// GetApplication returns the ordered rows of a loan's application form
func (s *DocumentService) GetApplication(ctx context.Context, workspaceID int32, loanID int32) (*Application, error) {
	loan, err := s.loanRepo.GetByID(ctx, workspaceID, loanID)
	if err != nil {
		return nil, err
	}

	age := ""
	if loan.Age > 0 {
		age = fmt.Sprintf("%d", loan.Age)
	}
	endDate := ""
	if loan.EndDate != nil {
		endDate = loan.EndDate.Format(util.DateLayout)
	}

	app := &Application{
		LoanID:   loan.ID,
		Title:    "Loan Application Form",
		Filename: fmt.Sprintf("loan-%s.pdf", loan.LoanNumber),
		Rows: []ApplicationRow{
			{"Loan Number", loan.LoanNumber},
			{"Name", loan.PartyName},
			{"Father Name", loan.FatherName},
			{"Place", loan.Address},
			{"Phone Number", loan.Mobile},
			{"Aadhar Number", loan.Aadhar},
			{"Age", age},
			{"Occupation", loan.Occupation},
			{"Loan Amount", "Rs " + loan.Amount.StringFixed(2)},
			{"Collection Type", string(loan.CollectionType)},
			{"Loan Start Date", loan.Date.Format(util.DateLayout)},
			{"Loan End Date", endDate},
		},
	}

	// The form prints without a photo when none can be linked
	if s.IsEnabled() && loan.PhotoKey != nil && *loan.PhotoKey != "" {
		if url, err := s.storage.GeneratePresignedURL(ctx, *loan.PhotoKey, s.urlTTL); err == nil {
			app.PhotoURL = url
		} else {
			log.Warn().Err(err).Int32("loan_id", loanID).Msg("Failed to presign application photo")
		}
	}
	return app, nil
}

func (s *DocumentService) presign(ctx context.Context, kind domain.DocumentKind, displayKey string) (*DocumentURLs, error) {
	displayURL, err := s.storage.GeneratePresignedURL(ctx, displayKey, s.urlTTL)
	if err != nil {
		return nil, err
	}
	originalURL, err := s.storage.GeneratePresignedURL(ctx, variantKey(displayKey, "original"), s.urlTTL)
	if err != nil {
		return nil, err
	}
	return &DocumentURLs{
		Kind:        kind,
		DisplayURL:  displayURL,
		OriginalURL: originalURL,
		ExpiresAt:   s.now().Add(s.urlTTL).UTC(),
	}, nil
}

// cleanup removes variants uploaded during a failed operation
func (s *DocumentService) cleanup(ctx context.Context, keys map[string]string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to clean up document variant")
		}
	}
}

// deleteAllVariants removes every variant sharing displayKey's base
func (s *DocumentService) deleteAllVariants(ctx context.Context, displayKey string) {
	keys := make(map[string]string, len(documentVariants))
	for _, variant := range documentVariants {
		keys[variant.name] = variantKey(displayKey, variant.name)
	}
	s.cleanup(ctx, keys)
}

func documentObjectKey(workspaceID, loanID int32, documentID, variant string) string {
	return fmt.Sprintf("%d/loans/%d/%s_%s.jpg", workspaceID, loanID, documentID, variant)
}

// variantKey swaps the variant suffix of a stored key
func variantKey(key, variant string) string {
	for _, v := range documentVariants {
		suffix := "_" + v.name + ".jpg"
		if strings.HasSuffix(key, suffix) {
			return strings.TrimSuffix(key, suffix) + "_" + variant + ".jpg"
		}
	}
	return key
}
