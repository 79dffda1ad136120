package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

// createTestImage creates a test image of the specified size and format
func createTestImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		png.Encode(&buf, img)
		return buf.Bytes(), "test.png"
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		return buf.Bytes(), "test.jpg"
	}
}

func newDocumentFixture() (*DocumentService, *testutil.MockDocumentStorage, *testutil.MockLoanRepository) {
	loans := testutil.NewMockLoanRepository()
	end := day(2024, 3, 11)
	loan := weeklyLoan(1, "W-1", 0)
	loan.FatherName = "Suresh"
	loan.Address = "Madurai"
	loan.Age = 34
	loan.EndDate = &end
	loans.AddLoan(loan)

	store := testutil.NewMockDocumentStorage()
	svc := NewDocumentService(store, loans, 10*time.Minute)
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) }
	return svc, store, loans
}

func TestValidateImage(t *testing.T) {
	svc := NewDocumentService(nil, nil, 0)
	jpegData, jpegName := createTestImage(100, 100, "jpeg")
	pngData, pngName := createTestImage(100, 100, "png")
	smallData, smallName := createTestImage(40, 100, "png")

	tests := []struct {
		name     string
		data     []byte
		filename string
		wantErr  error
	}{
		{"valid jpeg", jpegData, jpegName, nil},
		{"valid png", pngData, pngName, nil},
		{"too large", make([]byte, MaxImageSize+1), "test.jpg", ErrImageTooLarge},
		{"unsupported extension", jpegData, "test.gif", ErrInvalidFormat},
		{"not an image", []byte("not an image"), "test.jpg", ErrInvalidImageData},
		{"too small", smallData, smallName, ErrImageTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.ValidateImage(tt.data, tt.filename); err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpload_StoresVariantsAndKey(t *testing.T) {
	svc, store, loans := newDocumentFixture()
	data, filename := createTestImage(1600, 1200, "png")

	urls, err := svc.Upload(context.Background(), 1, 1, domain.DocumentKindPhoto, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.Objects) != 2 {
		t.Fatalf("expected 2 stored variants, got %d", len(store.Objects))
	}

	loan, _ := loans.GetByID(context.Background(), 1, 1)
	if loan.PhotoKey == nil || !strings.HasPrefix(*loan.PhotoKey, "1/loans/1/") || !strings.HasSuffix(*loan.PhotoKey, "_display.jpg") {
		t.Fatalf("expected display key under 1/loans/1/, got %v", loan.PhotoKey)
	}

	display, _, err := image.DecodeConfig(bytes.NewReader(store.Objects[*loan.PhotoKey]))
	if err != nil {
		t.Fatalf("expected stored display to decode, got %v", err)
	}
	if display.Width != DisplayWidth || display.Height != 600 {
		t.Errorf("expected display 800x600, got %dx%d", display.Width, display.Height)
	}

	original, format, err := image.DecodeConfig(bytes.NewReader(store.Objects[variantKey(*loan.PhotoKey, "original")]))
	if err != nil {
		t.Fatalf("expected stored original to decode, got %v", err)
	}
	if format != "jpeg" || original.Width != 1600 {
		t.Errorf("expected 1600px jpeg original, got %s %dpx", format, original.Width)
	}

	if !strings.Contains(urls.DisplayURL, "_display.jpg") || !strings.Contains(urls.OriginalURL, "_original.jpg") {
		t.Errorf("unexpected urls %+v", urls)
	}
	if !strings.HasSuffix(urls.DisplayURL, "?expires=600") {
		t.Errorf("expected 10 minute expiry, got %s", urls.DisplayURL)
	}
	if !urls.ExpiresAt.Equal(time.Date(2024, 1, 5, 9, 10, 0, 0, time.UTC)) {
		t.Errorf("unexpected expiresAt %s", urls.ExpiresAt)
	}
}

func TestUpload_ReplacesPreviousDocument(t *testing.T) {
	svc, store, loans := newDocumentFixture()
	data, filename := createTestImage(100, 100, "jpeg")

	if _, err := svc.Upload(context.Background(), 1, 1, domain.DocumentKindProof, data, filename); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first, _ := loans.GetByID(context.Background(), 1, 1)
	firstKey := *first.ProofKey

	if _, err := svc.Upload(context.Background(), 1, 1, domain.DocumentKindProof, data, filename); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Objects[firstKey]; ok {
		t.Error("expected previous display variant to be deleted")
	}
	if len(store.Objects) != 2 {
		t.Errorf("expected only the new variants to remain, got %d objects", len(store.Objects))
	}
}

func TestUpload_CleansUpOnFailure(t *testing.T) {
	svc, store, loans := newDocumentFixture()
	store.FailAfter = 1
	data, filename := createTestImage(100, 100, "jpeg")

	if _, err := svc.Upload(context.Background(), 1, 1, domain.DocumentKindPhoto, data, filename); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(store.Objects) != 0 {
		t.Errorf("expected uploaded variants to be cleaned up, got %d", len(store.Objects))
	}
	loan, _ := loans.GetByID(context.Background(), 1, 1)
	if loan.PhotoKey != nil {
		t.Errorf("expected no photo key, got %s", *loan.PhotoKey)
	}
}

func TestUpload_Rejected(t *testing.T) {
	svc, _, _ := newDocumentFixture()
	data, filename := createTestImage(100, 100, "jpeg")
	ctx := context.Background()

	if _, err := svc.Upload(ctx, 1, 1, domain.DocumentKind("selfie"), data, filename); err != ErrInvalidDocumentKind {
		t.Errorf("expected ErrInvalidDocumentKind, got %v", err)
	}
	if _, err := svc.Upload(ctx, 1, 99, domain.DocumentKindPhoto, data, filename); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Errorf("expected ErrLoanNotFound, got %v", err)
	}

	disabled := NewDocumentService(nil, testutil.NewMockLoanRepository(), 0)
	if _, err := disabled.Upload(ctx, 1, 1, domain.DocumentKindPhoto, data, filename); err != ErrDocumentStorageNotConfigured {
		t.Errorf("expected ErrDocumentStorageNotConfigured, got %v", err)
	}
	if _, err := disabled.GetURLs(ctx, 1, 1, domain.DocumentKindPhoto); err != ErrDocumentStorageNotConfigured {
		t.Errorf("expected ErrDocumentStorageNotConfigured, got %v", err)
	}
}

func TestGetURLs_NotUploaded(t *testing.T) {
	svc, _, _ := newDocumentFixture()

	if _, err := svc.GetURLs(context.Background(), 1, 1, domain.DocumentKindPhoto); err != ErrDocumentNotFound {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGetApplication(t *testing.T) {
	svc, _, _ := newDocumentFixture()
	data, filename := createTestImage(100, 100, "jpeg")
	if _, err := svc.Upload(context.Background(), 1, 1, domain.DocumentKindPhoto, data, filename); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	app, err := svc.GetApplication(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []ApplicationRow{
		{"Loan Number", "W-1"},
		{"Name", "Ravi Kumar"},
		{"Father Name", "Suresh"},
		{"Place", "Madurai"},
		{"Phone Number", ""},
		{"Aadhar Number", ""},
		{"Age", "34"},
		{"Occupation", ""},
		{"Loan Amount", "Rs " + decimal.NewFromInt(1000).StringFixed(2)},
		{"Collection Type", "weekly"},
		{"Loan Start Date", "2024-01-01"},
		{"Loan End Date", "2024-03-11"},
	}
	if len(app.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(app.Rows))
	}
	for i, row := range want {
		if app.Rows[i] != row {
			t.Errorf("row %d: expected %+v, got %+v", i, row, app.Rows[i])
		}
	}
	if app.Filename != "loan-W-1.pdf" {
		t.Errorf("expected loan-W-1.pdf, got %s", app.Filename)
	}
	if app.PhotoURL == "" {
		t.Error("expected a photo url")
	}
}
