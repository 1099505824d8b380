// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package recognizer_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/platform/apperr"
	"github.com/toniewert/toniewert/internal/recognizer"
)

// # Test Fixtures

type fakeCatalogRepository struct {
	entities []*catalog.Entity
}

func (repo *fakeCatalogRepository) ListAll(_ context.Context) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) GetByID(_ context.Context, id string) (*catalog.Entity, error) {
	for _, entity := range repo.entities {
		if entity.ID == id {
			return entity, nil
		}
	}
	return nil, nil
}

func (repo *fakeCatalogRepository) Search(_ context.Context, _ string, _ int) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) AddAlias(_ context.Context, _ string, _ string) error {
	return nil
}

type fakeReferenceRepository struct {
	references []recognizer.Reference
}

func (repo *fakeReferenceRepository) ListAll(_ context.Context) ([]recognizer.Reference, error) {
	return repo.references, nil
}

func (repo *fakeReferenceRepository) ReplaceAll(_ context.Context, references []recognizer.Reference) error {
	repo.references = references
	return nil
}

func defaultThresholds() recognizer.Thresholds {
	return recognizer.Thresholds{MinScore: 0.72, ResolvedScore: 0.90, ResolvedGap: 0.06}
}

// checkerImage produces an image with strong horizontal gradients so its
// difference hash is far from a flat image's hash.
func checkerImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 10, G: 10, B: 10, A: 255})
			}
		}
	}
	return img
}

func solidImage(size int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func referenceFor(catalogID string, img image.Image) recognizer.Reference {
	descriptor := recognizer.DescriptorFromImage(img)
	return recognizer.Reference{
		CatalogID: catalogID,
		Path:      catalogID + "/ref.png",
		DHash:     descriptor.DHashHex,
		MeanRGB:   descriptor.MeanRGB,
		IndexedAt: time.Now().UTC(),
	}
}

func newTestService(t *testing.T, references []recognizer.Reference) *recognizer.Service {
	t.Helper()

	logger := slog.Default()
	catalogService := catalog.NewService(&fakeCatalogRepository{entities: []*catalog.Entity{
		{ID: "tn_001", Title: "Benjamin Blümchen - Der Zoo-Kindergarten"},
		{ID: "tn_005", Title: "Der Grüffelo"},
	}}, logger)

	service := recognizer.NewService(
		&fakeReferenceRepository{references: references},
		catalogService,
		defaultThresholds(),
		logger,
	)
	require.NoError(t, service.Reload(context.Background()))
	return service
}

// # Descriptor Tests

/*
TestDescriptor_Deterministic verifies that identical images produce identical
fingerprints.
*/
func TestDescriptor_Deterministic(t *testing.T) {
	first := recognizer.DescriptorFromImage(checkerImage(64))
	second := recognizer.DescriptorFromImage(checkerImage(64))

	assert.Equal(t, first.DHashHex, second.DHashHex)
	assert.Equal(t, first.MeanRGB, second.MeanRGB)
	assert.Len(t, first.DHashHex, 16)
}

/*
TestDescriptor_FlatImageHasZeroHash verifies that an image without gradients
hashes to all zero bits.
*/
func TestDescriptor_FlatImageHasZeroHash(t *testing.T) {
	descriptor := recognizer.DescriptorFromImage(solidImage(64, color.RGBA{R: 200, G: 100, B: 50, A: 255}))

	assert.Equal(t, "0000000000000000", descriptor.DHashHex)
	assert.InDelta(t, 200.0/255.0, descriptor.MeanRGB[0], 0.02)
	assert.InDelta(t, 100.0/255.0, descriptor.MeanRGB[1], 0.02)
	assert.InDelta(t, 50.0/255.0, descriptor.MeanRGB[2], 0.02)
}

/*
TestDescriptor_RejectsGarbage verifies that undecodable bytes error out.
*/
func TestDescriptor_RejectsGarbage(t *testing.T) {
	_, err := recognizer.DescriptorFromBytes([]byte("definitely not an image"))
	assert.Error(t, err)

	_, err = recognizer.DescriptorFromBytes(nil)
	assert.Error(t, err)
}

// # Recognition Tests

/*
TestRecognize_NotConfiguredWithoutIndex verifies the degraded status when no
reference rows are loaded.
*/
func TestRecognize_NotConfiguredWithoutIndex(t *testing.T) {
	service := newTestService(t, nil)

	result, err := service.Recognize(context.Background(), encodePNG(t, checkerImage(64)), 3)
	require.NoError(t, err)
	assert.Equal(t, recognizer.StatusNotConfigured, result.Status)
	assert.Empty(t, result.Candidates)

	status := service.Status()
	assert.False(t, status.Ready)
}

/*
TestRecognize_ExactReferenceResolves verifies that a photo identical to a
reference image resolves to its entity with a perfect score.
*/
func TestRecognize_ExactReferenceResolves(t *testing.T) {
	service := newTestService(t, []recognizer.Reference{
		referenceFor("tn_001", checkerImage(64)),
		referenceFor("tn_005", solidImage(64, color.RGBA{R: 30, G: 160, B: 30, A: 255})),
	})

	result, err := service.Recognize(context.Background(), encodePNG(t, checkerImage(64)), 3)
	require.NoError(t, err)
	assert.Equal(t, recognizer.StatusResolved, result.Status)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "tn_001", result.Candidates[0].CatalogID)
	assert.InDelta(t, 1.0, result.Candidates[0].Score, 0.001)
}

/*
TestRecognize_TieNeedsConfirmation verifies that two entities with identical
reference fingerprints cannot auto-resolve.
*/
func TestRecognize_TieNeedsConfirmation(t *testing.T) {
	service := newTestService(t, []recognizer.Reference{
		referenceFor("tn_001", checkerImage(64)),
		referenceFor("tn_005", checkerImage(64)),
	})

	result, err := service.Recognize(context.Background(), encodePNG(t, checkerImage(64)), 3)
	require.NoError(t, err)
	assert.Equal(t, recognizer.StatusNeedsConfirmation, result.Status)
	assert.Len(t, result.Candidates, 2)
}

/*
TestRecognize_UnreadableImageIsValidationError verifies the 400 contract for
payloads that cannot be decoded.
*/
func TestRecognize_UnreadableImageIsValidationError(t *testing.T) {
	service := newTestService(t, []recognizer.Reference{
		referenceFor("tn_001", checkerImage(64)),
	})

	_, err := service.Recognize(context.Background(), []byte("broken"), 3)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

/*
TestRecognize_StatusCountsEntities verifies the readiness report.
*/
func TestRecognize_StatusCountsEntities(t *testing.T) {
	service := newTestService(t, []recognizer.Reference{
		referenceFor("tn_001", checkerImage(64)),
		referenceFor("tn_001", solidImage(64, color.RGBA{R: 90, G: 90, B: 200, A: 255})),
		referenceFor("tn_005", solidImage(64, color.RGBA{R: 30, G: 160, B: 30, A: 255})),
	})

	status := service.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, 3, status.ReferenceCount)
	assert.Equal(t, 2, status.EntityCount)
	assert.NotNil(t, status.LoadedAt)
}
