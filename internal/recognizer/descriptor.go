// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

/*
Package recognizer matches uploaded photos against a prebuilt index of
reference images to suggest catalog candidates.

Recognition is intentionally lightweight: a 64-bit difference hash captures
the figure's silhouette and a mean-color vector its dominant paint scheme.
That is robust enough to shortlist candidates while staying cheap to compute
per request. The same fail-safe statuses as the text resolver apply.
*/
package recognizer

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"math/bits"
	"strconv"

	// Register the marketplace-common photo formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Descriptor is the compact visual fingerprint of one image.
type Descriptor struct {
	// DHashHex is the 64-bit horizontal-gradient difference hash, hex encoded.
	DHashHex string
	// MeanRGB is the average color over a 32x32 downscale, normalized 0..1.
	MeanRGB [3]float64
}

// DescriptorFromBytes decodes an image payload and computes its fingerprint.
func DescriptorFromBytes(payload []byte) (Descriptor, error) {
	if len(payload) == 0 {
		return Descriptor{}, fmt.Errorf("recognizer: empty image payload")
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return Descriptor{}, fmt.Errorf("recognizer: failed to decode image: %w", err)
	}

	return DescriptorFromImage(img), nil
}

// DescriptorFromImage computes the fingerprint of an already-decoded image.
func DescriptorFromImage(img image.Image) Descriptor {
	return Descriptor{
		DHashHex: differenceHash(img),
		MeanRGB:  meanColor(img),
	}
}

// differenceHash scales to 9x8 grayscale and emits one bit per horizontal
// gradient (left pixel brighter than its right neighbor).
func differenceHash(img image.Image) string {
	gray := image.NewGray(image.Rect(0, 0, 9, 8))
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var value uint64
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			left := gray.GrayAt(col, row).Y
			right := gray.GrayAt(col+1, row).Y

			value <<= 1
			if left > right {
				value |= 1
			}
		}
	}

	return fmt.Sprintf("%016x", value)
}

// meanColor averages the RGB channels over a 32x32 downscale.
func meanColor(img image.Image) [3]float64 {
	const side = 32

	scaled := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sumR, sumG, sumB float64
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			pixel := scaled.NRGBAAt(x, y)
			sumR += float64(pixel.R)
			sumG += float64(pixel.G)
			sumB += float64(pixel.B)
		}
	}

	n := 255.0 * side * side
	return [3]float64{sumR / n, sumG / n, sumB / n}
}

// hammingDistanceHex counts differing bits between two hex-encoded hashes.
// Malformed hashes count as maximally distant.
func hammingDistanceHex(a, b string) int {
	ai, errA := strconv.ParseUint(a, 16, 64)
	bi, errB := strconv.ParseUint(b, 16, 64)
	if errA != nil || errB != nil {
		return 64
	}
	return bits.OnesCount64(ai ^ bi)
}

// colorSimilarity maps euclidean RGB distance to a 0..1 similarity.
// sqrt(3) is the max distance in the normalized RGB cube.
func colorSimilarity(a, b [3]float64) float64 {
	dist := math.Sqrt(
		(a[0]-b[0])*(a[0]-b[0]) +
			(a[1]-b[1])*(a[1]-b[1]) +
			(a[2]-b[2])*(a[2]-b[2]))

	similarity := 1.0 - dist/math.Sqrt(3.0)
	if similarity < 0 {
		return 0
	}
	return similarity
}
