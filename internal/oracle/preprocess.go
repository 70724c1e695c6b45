// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package oracle

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CLIP normalization constants, per RGB channel.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Preprocess resizes img so its shorter side equals size, center-crops it to a
// size x size square and returns normalized pixel values in CHW order.
// Alpha is dropped without compositing.
func Preprocess(img image.Image, size int) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return make([]float32, 3*size*size)
	}

	scale := float64(size) / float64(min(w, h))
	nw := max(size, int(math.Round(float64(w)*scale)))
	nh := max(size, int(math.Round(float64(h)*scale)))

	resized := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, b, draw.Src, nil)

	x0 := (nw - size) / 2
	y0 := (nh - size) / 2
	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.NRGBAAt(x0+x, y0+y)
			i := y*size + x
			out[i] = (float32(c.R)/255 - clipMean[0]) / clipStd[0]
			out[plane+i] = (float32(c.G)/255 - clipMean[1]) / clipStd[1]
			out[2*plane+i] = (float32(c.B)/255 - clipMean[2]) / clipStd[2]
		}
	}
	return out
}
