package imageprep

import "math"

// Quality summarizes how extractable an image looks, each component on a
// 0..100 scale.
type Quality struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Resolution float64 `json:"resolution"`
	Overall    float64 `json:"overall"`
}

const (
	optimalBrightness = 128.0
	contrastDivisor   = 50.0
	megapixel         = 1_000_000.0

	brightnessWeight = 0.3
	contrastWeight   = 0.4
	resolutionWeight = 0.3
)

// AnalyzeQuality scores brightness (distance from mid-gray), contrast
// (pixel standard deviation), and resolution (megapixels), then combines
// them into a weighted overall score. Undecodable input scores zero.
func (e *Enhancer) AnalyzeQuality(data []byte) Quality {
	img, err := decodeOriented(data)
	if err != nil {
		return Quality{}
	}
	gray := toGray(img)
	if len(gray.Pix) == 0 {
		return Quality{}
	}

	mean := histogramMean(gray)
	var sumSq float64
	for _, p := range gray.Pix {
		d := float64(p) - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(gray.Pix)))

	q := Quality{
		Brightness: clampScore(100 - math.Abs(mean-optimalBrightness)/optimalBrightness*100),
		Contrast:   clampScore(stddev / contrastDivisor * 100),
		Resolution: clampScore(float64(len(gray.Pix)) / megapixel * 100),
	}
	q.Overall = q.Brightness*brightnessWeight + q.Contrast*contrastWeight + q.Resolution*resolutionWeight
	return q
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
