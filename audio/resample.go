package audio

import "math"

// TargetSampleRate is the rate every decoded buffer is converted to.
const TargetSampleRate = 16000

// ResampleLinear converts samples from oldRate to newRate by linear
// interpolation between neighbouring source samples. Equal rates return the
// input unchanged.
func ResampleLinear(samples []float32, oldRate, newRate int) []float32 {
	if oldRate == newRate || len(samples) == 0 || oldRate <= 0 || newRate <= 0 {
		return samples
	}

	ratio := float64(oldRate) / float64(newRate)
	n := int(math.Ceil(float64(len(samples)) / ratio))
	last := len(samples) - 1
	out := make([]float32, n)

	for i := range out {
		src := float64(i) * ratio
		lo := min(int(math.Floor(src)), last)
		hi := min(lo+1, last)
		weight := float32(src - float64(lo))
		out[i] = samples[lo]*(1-weight) + samples[hi]*weight
	}
	return out
}

// Normalize scales samples in place so the largest magnitude becomes 1.
// Empty or all-zero input is reported as ErrSilentOrInvalidAudio.
func Normalize(samples []float32) error {
	var peak float32
	for _, s := range samples {
		if a := abs32(s); a > peak {
			peak = a
		}
	}
	if peak == 0 || math.IsNaN(float64(peak)) || math.IsInf(float64(peak), 0) {
		return ErrSilentOrInvalidAudio
	}

	inv := 1 / peak
	for i := range samples {
		samples[i] *= inv
	}
	return nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
