// ABOUTME: Linear resampler used to time-stretch frame batches
// ABOUTME: Converts interleaved int16 audio between rates by linear interpolation
package resample

import "github.com/Resonate-Protocol/avsync/pkg/audio"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // input frames per output frame
	carry      float64 // fractional output frame owed from the previous chunk
	out        []int16
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = audio.Channels
	}
	if inputRate <= 0 || outputRate <= 0 {
		inputRate, outputRate = 1, 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Ratio returns output frames produced per input frame
func (r *Resampler) Ratio() float64 {
	return float64(r.outputRate) / float64(r.inputRate)
}

// Resample converts input samples into output and returns the number of
// samples written. Output is truncated to whole frames if it is too small.
func (r *Resampler) Resample(input []int16, output []int16) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	want := float64(inputFrames)/r.ratio + r.carry
	outputFrames := int(want + 1e-9)
	r.carry = want - float64(outputFrames)

	if limit := len(output) / r.channels; outputFrames > limit {
		outputFrames = limit
	}

	last := inputFrames - 1
	for outIdx := 0; outIdx < outputFrames; outIdx++ {
		pos := float64(outIdx) * r.ratio
		idx := int(pos)
		if idx > last {
			idx = last
		}
		next := idx + 1
		if next > last {
			next = last
		}
		frac := pos - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(input[idx*r.channels+ch])
			s2 := float64(input[next*r.channels+ch])
			output[outIdx*r.channels+ch] = audio.ClampInt16(int32(s1*(1.0-frac) + s2*frac))
		}
	}

	return outputFrames * r.channels
}

// Process stretches one batch. The returned slice is reused by the next call.
// Equal rates pass the input through untouched.
func (r *Resampler) Process(samples []int16) []int16 {
	if r.inputRate == r.outputRate {
		return samples
	}

	need := r.OutputSamplesNeeded(len(samples)) + r.channels
	if cap(r.out) < need {
		r.out = make([]int16, need)
	}
	r.out = r.out[:need]

	n := r.Resample(samples, r.out)
	return r.out[:n]
}

// Reset clears the fractional carry
func (r *Resampler) Reset() {
	r.carry = 0
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
