// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to render uploaded notes at the canonical rate using linear interpolation
package resample

// Resampler converts a mono signal from one sample rate to another
type Resampler interface {
	Resample(input []float32, inputRate, outputRate int) []float32
}

// OutputFrames calculates how many frames a signal of inputFrames produces
// at outputRate: floor(inputFrames * outputRate / inputRate).
func OutputFrames(inputFrames, inputRate, outputRate int) int {
	if inputFrames <= 0 || inputRate <= 0 || outputRate <= 0 {
		return 0
	}
	return int(int64(inputFrames) * int64(outputRate) / int64(inputRate))
}

// Linear performs linear interpolation to convert between sample rates
type Linear struct{}

// NewLinear creates a new linear resampler
func NewLinear() *Linear {
	return &Linear{}
}

// Resample converts input samples to output sample rate using linear interpolation.
// Positions past the last input frame hold the final sample.
func (r *Linear) Resample(input []float32, inputRate, outputRate int) []float32 {
	outputFrames := OutputFrames(len(input), inputRate, outputRate)
	output := make([]float32, outputFrames)
	if outputFrames == 0 {
		return output
	}

	if inputRate == outputRate {
		copy(output, input)
		return output
	}

	ratio := float64(inputRate) / float64(outputRate)
	last := len(input) - 1

	for outIdx := 0; outIdx < outputFrames; outIdx++ {
		// Calculate which input frame we need
		inputPos := float64(outIdx) * ratio
		inputIdx := int(inputPos)

		if inputIdx >= last {
			output[outIdx] = input[last]
			continue
		}

		// Linear interpolation factor
		frac := inputPos - float64(inputIdx)
		sample1 := float64(input[inputIdx])
		sample2 := float64(input[inputIdx+1])
		output[outIdx] = float32(sample1*(1.0-frac) + sample2*frac)
	}

	return output
}
