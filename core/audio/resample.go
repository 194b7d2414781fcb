package audio

import "encoding/binary"

// Resampler converts a stream of 16-bit mono PCM chunks between sample rates
// using linear interpolation. Conversion state is carried across chunk
// boundaries so that a chunked stream resamples the same as the concatenated
// stream, except for the interpolation seam at each boundary.
//
// Not safe for concurrent use; one Resampler per stream.
type Resampler struct {
	srcRate int
	dstRate int

	// pos is the absolute source-sample index of the next output sample.
	pos float64
	// consumed is the absolute index just past the last carried sample.
	consumed int
	// carry holds the final source sample of the previous chunk so the
	// first output samples of the next chunk can interpolate across the
	// boundary.
	carry    int16
	hasCarry bool
}

func NewResampler(srcRate, dstRate int) *Resampler {
	return &Resampler{srcRate: srcRate, dstRate: dstRate}
}

// Resample converts one chunk. For matching rates the input is returned
// unchanged. Output length varies by at most one sample between chunks of
// equal size; over the whole stream the ratio is exact.
func (r *Resampler) Resample(chunk []byte) []byte {
	if r.srcRate == r.dstRate || len(chunk) < SampleWidth {
		return chunk
	}

	samples := bytesToSamples(chunk)

	// Stitch the carried sample in front of the new samples. base is the
	// absolute index of buffer[0].
	var buffer []int16
	base := r.consumed
	if r.hasCarry {
		buffer = make([]int16, 0, len(samples)+1)
		buffer = append(buffer, r.carry)
		buffer = append(buffer, samples...)
		base--
	} else {
		buffer = samples
	}

	ratio := float64(r.srcRate) / float64(r.dstRate)
	var out []int16
	for {
		idx := r.pos - float64(base)
		i := int(idx)
		if i+1 >= len(buffer) {
			break
		}
		frac := idx - float64(i)
		a, b := float64(buffer[i]), float64(buffer[i+1])
		out = append(out, int16(a+(b-a)*frac))
		r.pos += ratio
	}

	r.consumed += len(samples)
	r.carry = buffer[len(buffer)-1]
	r.hasCarry = true

	return samplesToBytes(out)
}

func bytesToSamples(chunk []byte) []int16 {
	samples := make([]int16, len(chunk)/SampleWidth)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(chunk[i*SampleWidth:]))
	}
	return samples
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*SampleWidth)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*SampleWidth:], uint16(sample))
	}
	return out
}
