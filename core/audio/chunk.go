package audio

// Chunk is a raw PCM buffer with a timestamp relative to the start of its
// stream. Chunks are produced by a transport bridge and consumed exactly once
// by the stage reading the stream; only the wake word pre-roll buffer may
// hold on to them afterwards.
type Chunk struct {
	Audio []byte

	// TimestampMS is milliseconds since the start of the audio stream.
	TimestampMS int
}

// Seconds reports the chunk's play time assuming 16-bit samples.
func (c Chunk) Seconds(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(c.Audio)/SampleWidth) / float64(sampleRate)
}
