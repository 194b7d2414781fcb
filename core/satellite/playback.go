package satellite

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/krelja/assist-core/core/audio"
)

// StreamPaced delivers chunks at real-time rate: each chunk is sent and then
// the stream sleeps for the chunk's play duration, so a device with a small
// audio buffer is never flooded. Returns the context error if cancelled
// mid-stream.
func StreamPaced(ctx context.Context, info audio.EncodingInfo, chunks iter.Seq[audio.Chunk], send func(audio.Chunk) error) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for chunk := range chunks {
		if err := send(chunk); err != nil {
			return fmt.Errorf("failed to send audio chunk: %w", err)
		}

		wait := info.Duration(chunk.Audio)
		if wait <= 0 {
			continue
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// ChunkAudio slices a raw PCM buffer into fixed-size chunks for paced
// streaming. The final chunk may be shorter.
func ChunkAudio(pcm []byte, chunkBytes int) iter.Seq[audio.Chunk] {
	return func(yield func(audio.Chunk) bool) {
		info := audio.GetDefaultEncodingInfo()
		timestampMS := 0
		for offset := 0; offset < len(pcm); offset += chunkBytes {
			end := min(offset+chunkBytes, len(pcm))
			chunk := audio.Chunk{Audio: pcm[offset:end], TimestampMS: timestampMS}
			if !yield(chunk) {
				return
			}
			timestampMS += int(info.Duration(chunk.Audio) / time.Millisecond)
		}
	}
}

// PCMFromWAV strips a WAV container down to its sample data. Anything that
// is not a RIFF/WAVE file is returned unchanged, so already-raw PCM passes
// through.
func PCMFromWAV(data []byte) []byte {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data
	}

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkID == "data" {
			end := min(body+chunkSize, len(data))
			return data[body:end]
		}
		// Chunks are word aligned.
		offset = body + chunkSize + chunkSize%2
	}
	// A RIFF container without a data chunk is malformed; pass it through
	// like the non-RIFF path rather than silencing playback entirely.
	return data
}

var mediaClient = &http.Client{
	Transport: otelhttp.NewTransport(http.DefaultTransport),
	Timeout:   30 * time.Second,
}

// FetchMedia downloads synthesized audio from the host's media URL.
func FetchMedia(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media request: %w", err)
	}

	response, err := mediaClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch media: unexpected status %s", response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", err)
	}
	return body, nil
}
