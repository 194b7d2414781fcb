package satellite

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krelja/assist-core/core/audio"
)

func TestChunkAudio_SlicesWithRunningTimestamps(t *testing.T) {
	pcm := make([]byte, 2*audio.BytesPerChunk+100)

	var chunks []audio.Chunk
	for chunk := range ChunkAudio(pcm, audio.BytesPerChunk) {
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Audio) != audio.BytesPerChunk || len(chunks[2].Audio) != 100 {
		t.Fatalf("unexpected chunk sizes: %d, %d", len(chunks[0].Audio), len(chunks[2].Audio))
	}
	if chunks[0].TimestampMS != 0 || chunks[1].TimestampMS != audio.MSPerChunk || chunks[2].TimestampMS != 2*audio.MSPerChunk {
		t.Fatalf("timestamps do not accumulate: %d, %d, %d",
			chunks[0].TimestampMS, chunks[1].TimestampMS, chunks[2].TimestampMS)
	}
}

func TestStreamPaced_TakesAtLeastPlayDuration(t *testing.T) {
	pcm := make([]byte, 4*audio.BytesPerChunk)

	started := time.Now()
	sent := 0
	err := StreamPaced(context.Background(), audio.GetDefaultEncodingInfo(), ChunkAudio(pcm, audio.BytesPerChunk),
		func(audio.Chunk) error {
			sent++
			return nil
		})
	if err != nil {
		t.Fatalf("streaming failed: %v", err)
	}

	if sent != 4 {
		t.Fatalf("expected 4 chunks sent, got %d", sent)
	}
	if elapsed := time.Since(started); elapsed < 4*audio.MSPerChunk*time.Millisecond {
		t.Fatalf("stream finished in %v, faster than real time", elapsed)
	}
}

func TestStreamPaced_PropagatesSendErrors(t *testing.T) {
	pcm := make([]byte, 2*audio.BytesPerChunk)
	boom := errors.New("device gone")

	err := StreamPaced(context.Background(), audio.GetDefaultEncodingInfo(), ChunkAudio(pcm, audio.BytesPerChunk),
		func(audio.Chunk) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected the send error, got %v", err)
	}
}

func TestStreamPaced_StopsOnCancel(t *testing.T) {
	pcm := make([]byte, 100*audio.BytesPerChunk)
	ctx, cancel := context.WithCancel(context.Background())

	err := StreamPaced(ctx, audio.GetDefaultEncodingInfo(), ChunkAudio(pcm, audio.BytesPerChunk),
		func(audio.Chunk) error {
			cancel()
			return nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a cancellation, got %v", err)
	}
}

// buildWAV wraps raw PCM in a minimal RIFF container with an extra chunk
// before the data chunk, like encoders that emit LIST metadata.
func buildWAV(pcm []byte) []byte {
	var buffer bytes.Buffer
	writeChunk := func(id string, body []byte) {
		buffer.WriteString(id)
		_ = binary.Write(&buffer, binary.LittleEndian, uint32(len(body)))
		buffer.Write(body)
		if len(body)%2 == 1 {
			buffer.WriteByte(0)
		}
	}

	buffer.WriteString("RIFF")
	_ = binary.Write(&buffer, binary.LittleEndian, uint32(0))
	buffer.WriteString("WAVE")
	writeChunk("fmt ", make([]byte, 16))
	writeChunk("LIST", []byte("INFOxyz"))
	writeChunk("data", pcm)
	return buffer.Bytes()
}

func TestPCMFromWAV_ExtractsDataChunk(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	got := PCMFromWAV(buildWAV(pcm))
	if !bytes.Equal(got, pcm) {
		t.Fatalf("expected %v, got %v", pcm, got)
	}
}

func TestPCMFromWAV_PassesRawPCMThrough(t *testing.T) {
	raw := []byte{9, 8, 7, 6}
	if got := PCMFromWAV(raw); !bytes.Equal(got, raw) {
		t.Fatalf("raw PCM must pass through unchanged, got %v", got)
	}
}

func TestPCMFromWAV_MissingDataChunkPassesThrough(t *testing.T) {
	var buffer bytes.Buffer
	buffer.WriteString("RIFF")
	_ = binary.Write(&buffer, binary.LittleEndian, uint32(4))
	buffer.WriteString("WAVE")
	buffer.WriteString("fmt ")
	_ = binary.Write(&buffer, binary.LittleEndian, uint32(16))
	buffer.Write(make([]byte, 16))

	headerOnly := buffer.Bytes()
	if got := PCMFromWAV(headerOnly); !bytes.Equal(got, headerOnly) {
		t.Fatalf("a container without sample data must pass through unchanged, got %v", got)
	}
}

func TestPCMFromWAV_TruncatedDataChunk(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := buildWAV(pcm)
	truncated := wav[:len(wav)-2]

	got := PCMFromWAV(truncated)
	if !bytes.Equal(got, pcm[:2]) {
		t.Fatalf("expected the available prefix, got %v", got)
	}
}

func TestFetchMedia(t *testing.T) {
	body := []byte("synthesized audio")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	got, err := FetchMedia(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("failed to fetch media: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("media body mangled: %q", got)
	}
}

func TestFetchMedia_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := FetchMedia(context.Background(), server.URL); err == nil {
		t.Fatalf("expected an error for a missing media id")
	}
}
