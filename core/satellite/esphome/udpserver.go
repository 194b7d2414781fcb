package esphome

import (
	"errors"
	"fmt"
	"net"

	"github.com/krelja/assist-core/core/audio"
)

// udpReadBuffer fits the largest datagram older firmwares send.
const udpReadBuffer = 4096

// AudioServer receives one run's microphone audio as raw PCM datagrams.
// Devices without API audio support send to the port announced at run start;
// the server lives exactly as long as the run and is torn down with it.
type AudioServer struct {
	conn  *net.UDPConn
	queue *audio.FrameQueue
}

// StartAudioServer opens a UDP port on all interfaces and pumps received
// datagrams into the queue.
func StartAudioServer(queue *audio.FrameQueue) (*AudioServer, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio port: %w", err)
	}

	server := &AudioServer{conn: conn, queue: queue}
	go server.readLoop()
	return server, nil
}

// Port is announced to the device in the run start event arguments.
func (s *AudioServer) Port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Close stops receiving and marks the audio stream complete. Audio already
// queued is still consumed by the run.
func (s *AudioServer) Close() error {
	err := s.conn.Close()
	s.queue.Close()
	return err
}

func (s *AudioServer) readLoop() {
	info := audio.GetDefaultEncodingInfo()
	timestampMS := 0
	buffer := make([]byte, udpReadBuffer)
	for {
		n, _, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Warn("audio port read failed", "error", err)
			}
			s.queue.Close()
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buffer[:n])
		s.queue.Push(audio.Chunk{Audio: chunk, TimestampMS: timestampMS})
		timestampMS += int(info.Duration(chunk).Milliseconds())
	}
}
