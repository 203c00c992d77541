// ABOUTME: Looping MP3 and FLAC decoders producing stereo int16 PCM
// ABOUTME: Rewinds and rebuilds the decoder at end of file
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
)

// ErrUnsupported is returned for files that are neither MP3 nor FLAC
var ErrUnsupported = errors.New("unsupported audio format")

// source provides interleaved stereo int16 samples forever
type source interface {
	// Read fills samples and returns how many were written
	Read(samples []int16) (int, error)
	SampleRate() int
	Title() string
	Close() error
}

// openSource picks a decoder by file extension
func openSource(path string) (source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return newMP3Source(path)
	case ".flac":
		return newFLACSource(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac)", ErrUnsupported, ext)
	}
}

func titleOf(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// mp3Source reads from an MP3 file
type mp3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	title   string
	buf     []byte
}

func newMP3Source(path string) (*mp3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := &mp3Source{file: f, decoder: decoder, title: titleOf(path)}
	logrus.WithFields(logrus.Fields{
		"title":       s.title,
		"sample_rate": decoder.SampleRate(),
	}).Info("Loaded MP3")

	return s, nil
}

func (s *mp3Source) Read(samples []int16) (int, error) {
	// go-mp3 always decodes to 16-bit stereo little-endian
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(s.decoder, buf)
	count := n / 2
	for i := 0; i < count; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return count, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		decoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return count, fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = decoder
		logrus.WithField("title", s.title).Debug("Looping MP3")
		return count, nil
	}
	if err != nil {
		return count, err
	}
	return count, nil
}

func (s *mp3Source) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Source) Title() string   { return s.title }
func (s *mp3Source) Close() error    { return s.file.Close() }

// flacSource reads from a FLAC file
type flacSource struct {
	file     *os.File
	stream   *flac.Stream
	title    string
	channels int
	bitDepth int
	pending  []int16 // decoded samples not yet handed out
}

func newFLACSource(path string) (*flacSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	s := &flacSource{
		file:     f,
		stream:   stream,
		title:    titleOf(path),
		channels: int(stream.Info.NChannels),
		bitDepth: int(stream.Info.BitsPerSample),
	}

	logrus.WithFields(logrus.Fields{
		"title":       s.title,
		"sample_rate": stream.Info.SampleRate,
		"channels":    s.channels,
		"bit_depth":   s.bitDepth,
	}).Info("Loaded FLAC")

	return s, nil
}

func (s *flacSource) Read(samples []int16) (int, error) {
	written := 0
	rewound := false

	for written < len(samples) {
		if len(s.pending) > 0 {
			n := copy(samples[written:], s.pending)
			s.pending = s.pending[n:]
			written += n
			continue
		}

		frame, err := s.stream.ParseNext()
		if err == io.EOF {
			if rewound {
				// Empty stream, avoid spinning
				return written, nil
			}
			if err := s.rewind(); err != nil {
				return written, err
			}
			rewound = true
			continue
		}
		if err != nil {
			return written, err
		}

		s.pending = s.pending[:0]
		for i := 0; i < int(frame.BlockSize); i++ {
			left := frame.Subframes[0].Samples[i]
			right := left
			if s.channels > 1 {
				right = frame.Subframes[1].Samples[i]
			}
			s.pending = append(s.pending, s.to16(left), s.to16(right))
		}
	}

	return written, nil
}

func (s *flacSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	logrus.WithField("title", s.title).Debug("Looping FLAC")
	return nil
}

// to16 scales a sample of the stream's bit depth to 16 bits
func (s *flacSource) to16(v int32) int16 {
	shift := s.bitDepth - 16
	if shift > 0 {
		return int16(v >> shift)
	}
	return int16(v << -shift)
}

func (s *flacSource) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *flacSource) Title() string   { return s.title }
func (s *flacSource) Close() error    { return s.file.Close() }
