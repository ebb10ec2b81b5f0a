package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode opens and decodes an mp3 or wav file. The caller closes the
// returned streamer.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".wav" {
		return nil, beep.Format{}, fault.Wrap(ErrUnsupportedFormat,
			fmsg.WithDesc(ext, fmt.Sprintf("%s is not a wav or mp3 file.", path)),
			ftag.With(ftag.InvalidArgument))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fault.Wrap(err,
			fmsg.WithDesc("open sample", fmt.Sprintf("Cannot open sample %s.", path)),
			ftag.With(ftag.NotFound))
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	default:
		stream, format, err = wav.Decode(file)
	}
	if err != nil {
		file.Close()
		return nil, beep.Format{}, fault.Wrap(err,
			fmsg.WithDesc("decode sample", fmt.Sprintf("Cannot decode sample %s.", path)),
			ftag.With(ftag.InvalidArgument))
	}
	return stream, format, nil
}

// Length returns how long a decoded stream plays, or 0 when unknown.
func Length(s beep.StreamSeeker, format beep.Format) time.Duration {
	n := s.Len()
	if n <= 0 {
		return 0
	}
	return format.SampleRate.D(n)
}
