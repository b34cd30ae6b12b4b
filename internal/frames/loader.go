package frames

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/bluele/gcache"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/logtail"
)

const (
	defaultInstructionLines = 200
	defaultCacheSize        = 64
)

// Config describes where per-frame files live.
type Config struct {
	ImagePattern        string // fmt template taking the frame number, e.g. "frames/frame_%05d.png"
	InstructionsPattern string
	InstructionLines    int
	CacheSize           int
}

// Aux is what was found on disk for one frame.
type Aux struct {
	Frame            int64
	ImagePath        string
	HasImage         bool
	ImageSize        int64
	InstructionsPath string
	Instructions     []string
	Problems         []string
}

// ImageSizeHuman formats ImageSize for display.
func (a Aux) ImageSizeHuman() string {
	if !a.HasImage {
		return "-"
	}
	return humanize.IBytes(uint64(a.ImageSize))
}

// Complete reports whether every configured file was found.
func (a Aux) Complete() bool {
	return len(a.Problems) == 0
}

// Loader resolves and caches auxiliary files per frame.
type Loader struct {
	cfg      Config
	cache    gcache.Cache
	log      *logrus.Entry
	inflight atomic.Bool
}

// NewLoader returns a Loader. A nil logger falls back to the standard logger.
func NewLoader(cfg Config, log *logrus.Entry) *Loader {
	if cfg.InstructionLines <= 0 {
		cfg.InstructionLines = defaultInstructionLines
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loader{
		cfg:   cfg,
		cache: gcache.New(cfg.CacheSize).LRU().Build(),
		log:   log.WithField("component", "frames"),
	}
}

// Enabled reports whether any per-frame file pattern is configured.
func (l *Loader) Enabled() bool {
	return l != nil && (l.cfg.ImagePattern != "" || l.cfg.InstructionsPattern != "")
}

// Request loads frame unless another load is still running, in which case
// the request is dropped and ok is false.
func (l *Loader) Request(frame int64) (aux Aux, ok bool) {
	if !l.inflight.CompareAndSwap(false, true) {
		l.log.WithField("frame", frame).Debug("aux load in flight, dropping request")
		return Aux{}, false
	}
	defer l.inflight.Store(false)
	return l.Load(frame), true
}

// Load returns the auxiliary files of frame. Missing files are listed in
// Problems. Only complete results are cached, since the emulator may still
// be writing the files of recent frames.
func (l *Loader) Load(frame int64) Aux {
	if v, err := l.cache.Get(frame); err == nil {
		if aux, ok := v.(Aux); ok {
			return aux
		}
	}

	aux := Aux{Frame: frame}
	if l.cfg.ImagePattern != "" {
		aux.ImagePath = fmt.Sprintf(l.cfg.ImagePattern, frame)
		info, err := os.Stat(aux.ImagePath)
		switch {
		case err == nil:
			aux.HasImage = true
			aux.ImageSize = info.Size()
		case errors.Is(err, os.ErrNotExist):
			aux.Problems = append(aux.Problems, "image missing: "+aux.ImagePath)
		default:
			aux.Problems = append(aux.Problems, fmt.Sprintf("stat image: %v", err))
		}
	}

	if l.cfg.InstructionsPattern != "" {
		aux.InstructionsPath = fmt.Sprintf(l.cfg.InstructionsPattern, frame)
		if _, err := os.Stat(aux.InstructionsPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				aux.Problems = append(aux.Problems, "instructions missing: "+aux.InstructionsPath)
			} else {
				aux.Problems = append(aux.Problems, fmt.Sprintf("stat instructions: %v", err))
			}
		} else {
			lines, err := logtail.Read(aux.InstructionsPath, l.cfg.InstructionLines)
			if err != nil {
				aux.Problems = append(aux.Problems, fmt.Sprintf("read instructions: %v", err))
			}
			aux.Instructions = lines
		}
	}

	if aux.Complete() {
		if err := l.cache.Set(frame, aux); err != nil {
			l.log.WithError(err).Debug("cache aux")
		}
	} else {
		l.log.WithFields(logrus.Fields{"frame": frame, "problems": len(aux.Problems)}).Debug("aux files incomplete")
	}
	return aux
}
