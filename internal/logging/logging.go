// Package logging builds the per-session logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"

	"github.com/rendis/geobounds/internal/config"
)

// Session is a logger bound to one run. Close releases the log file.
type Session struct {
	*logrus.Entry
	ID   string
	Path string
	file *os.File
}

// New opens <dir>/<date>-<session>.log and, when cfg.Terminal is set, also
// writes to stderr. With neither a dir nor the terminal, output is discarded.
func New(cfg config.LogConfig) (*Session, error) {
	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		NoColors:        !cfg.Terminal,
		TimestampFormat: "2006-01-02 15:04:05.000",
		FieldsOrder:     []string{"session", "component"},
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	s := &Session{ID: id}
	var outs []io.Writer
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		s.Path = filepath.Join(cfg.Dir, fmt.Sprintf("%s-%s.log", time.Now().Format("2006-01-02"), id))
		f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		s.file = f
		outs = append(outs, f)
	}
	if cfg.Terminal {
		outs = append(outs, os.Stderr)
	}
	if len(outs) == 0 {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(outs...)))
	}

	s.Entry = log.WithField("session", id)
	return s, nil
}

// Component returns a child logger tagged with name.
func (s *Session) Component(name string) logrus.FieldLogger {
	return s.WithField("component", name)
}

func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
