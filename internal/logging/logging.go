package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger
type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxAgeDays int
}

// Setup configures the standard logrus logger. With a file set, output goes
// to stderr and to a size-rotated file.
func Setup(opts Options) error {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if opts.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	log.SetOutput(Writer(opts, os.Stderr))
	return nil
}

// Writer returns out, teed into a rotating file when opts.File is set
func Writer(opts Options, out io.Writer) io.Writer {
	if opts.File == "" {
		return out
	}
	return io.MultiWriter(out, &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxAge:     opts.MaxAgeDays,
		MaxBackups: 5,
		Compress:   true,
	})
}
