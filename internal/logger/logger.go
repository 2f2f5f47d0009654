package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log до вызова Init пишет в stderr с уровнем info, чтобы пакеты можно было использовать в тестах.
var Log = logrus.New()

type Options struct {
	Level string
	// File — путь к файлу логов; пустая строка означает только stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool
}

// Init инициализирует структурированный логгер.
func Init(opts Options) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	if opts.JSON {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		SetTextFormatter()
	}

	if opts.File != "" {
		Log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 100),
			MaxBackups: valueOr(opts.MaxBackups, 5),
			MaxAge:     valueOr(opts.MaxAgeDays, 28),
			Compress:   true,
		}))
	}
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

func valueOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
