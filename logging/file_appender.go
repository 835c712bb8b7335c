package logging

import (
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileAppender writes console formatted lines to a size-rotated log file.
type FileAppender struct {
	ConsoleAppender
	file *lumberjack.Logger
}

// NewFileAppender appends to path, rotating it at maxSizeMB and keeping two compressed backups.
func NewFileAppender(path string, maxSizeMB int) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   filepath.Clean(path),
		MaxSize:    maxSizeMB,
		MaxBackups: 2,
		Compress:   true,
	}
	return &FileAppender{ConsoleAppender: NewWriterAppender(file), file: file}
}

// Close closes the current log file. Later writes reopen it.
func (appender *FileAppender) Close() error {
	return appender.file.Close()
}
