// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package log reproduces the handful of github.com/ethereum/go-ethereum/log
// entry points this module's runtime diagnostics need, backed by log/slog the
// same way the teacher's package is.
package log

import (
	"context"
	"log/slog"
	"os"
	"time"
)

const (
	LevelCrit  = slog.Level(10)
	LevelError = slog.LevelError
	LevelWarn  = slog.LevelWarn
	LevelInfo  = slog.LevelInfo
	LevelDebug = slog.LevelDebug
	LevelTrace = slog.Level(-8)
)

// Logger writes structured, leveled log records, mirroring the subset of the
// teacher's log.Logger interface this module calls.
type Logger interface {
	With(ctx ...any) Logger
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a new Logger backed by h.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) With(ctx ...any) Logger { return &logger{inner: l.inner.With(ctx...)} }
func (l *logger) New(ctx ...any) Logger  { return l.With(ctx...) }

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any) {
	l.write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

var root = NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level:     LevelTrace,
	AddSource: false,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
		}
		return a
	},
}))

// Root returns the root logger.
func Root() Logger { return root }

// SetDefault sets l as the package-level root logger used by the
// top-level Trace/Debug/.../Crit helpers below.
func SetDefault(l Logger) { root = l }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }

// New creates a new Logger with the given context, a shorthand for
// Root().New(ctx...), matching the teacher's package-level New helper.
func New(ctx ...any) Logger { return root.New(ctx...) }
