//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of Floe.
//
// Floe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Floe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Floe. If not, see https://www.gnu.org/licenses/.

// Package logging configures the process-wide zap logger every run_id
// attaches itself to: one JSON line per event on stderr, with run_id
// and entity carried as structured fields rather than folded into the
// message text.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger writing newline-delimited JSON to w, tagged
// with runID for every subsequent entry. verbose lowers the minimum
// level from info to debug.
func New(w io.Writer, runID string, verbose bool) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "ts",
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core).With(zap.String("run_id", runID))
}

// NewStderr is New with os.Stderr as the sink, used by the run
// subcommand.
func NewStderr(runID string, verbose bool) *zap.Logger {
	return New(os.Stderr, runID, verbose)
}

// Entity returns a child logger tagged with the entity name, so every
// line a file pass emits during that entity's run carries it.
func Entity(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("entity", name))
}

// FileStatus logs one input file's terminal status at the level its
// outcome warrants: warn for a rejected or aborted file, error for an
// outright failure, info for every other status.
func FileStatus(l *zap.Logger, file, status string, rowCount, acceptedCount, rejectedCount uint64) {
	fields := []zap.Field{
		zap.String("file", file),
		zap.String("status", status),
		zap.Uint64("rows", rowCount),
		zap.Uint64("accepted", acceptedCount),
		zap.Uint64("rejected", rejectedCount),
	}
	switch status {
	case "failed":
		l.Error("file processed", fields...)
	case "rejected", "aborted":
		l.Warn("file processed", fields...)
	default:
		l.Info("file processed", fields...)
	}
}
