package handler

import (
	"sync/atomic"

	"pdf-tile-renderer/internal/domain"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct {
	warnings atomic.Int64
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             { l.warnings.Add(1) }

// Warnings counts Warn calls.
func (l *MockHandlerLogger) Warnings() int64 { return l.warnings.Load() }

var _ domain.Logger = (*MockHandlerLogger)(nil)
