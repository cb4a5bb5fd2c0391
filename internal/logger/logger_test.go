package logger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsToInfoLevelOnBadInput(t *testing.T) {
	log := New(Config{Level: "not-a-level"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_JSONFormatter(t *testing.T) {
	log := New(Config{Format: "json"})
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestWithContext_AttachesTraceAndUserFields(t *testing.T) {
	log := New(Config{Level: "debug"})
	ctx := WithUser(context.Background(), "u1")
	ctx = context.WithValue(ctx, TraceIDKey, "trace-123")

	entry := log.WithContext(ctx)
	assert.Equal(t, "u1", entry.Data["user_id"])
	assert.Equal(t, "trace-123", entry.Data["trace_id"])
}

func TestWithContext_NoFieldsWhenAbsent(t *testing.T) {
	log := New(Config{})
	entry := log.WithContext(context.Background())
	_, hasUser := entry.Data["user_id"]
	assert.False(t, hasUser)
}
