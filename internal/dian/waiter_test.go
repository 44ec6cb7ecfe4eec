package dian

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestTokenWaiterLengthGate(t *testing.T) {
	tests := []struct {
		length   int
		resolved bool
	}{
		{49, false},
		{50, false},
		{51, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("length %d", tt.length), func(t *testing.T) {
			page := newFakeSession()
			page.tokenValues = []string{strings.Repeat("a", tt.length)}
			w := NewTokenWaiter(testConfig(), nil)

			token, ok := w.Wait(context.Background(), page, 30*time.Millisecond)

			assert.Equal(t, tt.resolved, ok)
			if tt.resolved {
				assert.Len(t, token, tt.length)
			} else {
				assert.Empty(t, token)
			}
		})
	}
}

func TestTokenWaiterResolvesOnSchedule(t *testing.T) {
	page := newFakeSession()
	page.tokenValues = []string{"", "placeholder", strings.Repeat("0.", 40)}
	w := NewTokenWaiter(testConfig(), logrus.NewEntry(quietLogger()))

	token, ok := w.Wait(context.Background(), page, time.Second)

	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("0.", 40), token)
	assert.Equal(t, 3, page.tokenPolls)
}

func TestTokenWaiterTreatsReadErrorsAsPending(t *testing.T) {
	page := newFakeSession()
	page.tokenErr = errFake
	w := NewTokenWaiter(testConfig(), nil)

	token, ok := w.Wait(context.Background(), page, 30*time.Millisecond)

	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Greater(t, page.tokenPolls, 1)
}

func TestTokenWaiterStopsOnCancel(t *testing.T) {
	page := newFakeSession()
	w := NewTokenWaiter(testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok := w.Wait(ctx, page, time.Minute)

	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTokenWaiterNudgesWidget(t *testing.T) {
	page := newFakeSession()
	page.tokenValues = []string{strings.Repeat("t", 60)}
	cfg := testConfig()
	cfg.Interaction.Nudge = true
	w := NewTokenWaiter(cfg, nil)

	_, ok := w.Wait(context.Background(), page, time.Second)

	assert.True(t, ok)
	assert.Equal(t, 1, page.hoverCalls)
}
