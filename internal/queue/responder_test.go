package queue

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHandleMessageSearches(t *testing.T) {
	var gotCUFE, gotRequestID string
	search := func(ctx context.Context, cufe string) models.SearchOutcome {
		gotCUFE = cufe
		gotRequestID = logger.RequestID(ctx)
		return models.Success("<html></html>", []models.EventRecord{{Code: "030"}})
	}
	r := NewResponder(search, quietLogger())

	ctx := logger.WithRequestID(context.Background(), "req-7")
	reply := decode(t, r.handleMessage(ctx, []byte(`{"cufe":"  abc  "}`)))

	assert.Equal(t, "abc", gotCUFE)
	assert.Equal(t, "req-7", gotRequestID)
	assert.Equal(t, true, reply["ok"])
	assert.Nil(t, reply["error"])
	assert.Len(t, reply["events"], 1)
}

func TestHandleMessageAcceptsAliases(t *testing.T) {
	for _, body := range []string{
		`{"CUFE":"abc"}`,
		`{"DocumentKey":"abc"}`,
		`{"identifier":"abc"}`,
	} {
		var got string
		r := NewResponder(func(_ context.Context, cufe string) models.SearchOutcome {
			got = cufe
			return models.Success("", nil)
		}, quietLogger())

		r.handleMessage(context.Background(), []byte(body))
		assert.Equal(t, "abc", got, body)
	}
}

func TestHandleMessageRejectsBadBodies(t *testing.T) {
	called := false
	r := NewResponder(func(context.Context, string) models.SearchOutcome {
		called = true
		return models.Success("", nil)
	}, quietLogger())

	missing := decode(t, r.handleMessage(context.Background(), []byte(`{"other":"x"}`)))
	assert.Equal(t, false, missing["ok"])
	assert.Equal(t, `Missing "cufe" in body`, missing["error"])
	assert.Equal(t, []any{}, missing["events"])

	garbage := decode(t, r.handleMessage(context.Background(), []byte(`not json`)))
	assert.Equal(t, false, garbage["ok"])
	assert.Contains(t, garbage["error"], "invalid request body")

	assert.False(t, called)
	health := r.Health()
	assert.Equal(t, int64(2), health["handled"])
	assert.Equal(t, int64(2), health["failed"])
	assert.Equal(t, "unhealthy", health["status"])
}

func TestCloseWithoutSubscription(t *testing.T) {
	r := NewResponder(func(context.Context, string) models.SearchOutcome { return models.Failure("x") }, quietLogger())
	assert.NoError(t, r.Close())
}
