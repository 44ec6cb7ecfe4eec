package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the caller's request id on a NATS message
const RequestIDHeader = "X-Request-ID"

// SearchFunc runs one search
type SearchFunc func(ctx context.Context, cufe string) models.SearchOutcome

// Responder answers search requests on a NATS queue group
type Responder struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	queue   string
	search  SearchFunc
	logger  *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	handled atomic.Int64
	failed  atomic.Int64
}

// NewResponder creates a responder that is not yet subscribed
func NewResponder(search SearchFunc, logger *logrus.Logger) *Responder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Responder{
		search: search,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials NATS and subscribes to cfg.Subject in queue group cfg.Queue
func Connect(cfg config.NATSConfig, search SearchFunc, logger *logrus.Logger) (*Responder, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("dian-api"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	r := NewResponder(search, logger)
	if err := r.Subscribe(conn, cfg.Subject, cfg.Queue); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

// Subscribe starts answering messages on subject using conn
func (r *Responder) Subscribe(conn *nats.Conn, subject, queue string) error {
	sub, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		requestID := msg.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// searches take seconds; reply from a goroutine so the subscription keeps flowing
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ctx := logger.WithRequestID(r.ctx, requestID)
			if err := msg.Respond(r.handleMessage(ctx, msg.Data)); err != nil {
				r.logger.WithError(err).WithField("request_id", requestID).Warn("Failed to send NATS reply")
			}
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	r.conn = conn
	r.sub = sub
	r.subject = subject
	r.queue = queue
	r.logger.WithFields(logrus.Fields{
		"subject": subject,
		"queue":   queue,
	}).Info("NATS responder subscribed")
	return nil
}

// handleMessage decodes a search request and encodes the outcome
func (r *Responder) handleMessage(ctx context.Context, data []byte) []byte {
	r.handled.Add(1)

	var req models.SearchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.failed.Add(1)
		return encode(models.Failure(fmt.Sprintf("invalid request body: %v", err)))
	}
	cufe := req.Key()
	if cufe == "" {
		r.failed.Add(1)
		return encode(models.Failure(`Missing "cufe" in body`))
	}

	logger.FromContext(ctx, r.logger, "nats").
		WithField("cufe", utils.MaskIdentifier(cufe)).
		Info("Search requested over NATS")

	outcome := r.search(ctx, cufe)
	if !outcome.Ok {
		r.failed.Add(1)
	}
	return encode(outcome)
}

func encode(outcome models.SearchOutcome) []byte {
	data, err := json.Marshal(outcome)
	if err != nil {
		return []byte(`{"ok":false,"html":null,"events":[],"error":"failed to encode outcome","errorId":null}`)
	}
	return data
}

// Health returns the responder status
func (r *Responder) Health() map[string]interface{} {
	status := "healthy"
	if r.conn == nil || !r.conn.IsConnected() {
		status = "unhealthy"
	}
	return map[string]interface{}{
		"status":  status,
		"subject": r.subject,
		"queue":   r.queue,
		"handled": r.handled.Load(),
		"failed":  r.failed.Load(),
	}
}

// Close unsubscribes, cancels in-flight searches, waits for their replies and closes the connection
func (r *Responder) Close() error {
	var err error
	if r.sub != nil {
		err = r.sub.Unsubscribe()
	}
	r.cancel()
	r.wg.Wait()
	if r.conn != nil {
		r.conn.Close()
	}
	return err
}
