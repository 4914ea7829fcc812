package activitymap

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	session "github.com/goliatone/go-social-session"
)

// WriterSink writes every event as one normalized JSON line
type WriterSink struct {
	mu   sync.Mutex
	enc  *json.Encoder
	opts []Option
}

var _ session.ActivitySink = (*WriterSink)(nil)

func NewWriterSink(w io.Writer, opts ...Option) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w), opts: opts}
}

func (s *WriterSink) Record(_ context.Context, event session.ActivityEvent) error {
	record := Normalize(event, s.opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}
