package usecase

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/samplestore/internal/config"
	"github.com/polkiloo/samplestore/internal/pkg/lock"
	testhelpers "github.com/polkiloo/samplestore/internal/test"
)

func testConfig() *config.Config {
	return &config.Config{
		CodeShape:         config.CodeShapeNumeric,
		CodeLength:        6,
		AllocatorAttempts: 10,
		ConflictRetries:   3,
		SampleTitle:       "Amostra",
		SamplePrice:       "19.90",
		SiteURL:           "https://store.test/",
		NotificationURL:   "https://store.test/api/webhooks/payments",
		Timezone:          "America/Sao_Paulo",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer lets concurrent handlers write log lines safely.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type reconcilerFixture struct {
	store     *testhelpers.MemoryStore
	publisher *testhelpers.PublisherStub
	allocator *CodeAllocator
	rec       *Reconciler
}

func newReconcilerFixture(logger *slog.Logger) *reconcilerFixture {
	cfg := testConfig()
	store := testhelpers.NewMemoryStore()
	publisher := &testhelpers.PublisherStub{}
	allocator := NewCodeAllocator(cfg, logger)
	rec := NewReconciler(cfg, logger, store, allocator, lock.NewLocalLocker(5*time.Second), publisher)
	return &reconcilerFixture{store: store, publisher: publisher, allocator: allocator, rec: rec}
}

// sequence returns a generator yielding codes in order, repeating the last one.
func sequence(codes ...string) func() (string, error) {
	var (
		mu sync.Mutex
		i  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}
