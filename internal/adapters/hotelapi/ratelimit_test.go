package hotelapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestDo_RetriesWaitOnLimiter(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	cl, err := New(ts.URL, Options{Timeout: time.Second, MaxAttempts: 3})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// two tokens now, the next one in ~17 minutes
	cl.rl = rate.NewLimiter(rate.Every(1000*time.Second), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := cl.RoomTypes(ctx); err == nil {
		t.Fatalf("expected an error once the limiter runs dry")
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("third attempt must wait for a token, got %d requests", n)
	}
}
