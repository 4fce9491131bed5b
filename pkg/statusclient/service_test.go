package statusclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/api"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/hub"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() Options {
	return Options{
		MaxRetries:     2,
		BaseRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:  20 * time.Millisecond,
		PingInterval:   time.Second,
	}
}

func TestListen_ReceivesStatusesUntilCancelled(t *testing.T) {
	h := hub.New(logger.Nop(), metrics.New(), []string{"*"})
	greeting := api.NewStatusPayload(&pipeline.Result{Status: pipeline.Status{Kind: pipeline.StatusLoading}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, greeting)
	}))
	defer srv.Close()
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan api.StatusPayload, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- Listen(ctx, strings.TrimPrefix(srv.URL, "http://"), fastOptions(), logger.Nop(), func(p api.StatusPayload) {
			received <- p
		})
	}()

	select {
	case p := <-received:
		assert.Equal(t, pipeline.StatusLoading, p.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no greeting received")
	}

	require.NoError(t, h.Broadcast(api.NewStatusPayload(&pipeline.Result{Status: pipeline.Status{Kind: pipeline.StatusReady, Rows: 3}})))
	select {
	case p := <-received:
		assert.Equal(t, pipeline.StatusReady, p.Kind)
		assert.Equal(t, 3, p.Status.Rows)
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast received")
	}

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListen_GivesUpWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	err := Listen(context.Background(), host, fastOptions(), logger.Nop(), func(api.StatusPayload) {})
	assert.ErrorIs(t, err, ErrGaveUp)
}
