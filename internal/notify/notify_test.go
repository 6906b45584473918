package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Itecs-company/Alias/pkg/telegram"
)

func TestTelegramNotifierDelivers(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegram(telegram.NewClient("test-token", "42", telegram.WithBaseURL(srv.URL)))
	n.Notify(context.Background(), "batch resolution finished")

	assert.Contains(t, gotPath, "sendMessage")
}

func TestTelegramNotifierSwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegram(telegram.NewClient("test-token", "42", telegram.WithBaseURL(srv.URL)))

	// must not panic or propagate anything
	n.Notify(context.Background(), "this will fail")
}

func TestNoop(t *testing.T) {
	Noop{}.Notify(context.Background(), "discarded")
}
