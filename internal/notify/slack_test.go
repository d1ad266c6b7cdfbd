package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/pingwatch/internal/domain"
)

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	require.NotNil(t, s)
	err := s.Send(context.Background(), domain.AlertMessage{Subject: "Title", Body: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "*Title*\nHello", got)
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), domain.AlertMessage{Subject: "X", Body: "Y"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestSlack_Forbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), domain.AlertMessage{Subject: "X", Body: "Y"})
	assert.ErrorIs(t, err, ErrAuth)
}

func TestNewSlack_EmptyWebhookDisabled(t *testing.T) {
	assert.Nil(t, NewSlack(""))
}
