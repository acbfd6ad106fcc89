package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/convtrack/app/notify/mocks"
)

func TestService_EmptyDestinations(t *testing.T) {
	svc := NewService(Params{}, SendersParams{})
	require.Nil(t, svc)
	svc = NewService(Params{}, SendersParams{SlackToken: "token"})
	require.Nil(t, svc, "slack without channels")
}

func TestMakeErrorTextDefault(t *testing.T) {
	svc := NewService(Params{HostName: "box1"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeErrorText("j1", "avif", "ffmpeg failed")
	require.NoError(t, err)
	assert.Contains(t, res, "Conversion j1 failed on box1")
	assert.Contains(t, res, "Format: avif")
	assert.Contains(t, res, "Reason: ffmpeg failed")
}

func TestMakeErrorTextCustom(t *testing.T) {
	svc := NewService(Params{ErrorTemplate: "testfiles/err.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeErrorText("j1", "gif", "boom")
	require.NoError(t, err)
	assert.Equal(t, "Job j1 failed: boom\n", res)

	svc = NewService(Params{ErrorTemplate: "testfiles/err-bad.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err = svc.MakeErrorText("j1", "gif", "boom")
	require.NoError(t, err)
	assert.Contains(t, res, "Reason: boom", "default template used")

	svc = NewService(Params{ErrorTemplate: "testfiles/no-such.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeErrorText("j1", "gif", "boom")
	require.NoError(t, err)
	assert.Contains(t, res, "Conversion j1 failed")
}

func TestMakeCompletionText(t *testing.T) {
	svc := NewService(Params{HostName: "box1"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeCompletionText("j2", "webp", "/gifs/j2.webp")
	require.NoError(t, err)
	assert.Contains(t, res, "Conversion j2 completed on box1")
	assert.Contains(t, res, "Output: /gifs/j2.webp")

	svc = NewService(Params{CompletionTemplate: "testfiles/completed.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeCompletionText("j2", "webp", "/gifs/j2.webp")
	require.NoError(t, err)
	assert.Equal(t, "Job j2 done: /gifs/j2.webp\n", res)

	svc = NewService(Params{CompletionTemplate: "testfiles/completed-bad.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeCompletionText("j2", "webp", "/gifs/j2.webp")
	require.NoError(t, err)
	assert.Contains(t, res, "Output: /gifs/j2.webp")
}

func TestService_IsOnFlags(t *testing.T) {
	svc := NewService(Params{EnabledCompletion: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.True(t, svc.IsOnCompletion())
	assert.False(t, svc.IsOnError())

	svc = NewService(Params{EnabledError: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.False(t, svc.IsOnCompletion())
	assert.True(t, svc.IsOnError())
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name           string
		subj           string
		text           string
		destination    string
		mockSendErr    error
		expectedErrMsg string
	}{
		{
			name:        "successful send",
			subj:        "Test Subject",
			text:        "Test Text",
			destination: "mailto:to@example.com,to2@example.com?from=from@example.com&subject=Test+Subject",
		},
		{
			name:           "send error",
			subj:           "Problem Subject",
			text:           "Problem Text",
			destination:    "mailto:to@example.com,to2@example.com?from=from@example.com&subject=Problem+Subject",
			mockSendErr:    errors.New("mock error"),
			expectedErrMsg: "mock error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailtoNotifier := &mocks.NotifierMock{
				SendFunc: func(_ context.Context, dest string, text string) error {
					assert.Equal(t, tt.text, text)
					assert.Equal(t, tt.destination, dest)
					return tt.mockSendErr
				},
				SchemaFunc: func() string { return "mailto" },
			}

			s := Service{
				destinations: []notify.Notifier{mailtoNotifier},
				fromEmail:    "from@example.com",
				toEmail:      []string{"to@example.com", "to2@example.com"},
			}

			err := s.Send(context.Background(), tt.subj, tt.text)
			assert.Len(t, mailtoNotifier.SendCalls(), 1)
			if tt.expectedErrMsg == "" {
				require.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErrMsg)
			}
		})
	}
}

func TestService_SendSlackChannels(t *testing.T) {
	slack := &mocks.NotifierMock{
		SendFunc:   func(context.Context, string, string) error { return nil },
		SchemaFunc: func() string { return "slack" },
	}
	s := Service{destinations: []notify.Notifier{slack}, slackChannels: []string{"general", "alerts"}}
	require.NoError(t, s.Send(context.Background(), "job done", "text"))
	require.Len(t, slack.SendCalls(), 2)
	assert.Equal(t, "slack:general?title=job+done", slack.SendCalls()[0].Destination)
	assert.Equal(t, "slack:alerts?title=job+done", slack.SendCalls()[1].Destination)
}

func TestService_SendUnknownSchema(t *testing.T) {
	n := &mocks.NotifierMock{SchemaFunc: func() string { return "carrier-pigeon" }}
	s := Service{destinations: []notify.Notifier{n}}
	require.NoError(t, s.Send(context.Background(), "subj", "text"))
	assert.Empty(t, n.SendCalls())
}

func TestService_SendWebhook(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	svc := NewService(Params{EnabledCompletion: true}, SendersParams{WebhookURLs: []string{ts.URL + "/hook"},
		WebhookTimeout: time.Second, WebhookHeaders: []string{"X-Token:secret"}})
	require.NotNil(t, svc)
	text, err := svc.MakeCompletionText("j3", "mp4", "/gifs/j3.mp4")
	require.NoError(t, err)
	require.NoError(t, svc.Send(context.Background(), "completed j3", text))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Conversion j3 completed")
}
