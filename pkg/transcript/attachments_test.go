package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/platform"
)

func newAttachmentServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file contents"))
	})
	mux.HandleFunc("/big/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/slow/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func attachmentMessage(msgID string, atts ...platform.Attachment) *platform.Message {
	return &platform.Message{
		ID:          msgID,
		Attachments: atts,
	}
}

func TestCollectAttachments(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	srv := newAttachmentServer(t)
	s := NewService(l, nil)

	messages := []*platform.Message{
		attachmentMessage("m1",
			platform.Attachment{ID: "a1", Name: "good.png", URL: srv.URL + "/ok/a1", Size: 13},
			platform.Attachment{ID: "a2", Name: "no-url.png"},
		),
		attachmentMessage("m2",
			platform.Attachment{ID: "a3", Name: "declared-big.bin", URL: srv.URL + "/ok/a3", Size: 10_000},
			platform.Attachment{ID: "a4", Name: "lies-about-size.bin", URL: srv.URL + "/big/a4", Size: 100},
		),
		attachmentMessage("m3",
			platform.Attachment{ID: "a5", Name: "gone.png", URL: srv.URL + "/missing/a5", Size: 13},
			platform.Attachment{ID: "a6", Name: "slow.png", URL: srv.URL + "/slow/a6", Size: 13},
			platform.Attachment{ID: "a7", Name: "also-good.png", URL: srv.URL + "/ok/a7", Size: 13},
		),
	}

	files, skipped := s.CollectAttachments(context.Background(), messages, 10, 1024, 200*time.Millisecond)

	require.Len(t, files, 2)
	require.Equal(t, "good.png", files[0].Name)
	require.Equal(t, "also-good.png", files[1].Name)

	data, err := io.ReadAll(files[0].Reader)
	require.NoError(t, err)
	require.Equal(t, "file contents", string(data))

	// Every excluded attachment appears exactly once, with its reason.
	wantReasons := map[string]SkipReason{
		"a2": SkipMissingReference,
		"a3": SkipDeclaredTooLarge,
		"a4": SkipTooLargeAfterDownload,
		"a5": SkipTransportFailure,
		"a6": SkipTimeout,
	}
	require.Len(t, skipped, len(wantReasons))

	seen := make(map[string]SkipReason)
	for _, sk := range skipped {
		_, dup := seen[sk.AttachmentID]
		require.False(t, dup, "attachment %s appears twice in the ledger", sk.AttachmentID)
		seen[sk.AttachmentID] = sk.Reason
	}
	require.Equal(t, wantReasons, seen)
}

func TestCollectAttachments_StopsAtMaxFiles(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	srv := newAttachmentServer(t)
	s := NewService(l, nil)

	var messages []*platform.Message
	for i := 0; i < 6; i++ {
		messages = append(messages, attachmentMessage(
			fmt.Sprintf("m%d", i),
			platform.Attachment{ID: fmt.Sprintf("a%d", i), Name: fmt.Sprintf("f%d.png", i), URL: srv.URL + "/ok/x", Size: 13},
		))
	}

	files, skipped := s.CollectAttachments(context.Background(), messages, 3, 1024, time.Second)
	require.Len(t, files, 3)
	require.Empty(t, skipped, "attachments past the file cap are not ledger entries")
}

// sendFake records SendFiles calls.
type sendFake struct {
	platform.Platform

	sent []sentBatch
}

type sentBatch struct {
	content string
	files   int
}

func (f *sendFake) SendFiles(_ context.Context, _ string, content string, files []*platform.File) (string, error) {
	f.sent = append(f.sent, sentBatch{content: content, files: len(files)})
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func TestSendBatched(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	tests := []struct {
		name      string
		files     int
		batchSize int
		want      []sentBatch
	}{
		{
			name:      "NoFiles",
			files:     0,
			batchSize: 10,
			want:      []sentBatch{{content: "payload", files: 0}},
		},
		{
			name:      "SingleBatch",
			files:     3,
			batchSize: 10,
			want:      []sentBatch{{content: "payload", files: 3}},
		},
		{
			name:      "MultipleBatches",
			files:     7,
			batchSize: 3,
			want: []sentBatch{
				{content: "payload", files: 3},
				{content: "", files: 3},
				{content: "", files: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := new(sendFake)
			s := NewService(l, fake)

			files := make([]*platform.File, tt.files)
			for i := range files {
				files[i] = &platform.File{Name: fmt.Sprintf("f%d", i), Reader: strings.NewReader("x")}
			}

			require.NoError(t, s.SendBatched(context.Background(), "log-1", "payload", files, tt.batchSize))
			require.Equal(t, tt.want, fake.sent)
		})
	}
}
