package filesync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s3Stub serves just enough of the S3 API for ListObjectsV2 and CopyObject.
type s3Stub struct {
	pages   [][]string
	copyErr bool

	mu             sync.Mutex
	copies         map[string]string
	pageRequests   int
	laterCancelled bool
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		s.list(w, r)
	case r.Method == http.MethodPut:
		s.copy(w, r)
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (s *s3Stub) list(w http.ResponseWriter, r *http.Request) {
	page := 0
	if token := r.URL.Query().Get("continuation-token"); token != "" {
		_, _ = fmt.Sscanf(token, "page-%d", &page)
	}

	s.mu.Lock()
	s.pageRequests++
	s.mu.Unlock()

	if page >= len(s.pages) {
		// Later pages hang until the client gives up on the listing.
		select {
		case <-r.Context().Done():
			s.mu.Lock()
			s.laterCancelled = true
			s.mu.Unlock()
		case <-time.After(5 * time.Second):
		}
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>workspace</Name>`)
	for _, key := range s.pages[page] {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag><Size>1</Size></Contents>`, key)
	}
	if s.copyErr || page+1 < len(s.pages) {
		fmt.Fprintf(&b, `<IsTruncated>true</IsTruncated><NextContinuationToken>page-%d</NextContinuationToken>`, page+1)
	} else {
		b.WriteString(`<IsTruncated>false</IsTruncated>`)
	}
	b.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(b.String()))
}

func (s *s3Stub) copy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	if s.copyErr {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied.</Message></Error>`))
		return
	}

	s.mu.Lock()
	s.copies[strings.TrimPrefix(r.URL.Path, "/workspace/")] = r.Header.Get("X-Amz-Copy-Source")
	s.mu.Unlock()
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"etag"</ETag></CopyObjectResult>`))
}

func newStubbedMinIO(t *testing.T, stub *s3Stub) *MinIO {
	t.Helper()
	stub.copies = make(map[string]string)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	m, err := NewMinIO(MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
		Bucket:    "workspace",
	})
	require.NoError(t, err)
	return m
}

func TestMinIOSync(t *testing.T) {
	stub := &s3Stub{pages: [][]string{
		{"uploads/up-1/report.txt", "uploads/up-1/nested/"},
		{"uploads/up-1/nested/data.csv"},
	}}
	m := newStubbedMinIO(t, stub)

	require.NoError(t, m.SyncUploadedFilesToPlan(context.Background(), "up-1", "plan-root"))

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.copies, 2, "directory markers are skipped")
	assert.Contains(t, stub.copies["plans/plan-root/report.txt"], "uploads/up-1/report.txt")
	assert.Contains(t, stub.copies["plans/plan-root/nested/data.csv"], "uploads/up-1/nested/data.csv")
	assert.Equal(t, 2, stub.pageRequests)
}

func TestMinIOSyncEmptyUpload(t *testing.T) {
	m := newStubbedMinIO(t, &s3Stub{pages: [][]string{{}}})

	err := m.SyncUploadedFilesToPlan(context.Background(), "up-1", "plan-root")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

// A failed copy must stop the background listing instead of leaving it blocked.
func TestMinIOSyncCopyFailureStopsListing(t *testing.T) {
	stub := &s3Stub{
		pages:   [][]string{{"uploads/up-1/a.txt", "uploads/up-1/b.txt", "uploads/up-1/c.txt"}},
		copyErr: true,
	}
	m := newStubbedMinIO(t, stub)

	done := make(chan error, 1)
	go func() {
		done <- m.SyncUploadedFilesToPlan(context.Background(), "up-1", "plan-root")
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to copy uploads/up-1/a.txt")
	case <-time.After(3 * time.Second):
		t.Fatal("sync did not return after the copy failed")
	}

	stub.mu.Lock()
	requested := stub.pageRequests
	stub.mu.Unlock()
	if requested > 1 {
		assert.Eventually(t, func() bool {
			stub.mu.Lock()
			defer stub.mu.Unlock()
			return stub.laterCancelled
		}, 2*time.Second, 10*time.Millisecond, "next page request was not cancelled")
	}
}
