package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTwoEntries = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Attention Is
 All You Need</title>
    <summary>  We propose a new
 network architecture.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>A. Vaswani</name></author>
    <author><name>N. Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <published>2020-01-01T00:00:00Z</published>
    <author><name>B. Author</name></author>
    <link href="http://arxiv.org/abs/2001.00001" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestLookup_ParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:transformers", r.URL.Query().Get("search_query"))
		assert.Equal(t, "3", r.URL.Query().Get("max_results"))
		fmt.Fprint(w, feedTwoEntries)
	}))
	defer srv.Close()

	papers, err := New(srv.URL).Lookup(context.Background(), "transformers", 3)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "We propose a new network architecture.", p.Abstract)
	assert.Equal(t, []string{"A. Vaswani", "N. Shazeer"}, p.Authors)
	assert.Equal(t, 2017, p.Year)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", p.URL)
}

func TestLookup_ExhaustionIsPartialSuccess(t *testing.T) {
	// Asking for 5 when only 2 exist must return the 2, not an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedTwoEntries)
	}))
	defer srv.Close()

	papers, err := New(srv.URL).Lookup(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
}

func TestLookup_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	}))
	defer srv.Close()

	papers, err := New(srv.URL).Lookup(context.Background(), "nothing", 3)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestLookup_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "q", 3)
	require.Error(t, err)
}

func TestLookup_MalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<feed><entry><title>broken")
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "q", 3)
	require.Error(t, err)
}

func TestLookup_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).Lookup(ctx, "q", 3)
	require.Error(t, err)
}
