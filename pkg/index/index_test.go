package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `version	date	files	npm	v8	uv	zlib	openssl	modules	lts	security
v22.1.0	2024-05-02	linux-x64,osx-arm64-tar	10.7.0	12.4.254.14	1.48.0	1.3.0.1-motley	3.0.13+quic	127	-	false
v20.13.1	2024-05-09	linux-x64,osx-arm64-tar	10.5.2	11.3.244.8	1.46.0	1.3.0.1-motley	3.0.13+quic	115	Iron	false
v20.13.0	2024-05-07	linux-x64,osx-arm64-tar	10.5.2	11.3.244.8	1.46.0	1.3.0.1-motley	3.0.13+quic	115	Iron	false
v9.0.0	2017-10-31	linux-x64	5.5.1	6.2.414.32	1.15.0	1.2.11	1.0.2l	59	-	false
v10.0.0	2018-04-24	linux-x64	5.6.0	6.6.346.24	1.20.2	1.2.11	1.1.0h	64	-	false
v18.20.0	2024-03-26	linux-x64	10.5.0	10.2.154.26	1.44.2	1.3.0.1-motley	3.0.13+quic	108	Hydrogen	false
`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchIndexSortsNumerically(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleIndex)

	vs, err := NewClient(srv.URL).FetchIndex(context.Background())
	require.NoError(t, err)

	got := make([]string, len(vs))
	for i, v := range vs {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"22.1.0", "20.13.1", "20.13.0", "18.20.0", "10.0.0", "9.0.0"}, got)
}

func TestFetchReleasesMetadata(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleIndex)

	releases, err := NewClient(srv.URL).FetchReleases(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, releases)

	assert.Equal(t, "2024-05-02", releases[0].Date)
	assert.Empty(t, releases[0].LTS)
	assert.Equal(t, "Iron", releases[1].LTS)
}

func TestParseToleratesLooseInput(t *testing.T) {
	in := "\n  v1.2.3   extra columns here\n20.0.0\nnot-a-version\n\t\n"
	releases, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "20.0.0", releases[0].Version.String())
	assert.Equal(t, "1.2.3", releases[1].Version.String())
}

func TestFetchIndexEmpty(t *testing.T) {
	srv := serve(t, http.StatusOK, "version\tdate\ngarbage\n")

	_, err := NewClient(srv.URL).FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestFetchIndexHTTPError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, "boom")

	_, err := NewClient(srv.URL).FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchIndexTransportError(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleIndex)
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).FetchIndex(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTopMajors(t *testing.T) {
	releases, err := Parse(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	top := TopMajors(releases, 2)
	got := make([]string, len(top))
	for i, r := range top {
		got[i] = r.Version.String()
	}
	assert.Equal(t, []string{"22.1.0", "20.13.1", "20.13.0"}, got)

	assert.Len(t, TopMajors(releases, 100), len(releases))
	assert.Empty(t, TopMajors(releases, 0))
}

func TestFetchTopMajorsDropsOldestMajor(t *testing.T) {
	srv := serve(t, http.StatusOK, sampleIndex)

	top, err := NewClient(srv.URL).FetchTopMajors(context.Background(), 4)
	require.NoError(t, err)
	for _, r := range top {
		assert.NotEqual(t, uint64(9), r.Version.Major())
	}
	assert.Len(t, top, 5)
}
