package control

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"litterwatch/lib/extract"
	"litterwatch/lib/fetch"
	"litterwatch/lib/scanlog"
	"litterwatch/lib/store"
	"litterwatch/lib/telemetry"
	"litterwatch/services/monitor"
	"litterwatch/services/sources"

	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	body    string
	entered chan struct{}
	release chan struct{}
}

func (f stubFetcher) Fetch(_ context.Context, _ fetch.Resource) (*fetch.Result, error) {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	return &fetch.Result{Body: f.body, Strategy: "direct"}, nil
}

type testApi struct {
	handler http.Handler
	list    sources.List
	svc     *monitor.Service
}

func newTestApi(t *testing.T, token string, fetcher monitor.Fetcher, history *scanlog.Store) testApi {
	dir := t.TempDir()
	list := sources.NewList(filepath.Join(dir, "urls.txt"))
	svc := monitor.NewService(monitor.Options{
		Sources:    list,
		Fetcher:    fetcher,
		Extractors: extract.NewRegistry(),
		Store:      store.New(filepath.Join(dir, "litters.json")),
		StatusFile: filepath.Join(dir, "status.json"),
	})
	handler := NewHandler(Options{
		Monitor:     svc,
		Sources:     list,
		History:     history,
		StatusFile:  filepath.Join(dir, "status.json"),
		AccessToken: token,
	})
	return testApi{handler: handler, list: list, svc: svc}
}

func doRequest(t *testing.T, handler http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthorization(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:control")
	defer cleanup()

	api := newTestApi(t, "secret", stubFetcher{body: "<html></html>"}, nil)

	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/urls", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/urls", "wrong", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/urls", "secret", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// an unset token disables the check entirely
	open := newTestApi(t, "", stubFetcher{body: "<html></html>"}, nil)
	rec := doRequest(t, open.handler, http.MethodGet, "/api/urls", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUrlManagement(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:control")
	defer cleanup()

	api := newTestApi(t, "secret", stubFetcher{body: "<html></html>"}, nil)
	pageUrl := "https://www.goldenretrieverclub.nl/verwachte-nesten"

	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/urls", "secret", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"urls":[]}`, rec.Body.String())
	}

	{
		rec := doRequest(t, api.handler, http.MethodPost, "/api/urls", "secret",
			map[string]string{"url": pageUrl})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp urlsResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, []string{pageUrl}, resp.Urls)
	}

	{
		// schemeless urls are rejected
		rec := doRequest(t, api.handler, http.MethodPost, "/api/urls", "secret",
			map[string]string{"url": "goldenretrieverclub.nl/nesten"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	{
		rec := doRequest(t, api.handler, http.MethodPost, "/api/urls", "secret", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	{
		rec := doRequest(t, api.handler, http.MethodDelete, "/api/urls", "secret",
			map[string]string{"url": pageUrl})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"urls":[]}`, rec.Body.String())
	}
}

func TestTriggerScan(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:control")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	fetcher := stubFetcher{
		body:    "<html></html>",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	api := newTestApi(t, "secret", fetcher, nil)
	err := api.list.Add("https://example.org/nesten")
	if err != nil {
		t.Fatal(err)
	}

	{
		rec := doRequest(t, api.handler, http.MethodPost, "/api/scan", "secret", nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := api.svc.RunOnce(ctx)
		if err != nil {
			t.Error(err)
		}
	}()
	<-fetcher.entered

	{
		rec := doRequest(t, api.handler, http.MethodPost, "/api/scan", "secret", nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		if err != nil {
			t.Fatal(err)
		}
		require.Contains(t, resp.Error, "already in progress")
	}

	close(fetcher.release)
	<-done
}

func TestStatusEndpoint(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:control")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	api := newTestApi(t, "secret", stubFetcher{body: "<html></html>"}, nil)

	{
		// before any cycle the file does not exist yet
		rec := doRequest(t, api.handler, http.MethodGet, "/api/status", "secret", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, monitor.StateIdle, resp.State)
		require.Nil(t, resp.LastRun)
	}

	err := api.list.Add("https://example.org/nesten")
	if err != nil {
		t.Fatal(err)
	}
	_, err = api.svc.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}

	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/status", "secret", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, monitor.StateIdle, resp.State)
		require.NotNil(t, resp.LastRun)
		require.Equal(t, monitor.StatusSuccess, resp.LastRun.Status)
		require.Equal(t, 1, resp.LastRun.UrlsChecked)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:control")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	{
		api := newTestApi(t, "secret", stubFetcher{body: "<html></html>"}, nil)
		rec := doRequest(t, api.handler, http.MethodGet, "/api/history", "secret", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	history, err := scanlog.Open(scanlog.Config{File: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer history.Close()

	now := time.Now()
	err = history.Append(ctx, scanlog.Record{
		StartTime:       now.Add(-time.Minute),
		EndTime:         now,
		DurationSeconds: 60,
		UrlsChecked:     2,
		ChangesDetected: 1,
		Status:          monitor.StatusSuccess,
	})
	if err != nil {
		t.Fatal(err)
	}

	api := newTestApi(t, "secret", stubFetcher{body: "<html></html>"}, &history)

	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/history?n=5", "secret", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp historyResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, resp.Records, 1)
		require.Equal(t, monitor.StatusSuccess, resp.Records[0].Status)
		require.Equal(t, 2, resp.Records[0].UrlsChecked)
	}

	{
		rec := doRequest(t, api.handler, http.MethodGet, "/api/history?n=zero", "secret", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
