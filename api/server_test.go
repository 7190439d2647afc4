package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/video-splitter-go/splitter"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

type testClient struct {
	t      *testing.T
	srv    *Server
	base   string
	client *http.Client
	cfg    *types.AppConfig
}

func newTestClient(t *testing.T, mutate func(*types.AppConfig)) *testClient {
	t.Helper()
	root := t.TempDir()
	cfg := tool.DefaultConfig()
	cfg.UploadFolder = filepath.Join(root, "uploads")
	cfg.OutputFolder = filepath.Join(root, "outputs")
	cfg.PartSizeMB = 1
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, tool.ValidateConfig(&cfg))

	srv := NewServer(&cfg)
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, base: httpSrv.URL, client: &http.Client{Jar: jar}, cfg: &cfg}
}

func (tc *testClient) upload(name string, content []byte) (*http.Response, map[string]any) {
	tc.t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(tc.t, err)
	_, err = part.Write(content)
	require.NoError(tc.t, err)
	require.NoError(tc.t, writer.Close())

	resp, err := tc.client.Post(tc.base+"/upload", writer.FormDataContentType(), &body)
	require.NoError(tc.t, err)
	return resp, decode(tc.t, resp)
}

func (tc *testClient) process(form url.Values) (*http.Response, map[string]any) {
	tc.t.Helper()
	resp, err := tc.client.PostForm(tc.base+"/process", form)
	require.NoError(tc.t, err)
	return resp, decode(tc.t, resp)
}

func (tc *testClient) get(path string) *http.Response {
	tc.t.Helper()
	resp, err := tc.client.Get(tc.base + path)
	require.NoError(tc.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func payload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 253)
	}
	return data
}

func (tc *testClient) uploadAndSplit(name string, content []byte) map[string]any {
	tc.t.Helper()
	resp, up := tc.upload(name, content)
	require.Equal(tc.t, http.StatusOK, resp.StatusCode, up)
	resp, result := tc.process(url.Values{"filename": {up["filename"].(string)}})
	require.Equal(tc.t, http.StatusOK, resp.StatusCode, result)
	return result
}

func TestUploadRejectsBadInput(t *testing.T) {
	tc := newTestClient(t, nil)

	resp, body := tc.upload("notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid file type", body["error"])

	resp, err := tc.client.Post(tc.base+"/upload", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file part", body["error"])
}

func TestUploadTooLarge(t *testing.T) {
	tc := newTestClient(t, func(cfg *types.AppConfig) { cfg.MaxUploadBytes = 1024 })

	resp, body := tc.upload("big.mp4", payload(4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestUploadStoresUniqueNames(t *testing.T) {
	tc := newTestClient(t, nil)

	_, first := tc.upload("my movie.mp4", []byte("a"))
	_, second := tc.upload("my movie.mp4", []byte("b"))
	require.Equal(t, true, first["success"])
	require.Equal(t, true, second["success"])

	name1, name2 := first["filename"].(string), second["filename"].(string)
	assert.NotEqual(t, name1, name2)
	assert.True(t, strings.HasSuffix(name1, "_my_movie.mp4"), name1)
	assert.FileExists(t, filepath.Join(tc.cfg.UploadFolder, name1))
}

func TestSplitAndDownloadSeparately(t *testing.T) {
	tc := newTestClient(t, nil)
	content := payload(2*tool.MiB + 123)

	result := tc.uploadAndSplit("clip.mp4", content)
	filename := result["filename"].(string)
	folder := result["folder_name"].(string)
	parts := result["split_files"].([]any)
	require.Len(t, parts, 3)
	assert.Equal(t, "bytes", result["mode"])
	assert.NoFileExists(t, filepath.Join(tc.cfg.UploadFolder, filename), "consumed upload is removed")

	progress := decode(t, tc.get("/progress/"+filename))
	assert.Equal(t, 100.0, progress["progress"])
	assert.Equal(t, "completed", progress["status"])

	var joined bytes.Buffer
	for i, p := range parts {
		resp := tc.get("/download/separate/" + folder + "/" + p.(string))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		joined.Write(readAll(t, resp))
		if i < len(parts)-1 {
			assert.DirExists(t, filepath.Join(tc.cfg.OutputFolder, folder), "folder stays until the last part")
		}
	}
	assert.Equal(t, content, joined.Bytes())
	assert.NoDirExists(t, filepath.Join(tc.cfg.OutputFolder, folder))

	resp := tc.get("/download/separate/" + folder + "/" + parts[0].(string))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSplitAndDownloadZip(t *testing.T) {
	tc := newTestClient(t, nil)
	content := payload(tool.MiB + 1)

	result := tc.uploadAndSplit("clip.mov", content)
	folder := result["folder_name"].(string)

	resp := tc.get("/download/zip/" + folder)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	data := readAll(t, resp)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, folder+"_part1.mov", zr.File[0].Name)
	assert.NoDirExists(t, filepath.Join(tc.cfg.OutputFolder, folder))

	resp = tc.get("/download/zip/" + folder)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProcessValidation(t *testing.T) {
	tc := newTestClient(t, nil)

	resp, body := tc.process(url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no filename provided", body["error"])

	resp, _ = tc.process(url.Values{"filename": {"missing.mp4"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, up := tc.upload("a.mp4", []byte("x"))
	resp, _ = tc.process(url.Values{"filename": {up["filename"].(string)}, "mode": {"frames"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = tc.process(url.Values{"filename": {up["filename"].(string)}, "part_size_mb": {"-3"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type stubSplitter struct {
	err error
}

func (s stubSplitter) Split(_ context.Context, req splitter.Request, report types.ProgressReporter) ([]string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, err
	}
	report(50)
	if s.err != nil {
		return nil, s.err
	}
	name := splitter.PartName(req.BaseName, 1)
	return []string{name}, os.WriteFile(filepath.Join(req.OutputDir, name), []byte("segment"), 0o644)
}

func TestProcessTimeModeFailureCleansUp(t *testing.T) {
	tc := newTestClient(t, nil)
	tc.srv.Env().Splitters[types.SplitModeTime] = stubSplitter{err: types.SegmentError("copy_segment_1", errors.New("exit status 1"))}

	_, up := tc.upload("a.mkv", []byte("video"))
	filename := up["filename"].(string)
	resp, body := tc.process(url.Values{"filename": {filename}, "mode": {"time"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Video segmenting failed", body["error"])

	stem, _ := tool.SplitName(filename)
	assert.NoDirExists(t, filepath.Join(tc.cfg.OutputFolder, stem))
	assert.FileExists(t, filepath.Join(tc.cfg.UploadFolder, filename), "upload is kept for the sweeper")

	progress := decode(t, tc.get("/progress/"+filename))
	assert.Equal(t, "failed", progress["status"])
	assert.Less(t, progress["progress"].(float64), 100.0)
}

func TestProcessTimeMode(t *testing.T) {
	tc := newTestClient(t, nil)
	tc.srv.Env().Splitters[types.SplitModeTime] = stubSplitter{}

	_, up := tc.upload("a.webm", []byte("video"))
	resp, body := tc.process(url.Values{"filename": {up["filename"].(string)}, "mode": {"time"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "time", body["mode"])
	assert.Len(t, body["split_files"], 1)
}

func TestCleanupAndIndexPurgeSession(t *testing.T) {
	tc := newTestClient(t, nil)

	_, up := tc.upload("a.mp4", []byte("x"))
	uploaded := filepath.Join(tc.cfg.UploadFolder, up["filename"].(string))
	require.FileExists(t, uploaded)

	resp, err := tc.client.Post(tc.base+"/cleanup", "", nil)
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.0, body["removed"])
	assert.NoFileExists(t, uploaded)

	result := tc.uploadAndSplit("b.mp4", payload(10))
	folder := result["folder_name"].(string)
	outDir := filepath.Join(tc.cfg.OutputFolder, folder)
	require.DirExists(t, outDir)
	require.Equal(t, 1, tc.srv.Env().Ledger.Remaining(folder))

	resp = tc.get("/")
	page := readAll(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "Video Splitter")
	assert.NoDirExists(t, outDir)
	assert.Equal(t, -1, tc.srv.Env().Ledger.Remaining(folder), "purged folders leave the download ledger")
}

func TestSessionsAreIsolated(t *testing.T) {
	tc := newTestClient(t, nil)
	_, up := tc.upload("a.mp4", []byte("x"))
	uploaded := filepath.Join(tc.cfg.UploadFolder, up["filename"].(string))

	other := &http.Client{}
	resp, err := other.Post(tc.base+"/cleanup", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.FileExists(t, uploaded)
}

func TestQRCodeAndStatus(t *testing.T) {
	tc := newTestClient(t, func(cfg *types.AppConfig) { cfg.PublicURL = "http://splitter.lan:5000" })
	result := tc.uploadAndSplit("a.mp4", payload(10))

	resp := tc.get("/qrcode/" + result["folder_name"].(string))
	png := readAll(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	resp = tc.get("/qrcode/nothing-here")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	status := decode(t, tc.get("/status"))
	assert.Equal(t, true, status["running"])
	assert.Equal(t, 0.0, status["active_jobs"])
}

func TestProgressUnknownReadsZero(t *testing.T) {
	tc := newTestClient(t, nil)
	body := decode(t, tc.get("/progress/never-uploaded.mp4"))
	assert.Equal(t, 0.0, body["progress"])
	assert.Equal(t, "pending", body["status"])
}

func TestSplitSurvivesClientAbort(t *testing.T) {
	tc := newTestClient(t, nil)
	resp, up := tc.upload("abort.mp4", payload(3*tool.MiB))
	require.Equal(t, http.StatusOK, resp.StatusCode, up)
	filename := up["filename"].(string)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(url.Values{"filename": {filename}}.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	tc.srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := tc.srv.Env().Tracker.Get(filename)
	assert.Equal(t, types.JobStatusCompleted, got.Status)
	assert.Equal(t, 100.0, got.Progress)

	folder := strings.TrimSuffix(filename, filepath.Ext(filename))
	files, err := tool.ListFiles(filepath.Join(tc.cfg.OutputFolder, folder))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestRangeDownloadKeepsPartPending(t *testing.T) {
	tc := newTestClient(t, nil)
	content := payload(4096)
	result := tc.uploadAndSplit("ranged.mp4", content)
	folder := result["folder_name"].(string)
	part := result["split_files"].([]any)[0].(string)
	outDir := filepath.Join(tc.cfg.OutputFolder, folder)

	req, err := http.NewRequest(http.MethodGet, tc.base+"/download/separate/"+folder+"/"+part, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-99")
	resp, err := tc.client.Do(req)
	require.NoError(t, err)
	chunk := readAll(t, resp)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, content[:100], chunk)

	assert.DirExists(t, outDir, "a partial fetch is not the last download")
	assert.Equal(t, 1, tc.srv.Env().Ledger.Remaining(folder))

	resp = tc.get("/download/separate/" + folder + "/" + part)
	assert.Equal(t, content, readAll(t, resp))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool {
		_, err := os.Stat(outDir)
		return errors.Is(err, os.ErrNotExist)
	}, 2*time.Second, 20*time.Millisecond)
}
