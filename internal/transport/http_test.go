package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/testserver"
	"github.com/ganot/pdftalks/internal/transport"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const samplePDF = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n"

func postMultipart(t *testing.T, url string, fields map[string]string, fileName, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHTTPServer_Liveness(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.URL() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(ts.URL() + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestHTTPServer_UploadThenList(t *testing.T) {
	ts := testserver.New(t)

	resp := postMultipart(t, ts.URL()+"/upload", map[string]string{
		"activeProjectId": "p1",
		"googleAuth":      "alice@example.com",
	}, "report.pdf", samplePDF)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var uploaded map[string]string
	decode(t, resp, &uploaded)
	require.Equal(t, "report.pdf", uploaded["filename"])

	doc, err := ts.Documents.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "test_collection3", doc.Namespace)

	list := postMultipart(t, ts.URL()+"/getprojects", map[string]string{"googleAuth": "alice@example.com"}, "", "")
	require.Equal(t, http.StatusOK, list.StatusCode)
	var projects []map[string]any
	decode(t, list, &projects)
	require.Len(t, projects, 1)
	require.Equal(t, "p1", projects[0]["id"])
	require.Equal(t, "report", projects[0]["title"])
	require.Equal(t, "/files/p1", projects[0]["fileUrl"])

	other := postMultipart(t, ts.URL()+"/getprojects", map[string]string{"googleAuth": "bob@example.com"}, "", "")
	var none []map[string]any
	decode(t, other, &none)
	require.Empty(t, none)

	file, err := http.Get(ts.URL() + "/files/p1")
	require.NoError(t, err)
	defer file.Body.Close()
	body, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	require.Equal(t, samplePDF, string(body))
	require.Equal(t, "application/pdf", file.Header.Get("Content-Type"))
}

func TestHTTPServer_UploadRejections(t *testing.T) {
	ts := testserver.New(t, testserver.WithMaxUploadBytes(32))

	notPDF := postMultipart(t, ts.URL()+"/upload", map[string]string{
		"activeProjectId": "p1",
		"googleAuth":      "alice",
	}, "notes.pdf", "plain text pretending")
	require.Equal(t, http.StatusUnprocessableEntity, notPDF.StatusCode)

	tooBig := postMultipart(t, ts.URL()+"/upload", map[string]string{
		"activeProjectId": "p1",
		"googleAuth":      "alice",
	}, "big.pdf", "%PDF-"+strings.Repeat("x", 64))
	require.Equal(t, http.StatusRequestEntityTooLarge, tooBig.StatusCode)

	noProject := postMultipart(t, ts.URL()+"/upload", map[string]string{"googleAuth": "alice"}, "a.pdf", "%PDF-1.4")
	require.Equal(t, http.StatusBadRequest, noProject.StatusCode)

	noUser := postMultipart(t, ts.URL()+"/upload", map[string]string{"activeProjectId": "p1"}, "a.pdf", "%PDF-1.4")
	require.Equal(t, http.StatusBadRequest, noUser.StatusCode)
}

func TestHTTPServer_ChatRoundTrip(t *testing.T) {
	ts := testserver.New(t)

	empty := postMultipart(t, ts.URL()+"/getchat", map[string]string{"id": "p1"}, "", "")
	require.Equal(t, http.StatusOK, empty.StatusCode)
	var rows []map[string]json.RawMessage
	decode(t, empty, &rows)
	require.Empty(t, rows)

	history := []chat.Message{
		chat.NewMessage(chat.RoleUser, "hello"),
		chat.NewMessage(chat.RoleBot, "hi"),
	}
	encoded, err := json.Marshal(history)
	require.NoError(t, err)

	update := postMultipart(t, ts.URL()+"/updatechat", map[string]string{"id": "p1", "chats": string(encoded)}, "", "")
	require.Equal(t, http.StatusOK, update.StatusCode)

	got := postMultipart(t, ts.URL()+"/getchat", map[string]string{"id": "p1"}, "", "")
	var stored []struct {
		Chats []chat.Message `json:"chats"`
	}
	decode(t, got, &stored)
	require.Len(t, stored, 1)
	require.Equal(t, history, stored[0].Chats)

	bad := postMultipart(t, ts.URL()+"/updatechat", map[string]string{"id": "p1", "chats": "not json"}, "", "")
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)

	badRole := postMultipart(t, ts.URL()+"/updatechat", map[string]string{
		"id":    "p1",
		"chats": `[{"id":"1","type":"system","content":"x"}]`,
	}, "", "")
	require.Equal(t, http.StatusBadRequest, badRole.StatusCode)
}

type recordingAnswerer struct {
	got transport.AnswerRequest
}

func (a *recordingAnswerer) Answer(_ context.Context, req transport.AnswerRequest) (string, error) {
	a.got = req
	return "forty-two", nil
}

func TestHTTPServer_GetAnswer(t *testing.T) {
	answerer := &recordingAnswerer{}
	ts := testserver.New(t, testserver.WithAnswerer(answerer))

	body := strings.NewReader(`{"question":"meaning?","collection_name":"p1","limit":4}`)
	resp, err := http.Post(ts.URL()+"/getanswer", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	decode(t, resp, &out)
	require.Equal(t, "forty-two", out["answer"])
	require.Equal(t, "p1", answerer.got.ProjectID)
	require.Equal(t, 4, answerer.got.Limit)
	require.Nil(t, answerer.got.Document)

	missing, err := http.Post(ts.URL()+"/getanswer", "application/json", strings.NewReader(`{"question":"  "}`))
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusBadRequest, missing.StatusCode)
}

func TestHTTPServer_DefaultAnswerer(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Post(ts.URL()+"/getanswer", "application/json",
		strings.NewReader(`{"question":"anything","collection_name":"p1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	decode(t, resp, &out)
	require.Equal(t, transport.NoAnswerEngine, out["answer"])
}

func TestHTTPServer_AuthGuardsDataRoutes(t *testing.T) {
	ts := testserver.New(t, testserver.WithAuth())

	resp, err := http.Get(ts.URL() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	denied := postMultipart(t, ts.URL()+"/getprojects", map[string]string{"googleAuth": "alice"}, "", "")
	require.Equal(t, http.StatusUnauthorized, denied.StatusCode)
}

func TestHTTPServer_FileNotFound(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.URL() + "/files/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_ChatsAndDocumentsScopedToOwner(t *testing.T) {
	ts := testserver.New(t, testserver.WithAuth())

	upload := postMultipartAs(t, ts.URL()+"/upload", bearer(t, "alice@example.com"), map[string]string{
		"activeProjectId": "p1",
	}, "report.pdf", samplePDF)
	require.Equal(t, http.StatusOK, upload.StatusCode)

	mine := postMultipartAs(t, ts.URL()+"/getchat", bearer(t, "alice@example.com"), map[string]string{"id": "p1"}, "", "")
	require.Equal(t, http.StatusOK, mine.StatusCode)

	bob := bearer(t, "bob@example.com")
	theirs := postMultipartAs(t, ts.URL()+"/getchat", bob, map[string]string{"id": "p1"}, "", "")
	require.Equal(t, http.StatusForbidden, theirs.StatusCode)

	overwrite := postMultipartAs(t, ts.URL()+"/updatechat", bob, map[string]string{"id": "p1", "chats": "[]"}, "", "")
	require.Equal(t, http.StatusForbidden, overwrite.StatusCode)

	unknown := postMultipartAs(t, ts.URL()+"/updatechat", bob, map[string]string{"id": "nope", "chats": "[]"}, "", "")
	require.Equal(t, http.StatusNotFound, unknown.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL()+"/files/p1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bob)
	file, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer file.Body.Close()
	require.Equal(t, http.StatusForbidden, file.StatusCode)
}

func bearer(t *testing.T, email string) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func postMultipartAs(t *testing.T, url, token string, fields map[string]string, fileName, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
