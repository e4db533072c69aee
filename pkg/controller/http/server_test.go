package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	server "github.com/fitlens-dev/fitlens/pkg/controller/http"
	"github.com/fitlens-dev/fitlens/pkg/repository"
	"github.com/fitlens-dev/fitlens/pkg/service/extract"
	"github.com/fitlens-dev/fitlens/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
)

type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
}

func (s *scriptedLLM) client() *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					s.mu.Lock()
					defer s.mu.Unlock()
					if len(s.responses) == 0 {
						return nil, goerr.New("scripted LLM exhausted")
					}
					resp := s.responses[0]
					s.responses = s.responses[1:]
					return &gollem.Response{Texts: []string{resp}}, nil
				},
			}, nil
		},
	}
}

func newServer(t *testing.T, llm *scriptedLLM, policy usecase.Policy, opts ...server.Options) *server.Server {
	t.Helper()

	uc, err := usecase.New(repository.NewMemory(),
		usecase.WithLLMClient(llm.client()),
		usecase.WithExtractor(extract.New()),
		usecase.WithPolicy(policy),
	)
	gt.NoError(t, err)
	return server.New(uc, opts...)
}

func defaultPolicy() usecase.Policy {
	return usecase.Policy{MinTurns: 3, MaxTurns: 6, DeepDiveTurns: 3, LLMTimeout: 5 * time.Second}
}

func postJSON(t *testing.T, srv *server.Server, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

type wireResponse struct {
	SessionID string `json:"sessionId"`
	Stage     string `json:"stage"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Verdict   string `json:"verdict"`
	Report    *struct {
		Verdict   string   `json:"verdict"`
		Summary   string   `json:"summary"`
		Strengths []string `json:"strengths"`
		Risks     []string `json:"risks"`
		NextSteps []string `json:"nextSteps"`
	} `json:"report"`
}

func decodeWire(t *testing.T, rec *httptest.ResponseRecorder) wireResponse {
	t.Helper()
	var resp wireResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)
}

func TestStart(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"message":"What breaks first on busy days?","readyForReport":false}`}}
	srv := newServer(t, llm, defaultPolicy())

	rec := postJSON(t, srv, "/fit/start", `{"text":"Order entry is manual."}`)
	gt.Equal(t, rec.Code, http.StatusOK)

	resp := decodeWire(t, rec)
	gt.S(t, resp.SessionID).NotEqual("")
	gt.Equal(t, resp.Stage, "narrowing")
	gt.Equal(t, resp.Role, "assistant")
	gt.Equal(t, resp.Content, "What breaks first on busy days?")
}

func TestStartWithJDTextAlias(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"message":"Which part of the role worries you?","readyForReport":false}`}}
	srv := newServer(t, llm, defaultPolicy())

	rec := postJSON(t, srv, "/fit/start", `{"jdText":"Senior platform engineer, Go, on-call."}`)
	gt.Equal(t, rec.Code, http.StatusOK)
	gt.Equal(t, decodeWire(t, rec).Content, "Which part of the role worries you?")
}

func TestStartRejectsMalformedBody(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	rec := postJSON(t, srv, "/fit/start", `{"text": unquoted}`)
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestMessageUnknownSession(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	rec := postJSON(t, srv, "/fit/message", `{"sessionId":"nope","message":"hi"}`)
	gt.Equal(t, rec.Code, http.StatusNotFound)
}

func TestMessageRequiresSessionID(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	rec := postJSON(t, srv, "/fit/message", `{"message":"hi"}`)
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestMessageTerminalResponse(t *testing.T) {
	report := `{"verdict":"YES","summary":"Manual order entry is automatable.","strengths":["Orders follow a fixed form"],"risks":["Unusual orders need review"],"nextSteps":["Map one order end to end"]}`
	llm := &scriptedLLM{responses: []string{report}}

	// MaxTurns 1: the first message finalizes immediately.
	srv := newServer(t, llm, usecase.Policy{MinTurns: 1, MaxTurns: 1, DeepDiveTurns: 1, LLMTimeout: 5 * time.Second})

	rec := postJSON(t, srv, "/fit/start", `{"text":""}`)
	gt.Equal(t, rec.Code, http.StatusOK)
	sessionID := decodeWire(t, rec).SessionID

	rec = postJSON(t, srv, "/fit/message", `{"sessionId":"`+sessionID+`","message":"we type every order twice"}`)
	gt.Equal(t, rec.Code, http.StatusOK)

	resp := decodeWire(t, rec)
	gt.Equal(t, resp.Stage, "report")
	gt.Equal(t, resp.Verdict, "YES")
	gt.NotNil(t, resp.Report)
	gt.Equal(t, resp.Report.Summary, "Manual order entry is automatable.")
}

func TestContinuingResponseOmitsReport(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"message":"How often does that happen?","readyForReport":false}`}}
	srv := newServer(t, llm, defaultPolicy())

	rec := postJSON(t, srv, "/fit/start", `{"text":""}`)
	sessionID := decodeWire(t, rec).SessionID

	rec = postJSON(t, srv, "/fit/message", `{"sessionId":"`+sessionID+`","message":"daily"}`)
	gt.Equal(t, rec.Code, http.StatusOK)

	resp := decodeWire(t, rec)
	gt.Equal(t, resp.Verdict, "")
	gt.True(t, resp.Report == nil)
	gt.Equal(t, resp.SessionID, "")
}

func postUpload(t *testing.T, srv *server.Server, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	gt.NoError(t, err)
	_, err = fw.Write(data)
	gt.NoError(t, err)
	gt.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/fit/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestUploadTxt(t *testing.T) {
	llm := &scriptedLLM{responses: []string{`{"message":"Who handles those tickets today?","readyForReport":false}`}}
	srv := newServer(t, llm, defaultPolicy())

	rec := postUpload(t, srv, "problem.txt", []byte("Support tickets pile up every Monday."))
	gt.Equal(t, rec.Code, http.StatusOK)
	gt.Equal(t, decodeWire(t, rec).Content, "Who handles those tickets today?")
}

func TestUploadUnsupportedType(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	rec := postUpload(t, srv, "resume.odt", []byte("data"))
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestUploadTooLarge(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy(), server.WithMaxUploadSize(128))

	rec := postUpload(t, srv, "big.txt", bytes.Repeat([]byte("a"), 4096))
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestUploadMissingFileField(t *testing.T) {
	srv := newServer(t, &scriptedLLM{}, defaultPolicy())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	gt.NoError(t, mw.WriteField("note", "no file here"))
	gt.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/fit/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusBadRequest)
}
