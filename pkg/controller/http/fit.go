package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type startRequest struct {
	Text string `json:"text"`
	// JDText is an accepted alias used by the job-description form.
	JDText string `json:"jdText"`
}

type messageRequest struct {
	SessionID types.SessionID `json:"sessionId"`
	Message   string          `json:"message"`
}

type fitResponse struct {
	SessionID types.SessionID `json:"sessionId,omitempty"`
	Stage     types.Stage     `json:"stage"`
	Role      types.Role      `json:"role"`
	Content   string          `json:"content"`
	Verdict   types.Verdict   `json:"verdict,omitempty"`
	Report    *session.Report `json:"report,omitempty"`
}

// newFitResponse shapes the wire response from a session snapshot. The
// content is always the latest assistant message; verdict and report only
// appear once the session is terminal.
func newFitResponse(sess *session.Session, includeID bool) *fitResponse {
	resp := &fitResponse{
		Stage: sess.Stage,
		Role:  types.RoleAssistant,
	}
	if includeID {
		resp.SessionID = sess.ID
	}
	for i := len(sess.Transcript) - 1; i >= 0; i-- {
		if sess.Transcript[i].Role == types.RoleAssistant {
			resp.Content = sess.Transcript[i].Content
			break
		}
	}
	if sess.Terminal() {
		resp.Verdict = sess.Verdict
		resp.Report = sess.Report
	}
	return resp
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.Handle(r.Context(), goerr.Wrap(err, "failed to encode response"))
	}
}

func startHandler(uc interfaces.FitUsecases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
			return
		}

		text := req.Text
		if text == "" {
			text = req.JDText
		}

		sess, err := uc.Start(r.Context(), text)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, newFitResponse(sess, true))
	}
}

func uploadHandler(uc interfaces.FitUsecases, maxUploadSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid multipart form (file too large?)",
				goerr.V("limit", humanize.IBytes(uint64(maxUploadSize))),
				goerr.T(errs.TagValidation)))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			handleError(w, r, goerr.Wrap(err, "missing file field", goerr.T(errs.TagInvalidRequest)))
			return
		}
		defer func() { _ = file.Close() }()

		if header.Size > maxUploadSize {
			handleError(w, r, goerr.New("file exceeds the upload limit",
				goerr.V("limit", humanize.IBytes(uint64(maxUploadSize))),
				goerr.V("size", humanize.IBytes(uint64(header.Size))),
				goerr.T(errs.TagValidation)))
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			handleError(w, r, goerr.Wrap(err, "failed to read uploaded file"))
			return
		}

		sess, err := uc.StartFromFile(r.Context(), header.Filename, data)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, newFitResponse(sess, true))
	}
}

func messageHandler(uc interfaces.FitUsecases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagInvalidRequest)))
			return
		}
		if req.SessionID == "" {
			handleError(w, r, goerr.New("sessionId is required", goerr.T(errs.TagInvalidRequest)))
			return
		}

		sess, err := uc.Message(r.Context(), req.SessionID, req.Message)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, newFitResponse(sess, false))
	}
}
