package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/onboarding"
	"github.com/ayo6706/merchant-gateway/internal/service"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// FlowTokenHeader carries the owner token of an anonymous onboarding flow.
const FlowTokenHeader = "X-Flow-Token"

type OnboardingHandler struct {
	svc *service.OnboardingService
}

func NewOnboardingHandler(svc *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

type startOnboardingResponse struct {
	Flow      models.FlowRef      `json:"flow"`
	FlowToken string              `json:"flow_token"`
	State     onboarding.Snapshot `json:"state"`
	Options   onboardingOptions   `json:"options"`
}

type documentOption struct {
	Field    onboarding.DocumentField `json:"field"`
	Label    string                   `json:"label"`
	Accept   string                   `json:"accept"`
	Required bool                     `json:"required"`
}

type onboardingOptions struct {
	BusinessTypes      []string         `json:"business_types"`
	BusinessCategories []string         `json:"business_categories"`
	Documents          []documentOption `json:"documents"`
	MaxFileSize        int64            `json:"max_file_size"`
}

func documentOptions() []documentOption {
	required := make(map[onboarding.DocumentField]bool, len(onboarding.RequiredDocuments))
	for _, d := range onboarding.RequiredDocuments {
		required[d] = true
	}
	out := make([]documentOption, 0, len(onboarding.AllDocuments))
	for _, d := range onboarding.AllDocuments {
		out = append(out, documentOption{Field: d, Label: d.Label(), Accept: d.Accept().String(), Required: required[d]})
	}
	return out
}

// Start handles POST /v1/onboarding.
func (h *OnboardingHandler) Start(w http.ResponseWriter, r *http.Request) {
	ref, token := h.svc.Start()
	wiz, err := h.svc.Wizard(token, ref.ID)
	if err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	w.Header().Set("Location", "/v1/onboarding/"+ref.ID.String())
	RespondJSON(w, http.StatusCreated, startOnboardingResponse{
		Flow:      ref,
		FlowToken: token,
		State:     wiz.Snapshot(),
		Options: onboardingOptions{
			BusinessTypes:      onboarding.BusinessTypes,
			BusinessCategories: onboarding.BusinessCategories,
			Documents:          documentOptions(),
			MaxFileSize:        upload.MaxFileSize,
		},
	})
}

// Get handles GET /v1/onboarding/{id}. Polling it during a submission
// exposes the progress status.
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	wiz, err := h.svc.Wizard(owner, id)
	if err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	RespondJSON(w, http.StatusOK, wiz.Snapshot())
}

// SetFields handles PATCH /v1/onboarding/{id}/fields.
func (h *OnboardingHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	var values map[string]string
	if !decodeJSON(w, r, &values) {
		return
	}
	h.respond(w, r)(h.svc.SetFields(owner, id, values))
}

// SelectDocument handles PUT /v1/onboarding/{id}/documents/{field} with a
// multipart "file" part. The part is streamed: content past MaxFileSize is
// counted but not kept, so oversized files are rejected on their measured
// size like any other invalid selection.
func (h *OnboardingHandler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "upload/invalid-multipart", "Expected multipart/form-data with a file part")
		return
	}

	var part *multipart.Part
	for {
		part, err = mr.NextPart()
		if errors.Is(err, io.EOF) {
			RespondError(w, r, http.StatusBadRequest, "upload/missing-file", "Missing file part")
			return
		}
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "upload/invalid-multipart", "Expected multipart/form-data with a file part")
			return
		}
		if part.FormName() == "file" {
			break
		}
		_ = part.Close()
	}
	defer part.Close()

	file, err := readPart(part)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "upload/read-failed", err.Error())
		return
	}

	h.respond(w, r)(h.svc.SelectDocument(owner, id, chi.URLParam(r, "field"), file))
}

// readPart buffers at most MaxFileSize bytes of the part. Anything beyond
// is drained into the Size count and Data is left empty.
func readPart(part *multipart.Part) (upload.File, error) {
	name := part.FileName()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, upload.MaxFileSize+1))
	if err != nil {
		return upload.File{}, &upload.ReadError{Name: name, Err: err}
	}
	if n <= upload.MaxFileSize {
		return upload.NewFile(name, part.Header.Get("Content-Type"), &buf)
	}

	rest, err := io.Copy(io.Discard, part)
	if err != nil {
		return upload.File{}, &upload.ReadError{Name: name, Err: err}
	}
	return upload.File{
		Name:        name,
		ContentType: strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Type"))),
		Size:        n + rest,
		ModTime:     time.Now(),
	}, nil
}

// ClearDocument handles DELETE /v1/onboarding/{id}/documents/{field}.
func (h *OnboardingHandler) ClearDocument(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.svc.ClearDocument(owner, id, chi.URLParam(r, "field")))
}

// Next handles POST /v1/onboarding/{id}/next. From the documents step the
// call blocks until the backend has answered the submission.
func (h *OnboardingHandler) Next(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.svc.Next(r.Context(), owner, id))
}

// Back handles POST /v1/onboarding/{id}/back.
func (h *OnboardingHandler) Back(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.svc.Back(owner, id))
}

// Close handles DELETE /v1/onboarding/{id}.
func (h *OnboardingHandler) Close(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.flowRef(w, r)
	if !ok {
		return
	}
	if err := h.svc.Close(owner, id); err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OnboardingHandler) flowRef(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	owner := r.Header.Get(FlowTokenHeader)
	if owner == "" {
		RespondError(w, r, http.StatusUnauthorized, "flow/token-required", FlowTokenHeader+" header required")
		return "", uuid.Nil, false
	}
	id, ok := flowID(w, r)
	return owner, id, ok
}

func (h *OnboardingHandler) respond(w http.ResponseWriter, r *http.Request) func(onboarding.Snapshot, error) {
	return func(snap onboarding.Snapshot, err error) {
		if err != nil {
			var state any
			if !errors.Is(err, onboarding.ErrUnknownDocument) && snap.Values != nil {
				state = snap
			}
			respondFlowError(w, r, err, state)
			return
		}
		RespondJSON(w, http.StatusOK, snap)
	}
}
