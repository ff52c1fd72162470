package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/h2non/filetype"
)

// formOverhead leaves room for the non-file multipart fields.
const formOverhead = 1 << 20

// Deps are the collaborators of the reference backend.
type Deps struct {
	Projects  repository.ProjectRepository
	Documents repository.DocumentRepository
	Chats     repository.ChatRepository
	Answerer  Answerer
	Logger    *slog.Logger
	// MaxUploadBytes caps the document size; zero means upload.DefaultMaxBytes.
	MaxUploadBytes int64
}

// Server wires HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates an HTTP server router with middleware. The liveness
// routes stay public; authMiddleware guards the rest. Authenticated
// callers only reach chats and documents of their own projects.
func NewServer(deps Deps, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Answerer == nil {
		deps.Answerer = StaticAnswerer(NoAnswerEngine)
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = upload.DefaultMaxBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(FingerprintMiddleware)
	r.Use(RequestLogger(deps.Logger))

	srv := &Server{deps: deps}

	r.Get("/", srv.handleLiveness)
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/getprojects", srv.handleGetProjects)
		r.Post("/upload", srv.handleUpload)
		r.Post("/getchat", srv.handleGetChat)
		r.Post("/updatechat", srv.handleUpdateChat)
		r.Post("/getanswer", srv.handleGetAnswer)
		r.Get("/files/{id}", srv.handleFile)
	})

	return r
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type projectResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	FileName   string    `json:"fileName"`
	UploadDate time.Time `json:"uploadDate"`
	FileURL    string    `json:"fileUrl,omitempty"`
}

func (s *Server) handleGetProjects(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r, r.FormValue("googleAuth"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	projects, err := s.deps.Projects.List(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectResponse{
			ID:         p.ID,
			Title:      p.Title,
			FileName:   p.FileName,
			UploadDate: p.UploadDate,
			FileURL:    "/files/" + p.ID,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	projectID := strings.TrimSpace(r.FormValue("activeProjectId"))
	if projectID == "" {
		WriteError(w, http.StatusBadRequest, "activeProjectId is required")
		return
	}
	userID, err := s.requestUser(r, r.FormValue("googleAuth"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	namespace := strings.TrimSpace(r.FormValue("collection_name"))
	if namespace == "" {
		namespace = upload.DefaultNamespace
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "reading file failed")
		return
	}
	if int64(len(content)) > s.deps.MaxUploadBytes {
		WriteError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	if !filetype.Is(content, "pdf") {
		WriteError(w, http.StatusUnprocessableEntity, "document is not a PDF")
		return
	}

	now := time.Now().UTC()
	proj := project.Project{
		ID:         projectID,
		Title:      project.TitleFromFileName(header.Filename),
		FileName:   header.Filename,
		UploadDate: now,
	}
	if err := s.deps.Projects.Upsert(r.Context(), userID, proj); err != nil {
		s.writeDomainError(w, err)
		return
	}
	err = s.deps.Documents.Put(r.Context(), upload.Document{
		ProjectID: projectID,
		FileName:  header.Filename,
		MediaType: upload.MediaTypePDF,
		Namespace: namespace,
		Content:   content,
		StoredAt:  now,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.deps.Logger.Info("document stored", "project_id", projectID, "user_id", userID, "file", header.Filename, "bytes", len(content))
	WriteJSON(w, http.StatusOK, map[string]string{"filename": header.Filename})
}

type chatRow struct {
	Chats []chat.Message `json:"chats"`
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.FormValue("id"))
	if projectID == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.authorizeProject(r, projectID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			WriteJSON(w, http.StatusOK, []chatRow{})
			return
		}
		s.writeDomainError(w, err)
		return
	}

	messages, err := s.deps.Chats.Get(r.Context(), projectID)
	if errors.Is(err, repository.ErrNotFound) {
		WriteJSON(w, http.StatusOK, []chatRow{})
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, []chatRow{{Chats: messages}})
}

func (s *Server) handleUpdateChat(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.FormValue("id"))
	if projectID == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	var messages []chat.Message
	if err := json.Unmarshal([]byte(r.FormValue("chats")), &messages); err != nil {
		WriteError(w, http.StatusBadRequest, "chats must be a JSON array")
		return
	}
	for i, m := range messages {
		if !m.Type.Valid() {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("message %d has invalid type %q", i, m.Type))
			return
		}
	}

	if err := s.authorizeProject(r, projectID, true); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.deps.Chats.Replace(r.Context(), projectID, messages); err != nil {
		s.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type answerRequest struct {
	Question       string `json:"question"`
	CollectionName string `json:"collection_name"`
	Limit          int    `json:"limit"`
}

func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.CollectionName) == "" {
		WriteError(w, http.StatusBadRequest, "question and collection_name are required")
		return
	}

	if err := s.authorizeProject(r, req.CollectionName, false); err != nil {
		s.writeDomainError(w, err)
		return
	}

	doc, err := s.deps.Documents.Get(r.Context(), req.CollectionName)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.writeDomainError(w, err)
		return
	}

	answer, err := s.deps.Answerer.Answer(r.Context(), AnswerRequest{
		ProjectID: req.CollectionName,
		Question:  req.Question,
		Limit:     req.Limit,
		Document:  doc,
	})
	if err != nil {
		s.deps.Logger.Error("answering failed", "project_id", req.CollectionName, "error", err)
		WriteError(w, http.StatusBadGateway, "answer engine failed")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if err := s.authorizeProject(r, projectID, true); err != nil {
		s.writeDomainError(w, err)
		return
	}

	doc, err := s.deps.Documents.Get(r.Context(), projectID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

// authorizeProject checks that an authenticated caller owns projectID.
// Unauthenticated servers keep the id-only contract. mustExist makes an
// unknown project ErrNotFound; otherwise it passes.
func (s *Server) authorizeProject(r *http.Request, projectID string, mustExist bool) error {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		return nil
	}
	owner, err := s.deps.Projects.Owner(r.Context(), projectID)
	switch {
	case errors.Is(err, repository.ErrNotFound) && !mustExist:
		return nil
	case err != nil:
		return err
	case owner != userID:
		s.deps.Logger.Warn("project access denied", "project_id", projectID, "user_id", userID)
		return ErrUnauthorized
	}
	return nil
}

// requestUser picks the user from the auth context or the form field.
// When both are present they must agree.
func (s *Server) requestUser(r *http.Request, formUser string) (string, error) {
	formUser = strings.TrimSpace(formUser)
	ctxUser, ok := UserFromContext(r.Context())
	switch {
	case ok && formUser != "" && formUser != ctxUser:
		return "", ErrUnauthorized
	case ok:
		return ctxUser, nil
	case formUser != "":
		return formUser, nil
	default:
		return "", repository.ErrInvalidInput
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		WriteError(w, http.StatusConflict, "project belongs to another user")
	case errors.Is(err, repository.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "user id is required")
	case errors.Is(err, ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "user mismatch")
	default:
		s.deps.Logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
