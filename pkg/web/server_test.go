package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/podscript-ai/podscript/pkg/content"
	"github.com/podscript-ai/podscript/pkg/history"
	"github.com/podscript-ai/podscript/pkg/manuscript"
	"github.com/podscript-ai/podscript/pkg/model"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, prompt string, _ ...model.GenerateOption) (string, model.GenerationMetadata, error) {
	meta := model.GenerationMetadata{model.MetadataKeyProvider: "stub"}
	switch {
	case strings.Contains(prompt, "episode titles"):
		return "1. タイトルA\n2. タイトルB\n3. タイトルC", meta, nil
	case strings.Contains(prompt, "episode description"):
		return strings.Repeat("d", 250), meta, nil
	default:
		return "# Heading\n\n" + strings.Repeat("blog text ", 120), meta, nil
	}
}

type stubAudio struct{}

func (stubAudio) Transcribe(context.Context, string, string) (model.Transcript, error) {
	return model.Transcript{Text: "spoken", Source: model.SourceAudio, Language: model.LanguageEnglish}, nil
}

type ServerSuite struct {
	suite.Suite
	fs     afero.Fs
	store  *history.FileStore
	server *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.store = history.NewFileStore("data", history.WithStoreFs(s.fs))
	orch := content.NewOrchestrator(stubGenerator{}, stubAudio{}, manuscript.NewLoader(s.fs), s.store, nil)
	s.server = NewServer(orch, s.store, WithServerFs(s.fs), WithUploadDir("uploads"))
}

func (s *ServerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	return w
}

func (s *ServerSuite) multipartRequest(fields map[string]string, filename, fileContent string) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		s.Require().NoError(writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		s.Require().NoError(err)
		_, err = part.Write([]byte(fileContent))
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (s *ServerSuite) TestHealthz() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "ok")
}

func (s *ServerSuite) TestIndexServesForm() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	s.Contains(w.Body.String(), "/api/process")
}

func (s *ServerSuite) TestProcessManuscript() {
	req := s.multipartRequest(map[string]string{
		"show":  "myshow",
		"types": "titles",
	}, "episode.txt", "これはテストです。")

	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp processResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("manuscript", resp.Source)
	s.Equal("ja", resp.Language)
	s.Equal(9, resp.Text.Characters)
	s.Require().Len(resp.Outcomes, 1)
	s.True(resp.Outcomes[0].Success)
	s.Equal([]string{"タイトルA", "タイトルB", "タイトルC"}, resp.Outcomes[0].Titles)
}

func (s *ServerSuite) TestProcessAllTypes() {
	req := s.multipartRequest(map[string]string{"show": "myshow"}, "episode.txt", "full episode text")

	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp processResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Outcomes, 3)
}

func (s *ServerSuite) TestProcessRequiresShow() {
	req := s.multipartRequest(map[string]string{}, "episode.txt", "text")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestProcessRequiresFile() {
	req := s.multipartRequest(map[string]string{"show": "myshow"}, "", "")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestProcessRejectsUnknownType() {
	req := s.multipartRequest(map[string]string{
		"show":  "myshow",
		"types": "poem",
	}, "episode.txt", "text")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "unknown artifact type")
}

func (s *ServerSuite) TestProcessEmptyManuscriptIsUserError() {
	req := s.multipartRequest(map[string]string{"show": "myshow"}, "episode.txt", "   ")
	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestProcessDoesNotPersist() {
	req := s.multipartRequest(map[string]string{
		"show":  "myshow",
		"types": "titles",
	}, "episode.txt", "no writes expected")
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)

	entries, err := s.store.Recent("myshow", model.ArtifactTitles, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServerSuite) TestCommitAndHistory() {
	body := `{"show":"myshow","results":[{"type":"titles","payload":"タイトルA\nタイトルB\nタイトルC"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/commit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/history/myshow", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "タイトルA")
}

func (s *ServerSuite) TestCommitRejectsUnknownType() {
	body := `{"show":"myshow","results":[{"type":"poem","payload":"x"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/commit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestCommitRejectsEmptyResults() {
	body := `{"show":"myshow","results":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/commit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ServerSuite) TestShows() {
	_, err := s.store.Append("alpha", model.ArtifactTitles, "payload")
	s.Require().NoError(err)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/shows", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "alpha")
}

func (s *ServerSuite) TestExport() {
	_, err := s.store.Append("alpha", model.ArtifactTitles, "payload")
	s.Require().NoError(err)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/history/alpha/export", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Disposition"), "history.json")
	s.Contains(w.Body.String(), "payload")
}
