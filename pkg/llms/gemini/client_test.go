package gemini

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/genai"

	"github.com/podscript-ai/podscript/pkg/model"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) TestNewClientRequiresAPIKey() {
	client, err := NewClient(context.Background(), Config{})
	s.Nil(client)
	s.Error(err)
	s.Contains(err.Error(), "api key is required")
}

func (s *ClientSuite) TestResolveModelNamePrecedence() {
	c := &Client{cfg: Config{GenerationModel: "gemini-2.5-pro"}}
	s.Equal("gemini-2.5-pro", c.resolveModelName(model.GenerateConfig{}))

	override := "gemini-2.0-flash"
	s.Equal("gemini-2.0-flash", c.resolveModelName(model.GenerateConfig{Model: &override}))

	bare := &Client{}
	s.Equal(defaultModelName, bare.resolveModelName(model.GenerateConfig{}))
}

func (s *ClientSuite) TestClassifyTransientStatuses() {
	for _, code := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		verdict := classifyTransient(genai.APIError{Code: code})
		s.True(verdict.Transient, "code %d", code)
	}
}

func (s *ClientSuite) TestClassifyNonRetryableStatuses() {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		verdict := classifyTransient(genai.APIError{Code: code})
		s.False(verdict.Transient, "code %d", code)
	}
}

func (s *ClientSuite) TestClassifyDeadlineExceeded() {
	s.True(classifyTransient(context.DeadlineExceeded).Transient)
}

func (s *ClientSuite) TestInitMetadata() {
	meta := initMetadata("gemini-2.5-flash")
	s.Equal(providerName, meta[model.MetadataKeyProvider])
	s.Equal("gemini-2.5-flash", meta[model.MetadataKeyModel])

	s.Equal("unknown", initMetadata(" ")[model.MetadataKeyModel])
}
