// Package api implements the prover service's HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/keylesszk/prover-service/config"
	"github.com/keylesszk/prover-service/input"
	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/onchain"
	"github.com/keylesszk/prover-service/prover"
)

// Messages returned verbatim to callers.
const (
	HealthCheckOKMessage    = "OK"
	MethodNotAllowedMessage = "The request method is not allowed for the requested path!"
	UnexpectedErrorMessage  = "An unexpected error was encountered!"
)

const maxRequestBodyBytes = 1 << 20

// ProofService validates a request and proves it under the active setup.
type ProofService interface {
	Validate(ctx context.Context, req *input.RequestInput) (*input.VerifiedInput, error)
	Prove(ctx context.Context, v *input.VerifiedInput) (*prover.Response, error)
	CurrentVK() onchain.Groth16VerificationKey
}

// JwkSource exposes the cached JWKs for the diagnostics endpoint.
type JwkSource interface {
	Snapshot() map[string]jwk.KeySet
}

// Server handles the HTTP requests of the prover service.
type Server struct {
	config     *config.ProverServiceConfig
	deployment DeploymentInformation
	service    ProofService
	jwks       JwkSource
	logger     *slog.Logger
}

func NewServer(cfg *config.ProverServiceConfig, deployment DeploymentInformation, service ProofService, jwks JwkSource, logger *slog.Logger) *Server {
	return &Server{
		config:     cfg,
		deployment: deployment,
		service:    service,
		jwks:       jwks,
		logger:     logger,
	}
}

// ErrorResponse is the body of client error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleHealth answers liveness and readiness probes.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, HealthCheckOKMessage)
}

// HandleAbout serves the deployment information.
func (s *Server) HandleAbout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deployment)
}

// HandleConfig serves the running configuration with secrets removed.
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.config.Redacted())
}

// HandleCachedJwk serves the JWKs currently held in the cache.
func (s *Server) HandleCachedJwk(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.jwks.Snapshot())
}

// HandleVK serves the verifying key of the setup requests would currently be
// proven under, in its on-chain representation.
func (s *Server) HandleVK(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.CurrentVK())
}

// HandleProve runs the proving pipeline for one request.
func (s *Server) HandleProve(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req input.RequestInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.logger.Warn("failed to decode prove request", "error", err)
		respondError(w, http.StatusBadRequest, "failed to parse prove request: "+err.Error())
		return
	}

	verified, err := s.service.Validate(r.Context(), &req)
	if err != nil {
		s.respondProveError(w, err)
		return
	}

	response, err := s.service.Prove(r.Context(), verified)
	if err != nil {
		s.respondProveError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// respondProveError maps pipeline errors onto HTTP statuses. Only client
// errors carry their message out; everything else is internal detail.
func (s *Server) respondProveError(w http.ResponseWriter, err error) {
	var clientErr *input.ClientError
	if errors.As(err, &clientErr) {
		s.logger.Warn("rejected prove request", "error", err)
		respondError(w, http.StatusBadRequest, clientErr.Error())
		return
	}
	s.logger.Error("prove request failed", "error", err)
	respondText(w, http.StatusInternalServerError, UnexpectedErrorMessage)
}

// HandleMethodNotAllowed answers known paths hit with the wrong method.
func (s *Server) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusMethodNotAllowed, MethodNotAllowedMessage)
}

// HandleNotFound answers unknown paths.
func (s *Server) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "unknown path: "+r.URL.Path)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(message))
}
