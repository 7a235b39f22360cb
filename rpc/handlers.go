package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"nftwrapped/deploy"
	"nftwrapped/native/collection"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ProofResponse is served by /whitelist/proof/{address}.
type ProofResponse struct {
	Address     common.Address `json:"address"`
	Root        common.Hash    `json:"root"`
	Whitelisted bool           `json:"whitelisted"`
	Proof       []common.Hash  `json:"proof"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deploy.ErrUnknownCollection), errors.Is(err, collection.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Addresses())
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	summary, err := s.backend.Summary(chi.URLParam(r, "name"))
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	token, err := s.backend.Token(chi.URLParam(r, "name"), id)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	addr := common.HexToAddress(raw)
	proof, ok := s.backend.Proof(addr)
	resp := ProofResponse{Address: addr, Whitelisted: ok, Proof: proof}
	if resp.Proof == nil {
		resp.Proof = []common.Hash{}
	}
	summary, err := s.backend.Summary(deploy.Wrapped)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	resp.Root = summary.Whitelist
	writeJSON(w, http.StatusOK, resp)
}
