package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	contract "tollgate/contracts/metadata"
)

// zeroAddress is the base58 form of the all-zero key, which the service
// sends when a token has no update authority.
const zeroAddress = "11111111111111111111111111111111"

// Registry is an in-memory metadata registry speaking the contract.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]contract.Token
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{tokens: make(map[string]contract.Token), logger: logger}
}

func (reg *Registry) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requireContractVersion)
	r.Post(contract.PathTokens, reg.handleCreate)
	r.Get(contract.PathToken, reg.handleGet)
	r.Put(contract.PathToken, reg.handleUpdate)
	r.Delete(contract.PathTokenRevoke, reg.handleRevoke)
	return r
}

func requireContractVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-Contract-Version"); v != "" && v != contract.Version {
			writeError(w, http.StatusBadRequest, contract.ErrCodeInvalid, "unsupported contract version "+v)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (reg *Registry) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req contract.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mint == "" {
		writeError(w, http.StatusBadRequest, contract.ErrCodeInvalid, "mint is required")
		return
	}
	authority := req.UpdateAuthority
	if authority == zeroAddress {
		authority = ""
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.tokens[req.Mint]; ok {
		writeError(w, http.StatusConflict, contract.ErrCodeConflict, "metadata already exists")
		return
	}
	tok := contract.Token{
		Mint:            req.Mint,
		Name:            req.Name,
		Symbol:          req.Symbol,
		URI:             req.URI,
		UpdateAuthority: authority,
		Mutable:         authority != "",
	}
	reg.tokens[req.Mint] = tok
	reg.logger.Info("metadata created", "mint", req.Mint, "symbol", req.Symbol)
	writeJSON(w, http.StatusCreated, tok)
}

func (reg *Registry) handleGet(w http.ResponseWriter, r *http.Request) {
	reg.mu.RLock()
	tok, ok := reg.tokens[chi.URLParam(r, "mint")]
	reg.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, contract.ErrCodeNotFound, "unknown mint")
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (reg *Registry) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req contract.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, contract.ErrCodeInvalid, "malformed body")
		return
	}
	mint := chi.URLParam(r, "mint")

	reg.mu.Lock()
	defer reg.mu.Unlock()
	tok, ok := reg.tokens[mint]
	if !ok {
		writeError(w, http.StatusNotFound, contract.ErrCodeNotFound, "unknown mint")
		return
	}
	if !tok.Mutable {
		writeError(w, http.StatusForbidden, contract.ErrCodeRevoked, "update authority has been revoked")
		return
	}
	tok.Name, tok.Symbol, tok.URI = req.Name, req.Symbol, req.URI
	reg.tokens[mint] = tok
	reg.logger.Info("metadata updated", "mint", mint, "symbol", tok.Symbol)
	writeJSON(w, http.StatusOK, tok)
}

func (reg *Registry) handleRevoke(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")

	reg.mu.Lock()
	defer reg.mu.Unlock()
	tok, ok := reg.tokens[mint]
	if !ok {
		writeError(w, http.StatusNotFound, contract.ErrCodeNotFound, "unknown mint")
		return
	}
	tok.UpdateAuthority = ""
	tok.Mutable = false
	reg.tokens[mint] = tok
	reg.logger.Info("metadata update authority cleared", "mint", mint)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, contract.ErrorResponse{Error: code, Description: description})
}
