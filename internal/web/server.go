package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/elys-network/bce/internal/curve"
	"github.com/elys-network/bce/internal/engine"
	"github.com/elys-network/bce/internal/fee"
	"github.com/elys-network/bce/internal/logger"
	"github.com/elys-network/bce/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the deposit-notification hook, the administrative
// actions, and read-only views over HTTP. Authentication happens upstream;
// requests carry the already-verified actor account.
type WebServer struct {
	router *mux.Router
	port   string
	engine *engine.Engine
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, eng *engine.Engine) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		engine: eng,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/transfer", ws.handleTransfer).Methods("POST")
	api.HandleFunc("/admin/init", ws.handleInit).Methods("POST")
	api.HandleFunc("/admin/connect", ws.handleConnect).Methods("POST")
	api.HandleFunc("/admin/setcharge", ws.handleSetCharge).Methods("POST")
	api.HandleFunc("/admin/setowner", ws.handleSetOwner).Methods("POST")
	api.HandleFunc("/connectors", ws.handleConnectors).Methods("GET")
	api.HandleFunc("/config", ws.handleConfig).Methods("GET")

	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

type transferRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"` // extended asset, e.g. "100.0000 EOS@eosio.token"
	Memo     string `json:"memo"`
}

func (ws *WebServer) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	deposited, err := types.ParseExtendedAsset(req.Quantity)
	if err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := ws.engine.OnTransfer(req.From, req.To, deposited, req.Memo)
	if err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	if receipt == nil {
		ws.writeJSON(w, http.StatusOK, map[string]any{"ignored": true})
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt})
}

type initRequest struct {
	Actor     string `json:"actor"`
	Owner     string `json:"owner"`
	Connected string `json:"connected"` // "EOS@eosio.token"
}

func (ws *WebServer) handleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	connected, err := parseExtendedSymbol(req.Connected)
	if err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ws.engine.Init(req.Actor, req.Owner, connected); err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"initialized": true})
}

type connectRequest struct {
	Actor  string `json:"actor"`
	Smart  string `json:"smart"`  // "AAA@pool.issuer"
	Seed   string `json:"seed"`   // "1000.0000 EOS@eosio.token"
	Weight string `json:"weight"` // decimal in (0, 1], e.g. "0.5"
}

func (ws *WebServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	smart, err := parseExtendedSymbol(req.Smart)
	if err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	seed, err := types.ParseExtendedAsset(req.Seed)
	if err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	weight, err := sdkmath.LegacyNewDecFromStr(req.Weight)
	if err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ws.engine.Connect(req.Actor, smart, seed, weight); err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"connected": true})
}

type setChargeRequest struct {
	Actor string  `json:"actor"`
	Rate  int64   `json:"rate"`
	Flat  *string `json:"flat,omitempty"` // "0.0010 EOS"
	Pool  *string `json:"pool,omitempty"` // "AAA@pool.issuer"
}

func (ws *WebServer) handleSetCharge(w http.ResponseWriter, r *http.Request) {
	var req setChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	var flat *types.Asset
	if req.Flat != nil {
		asset, err := types.ParseAsset(*req.Flat)
		if err != nil {
			ws.writeError(w, http.StatusBadRequest, err)
			return
		}
		flat = &asset
	}
	var pool *types.ExtendedSymbol
	if req.Pool != nil {
		sym, err := parseExtendedSymbol(*req.Pool)
		if err != nil {
			ws.writeError(w, http.StatusBadRequest, err)
			return
		}
		pool = &sym
	}
	if err := ws.engine.SetCharge(req.Actor, req.Rate, flat, pool); err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

type setOwnerRequest struct {
	Actor string `json:"actor"`
	Owner string `json:"owner"`
}

func (ws *WebServer) handleSetOwner(w http.ResponseWriter, r *http.Request) {
	var req setOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ws.engine.SetOwner(req.Actor, req.Owner); err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (ws *WebServer) handleConnectors(w http.ResponseWriter, r *http.Request) {
	connectors, err := ws.engine.Connectors()
	if err != nil {
		ws.writeError(w, http.StatusInternalServerError, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"connectors": connectors})
}

func (ws *WebServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := ws.engine.GlobalConfig()
	if err != nil {
		ws.writeError(w, statusFor(err), err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"account": ws.engine.Account(),
		"time":    time.Now().UTC(),
	})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, err error) {
	ws.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// statusFor maps domain errors to HTTP statuses. Precondition violations
// are client errors, everything else is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrNotInitialized),
		errors.Is(err, engine.ErrAlreadyInitialized),
		errors.Is(err, engine.ErrConnectorNotFound),
		errors.Is(err, engine.ErrConnectorExists),
		errors.Is(err, engine.ErrConnectorNotActivated),
		errors.Is(err, engine.ErrNoOverridePolicy),
		errors.Is(err, curve.ErrInsufficientPayment),
		errors.Is(err, curve.ErrInvalidWeight),
		errors.Is(err, curve.ErrSupplyExceeded),
		errors.Is(err, curve.ErrInsufficientReserve),
		errors.Is(err, fee.ErrRateOutOfRange),
		errors.Is(err, fee.ErrTargetNotCoverable),
		errors.Is(err, types.ErrMalformedMemo),
		errors.Is(err, types.ErrMalformedAsset),
		errors.Is(err, types.ErrMalformedSymbol),
		errors.Is(err, types.ErrDenominationMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseExtendedSymbol parses "CODE@issuer". Precision is resolved against
// the ledger by the engine, so only code and issuer are taken here.
func parseExtendedSymbol(s string) (types.ExtendedSymbol, error) {
	target, err := types.ParseMemo(s)
	if err != nil {
		return types.ExtendedSymbol{}, err
	}
	if target.Amount != "" {
		return types.ExtendedSymbol{}, types.ErrMalformedSymbol
	}
	return types.ExtendedSymbol{
		Symbol: types.Symbol{Code: target.Code},
		Issuer: target.Issuer,
	}, nil
}
