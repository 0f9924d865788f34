// Package api exposes the order book over a small REST surface. It is a
// collaborator layer: all order semantics live in internal/engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/sasiyaluba/Jup-limit-order/internal/engine"
)

// OrderService is the slice of the engine the HTTP layer needs.
type OrderService interface {
	Place(spec engine.Spec) (uuid.UUID, error)
	Cancel(id uuid.UUID) error
	Status(id uuid.UUID) (engine.Status, error)
}

// Server routes order placement, cancellation, and status queries.
type Server struct {
	book   OrderService
	router *mux.Router
	log    zerolog.Logger
}

func NewServer(book OrderService, log zerolog.Logger) *Server {
	s := &Server{book: book, router: mux.NewRouter(), log: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/{id}", s.handleOrderStatus).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routed handler wrapped with CORS, for tests and embedding.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("api server starting")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type placeOrderRequest struct {
	Owner       string  `json:"owner"`
	InputMint   string  `json:"input_mint"`
	OutputMint  string  `json:"output_mint"`
	Price       float64 `json:"price"`
	Amount      uint64  `json:"amount"`
	SlippageBps uint16  `json:"slippage_bps"`
	TipLamports uint64  `json:"tip_lamports,omitempty"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "malformed request body"})
		return
	}
	id, err := s.book.Place(engine.Spec{
		Owner:       req.Owner,
		InputMint:   req.InputMint,
		OutputMint:  req.OutputMint,
		TargetPrice: req.Price,
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
		TipLamports: req.TipLamports,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrValidation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, apiResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: id.String()})
}

type cancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "malformed request body"})
		return
	}
	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "malformed order id"})
		return
	}
	if err := s.book.Cancel(id); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, apiResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: "order cancelled"})
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: "malformed order id"})
		return
	}
	status, err := s.book.Status(id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, apiResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: status.String()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
