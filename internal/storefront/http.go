package storefront

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/session"
	"Storefront/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Log      *zap.Logger
	Sessions *session.Manager
	Tokens   *session.TokenMaker

	SessionTTL     time.Duration
	StoreName      string
	WhatsAppNumber string
}

type sessionResp struct {
	Token string `json:"token"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.New()

	token, err := s.Tokens.New(sess.ID, s.SessionTTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("sign session token failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, sessionResp{Token: token})
}

func sessionOr401(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no session", nil)
	}
	return sess, ok
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	if !sess.Catalog.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "could not load products", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, sess.Catalog.VisibleProducts())
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	if !sess.Catalog.Loaded() {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "could not load products", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, sess.Catalog.DistinctCategories())
}

type filterReq struct {
	SearchTerm string `json:"search_term"`
	Category   string `json:"category"`
}

type filterResp struct {
	SearchTerm string `json:"search_term"`
	Category   string `json:"category"`
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	var req filterReq
	if !decodeBody(w, r, &req) {
		return
	}

	sess.Catalog.SetSearchTerm(req.SearchTerm)
	sess.Catalog.SetCategory(req.Category)

	kit.WriteJSON(w, http.StatusOK, filterResp{
		SearchTerm: sess.Catalog.SearchTerm(),
		Category:   sess.Catalog.Category(),
	})
}

// cartView is what every cart mutation returns, so the caller can refresh its
// display from the ledger instead of re-deriving quantities locally.
type cartView struct {
	Lines      []cart.Line `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	Total      string      `json:"total"`
}

func viewOf(l *cart.Ledger) cartView {
	total := l.TotalCents()
	return cartView{
		Lines:      l.Lines(),
		TotalCents: total,
		Total:      catalog.FormatPrice(total),
	}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := sess.Cart.Increment(id); err != nil {
		s.writeCartError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	sess.Cart.Decrement(chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

type setQuantityReq struct {
	Quantity json.Number `json:"quantity"`
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	var req setQuantityReq
	if !decodeBody(w, r, &req) {
		return
	}

	// Fractional or unparseable quantities never reach the ledger.
	qty, err := req.Quantity.Int64()
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid quantity", map[string]any{"quantity": req.Quantity.String()})
		return
	}

	id := chi.URLParam(r, "id")
	if err := sess.Cart.SetQuantity(id, int(qty)); err != nil {
		s.writeCartError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	sess.Cart.Remove(chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	sess.Cart.Clear()
	kit.WriteJSON(w, http.StatusOK, viewOf(sess.Cart))
}

type checkoutReq struct {
	CompanyName  string `json:"company_name"`
	CompanyTaxID string `json:"company_tax_id"`
}

type checkoutResp struct {
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
	TotalCents  int64  `json:"total_cents"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}

	var req checkoutReq
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := checkout.NewOrder(sess.Cart.Lines(), sess.Cart.TotalCents(), req.CompanyName, req.CompanyTaxID)
	if err != nil {
		s.writeCheckoutError(w, r, err)
		return
	}

	msg := order.Message(s.StoreName)
	resp := checkoutResp{
		Message:     msg,
		WhatsAppURL: checkout.WhatsAppURL(s.WhatsAppNumber, msg),
		TotalCents:  order.TotalCents,
	}

	// The cart empties only once the hand-off message exists.
	sess.Cart.Clear()

	kit.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) writeCartError(w http.ResponseWriter, r *http.Request, err error, id string) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": id})
	case errors.Is(err, cart.ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid quantity", nil)
	default:
		if s.Log != nil {
			s.Log.Error("cart operation failed", zap.Error(err), zap.String("product_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
	case errors.Is(err, checkout.ErrMissingCompanyName):
		kit.WriteError(w, r, http.StatusBadRequest, "company name required", nil)
	case errors.Is(err, checkout.ErrMissingCompanyTaxID):
		kit.WriteError(w, r, http.StatusBadRequest, "company tax id required", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	return true
}
