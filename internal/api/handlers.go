// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moonforge/launchpad/internal/storage/models"
	"github.com/moonforge/launchpad/internal/token"
	"github.com/moonforge/launchpad/internal/trade"
)

// tokenView is the wire shape of a token card. Money columns are rendered as
// decimal strings to survive JSON round-trips untouched.
type tokenView struct {
	Mint          string  `json:"mint"`
	CreatorWallet string  `json:"creator_wallet"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MetadataURI   string  `json:"metadata_uri,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Description   string  `json:"description,omitempty"`
	Price         string  `json:"price"`
	MarketCap     string  `json:"market_cap"`
	SupplySold    string  `json:"supply_sold"`
	CurveProgress float64 `json:"curve_progress"`
	CurveComplete bool    `json:"curve_complete"`
	CreatedAt     string  `json:"created_at"`
}

func viewOf(t *models.Token) tokenView {
	return tokenView{
		Mint:          t.Mint,
		CreatorWallet: t.CreatorWallet,
		Name:          t.Name,
		Symbol:        t.Symbol,
		MetadataURI:   t.MetadataURI,
		ImageURL:      t.ImageURL,
		Description:   t.Description,
		Price:         t.LastPrice.String(),
		MarketCap:     t.MarketCap.String(),
		SupplySold:    t.SupplySold.String(),
		CurveProgress: t.CurveProgress,
		CurveComplete: t.CurveComplete,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListTokens(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tokens, err := s.tokens.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, viewOf(t))
	}

	c.Header("Cache-Control", "public, max-age=2")
	c.JSON(http.StatusOK, gin.H{"tokens": views, "count": len(views)})
}

func (s *Server) handleGetToken(c *gin.Context) {
	t, err := s.tokens.Get(c.Request.Context(), c.Param("mint"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	c.Header("Cache-Control", "public, max-age=2")
	c.JSON(http.StatusOK, viewOf(t))
}

// handleQuoteBuy prices a hypothetical buy against the mirrored curve state.
// Quotes are estimates: the program settles at on-chain state, which may have
// moved by the time a trade lands.
func (s *Server) handleQuoteBuy(c *gin.Context) {
	amount, ok := s.amountParam(c)
	if !ok {
		return
	}

	t, err := s.tokens.Get(c.Request.Context(), c.Param("mint"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}

	quote, err := trade.QuoterForToken(t).QuoteBuy(amount, t.SupplySold.InexactFloat64())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mint":           t.Mint,
		"side":           models.TradeSideBuy,
		"payment_amount": quote.PaymentAmount,
		"token_amount":   quote.TokenAmount,
		"spot_price":     quote.SpotPrice,
		"curve_progress": quote.Progress,
		"market_cap":     quote.MarketCap,
		"estimate":       true,
	})
}

func (s *Server) handleQuoteSell(c *gin.Context) {
	amount, ok := s.amountParam(c)
	if !ok {
		return
	}

	t, err := s.tokens.Get(c.Request.Context(), c.Param("mint"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}

	quote, err := trade.QuoterForToken(t).QuoteSell(amount, t.SupplySold.InexactFloat64())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mint":           t.Mint,
		"side":           models.TradeSideSell,
		"token_amount":   quote.TokenAmount,
		"gross_proceeds": quote.GrossProceeds,
		"fee":            quote.Fee,
		"net_proceeds":   quote.NetProceeds,
		"spot_price":     quote.SpotPrice,
		"estimate":       true,
	})
}

type launchPayload struct {
	Mint          string `json:"mint" binding:"required"`
	CreatorWallet string `json:"creator_wallet" binding:"required"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MetadataURI   string `json:"metadata_uri"`
}

func (s *Server) handleLaunchToken(c *gin.Context) {
	var payload launchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := s.tokens.Launch(c.Request.Context(), token.LaunchRequest{
		Mint:          payload.Mint,
		CreatorWallet: payload.CreatorWallet,
		Name:          payload.Name,
		Symbol:        payload.Symbol,
		MetadataURI:   payload.MetadataURI,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, viewOf(t))
}

type tradePayload struct {
	Mint          string  `json:"mint" binding:"required"`
	WalletAddress string  `json:"wallet_address" binding:"required"`
	Side          string  `json:"side" binding:"required"`
	PaymentAmount float64 `json:"payment_amount"`
	TokenAmount   float64 `json:"token_amount"`
}

func (s *Server) handleCreateTrade(c *gin.Context) {
	var payload tradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var (
		result *trade.Result
		err    error
	)
	switch payload.Side {
	case models.TradeSideBuy:
		result, err = s.trades.ExecuteBuy(ctx, trade.BuyRequest{
			Mint:          payload.Mint,
			WalletAddress: payload.WalletAddress,
			PaymentAmount: payload.PaymentAmount,
		})
	case models.TradeSideSell:
		result, err = s.trades.ExecuteSell(ctx, trade.SellRequest{
			Mint:          payload.Mint,
			WalletAddress: payload.WalletAddress,
			TokenAmount:   payload.TokenAmount,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be buy or sell"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signature":      result.Signature,
		"side":           result.Side,
		"payment_amount": result.PaymentAmount,
		"token_amount":   result.TokenAmount,
		"price":          result.Price,
		"settled":        result.Settled,
	})
}

// amountParam parses the required positive amount query parameter.
func (s *Server) amountParam(c *gin.Context) (float64, bool) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return 0, false
	}
	return amount, true
}

// fail maps domain errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, trade.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, trade.ErrNonPositiveAmount),
		errors.Is(err, token.ErrInvalidMint),
		errors.Is(err, token.ErrInvalidCreator),
		errors.Is(err, token.ErrMissingName),
		errors.Is(err, token.ErrMissingSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, trade.ErrCurveComplete):
		status = http.StatusConflict
	case errors.Is(err, trade.ErrCreatorBuyCap):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
