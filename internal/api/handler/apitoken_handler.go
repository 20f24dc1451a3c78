package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// APITokenHandler serves token purchase, validation and credit top-ups.
type APITokenHandler struct {
	tokens ports.TokenService
	topups ports.TopupService
}

// NewAPITokenHandler creates an APITokenHandler. topups is normally the
// per-user dispatcher so concurrent top-ups of one account are serialised.
func NewAPITokenHandler(tokens ports.TokenService, topups ports.TopupService) *APITokenHandler {
	return &APITokenHandler{tokens: tokens, topups: topups}
}

// Current handles GET /v1/apitoken.
//
// @Summary      Get the caller's current API token
// @Tags         apitoken
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  currentTokenResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/apitoken [get]
func (h *APITokenHandler) Current(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	token, err := h.tokens.CurrentToken(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, currentTokenResponse{APIToken: token})
}

// New handles POST /v1/apitoken/new. The previous token is revoked and its
// unused time refunded before the new tier is charged.
//
// @Summary      Purchase a new API token
// @Tags         apitoken
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      newTokenRequest  true  "Requested tier and rate-limit shaping"
// @Success      200   {object}  newTokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      402   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/apitoken/new [post]
func (h *APITokenHandler) New(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req newTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.tokens.Purchase(c.Request().Context(), userID, ports.PurchaseInput{
		APILevel:        *req.APILevel,
		PointsToConsume: req.PointsToConsume,
		Duration:        req.Duration,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newTokenResponse{
		APIToken:    res.APIToken,
		APITokenExp: res.APITokenExp,
		APILevel:    res.APILevel,
		Credit:      res.Credit.StringFixed(2),
	})
}

// IsValid handles POST /v1/apitoken/isvalid. It always answers 200; any
// failure is reported as {"isValid": false, "apiLevel": 0}.
//
// @Summary      Check whether an API token is current
// @Tags         apitoken
// @Accept       json
// @Produce      json
// @Param        body  body      isValidRequest  true  "Token to check"
// @Success      200   {object}  domain.TokenStatus
// @Router       /v1/apitoken/isvalid [post]
func (h *APITokenHandler) IsValid(c echo.Context) error {
	var req isValidRequest
	_ = c.Bind(&req)
	return c.JSON(http.StatusOK, h.tokens.IsValid(c.Request().Context(), req.Token))
}

// Address handles GET /v1/apitoken/address/:id.
//
// @Summary      Get the deposit address of an account
// @Tags         apitoken
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  addressResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/apitoken/address/{id} [get]
func (h *APITokenHandler) Address(c echo.Context) error {
	target, err := authorizeTarget(c)
	if err != nil {
		return err
	}

	addr, err := h.tokens.DepositAddress(c.Request().Context(), target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addressResponse{Address: addr})
}

// UpdateCredit handles POST /v1/apitoken/update-credit/:id. Funds at the
// deposit address are swept to the company wallet and credited in USD.
//
// @Summary      Convert deposited funds into credit
// @Tags         apitoken
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  creditResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/apitoken/update-credit/{id} [post]
func (h *APITokenHandler) UpdateCredit(c echo.Context) error {
	target, err := authorizeTarget(c)
	if err != nil {
		return err
	}

	res, err := h.topups.Topup(c.Request().Context(), target)
	if err != nil {
		return err
	}

	out := creditResponse{Credit: res.Credit.StringFixed(2), TxID: res.TxID, Swept: res.Swept}
	if res.Swept {
		out.Delta = res.Delta.StringFixed(2)
	}
	return c.JSON(http.StatusOK, out)
}
