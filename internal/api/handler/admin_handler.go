package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	sweeper ports.Sweeper
}

func NewAdminHandler(sweeper ports.Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// Sweep handles POST /v1/admin/sweep/:hd_index. It moves everything at the
// deposit address to the company wallet without crediting any account.
//
// @Summary      Sweep a deposit address
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        hd_index  path      int  true  "HD index of the deposit address"
// @Success      200       {object}  sweepResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/admin/sweep/{hd_index} [post]
func (h *AdminHandler) Sweep(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("hd_index"))
	if err != nil {
		return domain.ErrDerivation
	}

	txid, err := h.sweeper.Queue(c.Request().Context(), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweepResponse{HDIndex: idx, TxID: txid})
}
