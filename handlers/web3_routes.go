package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type verifyTxBody struct {
	TxHash string `json:"tx_hash" validate:"required"`
}

func SetupWeb3Routes(api fiber.Router, s *Services) {
	api.Get("/web3/config", func(c *fiber.Ctx) error {
		return c.JSON(s.Web3.PublicConfig())
	})

	api.Get("/web3/balance", func(c *fiber.Ctx) error {
		balance, err := s.Web3.Balance(c.UserContext(), c.Query("address"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(balance)
	})

	api.Post("/web3/verify", func(c *fiber.Ctx) error {
		var body verifyTxBody
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		transfers, err := s.Web3.DecodeTx(c.UserContext(), body.TxHash)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tx_hash": body.TxHash, "transfers": transfers})
	})
}
