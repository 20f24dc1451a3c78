package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- API tokens ---

type newTokenRequest struct {
	APILevel        *int `json:"apiLevel"        validate:"required,gte=0"`
	PointsToConsume int  `json:"pointsToConsume" validate:"omitempty,min=1,max=10000"`
	Duration        int  `json:"duration"        validate:"omitempty,oneof=10 20 30"`
}

type newTokenResponse struct {
	APIToken    string    `json:"apiToken"`
	APITokenExp time.Time `json:"apiTokenExp"`
	APILevel    int       `json:"apiLevel"`
	Credit      string    `json:"credit"`
}

type isValidRequest struct {
	Token string `json:"token"`
}

type currentTokenResponse struct {
	APIToken string `json:"apiToken"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type creditResponse struct {
	Credit string `json:"credit"`
	Delta  string `json:"delta,omitempty"`
	TxID   string `json:"txid,omitempty"`
	Swept  bool   `json:"swept"`
}

// --- Admin ---

type sweepResponse struct {
	HDIndex int    `json:"hdIndex"`
	TxID    string `json:"txid"`
}
