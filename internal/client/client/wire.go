package client

import (
	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

type empty struct{}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sendOTPRequest struct {
	Email   string `json:"email"`
	Context string `json:"context"`
}

type verifyOTPRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Context string `json:"context"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type cartResponse struct {
	Items []wireLineItem `json:"items"`
}

type cartItemResponse struct {
	Item wireLineItem `json:"item"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type wireProduct struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

// wireLineItem accepts both the flat line-item shape and the older one
// where the product is embedded and the line ID is called _id.
type wireLineItem struct {
	ID        string       `json:"id"`
	LegacyID  string       `json:"_id"`
	ProductID string       `json:"productId"`
	Product   *wireProduct `json:"product"`
	Name      string       `json:"name"`
	ImageURL  string       `json:"imageUrl"`
	Price     int64        `json:"price"`
	Quantity  int          `json:"quantity"`
	Stock     int          `json:"stock"`
}

func (w wireLineItem) normalize() models.LineItem {
	it := models.LineItem{
		ID:        firstNonEmpty(w.ID, w.LegacyID),
		ProductID: w.ProductID,
		Name:      w.Name,
		ImageURL:  w.ImageURL,
		Price:     w.Price,
		Quantity:  w.Quantity,
		Stock:     w.Stock,
	}
	if p := w.Product; p != nil {
		if it.ProductID == "" {
			it.ProductID = firstNonEmpty(p.ID, p.LegacyID)
		}
		if it.Name == "" {
			it.Name = p.Name
		}
		if it.ImageURL == "" {
			it.ImageURL = p.ImageURL
		}
		if it.Price == 0 {
			it.Price = p.Price
		}
		if it.Stock == 0 {
			it.Stock = p.Stock
		}
	}
	return it
}

func normalizeItems(in []wireLineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(in))
	for _, w := range in {
		out = append(out, w.normalize())
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
