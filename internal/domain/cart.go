package domain

// CartItem is a product reference and quantity as stored
type CartItem struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// PopulatedCartItem is a cart line with its product loaded
type PopulatedCartItem struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// UserData is the mutable part of a user as exposed by /me
type UserData struct {
	Cart []PopulatedCartItem `json:"cart"`
}

// User is the caller identity together with its cart
type User struct {
	ID   string   `json:"_id"`
	Data UserData `json:"data"`
}
