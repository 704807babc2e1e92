package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Currency is an ISO 4217 code accepted for product prices
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// SupportedCurrencies lists the currencies a price may be expressed in
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
}

// Symbol returns the display symbol for the currency, or the code itself when unknown
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Price is the amount a product sells for in its own currency
type Price struct {
	Amount   float64  `json:"amount" bson:"amount" validate:"gte=0"`
	Currency Currency `json:"currency" bson:"currency" validate:"required,oneof=USD EUR GBP"`
}

// Internal holds fields derived at write time that callers may not set
type Internal struct {
	ApproximatePriceUSD float64 `json:"approximatePriceUSD" bson:"approximatePriceUSD"`
}

// Product represents a product in the catalog
type Product struct {
	ID        string           `json:"_id" bson:"_id"`
	Name      string           `json:"name" bson:"name" validate:"required,notblank"`
	Pictures  []string         `json:"pictures" bson:"pictures" validate:"dive,httpurl"`
	Price     Price            `json:"price" bson:"price"`
	Category  CategorySnapshot `json:"category" bson:"category"`
	Internal  Internal         `json:"internal" bson:"internal"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updated_at"`
}

// SetPrice replaces amount and currency and recomputes the approximate USD
// price from rates in the same step. A missing or zero rate divides by 1.
func (p *Product) SetPrice(price Price, rates map[string]float64) {
	p.Price = price
	p.Internal.ApproximatePriceUSD = ApproximateUSD(price, rates)
}

// ApproximateUSD converts a price to USD using a rate snapshot
func ApproximateUSD(price Price, rates map[string]float64) float64 {
	rate, ok := rates[string(price.Currency)]
	if !ok || rate == 0 {
		rate = 1
	}
	return price.Amount / rate
}

// DisplayPrice renders the price for humans, e.g. "$25" rather than "USD 25"
func (p *Product) DisplayPrice() string {
	return p.Price.Currency.Symbol() + strconv.FormatFloat(p.Price.Amount, 'f', -1, 64)
}

// MarshalJSON adds the read-only displayPrice field
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		DisplayPrice string `json:"displayPrice"`
	}{
		product:      product(p),
		DisplayPrice: p.DisplayPrice(),
	})
}
