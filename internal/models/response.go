package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ListingSummary struct {
	ID        int64     `json:"listing_id"`
	Title     string    `json:"title"`
	Style     string    `json:"style"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingListResponse struct {
	Listings []ListingSummary `json:"listings"`
}

type ListingResponse struct {
	ID        int64     `json:"listing_id"`
	Fields    Fields    `json:"fields"`
	StyleKey  string    `json:"style_key"`
	StyleName string    `json:"style_name"`
	Photos    int       `json:"photos"`
	Videos    int       `json:"videos"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LeadResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LeadsResponse struct {
	Leads []LeadResponse `json:"leads"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
