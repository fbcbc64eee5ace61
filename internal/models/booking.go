package models

import "time"

// DateLayout is the calendar-date wire format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Booking is a booking row as listed by GET /booking/bookings.
type Booking struct {
	BookingID     int64  `json:"BookingID"`
	RoomID        int64  `json:"RoomID"`
	CustomerID    int64  `json:"CustomerID"`
	CustomerName  string `json:"CustomerName,omitempty"`
	BuildingName  string `json:"BuildingName"`
	RoomType      string `json:"RoomType"`
	CheckInDate   string `json:"CheckInDate"`
	CheckOutDate  string `json:"CheckOutDate"`
	TotalAmount   Money  `json:"TotalAmount"`
	Status        string `json:"Status,omitempty"`
	PaymentAmount Money  `json:"PaymentAmount"`
	PaymentStatus string `json:"PaymentStatus"`
}

// BookRoomRequest is the body of POST /booking/book-room.
type BookRoomRequest struct {
	RoomID       int64  `json:"roomID"`
	CustomerID   int64  `json:"customerID"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	TotalAmount  Money  `json:"totalAmount"`
}

type BookRoomResponse struct {
	BookingID int64  `json:"bookingID"`
	Message   string `json:"message,omitempty"`
}

// PaymentRequest is the body of POST /payment/process-payment.
type PaymentRequest struct {
	BookingID     int64  `json:"bookingID"`
	Amount        Money  `json:"amount"`
	PaymentDate   string `json:"paymentDate"`
	PaymentStatus string `json:"paymentStatus"`
}

// PaymentResponse is the answer of the payment collaborator. PaymentStatus is
// empty when the service does not report a decision.
type PaymentResponse struct {
	PaymentID     int64  `json:"paymentID,omitempty"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	Message       string `json:"message,omitempty"`
}

// FormatDate renders t as a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
