package models

const (
	BookingStatusBooked    = "Booked"
	BookingStatusCancelled = "Cancelled"
)

const (
	PaymentStatusCompleted = "Completed"
	PaymentStatusRejected  = "Rejected"
	PaymentStatusPending   = "Pending"
)

const (
	// DaysPerPeriod is the number of days PricePerMonth covers.
	DaysPerPeriod = 30

	// DefaultSessionTTLHours is how long a stored session stays valid.
	DefaultSessionTTLHours = 24

	// DefaultAPITimeout is the HTTP client timeout, seconds.
	DefaultAPITimeout = 10

	// DefaultCacheTTL is the room-list cache lifetime, seconds.
	DefaultCacheTTL = 60
)
