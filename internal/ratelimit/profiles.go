package ratelimit

import "time"

var (
	Booking       = Config{Prefix: "booking", MaxRequests: 10, Window: 60 * time.Second}
	Reschedule    = Config{Prefix: "reschedule", MaxRequests: 10, Window: 60 * time.Second}
	OTP           = Config{Prefix: "otp", MaxRequests: 5, Window: 300 * time.Second}
	PasswordReset = Config{Prefix: "password_reset", MaxRequests: 3, Window: 3600 * time.Second}
)

// Profiles indexes the built-in configurations by prefix.
var Profiles = map[string]Config{
	Booking.Prefix:       Booking,
	Reschedule.Prefix:    Reschedule,
	OTP.Prefix:           OTP,
	PasswordReset.Prefix: PasswordReset,
}
