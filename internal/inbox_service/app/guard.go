package app

import "github.com/aradsms/inbox_services/internal/inbox_service/domain"

// CanView reports whether user may see and act on messages for number.
// Admins see everything; anyone else only numbers assigned to them.
func CanView(user *domain.User, number *domain.PhoneNumber) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if number == nil {
		return false
	}
	return number.AssignedUserID.Valid && number.AssignedUserID.UUID == user.ID
}
