package model

// Actor is the verified identity performing a request.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsProvider() bool {
	return a.Role == RoleProvider
}

func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}

// IsProviderOf reports whether the actor is the appointment's provider.
func (a Actor) IsProviderOf(appt *Appointment) bool {
	return a.IsProvider() && a.ID == appt.ProviderID
}

// IsClientOf reports whether the actor is the appointment's client.
func (a Actor) IsClientOf(appt *Appointment) bool {
	return a.IsStudent() && a.ID == appt.ClientID
}

// CanModify is the single ownership check used by every read and mutation of an appointment.
func (a Actor) CanModify(appt *Appointment) bool {
	return a.IsProviderOf(appt) || a.IsClientOf(appt)
}
