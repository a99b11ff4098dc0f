package services

// ServiceContainer holds every service the handlers depend on. Built once
// in app wiring and passed down as a unit.
type ServiceContainer struct {
	AuthService        AuthService
	UserService        UserService
	TaskService        TaskService
	ApplicationService ApplicationService
	ReviewService      ReviewService
	ReputationService  ReputationService
	MessageService     MessageService
}
