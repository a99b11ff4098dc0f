package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"taskmarket_backend/internal/models"
)

// registerCustomRules installs the domain value checks. Empty values pass
// every rule here; 'required' owns presence.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// A rule that fails to register is a startup defect.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-task-status", validateTaskStatus)
	mustRegister("is-location-type", validateLocationType)
	mustRegister("is-application-status", validateApplicationStatus)
	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-payment-status", validatePaymentStatus)
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ParseTaskStatus(value) != models.TaskStatusUnknown
}

func validateLocationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.LocationType(value) {
	case models.LocationTypeInPerson, models.LocationTypeRemote:
		return true
	default:
		return false
	}
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ApplicationStatus(value) {
	case models.ApplicationStatusPending, models.ApplicationStatusAccepted,
		models.ApplicationStatusRejected, models.ApplicationStatusWithdrawn:
		return true
	default:
		return false
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleUser, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.PaymentStatus(value) {
	case models.PaymentStatusPending, models.PaymentStatusEscrowed,
		models.PaymentStatusReleased, models.PaymentStatusRefunded,
		models.PaymentStatusFailed:
		return true
	default:
		return false
	}
}
