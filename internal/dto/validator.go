package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/kpcnc-co/seminar/internal/model"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("attendance", validateAttendance)
}

// validateAttendance 出席标记只接受 "Y" / "N"
func validateAttendance(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == model.AttendanceYes || s == model.AttendanceNo
}
