package utils

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// validate shares gin's "binding" tag so request structs are declared once.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName reports fields by their json name. Register it on gin's
// validator too so both report the same field names.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// ValidateStruct runs tag validation and converts failures into a *ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	return ValidationErrorFrom(ve)
}

// ValidationErrorFrom converts validator field errors, e.g. from gin's binder.
func ValidationErrorFrom(err error) *ValidationError {
	fields := ProcessValidationErrors(err)
	var first validator.FieldError
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		first = ve[0]
	}
	if first == nil {
		return &ValidationError{Message: err.Error(), Fields: fields}
	}
	return &ValidationError{
		Field:   first.Field(),
		Message: "failed on the '" + first.Tag() + "' rule",
		Fields:  fields,
	}
}

// check if id exists, return NotFoundError
func ValidateResourceId[T any](ctx context.Context, tx *gorm.DB, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, tx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return NewNotFoundError(GetTypeName[T](), id)
	}
	return nil
}

// check if value is unused in column, ignoring the row exceptId when non-zero
func ValidateUnique[T any](ctx context.Context, tx *gorm.DB, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, tx, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, tx, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError(column, "has already been taken")
	}
	return nil
}

// count records matching condition
func ResourceCountWhere[T any](ctx context.Context, tx *gorm.DB, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	if err := tx.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
