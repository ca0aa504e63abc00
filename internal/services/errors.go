package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/vitrina/internal/i18n"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrCardNotFound           = errors.New("card not found or not verified")
	ErrCardExists             = errors.New("card already exists")
	ErrCardNotRegistered      = errors.New("card is not registered with the gateway")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrInvalidGatewayResponse = errors.New("invalid payment gateway response")
	ErrVerificationRejected   = errors.New("card verification rejected")
	ErrOrderCreationFailed    = errors.New("order creation failed")
)

// ValidationError lists problems with individual request fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// ProductNotFoundError names the requested products that do not exist.
type ProductNotFoundError struct {
	IDs []uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %v", e.IDs)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// InsufficientStockError names the first product that cannot cover its line.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// GatewayError is a failed Payme call. Kind is one of ErrGatewayUnavailable,
// ErrInvalidGatewayResponse or ErrVerificationRejected.
type GatewayError struct {
	Method  string
	Kind    error
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("payme %s: %v", e.Method, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorInfo is the client-facing description of an error kind.
type ErrorInfo struct {
	Name    string
	Message i18n.Text
}

var (
	InfoValidation = ErrorInfo{Name: "validation_error", Message: i18n.Text{
		"uz": "Ma'lumotlar noto'g'ri",
		"ru": "Некорректные данные",
		"en": "Invalid request data",
	}}
	InfoNotFound = ErrorInfo{Name: "not_found", Message: i18n.Text{
		"uz": "Topilmadi",
		"ru": "Не найдено",
		"en": "Not found",
	}}
	InfoCardNotFound = ErrorInfo{Name: "card_not_found", Message: i18n.Text{
		"uz": "Karta topilmadi yoki tasdiqlanmagan",
		"ru": "Карта не найдена или не подтверждена",
		"en": "Card not found or not verified",
	}}
	InfoCardExists = ErrorInfo{Name: "card_exists", Message: i18n.Text{
		"uz": "Bunday raqamli karta allaqachon mavjud",
		"ru": "Карта с таким номером уже существует",
		"en": "A card with this number already exists",
	}}
	InfoCardNotRegistered = ErrorInfo{Name: "card_not_registered", Message: i18n.Text{
		"uz": "Karta to'lov tizimida ro'yxatdan o'tmagan",
		"ru": "Карта не зарегистрирована в платежной системе",
		"en": "Card is not registered with the payment system",
	}}
	InfoProductNotFound = ErrorInfo{Name: "product_not_found", Message: i18n.Text{
		"uz": "Mahsulot topilmadi",
		"ru": "Товар не найден",
		"en": "Product not found",
	}}
	InfoInsufficientStock = ErrorInfo{Name: "insufficient_stock", Message: i18n.Text{
		"uz": "Omborda yetarli mahsulot yo'q",
		"ru": "Недостаточно товара на складе",
		"en": "Not enough items in stock",
	}}
	InfoVerificationRejected = ErrorInfo{Name: "verification_rejected", Message: i18n.Text{
		"uz": "Tasdiqlash kodi qabul qilinmadi",
		"ru": "Код подтверждения не принят",
		"en": "Verification code was rejected",
	}}
	InfoGatewayUnavailable = ErrorInfo{Name: "gateway_unavailable", Message: i18n.Text{
		"uz": "To'lov tizimi vaqtincha ishlamayapti",
		"ru": "Платежная система временно недоступна",
		"en": "Payment system is temporarily unavailable",
	}}
	InfoInvalidGatewayResponse = ErrorInfo{Name: "invalid_gateway_response", Message: i18n.Text{
		"uz": "To'lov tizimi noto'g'ri javob qaytardi",
		"ru": "Платежная система вернула некорректный ответ",
		"en": "Payment system returned an invalid response",
	}}
	InfoOrderCreationFailed = ErrorInfo{Name: "order_creation_failed", Message: i18n.Text{
		"uz": "Buyurtma yaratilmadi",
		"ru": "Не удалось создать заказ",
		"en": "Order could not be created",
	}}
)

// Classify returns the ErrorInfo for err, or false for unexpected errors.
// Gateway kinds are checked before ErrOrderCreationFailed so a wrapped
// checkout failure still names its cause.
func Classify(err error) (ErrorInfo, bool) {
	switch {
	case errors.Is(err, ErrValidation):
		return InfoValidation, true
	case errors.Is(err, ErrCardNotFound):
		return InfoCardNotFound, true
	case errors.Is(err, ErrCardExists):
		return InfoCardExists, true
	case errors.Is(err, ErrCardNotRegistered):
		return InfoCardNotRegistered, true
	case errors.Is(err, ErrProductNotFound):
		return InfoProductNotFound, true
	case errors.Is(err, ErrInsufficientStock):
		return InfoInsufficientStock, true
	case errors.Is(err, ErrVerificationRejected):
		return InfoVerificationRejected, true
	case errors.Is(err, ErrGatewayUnavailable):
		return InfoGatewayUnavailable, true
	case errors.Is(err, ErrInvalidGatewayResponse):
		return InfoInvalidGatewayResponse, true
	case errors.Is(err, ErrOrderCreationFailed):
		return InfoOrderCreationFailed, true
	case errors.Is(err, ErrNotFound):
		return InfoNotFound, true
	}
	return ErrorInfo{}, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs struct tag validation and converts failures to a
// ValidationError keyed by JSON field path.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Fields[field] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("Ensure this value is %s %s.", map[string]string{"gt": "greater than", "gte": "greater than or equal to"}[fe.Tag()], fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return fmt.Sprintf("Must match %s.", fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
