package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/aidar/taskflow/internal/middleware"
)

// maxBodySize ограничивает тело запроса (изображения OCR приходят data URL)
const maxBodySize = 10 << 20

var validate = newValidator()

// newValidator использует json имена полей в сообщениях
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RespondWithJSON отправляет JSON ответ с указанным статус кодом
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}

// MessageResponse ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}

// decodeJSON читает тело запроса и проверяет теги validate.
// Пишет ответ 400 и возвращает false при ошибке.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return false
	}
	if err := validateStruct(dst); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return false
	}
	return true
}

// validateStruct форматирует ошибки валидатора в одну строку
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param())
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param())
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, ", "))
}

// currentEmail возвращает email аутентифицированного пользователя
func currentEmail(r *http.Request) string {
	return middleware.GetEmailFromContext(r.Context())
}
