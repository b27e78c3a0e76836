package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"paraiso_verde/internal/domain"
)

// FormError is a rejected form; Msg is ready to show to the visitor.
type FormError struct {
	Field string
	Msg   string
}

func (e *FormError) Error() string { return e.Msg }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// Validate checks form against its validate tags and reports the first
// violation in Spanish. A field's msg tag overrides the generated text.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fe := ve[0]
	return &FormError{Field: fe.StructField(), Msg: fieldMessage(form, fe)}
}

func fieldMessage(form any, fe validator.FieldError) string {
	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		if m := sf.Tag.Get("msg"); m != "" {
			return m
		}
	}
	label := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("El campo %s es obligatorio", label)
	case "email":
		return "Ingresa un email válido"
	case "eqfield":
		return "Las contraseñas no coinciden."
	case "oneof":
		return fmt.Sprintf("El valor de %s no es válido", label)
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s debe tener al menos %s caracteres", capitalize(label), fe.Param())
		}
		return fmt.Sprintf("%s debe ser al menos %s", capitalize(label), fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s no puede superar %s caracteres", capitalize(label), fe.Param())
		}
		return fmt.Sprintf("%s no puede ser mayor que %s", capitalize(label), fe.Param())
	case "datetime":
		return fmt.Sprintf("La %s no es válida", label)
	}
	return fmt.Sprintf("El campo %s no es válido", label)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

type LoginForm struct {
	Email    string `label:"email" validate:"required,email"`
	Password string `label:"contraseña" validate:"required"`
}

type RegisterForm struct {
	FirstName    string `label:"nombre" validate:"required,max=80"`
	LastName     string `label:"apellido" validate:"required,max=80"`
	Email        string `label:"email" validate:"required,email"`
	Password     string `label:"contraseña" validate:"required,min=6"`
	Confirm      string `label:"confirmación" validate:"eqfield=Password"`
	Phone        string `label:"teléfono" validate:"omitempty,max=20"`
	Document     string `label:"documento" validate:"omitempty,max=20"`
	DocumentType string `label:"tipo de documento" validate:"omitempty,oneof=DNI CE PASAPORTE RUC"`
	BirthDate    string `label:"fecha de nacimiento" validate:"omitempty,datetime=2006-01-02"`
}

func (f RegisterForm) Registration() domain.Registration {
	return domain.Registration{
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Email:        strings.TrimSpace(f.Email),
		Password:     f.Password,
		Phone:        strings.TrimSpace(f.Phone),
		Document:     strings.TrimSpace(f.Document),
		DocumentType: f.DocumentType,
		BirthDate:    f.BirthDate,
	}
}

type RoomForm struct {
	Number string `label:"número" validate:"required" msg:"Número y piso son requeridos"`
	Floor  int    `label:"piso" validate:"required,min=1" msg:"Número y piso son requeridos"`
	TypeID int64  `label:"tipo de habitación" validate:"required,min=1"`
	Status string `label:"estado" validate:"required,oneof=libre ocupada separada mantenimiento"`
	Notes  string `label:"observaciones" validate:"max=500"`
}

// Input maps the form to the API body; blank notes are sent as null.
func (f RoomForm) Input() domain.RoomInput {
	in := domain.RoomInput{
		Number: strings.TrimSpace(f.Number),
		Floor:  f.Floor,
		TypeID: f.TypeID,
		Status: f.Status,
	}
	if n := strings.TrimSpace(f.Notes); n != "" {
		in.Notes = &n
	}
	return in
}

type UserForm struct {
	Email     string `label:"email" validate:"required,email" msg:"Todos los campos son obligatorios"`
	FirstName string `label:"nombre" validate:"required" msg:"Todos los campos son obligatorios"`
	LastName  string `label:"apellido" validate:"required" msg:"Todos los campos son obligatorios"`
	Role      string `label:"rol" validate:"required,oneof=admin staff cliente" msg:"Todos los campos son obligatorios"`
	Active    bool
	Password  string `label:"contraseña" validate:"omitempty,min=6"`
}

// ValidateUser applies the create-only password rule on top of the tags.
func ValidateUser(f UserForm, creating bool) error {
	if err := Validate(f); err != nil {
		return err
	}
	if creating && f.Password == "" {
		return &FormError{Field: "Password", Msg: "La contraseña es obligatoria para nuevos usuarios"}
	}
	return nil
}

func (f UserForm) Input() domain.UserInput {
	return domain.UserInput{
		Email:     strings.TrimSpace(f.Email),
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Role:      f.Role,
		Active:    f.Active,
		Password:  f.Password,
	}
}

type BookingForm struct {
	RoomID      int64  `label:"habitación" validate:"required"`
	CheckIn     string `label:"entrada" validate:"required" msg:"Por favor selecciona las fechas de entrada y salida"`
	CheckOut    string `label:"salida" validate:"required" msg:"Por favor selecciona las fechas de entrada y salida"`
	Guests      int    `label:"huéspedes" validate:"min=1,max=6"`
	VoucherType string `label:"tipo de comprobante" validate:"required,oneof=transferencia deposito yape plin efectivo"`
	PaidOn      string `label:"fecha de pago" validate:"required,datetime=2006-01-02" msg:"Indica una fecha de pago válida"`

	FileName    string
	ContentType string
	File        []byte
}

// ValidateBooking orders the checks the way the booking modal reports them:
// dates first, then the voucher, then the rest.
func ValidateBooking(f BookingForm) error {
	if err := domain.ValidateStay(f.CheckIn, f.CheckOut); err != nil {
		return &FormError{Field: "CheckIn", Msg: err.Error()}
	}
	if len(f.File) == 0 {
		return &FormError{Field: "File", Msg: domain.ErrNoVoucher.Error()}
	}
	return Validate(f)
}

type ContactForm struct {
	Name    string `label:"nombre" validate:"required,max=120"`
	Email   string `label:"email" validate:"required,email"`
	Phone   string `label:"teléfono" validate:"omitempty,max=30"`
	Subject string `label:"asunto" validate:"max=160"`
	Message string `label:"mensaje" validate:"required,max=4000"`
}
