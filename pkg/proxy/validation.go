package proxy

import (
	"encoding/json"
	"fmt"
	"github.com/spf13/cast"
	"gopkg.in/go-playground/validator.v9"
	"io"
	"io/ioutil"
	"math"
	"reflect"
	"strings"
)

const (
	requiredMessage   = "Required"
	notNumberMessage  = "Expected number, received nan"
	notIntegerMessage = "Expected integer, received float"
	tooLargeMessage   = "Number must be less than or equal to 9007199254740991"
	tooSmallMessage   = "Number must be greater than or equal to -9007199254740991"
	maxBodyBytes      = 1 << 20

	// largest integer a JSON number carries exactly
	maxSafeInteger = 1<<53 - 1
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a body field to its validation messages.
type FieldErrors map[string][]string

func (errs FieldErrors) add(field string, message string) {
	errs[field] = append(errs[field], message)
}

func (errs FieldErrors) has(field string) bool {
	return len(errs[field]) > 0
}

type loginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type itemRequest struct {
	Name              string  `json:"name" validate:"min=1"`
	Description       string  `json:"description" validate:"min=1"`
	PurchasePrice     float64 `json:"purchasePrice" validate:"min=0"`
	SellingPrice      float64 `json:"sellingPrice" validate:"min=0"`
	Quantity          int     `json:"quantity" validate:"min=0"`
	LowStockThreshold int     `json:"lowStockThreshold" validate:"min=0"`
}

type saleRequest struct {
	ItemId   string `json:"itemId"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// Messages keyed by "<field>.<tag>".
var ruleMessages = map[string]string{
	"email.email":           "Invalid email",
	"name.min":              "Name is required",
	"description.min":       "Description is required",
	"purchasePrice.min":     "Purchase price must be non-negative",
	"sellingPrice.min":      "Selling price must be non-negative",
	"quantity.min":          "Quantity must be a non-negative integer",
	"lowStockThreshold.min": "Threshold must be a non-negative integer",
	"sale.quantity.min":     "Quantity must be at least 1",
}

// readObject decodes a request body that must be a JSON object.
func readObject(body io.Reader) (map[string]interface{}, error) {
	const stage = "Reading request body error."
	bytes, err := ioutil.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, newErr(stage, err)
	}
	var object map[string]interface{}
	if err := json.Unmarshal(bytes, &object); err != nil {
		return nil, newErr(stage, err)
	}
	if object == nil {
		return nil, newErr(stage, "JSON object expected")
	}
	return object, nil
}

type decoder struct {
	raw    map[string]interface{}
	errors FieldErrors
}

func newDecoder(raw map[string]interface{}) *decoder {
	return &decoder{raw: raw, errors: FieldErrors{}}
}

func (d *decoder) string(field string) string {
	value, found := d.raw[field]
	if !found {
		d.errors.add(field, requiredMessage)
		return ""
	}
	str, ok := value.(string)
	if !ok {
		d.errors.add(field, "Expected string, received "+jsonType(value))
		return ""
	}
	return str
}

// number coerces the way a lenient JSON form does: numeric strings, booleans and null are accepted.
func (d *decoder) number(field string) float64 {
	value, found := d.raw[field]
	if !found {
		d.errors.add(field, requiredMessage)
		return 0
	}
	if value == nil {
		return 0
	}
	if str, ok := value.(string); ok && strings.TrimSpace(str) == "" {
		return 0
	}
	if str, ok := value.(string); ok {
		value = strings.TrimSpace(str)
	}
	number, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		d.errors.add(field, notNumberMessage)
		return 0
	}
	return number
}

func (d *decoder) integer(field string) int {
	number := d.number(field)
	if d.errors.has(field) {
		return 0
	}
	if number != math.Trunc(number) {
		d.errors.add(field, notIntegerMessage)
		return 0
	}
	if number > maxSafeInteger {
		d.errors.add(field, tooLargeMessage)
		return 0
	}
	if number < -maxSafeInteger {
		d.errors.add(field, tooSmallMessage)
		return 0
	}
	integer, err := cast.ToIntE(number)
	if err != nil {
		d.errors.add(field, notIntegerMessage)
		return 0
	}
	return integer
}

// check applies struct rules to fields that decoded cleanly.
func (d *decoder) check(target interface{}, messagePrefix string) {
	err := validate.Struct(target)
	if err == nil {
		return
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		d.errors.add("_", err.Error())
		return
	}
	for _, fieldError := range validationErrors {
		field := fieldError.Field()
		if d.errors.has(field) {
			continue
		}
		message, found := ruleMessages[messagePrefix+field+"."+fieldError.Tag()]
		if !found {
			message, found = ruleMessages[field+"."+fieldError.Tag()]
		}
		if !found {
			message = fmt.Sprintf("Failed on the '%s' rule", fieldError.Tag())
		}
		d.errors.add(field, message)
	}
}

func (d *decoder) result() FieldErrors {
	if len(d.errors) == 0 {
		return nil
	}
	return d.errors
}

func decodeLogin(raw map[string]interface{}) (*loginRequest, FieldErrors) {
	d := newDecoder(raw)
	request := &loginRequest{
		Email:    d.string("email"),
		Password: d.string("password"),
	}
	d.check(request, "")
	return request, d.result()
}

// decodeRegister only checks presence: both values must be truthy.
func decodeRegister(raw map[string]interface{}) (*registerRequest, bool) {
	email, emailOk := raw["email"].(string)
	password, passwordOk := raw["password"].(string)
	if !emailOk || !passwordOk || email == "" || password == "" {
		return nil, false
	}
	return &registerRequest{Email: email, Password: password}, true
}

func decodeItem(raw map[string]interface{}) (*itemRequest, FieldErrors) {
	d := newDecoder(raw)
	request := &itemRequest{
		Name:              d.string("name"),
		Description:       d.string("description"),
		PurchasePrice:     d.number("purchasePrice"),
		SellingPrice:      d.number("sellingPrice"),
		Quantity:          d.integer("quantity"),
		LowStockThreshold: d.integer("lowStockThreshold"),
	}
	d.check(request, "")
	return request, d.result()
}

func decodeSale(raw map[string]interface{}) (*saleRequest, FieldErrors) {
	d := newDecoder(raw)
	request := &saleRequest{
		ItemId:   d.string("itemId"),
		Quantity: d.integer("quantity"),
	}
	d.check(request, "sale.")
	return request, d.result()
}

func jsonType(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "unknown"
	}
}
