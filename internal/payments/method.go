package payments

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

type MethodType string

const (
	MethodCard      MethodType = "card"
	MethodBankDebit MethodType = "bank_debit"
	MethodWallet    MethodType = "wallet"
)

// Method is one of CardMethod, BankDebitMethod or WalletMethod.
type Method interface {
	Type() MethodType
	isMethod()
}

type CardMethod struct {
	Brand    string `json:"brand" validate:"required"`
	Last4    string `json:"last4" validate:"required,len=4,numeric"`
	ExpMonth int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" validate:"required,min=2000"`
}

type BankDebitMethod struct {
	BankName string `json:"bank_name" validate:"required"`
	Last4    string `json:"last4" validate:"required,len=4,numeric"`
}

type WalletMethod struct {
	Wallet string `json:"wallet" validate:"required"`
}

func (CardMethod) Type() MethodType      { return MethodCard }
func (BankDebitMethod) Type() MethodType { return MethodBankDebit }
func (WalletMethod) Type() MethodType    { return MethodWallet }

func (CardMethod) isMethod()      {}
func (BankDebitMethod) isMethod() {}
func (WalletMethod) isMethod()    {}

var validate = validator.New()

// ValidateMethod reports whether every field of the variant is set.
func ValidateMethod(m Method) error {
	if m == nil {
		return fmt.Errorf("%w: empty payment method", ErrInvalidPayload)
	}
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, m.Type(), err)
	}
	return nil
}

// completeOrNil drops variants built from partial provider data.
func completeOrNil(m Method) Method {
	if ValidateMethod(m) != nil {
		return nil
	}
	return m
}

// MarshalMethod writes the variant flat, tagged by payment_method_type.
func MarshalMethod(m Method) ([]byte, error) {
	if err := ValidateMethod(m); err != nil {
		return nil, err
	}
	fields, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(fields, &out); err != nil {
		return nil, err
	}
	out["payment_method_type"] = m.Type()
	return json.Marshal(out)
}

// UnmarshalMethod decodes a payment_method_type tagged object. Unknown
// tags and missing fields are errors.
func UnmarshalMethod(raw []byte) (Method, error) {
	var tag struct {
		Type MethodType `json:"payment_method_type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var m Method
	switch tag.Type {
	case MethodCard:
		var v CardMethod
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		m = v
	case MethodBankDebit:
		var v BankDebitMethod
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		m = v
	case MethodWallet:
		var v WalletMethod
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		m = v
	default:
		return nil, fmt.Errorf("%w: unknown payment_method_type %q", ErrInvalidPayload, tag.Type)
	}

	if err := ValidateMethod(m); err != nil {
		return nil, err
	}
	return m, nil
}
